package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tamperIndex uint64
	tamperData  string
)

var tamperCmd = &cobra.Command{
	Use:   "tamper [data...]",
	Short: "Mine a chain, overwrite one block's data and validate it again",
	RunE:  tamperRun,
}

func init() {
	tamperCmd.Flags().Uint64VarP(&tamperIndex, "index", "i", 1, "Index of the block to tamper with.")
	tamperCmd.Flags().StringVar(&tamperData, "data", "Alice sends 100 BTC to Bob", "Data to write into the block.")
	rootCmd.AddCommand(tamperCmd)
}

func tamperRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	c, err := buildChain(cmd.Context(), dataOrDemo(args))
	if err != nil {
		return err
	}

	blocks := c.Blocks()
	if tamperIndex >= uint64(len(blocks)) {
		return fmt.Errorf("index %d out of range, chain has %d blocks", tamperIndex, len(blocks))
	}

	fmt.Fprintf(out, "before: %s\n", c.Validate())

	blk := blocks[tamperIndex]
	original := blk.Data
	fmt.Fprintf(out, "block %d: %q -> %q\n", tamperIndex, original, tamperData)
	blk.Data = tamperData

	after := c.Validate()
	fmt.Fprintf(out, "after:  %s\n", after)

	if after.Valid && tamperData != original {
		return fmt.Errorf("tampering with block %d was not detected", tamperIndex)
	}

	if !after.Valid {
		fmt.Fprintf(out, "detected: block_index[%d] reason[%s]\n", after.Index, after.Reason)
	}

	return nil
}
