package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine [data...]",
	Short: "Mine a chain with one block per data argument",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	start := time.Now()
	c, err := buildChain(cmd.Context(), dataOrDemo(args))
	if err != nil {
		return err
	}
	took := time.Since(start)

	for _, blk := range c.Blocks() {
		fmt.Fprintln(out, blk)
	}

	fmt.Fprintf(out, "\nblocks: %d  difficulty: %d  prefix: %q  took: %s\n",
		c.Len(), c.Difficulty(), strings.Repeat("0", int(c.Difficulty())), took.Round(time.Millisecond))
	fmt.Fprintln(out, c.Validate())

	return nil
}
