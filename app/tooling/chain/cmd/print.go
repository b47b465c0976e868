package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var printIndent bool

var printCmd = &cobra.Command{
	Use:   "print [data...]",
	Short: "Mine a chain and print its blocks as JSON",
	RunE:  printRun,
}

func init() {
	printCmd.Flags().BoolVar(&printIndent, "indent", true, "Indent the JSON output.")
	rootCmd.AddCommand(printCmd)
}

func printRun(cmd *cobra.Command, args []string) error {
	c, err := buildChain(cmd.Context(), dataOrDemo(args))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if printIndent {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(c.Records()); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	return nil
}
