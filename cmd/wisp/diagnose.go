package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wisp/internal/diagfmt"
	"wisp/internal/driver"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <file>...",
	Short: "Lex and parse files in parallel, reporting diagnostics only",
	Args:  cobra.MinimumNArgs(1),
	RunE:  diagnoseExecution,
}

func diagnoseExecution(cmd *cobra.Command, args []string) error {
	maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")
	opts := diagfmt.DefaultPrettyOpts(useColor(cmd))

	failed := false
	for _, report := range driver.DiagnoseFiles(args, maxDiag) {
		if report.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", report.Path, report.Err)
			failed = true
			continue
		}
		diagfmt.Pretty(os.Stderr, report.Bag, report.FS, opts)
		if report.Bag.HasErrors() {
			failed = true
		}
	}
	if failed {
		cmd.SilenceUsage = true
		os.Exit(1)
	}
	return nil
}
