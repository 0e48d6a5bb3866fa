package main

import (
	"os"

	"github.com/spf13/cobra"

	"wisp/internal/diag"
	"wisp/internal/diagfmt"
	"wisp/internal/lexer"
	"wisp/internal/source"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Print the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  tokenizeExecution,
}

func tokenizeExecution(cmd *cobra.Command, args []string) error {
	maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiag)
	toks := lexer.Tokenize(fs.Get(id), diag.BagReporter{Bag: bag})
	diagfmt.Tokens(os.Stdout, toks, fs)

	if bag.Len() > 0 {
		bag.Sort()
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.DefaultPrettyOpts(useColor(cmd)))
	}
	if bag.HasErrors() {
		cmd.SilenceUsage = true
		os.Exit(1)
	}
	return nil
}
