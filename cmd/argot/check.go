package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "check <grammar file path>...",
		Short:   "Check grammars and print their diagnostics",
		Example: `  argot check Expr.g4 --warnings-as-errors`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runCheck,
	}
	rootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	failed := 0
	for _, path := range args {
		res, err := loadGrammar(path, cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
			continue
		}
		logger.Info("grammar checked", "path", path, "rules", len(res.Grammar.Rules()), "rewritten", len(res.Rewritten))
	}
	if failed > 0 {
		return fmt.Errorf("%v of %v grammar(s) failed", failed, len(args))
	}
	return nil
}
