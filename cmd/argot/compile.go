package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nihei9/argot/semantics"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile <grammar file path>",
		Short:   "Resolve a grammar and write its description and token types",
		Example: `  argot compile Expr.g4 -o out`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output directory (default: output_dir of the config, or stdout and the current directory)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if *compileFlags.output != "" {
		cfg.OutputDir = *compileFlags.output
	}
	logger := newLogger(cfg)

	res, err := loadGrammar(args[0], cfg, logger)
	if err != nil {
		return err
	}

	err = writeResolvedGrammar(res, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot write the output files: %w", err)
	}
	return nil
}

// writeResolvedGrammar writes <dir>/<grammar-name>.json and the .tokens file of the grammar. When dir is empty,
// the description goes to stdout and the .tokens file to the current directory.
func writeResolvedGrammar(res *semantics.Result, dir string) error {
	g := res.Grammar
	b, err := json.Marshal(res.Describe())
	if err != nil {
		return err
	}

	if dir == "" {
		fmt.Fprintf(os.Stdout, "%v\n", string(b))
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		err := os.WriteFile(filepath.Join(dir, g.Name+".json"), append(b, '\n'), 0644)
		if err != nil {
			return err
		}
	}

	f, err := os.OpenFile(filepath.Join(dir, g.TokensFileName()), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return g.WriteTokens(f)
}
