package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nihei9/argot/tester"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	start *string
	lexer *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file path> <test file path>|<test directory path>",
		Short:   "Test a grammar",
		Example: `  argot test Expr.g4 test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	testFlags.start = cmd.Flags().String("start", "", "start rule (default: the first parser rule)")
	testFlags.lexer = cmd.Flags().String("lexer", "", "lexer grammar file path for a parser grammar")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	i, err := newInterpreter(args[0], *testFlags.lexer, cfg)
	if err != nil {
		return fmt.Errorf("cannot prepare the grammar: %w", err)
	}

	var cs []*tester.TestCaseWithMetadata
	{
		cs = tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("cannot run test")
		}
	}

	t := &tester.Tester{
		Interpreter: i,
		StartRule:   *testFlags.start,
		Cases:       cs,
	}
	rs := t.Run()
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if !r.Passed() {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("test failed")
	}
	return nil
}
