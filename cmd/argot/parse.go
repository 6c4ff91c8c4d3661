package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nihei9/argot/config"
	"github.com/nihei9/argot/driver"
	"github.com/nihei9/argot/grammar"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source *string
	start  *string
	lexer  *string
	tokens *bool
	sexp   *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar file path>",
		Short:   "Interpret a grammar over a text stream",
		Example: `  echo '1 + 2 * 3' | argot parse Expr.g4 --start e`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.start = cmd.Flags().String("start", "", "start rule (default: the first parser rule)")
	parseFlags.lexer = cmd.Flags().String("lexer", "", "lexer grammar file path for a parser grammar")
	parseFlags.tokens = cmd.Flags().Bool("tokens", false, "print the tokens instead of a tree")
	parseFlags.sexp = cmd.Flags().Bool("sexp", false, "print the tree on one line in test case notation")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	i, err := newInterpreter(args[0], *parseFlags.lexer, cfg)
	if err != nil {
		return err
	}

	var src io.Reader = os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	if *parseFlags.tokens {
		toks, err := i.Tokenize(src)
		if err != nil {
			return err
		}
		for _, tok := range toks {
			writeToken(os.Stdout, tok)
		}
		return nil
	}

	tree, err := i.Parse(*parseFlags.start, src)
	if err != nil {
		return err
	}
	if *parseFlags.sexp {
		fmt.Fprintln(os.Stdout, tree)
		return nil
	}
	driver.PrintTree(os.Stdout, tree)
	return nil
}

func writeToken(w io.Writer, tok *driver.Token) {
	switch {
	case tok.EOF:
		fmt.Fprintf(w, "%v:%v: <EOF>\n", tok.Row, tok.Col)
	case tok.Invalid:
		fmt.Fprintf(w, "%v:%v: %v (<invalid>)\n", tok.Row, tok.Col, driver.QuoteText(tok.Text))
	default:
		fmt.Fprintf(w, "%v:%v: %v %v channel=%v\n", tok.Row, tok.Col, tok.Name, driver.QuoteText(tok.Text), tok.Channel.Int())
	}
}

// newInterpreter resolves a grammar, and its lexer grammar when one is given, and prepares an interpreter.
func newInterpreter(grammarPath, lexerPath string, cfg *config.Config) (*driver.Interpreter, error) {
	logger := newLogger(cfg)
	res, err := loadGrammar(grammarPath, cfg, logger)
	if err != nil {
		return nil, err
	}
	var opts []driver.InterpreterOption
	if lexerPath != "" {
		lres, err := loadGrammar(lexerPath, cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, driver.WithLexerGrammar(lres.Grammar))
	} else if res.Grammar.Type == grammar.TypeParser {
		return nil, fmt.Errorf("%v is a parser grammar; give its lexer grammar with --lexer", grammarPath)
	}
	return driver.NewInterpreter(res.Grammar, opts...)
}
