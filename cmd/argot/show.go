package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dekarrin/rosed"
	spec "github.com/nihei9/argot/spec/grammar"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <grammar file path>",
		Short:   "Print the resolved tables of a grammar in a readable format",
		Example: `  argot show Expr.g4`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := loadGrammar(args[0], cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	writeDescription(os.Stdout, res.Describe())
	return nil
}

const tableWidth = 80

var tableOpts = rosed.Options{
	TableHeaders: true,
	TableBorders: true,
}

func table(data [][]string) string {
	return rosed.Edit("").
		InsertTableOpts(0, data, tableWidth, tableOpts).
		String()
}

func writeDescription(w io.Writer, d *spec.ResolvedGrammar) {
	fmt.Fprintf(w, "# %v grammar %v\n\n", d.Type, d.Name)

	if len(d.Tokens) > 0 {
		data := [][]string{{"Token", "Type"}}
		for _, t := range d.Tokens {
			data = append(data, []string{t.Name, strconv.Itoa(t.Type)})
		}
		fmt.Fprintf(w, "%v\n\n", table(data))
	}

	if len(d.Literals) > 0 {
		data := [][]string{{"Literal", "Type"}}
		for _, t := range d.Literals {
			data = append(data, []string{t.Name, strconv.Itoa(t.Type)})
		}
		fmt.Fprintf(w, "%v\n\n", table(data))
	}

	if len(d.Channels) > 0 {
		data := [][]string{{"Channel", "Value"}}
		for _, c := range d.Channels {
			data = append(data, []string{c.Name, strconv.Itoa(c.Value)})
		}
		fmt.Fprintf(w, "%v\n\n", table(data))
	}

	{
		data := [][]string{{"#", "Rule", "Kind", "Alts", "Start"}}
		for _, r := range d.Rules {
			kind := "parser"
			switch {
			case r.Fragment:
				kind = "fragment"
			case r.Lexer:
				kind = "lexer"
				if r.Mode != "" {
					kind += " (" + r.Mode + ")"
				}
			}
			start := ""
			if r.Start {
				start = "yes"
			}
			data = append(data, []string{strconv.Itoa(r.Index), r.Name, kind, strconv.Itoa(r.Alts), start})
		}
		fmt.Fprintf(w, "%v\n\n", table(data))
	}

	for _, r := range d.Rules {
		lr := r.LeftRecursion
		if lr == nil {
			continue
		}
		data := [][]string{{"Alt", "Kind", "Prec", "Next", "Assoc", "Label"}}
		for _, a := range lr.Alts {
			next := ""
			if a.NextPrecedence != 0 {
				next = strconv.Itoa(a.NextPrecedence)
			}
			data = append(data, []string{strconv.Itoa(a.Alt), a.Kind, strconv.Itoa(a.Precedence), next, a.Assoc, a.Label})
		}
		fmt.Fprintf(w, "## left-recursive rule %v\n\n%v\n\n%v\n\n", r.Name, table(data), lr.Text)
	}
}
