package grammar

import (
	"strings"
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/parser"
)

func newTestGrammar(t *testing.T, src string, opts ...Option) (*Grammar, *verr.Manager) {
	t.Helper()

	tr, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse the grammar: %v", err)
	}
	errs := verr.NewManager()
	g, err := New(tr, errs, opts...)
	if err != nil {
		t.Fatalf("failed to create a grammar: %v", err)
	}
	g.CollectRules()
	return g, errs
}

// resolveTestGrammar runs the passes that follow the left-recursion rewrite.
func resolveTestGrammar(g *Grammar) {
	g.CollectSymbols()
	g.CheckSymbols()
	g.ImportTokenVocab()
	g.AssignTokenTypes()
	g.CheckModeConflicts()
	g.CheckUnreachableTokens()
	g.AssignChannelTypes()
	g.CheckRuleRefs()
	g.CheckLexerCommands()
}

func kindNames(errs *verr.Manager) []string {
	var names []string
	for _, e := range errs.All() {
		if k := e.Kind(); k != nil {
			names = append(names, k.Name)
		}
	}
	return names
}
