package grammar

import (
	"testing"

	"github.com/nihei9/argot/grammar/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTokenTypes(t *testing.T) {
	tests := []struct {
		caption  string
		src      string
		types    map[string]int
		absent   []string
		implicit []ImplicitToken
	}{
		{
			caption: "a lexer grammar types tokens{} names, then rules, then aliases",
			src: `
lexer grammar L;
tokens { T0 }
A : 'a' ;
B : [b]+ ;
fragment F : 'f' ;
`,
			types: map[string]int{
				"T0":  1,
				"A":   2,
				"B":   3,
				"'a'": 2,
			},
			absent: []string{"F", "'f'"},
		},
		{
			caption: "rules with a type command get no type of their own",
			src: `
lexer grammar L;
A : [a]+ ;
A2 : 'a' 'a' -> type(A) ;
`,
			types: map[string]int{
				"A": 1,
			},
			absent: []string{"A2"},
		},
		{
			caption: "a literal matched by two rules is dropped",
			src: `
lexer grammar L;
A : 'x' ;
B : 'x' ;
`,
			types: map[string]int{
				"A": 1,
				"B": 2,
			},
			absent: []string{"'x'"},
		},
		{
			caption: "a combined grammar types implicit tokens first",
			src: `
grammar G;
s : 'x' A '+' 'y' 'x' ;
A : 'a' ;
PLUS : '+' ;
`,
			types: map[string]int{
				"T__0": 1,
				"'x'":  1,
				"T__1": 2,
				"'y'":  2,
				"A":    3,
				"PLUS": 4,
				"'a'":  3,
				"'+'":  4,
			},
			implicit: []ImplicitToken{
				{Name: "T__0", Literal: "'x'"},
				{Name: "T__1", Literal: "'y'"},
			},
		},
		{
			caption: "a parser grammar types tokens{} names and then references",
			src: `
parser grammar P;
tokens { A, B }
s : C B A ;
`,
			types: map[string]int{
				"A": 1,
				"B": 2,
				"C": 3,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, _ := newTestGrammar(t, tt.src)
			g.CollectSymbols()
			g.AssignTokenTypes()
			for name, want := range tt.types {
				num, ok := g.TokenType(name)
				if assert.True(t, ok, "%v has no type", name) {
					assert.Equal(t, want, num.Int(), name)
				}
			}
			for _, name := range tt.absent {
				_, ok := g.TokenType(name)
				assert.False(t, ok, "%v must have no type", name)
			}
			assert.Equal(t, tt.implicit, g.ImplicitTokens)
		})
	}
}

func TestAssignChannelTypes(t *testing.T) {
	g, errs := newTestGrammar(t, `lexer grammar L; channels { WS_CHANNEL, COMMENTS } A : 'a' -> channel(COMMENTS) ;`)
	resolveTestGrammar(g)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

	for _, tt := range []struct {
		name string
		num  symbol.Num
	}{
		{name: "DEFAULT_TOKEN_CHANNEL", num: symbol.ChannelDefault},
		{name: "HIDDEN", num: symbol.ChannelHidden},
		{name: "WS_CHANNEL", num: 2},
		{name: "COMMENTS", num: 3},
	} {
		num, ok := g.ChannelValue(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.num, num, tt.name)
	}
}

func TestTokenDisplayName(t *testing.T) {
	g, _ := newTestGrammar(t, `grammar G; s : '(' A ')' ; A : 'a' ;`)
	g.CollectSymbols()
	g.AssignTokenTypes()

	assert.Equal(t, "T__0", g.TokenDisplayName(1))
	assert.Equal(t, "A", g.TokenDisplayName(3))
	assert.Equal(t, "EOF", g.TokenDisplayName(symbol.TokenTypeEOF))
	assert.Equal(t, "<42>", g.TokenDisplayName(42))
}
