package grammar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTokens(t *testing.T) {
	g, _ := newTestGrammar(t, `grammar Expr; s : e EOF ; e : INT '+' INT ; INT : [0-9]+ ; PLUS : '+' ;`)
	g.CollectSymbols()
	g.AssignTokenTypes()

	var b strings.Builder
	require.NoError(t, g.WriteTokens(&b))
	assert.Equal(t, "INT=1\nPLUS=2\n'+'=2\n", b.String())
	assert.Equal(t, "Expr.tokens", g.TokensFileName())
}

func TestReadTokens(t *testing.T) {
	g, errs := newTestGrammar(t, `parser grammar P; s : ID '+' ID ;`)
	n := g.ReadTokens("L.tokens", strings.NewReader("ID=1\nPLUS=2\n\n'+'=2\nbroken line\n"))
	assert.Equal(t, 3, n)
	assert.True(t, errs.Has(verr.ErrTokensFileSyntax))

	g.CollectSymbols()
	g.AssignTokenTypes()
	num, ok := g.TokenType("'+'")
	require.True(t, ok)
	assert.Equal(t, 2, num.Int())
	assert.False(t, errs.Has(verr.ErrImplicitStringDefinition))
	assert.False(t, errs.Has(verr.ErrImplicitTokenDefinition))
}

func TestImportTokenVocab(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ExprLexer.tokens"), []byte("INT=1\nPLUS=2\n'+'=2\n"), 0644))

	tests := []struct {
		caption  string
		opts     func(dir string) []Option
		notFound bool
	}{
		{
			caption: "the tokens file next to the grammar",
			opts: func(dir string) []Option {
				return []Option{WithFileName(filepath.Join(dir, "Expr.g4"))}
			},
		},
		{
			caption: "the tokens file in the library directory",
			opts: func(dir string) []Option {
				return []Option{WithFileName(filepath.Join(t.TempDir(), "Expr.g4")), WithLibDir(dir)}
			},
		},
		{
			caption: "a missing tokens file",
			opts: func(dir string) []Option {
				return []Option{WithFileName(filepath.Join(t.TempDir(), "Expr.g4"))}
			},
			notFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, errs := newTestGrammar(t, `parser grammar Expr; options { tokenVocab = ExprLexer; } e : INT '+' INT ;`, tt.opts(dir)...)
			resolveTestGrammar(g)
			if tt.notFound {
				assert.True(t, errs.Has(verr.ErrCannotFindTokensFileInGram))
				return
			}
			require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))
			num, ok := g.TokenType("INT")
			require.True(t, ok)
			assert.Equal(t, 1, num.Int())
		})
	}
}
