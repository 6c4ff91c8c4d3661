package parser

import (
	"errors"
	"strings"
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Format(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		want    string
	}{
		{
			caption: "a parser rule with labels, arguments, options, and an alternative label",
			src:     `grammar T; a : ID* x+=b[1]<p=2> | '(' e ')' # Paren ;`,
			want:    "grammar T;\n\na\n    : ID* x+=b[1]<p=2>\n    | '(' e ')' # Paren\n    ;\n",
		},
		{
			caption: "blocks, EBNF suffixes, and non-greedy loops",
			src:     `parser grammar T; a : (A | B C)+ D?? (E)* ;`,
			want:    "parser grammar T;\n\na\n    : (A | B C)+ D?? E*\n    ;\n",
		},
		{
			caption: "actions, predicates, and alternative options",
			src:     `grammar T; e : <assoc=right> e '^' e {$v = 1;} | {p()}?<fail='no'> INT ;`,
			want:    "grammar T;\n\ne\n    : <assoc=right> e '^' e {$v = 1;}\n    | {p()}?<fail='no'> INT\n    ;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tr, err := Parse(strings.NewReader(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.Format(tr, tr.Root))
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	srcs := []string{
		`
lexer grammar L;
channels { WS_CHANNEL, COMMENTS }
options { superClass = a.b.Base; }

ID : [a-zA-Z_]+ ;
fragment DIGIT : '0'..'9' ;
INT : DIGIT+ ;
STR : '"' ~["\r\n]* '"' -> pushMode(S) ;
WS : [ \t\r\n]+ -> channel(HIDDEN) ;
ANY : . -> skip ;
NOT_AB : ~('a' | 'b') ;

mode S;
END : '"' -> popMode, type(STR) ;
`,
		`
grammar Expr;
options { tokenVocab = ExprLexer; }
tokens { A, B }
@header { package expr; }
@parser::members { int depth = 0; }

public s[int x] returns [int v] locals [String s = null]
    options { k = 1; }
    @init { $v = 0; }
    @after { depth--; }
    : e {$v = $e.v;} EOF
    ;
    catch [Exception e] { report(e); }
    finally { cleanup(); }

e returns [int v]
    : a=e op=('*' | '/') b=e # Mul
    | <assoc=right> e '^' e # Pow
    | INT # Int
    | ids+=ID (',' ids+=ID)* # List
    | # Empty
    ;
`,
	}
	for _, src := range srcs {
		tr, err := Parse(strings.NewReader(src))
		require.NoError(t, err)
		text := tree.Format(tr, tr.Root)

		tr2, err := Parse(strings.NewReader(text))
		require.NoError(t, err, text)
		assert.Equal(t, text, tree.Format(tr2, tr2.Root))
	}
}

func TestParse_LexerGrammar(t *testing.T) {
	tr, err := Parse(strings.NewReader(`
lexer grammar L;
channels { C }
fragment DIGIT : [0-9] ;
STR : '"' ~["]* '"' -> pushMode(S) ;
mode S;
END : '"' -> popMode ;
`))
	require.NoError(t, err)

	g := tr.Root
	assert.Equal(t, tree.KindGrammar, tr.Kind(g))
	assert.Equal(t, "L", tr.Text(g))
	assert.Equal(t, "lexer", tr.Node(g).Scope)

	chs := tr.FirstChildOfKind(g, tree.KindChannelsSpec)
	require.NotEqual(t, tree.Nil, chs)
	assert.Equal(t, "C", tr.Text(tr.Child(chs, 0)))

	rules := tr.ChildrenOfKind(g, tree.KindRule)
	require.Len(t, rules, 2)

	digit := rules[0]
	assert.Equal(t, "DIGIT", tr.Text(digit))
	mod := tr.FirstChildOfKind(digit, tree.KindModifier)
	require.NotEqual(t, tree.Nil, mod)
	assert.Equal(t, "fragment", tr.Text(mod))
	sets := tr.Find(digit, tree.KindCharSet)
	require.Len(t, sets, 1)
	assert.Equal(t, "[0-9]", tr.Text(sets[0]))

	str := rules[1]
	alt := tr.Child(tr.FirstChildOfKind(str, tree.KindBlock), 0)
	require.Equal(t, 4, tr.ChildCount(alt))
	assert.Equal(t, tree.KindStringLiteral, tr.Kind(tr.Child(alt, 0)))
	closure := tr.Child(alt, 1)
	assert.Equal(t, tree.KindClosure, tr.Kind(closure))
	not := tr.Find(closure, tree.KindNot)
	require.Len(t, not, 1)
	assert.Equal(t, tree.KindSet, tr.Kind(tr.Child(not[0], 0)))
	cmds := tr.Child(alt, 3)
	assert.Equal(t, tree.KindLexerCommands, tr.Kind(cmds))
	cmd := tr.Node(tr.Child(cmds, 0))
	assert.Equal(t, "pushMode", cmd.Text)
	assert.True(t, cmd.HasArg)
	assert.Equal(t, "S", cmd.Arg)

	modes := tr.ChildrenOfKind(g, tree.KindMode)
	require.Len(t, modes, 1)
	assert.Equal(t, "S", tr.Text(modes[0]))
	assert.Len(t, tr.ChildrenOfKind(modes[0], tree.KindRule), 1)
}

func TestParse_Positions(t *testing.T) {
	src := "grammar T;\na : x=B c ;\n"
	tr, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	r := tr.FirstChildOfKind(tr.Root, tree.KindRule)
	assert.Equal(t, tree.Position{Row: 2, Col: 1, Offset: 11}, tr.Node(r).Pos)

	labels := tr.Find(r, tree.KindAssign)
	require.Len(t, labels, 1)
	assert.Equal(t, tree.Position{Row: 2, Col: 5, Offset: 15}, tr.Node(labels[0]).Pos)
	refs := tr.Find(r, tree.KindRuleRef)
	require.Len(t, refs, 1)
	assert.Equal(t, tree.Position{Row: 2, Col: 9, Offset: 19}, tr.Node(refs[0]).Pos)
}

func TestParseRule(t *testing.T) {
	tr := tree.New()
	r, err := ParseRule(tr, "e[int _p]\n    : (INT) ({3 >= $_p}?<p=3> '*' e<p=4>)*\n    ;")
	require.NoError(t, err)
	assert.Equal(t, tree.KindRule, tr.Kind(r))
	assert.Equal(t, "e", tr.Text(r))
	assert.Equal(t, tree.Nil, tr.Parent(r))
	preds := tr.Find(r, tree.KindSempred)
	require.Len(t, preds, 1)
	v, ok := tr.Option(preds[0], "p")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, err = ParseRule(tr, "grammar T;")
	assert.Error(t, err)
	_, err = ParseRule(tr, "a : A ; b : B ;")
	assert.Error(t, err)
}

func TestParse_SyntaxError(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		synErr  *SyntaxError
	}{
		{
			caption: "a grammar declaration is required",
			src:     `a : A ;`,
			synErr:  synErrNoGrammarDecl,
		},
		{
			caption: "a rule needs a colon",
			src:     `grammar T; a A ;`,
			synErr:  synErrNoColon,
		},
		{
			caption: "a rule needs a semicolon",
			src:     `grammar T; a : A`,
			synErr:  synErrNoSemicolon,
		},
		{
			caption: "a block must be closed",
			src:     `grammar T; a : (A | B ;`,
			synErr:  synErrUnclosedBlock,
		},
		{
			caption: "a label must be followed by an element",
			src:     `grammar T; a : x= ;`,
			synErr:  synErrLabelWithNoElement,
		},
		{
			caption: "an alternative label cannot appear in a nested block",
			src:     `grammar T; a : (A # X) ;`,
			synErr:  synErrUnclosedBlock,
		},
		{
			caption: "a range needs an end",
			src:     `lexer grammar L; A : 'a'.. ;`,
			synErr:  synErrNoRangeEnd,
		},
		{
			caption: "element options must be closed",
			src:     `grammar T; a : A<x=1 ;`,
			synErr:  synErrUnclosedElemOptions,
		},
		{
			caption: "prequels cannot follow rules",
			src:     `grammar T; a : A ; tokens { B }`,
			synErr:  synErrUnexpectedAfterRules,
		},
		{
			caption: "an invalid character is reported",
			src:     `grammar T; a : A ! ;`,
			synErr:  synErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, verr.ErrSyntax))
			var specErr *verr.SpecError
			require.True(t, errors.As(err, &specErr))
			assert.Equal(t, verr.ErrSyntax.Format(tt.synErr), specErr.Detail)
			assert.NotZero(t, specErr.Row)
		})
	}
}
