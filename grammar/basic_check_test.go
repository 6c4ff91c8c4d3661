package grammar

import (
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/stretchr/testify/assert"
)

func TestCheckBasics(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		errs    []*verr.Kind
	}{
		{
			caption: "a well-formed combined grammar passes",
			src: `
grammar G;
options { caseInsensitive = false; }
tokens { X }
s : e EOF ;
e : INT # Int | '(' e ')' # Paren ;
INT : [0-9]+ ;
WS : [ \t]+ -> skip ;
`,
		},
		{
			caption: "a lexer grammar must not contain parser rules",
			src:     `lexer grammar L; a : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrParserRulesNotAllowed},
		},
		{
			caption: "a parser grammar must not contain lexer rules",
			src:     `parser grammar P; a : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrLexerRulesNotAllowed},
		},
		{
			caption: "options may appear once",
			src:     `grammar G; options { language = Go; } options { language = Go; } a : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrRepeatedPrequel},
		},
		{
			caption: "names in the tokens block must start with an uppercase letter",
			src:     `grammar G; tokens { x } a : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrTokenNamesMustStartUpper},
		},
		{
			caption: "a combined grammar cannot define channels",
			src:     `grammar G; channels { C } a : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrChannelsBlockInCombinedGrammar},
		},
		{
			caption: "a parser grammar cannot define channels",
			src:     `parser grammar P; channels { C } a : A ;`,
			errs:    []*verr.Kind{verr.ErrChannelsBlockInParserGrammar},
		},
		{
			caption: "a mode needs a non-fragment rule",
			src:     `lexer grammar L; A : 'a' ; mode M; fragment B : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrModeWithoutRules},
		},
		{
			caption: "modes belong to lexer grammars",
			src:     `grammar G; a : A ; A : 'a' ; mode M; B : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrModeNotInLexer},
		},
		{
			caption: "a grammar needs rules",
			src:     `grammar G; options { language = Go; }`,
			errs:    []*verr.Kind{verr.ErrNoRules},
		},
		{
			caption: "alternatives are labeled all or none",
			src:     `grammar G; a : A # X | B ; A : 'a' ; B : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrRuleWithTooFewAltLabels},
		},
		{
			caption: "an alternative label must not name a rule",
			src:     `grammar G; a : A # B1 | b1 # C ; b1 : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrAltLabelConflictsWithRule},
		},
		{
			caption: "an alternative label belongs to one rule",
			src:     `grammar G; a : A # X | B # Y ; b : A # X | B # Z ; A : 'a' ; B : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrAltLabelRedef},
		},
		{
			caption: "a label assigned to a block of sequences",
			src:     `grammar G; a : x=(A B) ; A : 'a' ; B : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrLabelBlockNotASet},
		},
		{
			caption: "an empty string literal",
			src:     `grammar G; a : '' ;`,
			errs:    []*verr.Kind{verr.ErrEmptyStringsAndSetsNotAllowed},
		},
		{
			caption: "an unknown grammar option",
			src:     `grammar G; options { foo = 1; } a : A ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrIllegalOption},
		},
		{
			caption: "an illegal value of caseInsensitive",
			src:     `lexer grammar L; options { caseInsensitive = maybe; } A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrIllegalOptionValue},
		},
		{
			caption: "assoc on a token reference",
			src:     `grammar G; a : A<assoc=right> ; A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrUnrecognizedAssocOption},
		},
		{
			caption: "an unknown lexer command",
			src:     `lexer grammar L; A : 'a' -> jump ;`,
			errs:    []*verr.Kind{verr.ErrInvalidLexerCommand},
		},
		{
			caption: "a lexer command missing its argument",
			src:     `lexer grammar L; A : 'a' -> pushMode ;`,
			errs:    []*verr.Kind{verr.ErrMissingLexerCommandArgument},
		},
		{
			caption: "a lexer command given an unwanted argument",
			src:     `lexer grammar L; A : 'a' -> skip(X) ;`,
			errs:    []*verr.Kind{verr.ErrUnwantedLexerCommandArgument},
		},
		{
			caption: "lexer commands in a rule of several alternatives",
			src:     `lexer grammar L; A : 'a' -> skip | 'b' ;`,
			errs:    []*verr.Kind{verr.ErrLexerCommandPlacementIssue},
		},
		{
			caption: "an action in a fragment rule",
			src:     `lexer grammar L; A : B ; fragment B : 'b' {count++;} ;`,
			errs:    []*verr.Kind{verr.ErrFragmentActionIgnored},
		},
		{
			caption: "a parser rule referenced from a lexer rule",
			src:     `grammar G; a : A ; A : b ; b : 'b' ;`,
			errs:    []*verr.Kind{verr.ErrParserRuleRefInLexerRule},
		},
		{
			caption: "a lexer rule with an access modifier",
			src:     `lexer grammar L; public A : 'a' ;`,
			errs:    []*verr.Kind{verr.ErrInvalidRuleModifier},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, errs := newTestGrammar(t, tt.src)
			g.CheckBasics()
			if len(tt.errs) == 0 {
				assert.Empty(t, kindNames(errs))
				return
			}
			for _, k := range tt.errs {
				assert.True(t, errs.Has(k), "%v was not reported; got: %v", k.Name, kindNames(errs))
			}
		})
	}
}

func TestCheckBasics_ErrorPosition(t *testing.T) {
	g, errs := newTestGrammar(t, "parser grammar P;\na : A ;\nB : 'b' ;\n")
	g.CheckBasics()
	es := errs.Errors()
	if assert.Len(t, es, 1) {
		assert.Equal(t, 3, es[0].Row)
		assert.Equal(t, 1, es[0].Col)
	}
}
