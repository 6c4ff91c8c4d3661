package action

import (
	"strings"
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/grammar/leftrec"
	"github.com/nihei9/argot/spec/grammar/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrammar(t *testing.T, src string) (*grammar.Grammar, *verr.Manager) {
	t.Helper()

	tr, err := parser.Parse(strings.NewReader(src))
	require.NoError(t, err)
	errs := verr.NewManager()
	g, err := grammar.New(tr, errs, grammar.WithFileName("A.g4"))
	require.NoError(t, err)
	g.CollectRules()
	g.CheckBasics()
	leftrec.Transform(g)
	g.CollectSymbols()
	g.CheckSymbols()
	g.AssignTokenTypes()
	g.CheckRuleRefs()
	return g, errs
}

func kindNames(errs *verr.Manager) []string {
	var names []string
	for _, e := range errs.Errors() {
		if k := e.Kind(); k != nil {
			names = append(names, k.Name)
		}
	}
	return names
}

const attributeTemplate = `parser grammar A;
@members {<members>}
tokens{ID}
a[int x] returns [int y]
@init {<init>}
    :   id=ID ids+=ID lab=b[34] labs+=b[34] {
		 <inline>
		 }
		 c
    ;
    finally {<finally>}
b[int d] returns [int e]
    :   {<inline2>}
    ;
c   :   ;
`

func TestCheck(t *testing.T) {
	tests := []struct {
		location string
		action   string
		errs     []*verr.Kind
	}{
		{location: "members", action: "$a", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "members", action: "$a.y", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "members", action: "$S::i", errs: []*verr.Kind{verr.ErrUndefinedRuleInNonlocalRef}},
		{location: "members", action: "$S::i=$S::i", errs: []*verr.Kind{verr.ErrUndefinedRuleInNonlocalRef, verr.ErrUndefinedRuleInNonlocalRef}},
		{location: "members", action: "$b::f", errs: []*verr.Kind{verr.ErrUnknownRuleAttribute}},

		{location: "init", action: "$text"},
		{location: "init", action: "$start"},
		{location: "init", action: "$x = $y"},
		{location: "init", action: "$lab.e"},
		{location: "init", action: "$ids"},
		{location: "init", action: "$labs"},
		{location: "init", action: "$c", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "init", action: "$a.q", errs: []*verr.Kind{verr.ErrUnknownRuleAttribute}},
		{location: "init", action: "$a", errs: []*verr.Kind{verr.ErrIsolatedRuleRef}},
		{location: "init", action: "$b", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "init", action: "$a::z", errs: []*verr.Kind{verr.ErrUnknownRuleAttribute}},

		{location: "inline", action: "$text"},
		{location: "inline", action: "$y.b = 3;"},
		{location: "inline", action: "$ctx.x = $ctx.y"},
		{location: "inline", action: "$lab.e"},
		{location: "inline", action: "$lab.text"},
		{location: "inline", action: "$b.e"},
		{location: "inline", action: "$c.text"},
		{location: "inline", action: "$ID"},
		{location: "inline", action: "$ID.text"},
		{location: "inline", action: "$id"},
		{location: "inline", action: "$id.text"},
		{location: "inline", action: "$ids"},
		{location: "inline", action: "$labs"},
		{location: "inline", action: "$lab", errs: []*verr.Kind{verr.ErrIsolatedRuleRef}},
		{location: "inline", action: "$b", errs: []*verr.Kind{verr.ErrIsolatedRuleRef}},
		{location: "inline", action: "$q", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$q.y", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$q = 3;", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$q = $blort;", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute, verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$a.ick = 3;", errs: []*verr.Kind{verr.ErrUnknownRuleAttribute}},
		{location: "inline", action: "$b.d", errs: []*verr.Kind{verr.ErrInvalidRuleParameterRef}},
		{location: "inline", action: "$d.text", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$lab.d", errs: []*verr.Kind{verr.ErrInvalidRuleParameterRef}},
		{location: "inline", action: "$ids = null;", errs: []*verr.Kind{verr.ErrAssignmentToListLabel}},
		{location: "inline", action: "$labs = null;", errs: []*verr.Kind{verr.ErrAssignmentToListLabel}},
		{location: "inline", action: "$id.foo", errs: []*verr.Kind{verr.ErrUnknownAttributeInScope}},
		{location: "inline", action: "$Q[-1]::y", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "inline", action: "$S::j = $S::k;", errs: []*verr.Kind{verr.ErrUndefinedRuleInNonlocalRef}},

		{location: "finally", action: "$lab.text"},
		{location: "finally", action: "$id.text"},
		{location: "finally", action: "$b.e", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "finally", action: "$c.text", errs: []*verr.Kind{verr.ErrUnknownSimpleAttribute}},
		{location: "finally", action: "$lab.d", errs: []*verr.Kind{verr.ErrInvalidRuleParameterRef}},

		{location: "inline2", action: "$e = $d;"},
		{location: "inline2", action: "$a::y"},
	}
	for _, tt := range tests {
		t.Run(tt.location+" "+tt.action, func(t *testing.T) {
			r := strings.NewReplacer(
				"<members>", "",
				"<init>", "",
				"<inline>", "",
				"<finally>", "",
				"<inline2>", "",
			)
			src := strings.Replace(attributeTemplate, "<"+tt.location+">", tt.action, 1)
			g, errs := newTestGrammar(t, r.Replace(src))
			require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

			Check(g)
			var want []string
			for _, k := range tt.errs {
				want = append(want, k.Name)
			}
			assert.Equal(t, want, kindNames(errs))
		})
	}
}

func TestCheck_Position(t *testing.T) {
	tests := []struct {
		caption  string
		location string
		action   string
		index    int
		row      int
		col      int
	}{
		{
			caption:  "a reference on the line of the brace",
			location: "members",
			action:   "$a",
			row:      2,
			col:      12,
		},
		{
			caption:  "a reference on a later line",
			location: "inline",
			action:   "$q",
			row:      7,
			col:      5,
		},
		{
			caption:  "a reference on the right-hand side of an assignment",
			location: "members",
			action:   "$x = $q;",
			index:    1,
			row:      2,
			col:      17,
		},
		{
			caption:  "the attribute of a rule reference",
			location: "inline",
			action:   "$b.d",
			row:      7,
			col:      7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			r := strings.NewReplacer(
				"<members>", "",
				"<init>", "",
				"<inline>", "",
				"<finally>", "",
				"<inline2>", "",
			)
			src := strings.Replace(attributeTemplate, "<"+tt.location+">", tt.action, 1)
			g, errs := newTestGrammar(t, r.Replace(src))
			require.Zero(t, errs.ErrorCount())

			Check(g)
			es := errs.Errors()
			require.Greater(t, len(es), tt.index)
			assert.Equal(t, tt.row, es[tt.index].Row)
			assert.Equal(t, tt.col, es[tt.index].Col)
		})
	}
}

func TestCheck_LexerAction(t *testing.T) {
	tests := []struct {
		caption string
		src     string
	}{
		{
			caption: "a lexer grammar",
			src:     `lexer grammar L; A : 'a' {$text;} ;`,
		},
		{
			caption: "a lexer rule of a combined grammar",
			src:     `grammar G; s : A ; A : 'a' {$x.y;} ;`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, errs := newTestGrammar(t, tt.src)
			require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))
			Check(g)
			assert.Equal(t, []string{verr.ErrAttributeInLexerAction.Name}, kindNames(errs))
		})
	}
}

func findAction(t *testing.T, g *grammar.Grammar, kind grammar.ActionKind, text string) *grammar.Action {
	t.Helper()
	for _, a := range g.Actions {
		if a.Kind == kind && a.Text == text {
			return a
		}
	}
	t.Fatalf("no %v `%v` in the grammar", kind, text)
	return nil
}

func TestTranslate(t *testing.T) {
	const act = "$x1 = $lab.e; $y = $id.text; f($ids, $c.start, $x, $ID, $text);"
	g, errs := newTestGrammar(t, `
grammar T;
a[int x, int x1] returns [int y] : id=ID ids+=ID lab=b[34] c {`+act+`} c ;
b[int d] returns [int e] : {$e = $d;} ;
c : ID ;
ID : [a-z]+ ;
`)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))
	Check(g)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

	a := findAction(t, g, grammar.ActionKindAlt, act)
	x1 := a.Resolver.ResolveToAttribute("x1")
	require.NotNil(t, x1)
	assert.Equal(t, attr.DictKindArgument, x1.Dict.Kind)
	e := a.Resolver.ResolveToQualifiedAttribute("lab", "e")
	require.NotNil(t, e)
	assert.Equal(t, attr.DictKindReturn, e.Dict.Kind)
	assert.Equal(t, g.Rule("b").Retvals, e.Dict)

	chunks := Translate(g, a)
	assert.Equal(t, []*Chunk{
		{Kind: ChunkSetAttr, Ctx: "a", Name: "x1", RHS: []*Chunk{
			{Kind: ChunkText, Text: " "},
			{Kind: ChunkQRetValueRef, Ctx: "a", Label: "lab", Name: "e"},
		}},
		{Kind: ChunkText, Text: " "},
		{Kind: ChunkSetAttr, Ctx: "a", Name: "y", RHS: []*Chunk{
			{Kind: ChunkText, Text: " "},
			{Kind: ChunkTokenPropertyRef, Ctx: "a", Label: "id", Prop: "text"},
		}},
		{Kind: ChunkText, Text: " f("},
		{Kind: ChunkListLabelRef, Ctx: "a", Name: "ids"},
		{Kind: ChunkText, Text: ", "},
		{Kind: ChunkRulePropertyRef, Ctx: "a", Label: "c", Prop: "start"},
		{Kind: ChunkText, Text: ", "},
		{Kind: ChunkArgRef, Ctx: "a", Name: "x"},
		{Kind: ChunkText, Text: ", "},
		{Kind: ChunkTokenRef, Ctx: "a", Label: "ID"},
		{Kind: ChunkText, Text: ", "},
		{Kind: ChunkThisRulePropertyRef, Ctx: "a", Label: "a", Prop: "text"},
		{Kind: ChunkText, Text: ");"},
	}, chunks)
	assert.Equal(t, act, Render(chunks))

	b := findAction(t, g, grammar.ActionKindAlt, "$e = $d;")
	assert.Equal(t, []*Chunk{
		{Kind: ChunkSetAttr, Ctx: "b", Name: "e", RHS: []*Chunk{
			{Kind: ChunkText, Text: " "},
			{Kind: ChunkArgRef, Ctx: "b", Name: "d"},
		}},
	}, Translate(g, b))
}

func TestTranslate_ArgumentBeforeLocal(t *testing.T) {
	g, _ := newTestGrammar(t, `grammar T; s[int x] locals [int x] : {$x;} A ; A : 'a' ;`)
	a := findAction(t, g, grammar.ActionKindAlt, "$x;")
	assert.Equal(t, []*Chunk{
		{Kind: ChunkArgRef, Ctx: "s", Name: "x"},
		{Kind: ChunkText, Text: ";"},
	}, Translate(g, a))
}

func TestTranslate_Contexts(t *testing.T) {
	g, errs := newTestGrammar(t, `
grammar T;
@members { int n; }
s : A {$text;} # One | B {$text;} # Two ;
e : e '*' e {$start;} # Mul | INT # Int ;
A : 'a' ;
B : 'b' ;
INT : [0-9]+ ;
`)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

	var ctxs []string
	for _, a := range g.Actions {
		if a.Kind != grammar.ActionKindAlt || a.Text == "" {
			continue
		}
		chunks := Translate(g, a)
		require.NotEmpty(t, chunks)
		ctxs = append(ctxs, chunks[0].Ctx)
	}
	assert.Equal(t, []string{"One", "Two", "Mul"}, ctxs)

	members := g.NamedActions["parser::members"]
	require.NotNil(t, members)
	assert.Equal(t, []*Chunk{{Kind: ChunkText, Text: " int n; "}}, Translate(g, members))
}

func TestTranslate_PrecedencePredicate(t *testing.T) {
	g, errs := newTestGrammar(t, `grammar T; e : e '*' e | e '+' e | INT ; INT : [0-9]+ ;`)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))
	Check(g)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

	var preds [][]*Chunk
	for _, tr := range TranslateAll(g) {
		if tr.Action.Kind == grammar.ActionKindPredicate {
			preds = append(preds, tr.Chunks)
		}
	}
	assert.Equal(t, [][]*Chunk{
		{{Kind: ChunkText, Text: "3 >= "}, {Kind: ChunkArgRef, Ctx: "e", Name: "_p"}},
		{{Kind: ChunkText, Text: "2 >= "}, {Kind: ChunkArgRef, Ctx: "e", Name: "_p"}},
	}, preds)
}

func TestTranslate_NonLocal(t *testing.T) {
	g, errs := newTestGrammar(t, `
grammar T;
s returns [int v] : t ;
t : A {$s::v = 1; use($s::v);} ;
A : 'a' ;
`)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))
	Check(g)
	require.Zero(t, errs.ErrorCount(), "got: %v", kindNames(errs))

	a := findAction(t, g, grammar.ActionKindAlt, "$s::v = 1; use($s::v);")
	assert.Equal(t, []*Chunk{
		{Kind: ChunkSetNonLocalAttr, Ctx: "t", Rule: "s", RuleIndex: 0, Name: "v", RHS: []*Chunk{
			{Kind: ChunkText, Text: " 1"},
		}},
		{Kind: ChunkText, Text: " use("},
		{Kind: ChunkNonLocalAttrRef, Ctx: "t", Rule: "s", RuleIndex: 0, Name: "v"},
		{Kind: ChunkText, Text: ");"},
	}, Translate(g, a))
}
