package semantics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihei9/argot/action"
	"github.com/nihei9/argot/config"
	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/spec/grammar/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string, cfg *config.Config) (*Result, *verr.Manager, error) {
	t.Helper()

	tr, err := parser.Parse(strings.NewReader(src))
	require.NoError(t, err)
	errs := verr.NewManager()
	b := &Builder{
		Tree:     tr,
		FileName: "G.g4",
		Config:   cfg,
		Errs:     errs,
	}
	res, err := b.Build()
	return res, errs, err
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		stage   Stage
		kind    *verr.Kind
	}{
		{
			caption: "a grammar passing every stage",
			src: `grammar G;
e returns [int v]
    : e '*' e {$v = 1;}
    | INT {$v = $INT.int;}
    ;
INT : [0-9]+ ;
`,
			stage: StageActions,
		},
		{
			caption: "a parser rule in a lexer grammar stops at collection",
			src:     `lexer grammar L; a : 'x' ;`,
			stage:   StageCollection,
			kind:    verr.ErrParserRulesNotAllowed,
		},
		{
			caption: "a left-recursive rule without a primary alternative stops at left recursion",
			src:     `grammar G; e : e '+' e ; A : 'a' ;`,
			stage:   StageLeftRecursion,
			kind:    verr.ErrNoNonLRAlts,
		},
		{
			caption: "a reference to an undefined rule stops at symbols",
			src:     `grammar G; a : b ; A : 'a' ;`,
			stage:   StageSymbols,
			kind:    verr.ErrUndefinedRuleRef,
		},
		{
			caption: "an unknown attribute stops at actions",
			src:     `grammar G; a : A {$q} ; A : 'a' ;`,
			stage:   StageActions,
			kind:    verr.ErrUnknownSimpleAttribute,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			res, errs, err := build(t, tt.src, nil)
			require.NotNil(t, res)
			assert.Equal(t, tt.stage, res.Stage)
			if tt.kind == nil {
				require.NoError(t, err)
				assert.True(t, res.Complete())
				return
			}
			require.Error(t, err)
			assert.IsType(t, verr.SpecErrors{}, err)
			assert.True(t, errs.Has(tt.kind))
			assert.False(t, res.Complete())
			assert.Nil(t, res.Actions)
		})
	}
}

func TestBuilder_Build_Translations(t *testing.T) {
	res, _, err := build(t, `grammar G;
e returns [int v]
    : e '*' e {$v = 1;}
    | INT {$v = $INT.int;}
    ;
INT : [0-9]+ ;
`, nil)
	require.NoError(t, err)

	if assert.Len(t, res.Rewritten, 1) {
		assert.Equal(t, "e", res.Rewritten[0].Name)
	}
	var alts []*action.Translation
	for _, tr := range res.Actions {
		if tr.Action.Kind == grammar.ActionKindAlt {
			alts = append(alts, tr)
		}
	}
	// The empty action opening the primary block of the rewritten rule is not one of them.
	require.Len(t, alts, 2)
	var intAlt *action.Translation
	for _, tr := range alts {
		require.NotEmpty(t, tr.Chunks)
		assert.Equal(t, action.ChunkSetAttr, tr.Chunks[0].Kind)
		if tr.Action.Text == "$v = $INT.int;" {
			intAlt = tr
		}
	}
	require.NotNil(t, intAlt)
	var refs []*action.Chunk
	for _, c := range intAlt.Chunks[0].RHS {
		if c.Kind != action.ChunkText {
			refs = append(refs, c)
		}
	}
	if assert.Len(t, refs, 1) {
		assert.Equal(t, action.ChunkTokenPropertyRef, refs[0].Kind)
		assert.Equal(t, "INT", refs[0].Label)
		assert.Equal(t, "int", refs[0].Prop)
	}
}

func TestBuilder_Build_Defines(t *testing.T) {
	cfg := config.Default()
	cfg.Defines["superClass"] = "Base"
	cfg.Defines["language"] = "Go"
	res, _, err := build(t, `grammar G; options { language = Java; } a : A ; A : 'a' ;`, cfg)
	require.NoError(t, err)

	v, ok := res.Grammar.Option("superClass")
	assert.True(t, ok)
	assert.Equal(t, "Base", v)
	v, ok = res.Grammar.Option("language")
	assert.True(t, ok)
	assert.Equal(t, "Go", v)
}

func writeGrammar(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("a valid grammar", func(t *testing.T) {
		path := writeGrammar(t, "G.g4", `grammar G; a : A ; A : 'a' ;`)
		res, errs, err := Load(path, nil, nil)
		require.NoError(t, err)
		assert.True(t, res.Complete())
		assert.Equal(t, 0, errs.ErrorCount())
		assert.Equal(t, "G", res.Grammar.Name)
	})

	t.Run("a syntax error", func(t *testing.T) {
		path := writeGrammar(t, "G.g4", `grammar G; a : ( ;`)
		res, errs, err := Load(path, nil, nil)
		require.Error(t, err)
		assert.Nil(t, res)
		require.NotNil(t, errs)
		assert.True(t, errs.Has(verr.ErrSyntax))
		assert.Equal(t, path, errs.All()[0].FilePath)
	})

	t.Run("a missing file", func(t *testing.T) {
		_, errs, err := Load(filepath.Join(t.TempDir(), "none.g4"), nil, nil)
		require.Error(t, err)
		assert.Nil(t, errs)
	})

	t.Run("warnings pass unless they are errors", func(t *testing.T) {
		path := writeGrammar(t, "P.g4", `parser grammar P; a : A ;`)
		res, errs, err := Load(path, config.Default(), nil)
		require.NoError(t, err)
		assert.True(t, res.Complete())
		assert.True(t, errs.Has(verr.ErrImplicitTokenDefinition))

		cfg := config.Default()
		cfg.WarningsAreErrors = true
		res, errs, err = Load(path, cfg, nil)
		require.Error(t, err)
		assert.Equal(t, StageSymbols, res.Stage)
		assert.True(t, errs.Has(verr.ErrWarningTreatedAsError))
	})
}

func TestResult_Describe(t *testing.T) {
	res, _, err := build(t, `grammar G;
options { language = Go; }
s : e ;
e returns [int v]
    : e '*' e {$v = 1;}   # Mul
    | INT                 # Int
    ;
INT : [0-9]+ ;
WS : ' '+ -> channel(HIDDEN) ;
`, nil)
	require.NoError(t, err)
	d := res.Describe()

	assert.Equal(t, "G", d.Name)
	assert.Equal(t, "combined", d.Type)
	assert.Equal(t, map[string]string{"language": "Go"}, d.Options)
	assert.Empty(t, d.Modes)

	tokens := map[string]int{}
	for _, tok := range d.Tokens {
		tokens[tok.Name] = tok.Type
	}
	assert.Contains(t, tokens, "INT")
	assert.Contains(t, tokens, "WS")
	literals := map[string]int{}
	for _, lit := range d.Literals {
		literals[lit.Name] = lit.Type
	}
	assert.Equal(t, tokens["T__0"], literals["'*'"])

	rules := map[string]int{}
	for i, r := range d.Rules {
		rules[r.Name] = i
	}
	require.Contains(t, rules, "s")
	require.Contains(t, rules, "e")
	s := d.Rules[rules["s"]]
	assert.True(t, s.Start)
	assert.Nil(t, s.LeftRecursion)

	e := d.Rules[rules["e"]]
	assert.False(t, e.Start)
	assert.Equal(t, 2, e.Alts)
	if assert.Len(t, e.Returns, 1) {
		assert.Equal(t, "v", e.Returns[0].Name)
		assert.Equal(t, "int", e.Returns[0].Type)
	}
	require.NotNil(t, e.LeftRecursion)
	assert.NotEmpty(t, e.LeftRecursion.Text)
	require.Len(t, e.LeftRecursion.Alts, 2)
	mul := e.LeftRecursion.Alts[0]
	assert.Equal(t, 1, mul.Alt)
	assert.Equal(t, "binary", mul.Kind)
	assert.Equal(t, 2, mul.Precedence)
	assert.Equal(t, "Mul", mul.Label)
	assert.Equal(t, "Int", e.LeftRecursion.Alts[1].Label)

	ws := d.Rules[rules["WS"]]
	assert.True(t, ws.Lexer)
	assert.Equal(t, "DEFAULT_MODE", ws.Mode)

	var found bool
	for _, a := range d.Actions {
		if a.Rule == "e" && a.Kind == grammar.ActionKindAlt.String() {
			found = true
			require.NotEmpty(t, a.Chunks)
			assert.Equal(t, action.ChunkSetAttr, a.Chunks[0].Kind)
		}
	}
	assert.True(t, found)
}
