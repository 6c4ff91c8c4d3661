package tester

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihei9/argot/driver"
	"github.com/nihei9/argot/semantics"
	"github.com/nihei9/argot/spec/grammar/parser"
	tspec "github.com/nihei9/argot/spec/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grammarSrc = `grammar Calc;
s : e ;
e : e '*' e
  | e '+' e
  | '(' e ')'
  | INT
  ;
INT : [0-9]+ ;
WS : [ \t]+ -> skip ;
`

func newInterpreter(t *testing.T) *driver.Interpreter {
	t.Helper()

	tr, err := parser.Parse(strings.NewReader(grammarSrc))
	require.NoError(t, err)
	b := &semantics.Builder{
		Tree:     tr,
		FileName: "Calc.g4",
	}
	res, err := b.Build()
	require.NoError(t, err)
	i, err := driver.NewInterpreter(res.Grammar)
	require.NoError(t, err)
	return i
}

func TestTester_Run(t *testing.T) {
	tests := []struct {
		caption string
		testSrc string
		error   bool
		diffs   bool
	}{
		{
			caption: "a matching tree",
			testSrc: `
Precedence
---
1 + 2 * 3
---
(s
    (e
        (INT '1')
        ('+' '+')
        (e (INT '2') ('*' '*') (e (INT '3')))))
`,
		},
		{
			caption: "wildcard kinds",
			testSrc: `
Parentheses
---
(1)
---
(_ (_ ('(' '(') (_ (INT '1')) (')' ')')))
`,
		},
		{
			caption: "a different lexeme",
			testSrc: `
Lexeme
---
1
---
(s (e (INT '2')))
`,
			error: true,
			diffs: true,
		},
		{
			caption: "a missing node",
			testSrc: `
Shape
---
1 + 2
---
(s (e (INT '1') ('+' '+')))
`,
			error: true,
			diffs: true,
		},
		{
			caption: "a syntax error",
			testSrc: `
Syntax error
---
1 +
---
(s)
`,
			error: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			c, err := tspec.ParseTestCase(strings.NewReader(tt.testSrc))
			require.NoError(t, err)
			tester := &Tester{
				Interpreter: newInterpreter(t),
				Cases: []*TestCaseWithMetadata{
					{
						TestCase: c,
						FilePath: "case.txt",
					},
				},
			}
			rs := tester.Run()
			require.Len(t, rs, 1)
			r := rs[0]
			if !tt.error {
				assert.True(t, r.Passed(), r.String())
				assert.Equal(t, "Passed case.txt", r.String())
				return
			}
			assert.False(t, r.Passed())
			assert.Equal(t, tt.diffs, len(r.Diffs) > 0)
			assert.True(t, strings.HasPrefix(r.String(), "Failed case.txt:"))
		})
	}
}

func TestListTestCases(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("ok\n---\n1\n---\n(s (e (INT '1')))\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "broken.txt"), []byte("broken\n---\n1\n"), 0o644))

	cases := ListTestCases(dir)
	require.Len(t, cases, 2)
	assert.NoError(t, cases[0].Error)
	assert.Equal(t, filepath.Join(dir, "ok.txt"), cases[0].FilePath)
	assert.Error(t, cases[1].Error)

	rs := (&Tester{
		Interpreter: newInterpreter(t),
		Cases:       cases,
	}).Run()
	require.Len(t, rs, 2)
	assert.True(t, rs[0].Passed(), rs[0].String())
	assert.False(t, rs[1].Passed())

	missing := ListTestCases(filepath.Join(dir, "missing"))
	require.Len(t, missing, 1)
	assert.Error(t, missing[0].Error)
}
