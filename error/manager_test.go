package error

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pos struct {
	row int
	col int
}

func (p pos) Location() (int, int) {
	return p.row, p.col
}

func TestManager_Report(t *testing.T) {
	assert := assert.New(t)

	m := NewManager(WithSource("T.g4", "T.g4"))
	m.Report(ErrRuleRedefinition, pos{row: 3, col: 1}, "a", 1)
	m.Report(ErrImplicitTokenDefinition, pos{row: 4, col: 5}, "ID")

	assert.Equal(1, m.ErrorCount())
	assert.Equal(1, m.WarningCount())
	assert.Len(m.All(), 2)
	assert.Len(m.Errors(), 1)
	assert.Len(m.Warnings(), 1)
	assert.True(m.Has(ErrRuleRedefinition))
	assert.False(m.Has(ErrNoRules))

	e := m.Errors()[0]
	assert.True(errors.Is(e, ErrRuleRedefinition))
	assert.Equal("rule a redefinition; previous at line 1", e.Detail)
	assert.Equal(3, e.Row)
	assert.Equal(1, e.Col)
	assert.Equal("error(51): T.g4:3:1: rule a redefinition; previous at line 1", m.Format(e))
}

func TestManager_WarningsAreErrors(t *testing.T) {
	assert := assert.New(t)

	m := NewManager(WarningsAreErrors())
	m.Report(ErrImplicitTokenDefinition, nil, "ID")
	m.Report(ErrImplicitTokenDefinition, nil, "INT")

	assert.Equal(2, m.ErrorCount())
	assert.Equal(2, m.WarningCount())
	// The promotion notice is emitted once.
	n := 0
	for _, e := range m.All() {
		if e.Cause == ErrWarningTreatedAsError {
			n++
		}
	}
	assert.Equal(1, n)
}

func TestManager_Fatal(t *testing.T) {
	m := NewManager()
	m.Report(ErrInternal, nil, "splice", "missing block")
	assert.True(t, m.Fatal())
	assert.Equal(t, 1, m.ErrorCount())
}

func TestManager_Format(t *testing.T) {
	tests := []struct {
		caption string
		format  MessageFormat
		want    string
	}{
		{
			caption: "antlr",
			format:  MessageFormatANTLR,
			want:    "warning(125): G.g4:2:7: implicit definition of token ID in parser",
		},
		{
			caption: "gnu",
			format:  MessageFormatGNU,
			want:    "G.g4:2:7: warning 125: implicit definition of token ID in parser",
		},
		{
			caption: "vs2005",
			format:  MessageFormatVS2005,
			want:    "G.g4(2,7) : warning 125 : implicit definition of token ID in parser",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			m := NewManager(WithSource("G.g4", "G.g4"), WithMessageFormat(tt.format))
			m.Report(ErrImplicitTokenDefinition, pos{row: 2, col: 7}, "ID")
			assert.Equal(t, tt.want, m.Format(m.All()[0]))
		})
	}
}

func TestKind_Format(t *testing.T) {
	assert.Equal(t, "reference to undefined rule b in non-local ref $b::x", ErrUndefinedRuleInNonlocalRef.Format("b", "x", "$b::x"))
	assert.Equal(t, "syntax error", ErrSyntax.Error())
}
