package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDict(t *testing.T) {
	d := NewDict(DictKindArgument, "args")
	x := d.Add(&Attribute{Name: "x", Type: "int"})
	d.Add(&Attribute{Name: "y", Type: "String", InitValue: `"a"`})
	d.Add(&Attribute{Name: "x", Type: "long"})

	assert.Equal(t, d, x.Dict)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"x", "y"}, d.Names())
	assert.Equal(t, "long", d.Get("x").Type)
	assert.Nil(t, d.Get("z"))
	assert.Equal(t, `args:[long x, String y="a"]`, d.String())
}

func TestDict_Nil(t *testing.T) {
	var d *Dict
	assert.Nil(t, d.Get("x"))
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Intersection(NewDict(DictKindLocal, "locals")))
}

func TestDict_Intersection(t *testing.T) {
	tests := []struct {
		caption string
		a       []string
		b       []string
		want    []string
	}{
		{
			caption: "names declared in both scopes are reported in the order of the receiver",
			a:       []string{"c", "a", "b"},
			b:       []string{"b", "c", "d"},
			want:    []string{"c", "b"},
		},
		{
			caption: "disjoint scopes have no common names",
			a:       []string{"a"},
			b:       []string{"b"},
		},
		{
			caption: "an empty scope has no common names",
			b:       []string{"b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			a := NewDict(DictKindArgument, "args")
			for _, n := range tt.a {
				a.Add(&Attribute{Name: n})
			}
			b := NewDict(DictKindLocal, "locals")
			for _, n := range tt.b {
				b.Add(&Attribute{Name: n})
			}
			assert.Equal(t, tt.want, a.Intersection(b))
		})
	}
}

func TestPredefined(t *testing.T) {
	assert.Equal(t, []string{"parser", "text", "start", "stop", "ctx"}, PredefinedRuleProperties.Names())
	assert.Equal(t, DictKindPredefinedRule, PredefinedRuleProperties.Get("ctx").Dict.Kind)
	assert.Equal(t, DictKindToken, PredefinedTokenProperties.Get("int").Dict.Kind)
	assert.Nil(t, PredefinedTokenProperties.Get("start"))
}
