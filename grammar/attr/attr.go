package attr

import (
	"fmt"
	"strings"

	"github.com/nihei9/argot/spec/grammar/tree"
)

// DictKind tells which kind of scope an attribute belongs to. Binding sites switch on it exhaustively.
type DictKind int

const (
	DictKindArgument DictKind = iota
	DictKindReturn
	DictKindLocal
	DictKindPredefinedRule
	DictKindToken
)

func (k DictKind) String() string {
	switch k {
	case DictKindArgument:
		return "argument"
	case DictKindReturn:
		return "return"
	case DictKindLocal:
		return "local"
	case DictKindPredefinedRule:
		return "predefined rule property"
	case DictKindToken:
		return "token property"
	}
	return fmt.Sprintf("DictKind(%d)", int(k))
}

// Attribute is a declared argument, return value, local, or a predefined property.
type Attribute struct {
	Name string

	// Type is empty when the declaration carries no type, as in predefined properties.
	Type string

	// InitValue is the text following `=` in the declaration, if any.
	InitValue string

	// Decl is the declaration text the attribute was parsed from.
	Decl string

	Pos tree.Position

	// Dict is the scope the attribute was added to.
	Dict *Dict
}

func (a *Attribute) String() string {
	var b strings.Builder
	if a.Type != "" {
		fmt.Fprintf(&b, "%v ", a.Type)
	}
	b.WriteString(a.Name)
	if a.InitValue != "" {
		fmt.Fprintf(&b, "=%v", a.InitValue)
	}
	return b.String()
}

// Dict is a named scope of attributes. Attributes keep the order they were added in.
type Dict struct {
	Name string
	Kind DictKind

	names []string
	attrs map[string]*Attribute
}

func NewDict(kind DictKind, name string) *Dict {
	return &Dict{
		Name:  name,
		Kind:  kind,
		attrs: map[string]*Attribute{},
	}
}

// Add puts a into the dictionary and makes d its owner. An attribute with the same name is replaced while its
// original position in the order is kept.
func (d *Dict) Add(a *Attribute) *Attribute {
	a.Dict = d
	if _, ok := d.attrs[a.Name]; !ok {
		d.names = append(d.names, a.Name)
	}
	d.attrs[a.Name] = a
	return a
}

// Get returns nil when name is not declared. A nil dictionary declares nothing.
func (d *Dict) Get(name string) *Attribute {
	if d == nil {
		return nil
	}
	return d.attrs[name]
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

func (d *Dict) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Attributes returns the attributes in declaration order.
func (d *Dict) Attributes() []*Attribute {
	if d == nil {
		return nil
	}
	as := make([]*Attribute, 0, len(d.names))
	for _, n := range d.names {
		as = append(as, d.attrs[n])
	}
	return as
}

// Intersection returns the names declared in both dictionaries, in the order of d.
func (d *Dict) Intersection(other *Dict) []string {
	if d.Len() == 0 || other.Len() == 0 {
		return nil
	}
	var names []string
	for _, n := range d.names {
		if _, ok := other.attrs[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func (d *Dict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:[", d.Name)
	for i, a := range d.Attributes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString("]")
	return b.String()
}

// The properties every rule and every token reference expose to actions. They are shared and must not be
// modified.
var (
	PredefinedRuleProperties  = newPredefined(DictKindPredefinedRule, "predefined", "parser", "text", "start", "stop", "ctx")
	PredefinedTokenProperties = newPredefined(DictKindToken, "token", "text", "type", "line", "index", "pos", "channel", "int")
)

func newPredefined(kind DictKind, name string, props ...string) *Dict {
	d := NewDict(kind, name)
	for _, p := range props {
		d.Add(&Attribute{
			Name: p,
		})
	}
	return d
}
