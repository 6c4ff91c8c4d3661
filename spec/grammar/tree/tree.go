// Package tree is the grammar AST. Nodes live in an arena owned by a Tree and are addressed by NodeID; parent and
// child-index bookkeeping is maintained by the Tree's mutation methods, so a splice never leaves stale links
// behind. Callers must not cache child indexes across a mutation; re-read them through the Tree.
package tree

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type NodeID int

const Nil = NodeID(-1)

type Kind int

const (
	KindGrammar Kind = iota
	KindOptions
	KindTokensSpec
	KindChannelsSpec
	KindID
	KindNamedAction
	KindMode
	KindRule
	KindModifier
	KindArgAction
	KindReturns
	KindLocals
	KindBlock
	KindAlt
	KindLexerCommands
	KindLexerCommand
	KindRuleRef
	KindTokenRef
	KindStringLiteral
	KindRange
	KindCharSet
	KindWildcard
	KindNot
	KindSet
	KindAction
	KindSempred
	KindAssign
	KindPlusAssign
	KindOptional
	KindClosure
	KindPositiveClosure
	KindCatch
	KindFinally
)

var kindNames = [...]string{
	KindGrammar:         "GRAMMAR",
	KindOptions:         "OPTIONS",
	KindTokensSpec:      "TOKENS",
	KindChannelsSpec:    "CHANNELS",
	KindID:              "ID",
	KindNamedAction:     "AT",
	KindMode:            "MODE",
	KindRule:            "RULE",
	KindModifier:        "MODIFIER",
	KindArgAction:       "ARG_ACTION",
	KindReturns:         "RETURNS",
	KindLocals:          "LOCALS",
	KindBlock:           "BLOCK",
	KindAlt:             "ALT",
	KindLexerCommands:   "LEXER_COMMANDS",
	KindLexerCommand:    "LEXER_COMMAND",
	KindRuleRef:         "RULE_REF",
	KindTokenRef:        "TOKEN_REF",
	KindStringLiteral:   "STRING_LITERAL",
	KindRange:           "RANGE",
	KindCharSet:         "LEXER_CHAR_SET",
	KindWildcard:        "WILDCARD",
	KindNot:             "NOT",
	KindSet:             "SET",
	KindAction:          "ACTION",
	KindSempred:         "SEMPRED",
	KindAssign:          "ASSIGN",
	KindPlusAssign:      "PLUS_ASSIGN",
	KindOptional:        "OPTIONAL",
	KindClosure:         "CLOSURE",
	KindPositiveClosure: "POSITIVE_CLOSURE",
	KindCatch:           "CATCH",
	KindFinally:         "FINALLY",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsEBNF reports whether the kind is a block suffix (`?`, `*`, `+`).
func (k Kind) IsEBNF() bool {
	return k == KindOptional || k == KindClosure || k == KindPositiveClosure
}

// IsLabel reports whether the kind is a label assignment (`x=` or `x+=`).
func (k Kind) IsLabel() bool {
	return k == KindAssign || k == KindPlusAssign
}

type Position struct {
	Row    int
	Col    int
	Offset int
}

func (p Position) Location() (int, int) {
	return p.Row, p.Col
}

func (p Position) String() string {
	return fmt.Sprintf("%v:%v", p.Row, p.Col)
}

// Inside converts a byte offset into text, the content of a bracketed token opening at open, into a position in
// the grammar file.
func Inside(open Position, text string, offset int) Position {
	before := text[:offset]
	line := strings.Count(before, "\n")
	if line == 0 {
		return Position{
			Row:    open.Row,
			Col:    open.Col + 1 + utf8.RuneCountInString(before),
			Offset: open.Offset + 1 + offset,
		}
	}
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{
		Row:    open.Row + line,
		Col:    utf8.RuneCountInString(before[lineStart:]) + 1,
		Offset: open.Offset + 1 + offset,
	}
}

type Option struct {
	Name  string
	Value string
	Pos   Position
}

type Node struct {
	Kind       Kind
	Text       string
	Pos        Position
	Parent     NodeID
	ChildIndex int
	Children   []NodeID

	// Options holds `<name=value>` element options, alternative options such as `<assoc=right>`, and the
	// entries of an options{} block.
	Options []Option

	// AltLabel is the `# label` of an outermost alternative.
	AltLabel    string
	AltLabelPos Position

	// NonGreedy marks an EBNF suffix followed by `?`.
	NonGreedy bool

	// Scope is the `parser` of `@parser::members`.
	Scope string

	// Arg is the argument of a lexer command such as `channel(HIDDEN)`.
	Arg    string
	HasArg bool

	// Synthetic marks a node with no counterpart in the grammar file, such as the empty action opening the
	// primary block of a rewritten left-recursive rule.
	Synthetic bool
}

type Tree struct {
	nodes []*Node
	Root  NodeID
}

func New() *Tree {
	return &Tree{
		Root: Nil,
	}
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Add allocates a detached node.
func (t *Tree) Add(kind Kind, text string, pos Position) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		Kind:       kind,
		Text:       text,
		Pos:        pos,
		Parent:     Nil,
		ChildIndex: -1,
	})
	return id
}

func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].Kind
}

func (t *Tree) Text(id NodeID) string {
	return t.nodes[id].Text
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].Parent
}

func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].Children
}

func (t *Tree) ChildCount(id NodeID) int {
	return len(t.nodes[id].Children)
}

func (t *Tree) Child(id NodeID, i int) NodeID {
	cs := t.nodes[id].Children
	if i < 0 || i >= len(cs) {
		return Nil
	}
	return cs[i]
}

func (t *Tree) FirstChildOfKind(id NodeID, kind Kind) NodeID {
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == kind {
			return c
		}
	}
	return Nil
}

func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var cs []NodeID
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == kind {
			cs = append(cs, c)
		}
	}
	return cs
}

// Ancestor returns the nearest proper ancestor of the kind.
func (t *Tree) Ancestor(id NodeID, kind Kind) NodeID {
	for p := t.nodes[id].Parent; p != Nil; p = t.nodes[p].Parent {
		if t.nodes[p].Kind == kind {
			return p
		}
	}
	return Nil
}

func (t *Tree) AppendChild(parent, child NodeID) {
	t.detach(child)
	p := t.nodes[parent]
	c := t.nodes[child]
	c.Parent = parent
	c.ChildIndex = len(p.Children)
	p.Children = append(p.Children, child)
}

func (t *Tree) InsertChild(parent NodeID, i int, child NodeID) {
	t.ReplaceChildren(parent, i, i, child)
}

func (t *Tree) RemoveChild(parent NodeID, i int) {
	t.ReplaceChildren(parent, i, i+1)
}

// ReplaceChildren replaces the children [start, stop) of parent with the given nodes. Replaced nodes are
// detached; they stay in the arena and keep their own subtrees, but no longer have a parent. Child indexes are
// renumbered for the affected range and everything after it.
func (t *Tree) ReplaceChildren(parent NodeID, start, stop int, with ...NodeID) {
	p := t.nodes[parent]
	if start < 0 || stop > len(p.Children) || start > stop {
		panic(fmt.Errorf("invalid child range [%v, %v) of a node having %v children", start, stop, len(p.Children)))
	}
	for _, w := range with {
		if t.nodes[w].Parent == parent {
			panic(fmt.Errorf("node %v is already a child of %v", w, parent))
		}
		t.detach(w)
	}
	for _, old := range p.Children[start:stop] {
		o := t.nodes[old]
		o.Parent = Nil
		o.ChildIndex = -1
	}
	cs := make([]NodeID, 0, len(p.Children)-(stop-start)+len(with))
	cs = append(cs, p.Children[:start]...)
	cs = append(cs, with...)
	cs = append(cs, p.Children[stop:]...)
	p.Children = cs
	for i := start; i < len(cs); i++ {
		c := t.nodes[cs[i]]
		c.Parent = parent
		c.ChildIndex = i
	}
}

// Replace puts replacement at old's position in old's parent. When old is the root, the root changes.
func (t *Tree) Replace(old, replacement NodeID) {
	o := t.nodes[old]
	if o.Parent == Nil {
		if t.Root == old {
			t.detach(replacement)
			t.Root = replacement
		}
		return
	}
	t.ReplaceChildren(o.Parent, o.ChildIndex, o.ChildIndex+1, replacement)
}

func (t *Tree) detach(id NodeID) {
	n := t.nodes[id]
	if n.Parent == Nil {
		return
	}
	parent := n.Parent
	p := t.nodes[parent]
	i := n.ChildIndex
	p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
	for j := i; j < len(p.Children); j++ {
		t.nodes[p.Children[j]].ChildIndex = j
	}
	n.Parent = Nil
	n.ChildIndex = -1
}

// Walk visits the subtree in pre-order. When f returns false the children of the node are skipped.
func (t *Tree) Walk(id NodeID, f func(id NodeID) bool) {
	if id == Nil {
		return
	}
	if !f(id) {
		return
	}
	// Children may be rewritten by f's caller between visits; iterate over a snapshot.
	cs := append([]NodeID(nil), t.nodes[id].Children...)
	for _, c := range cs {
		t.Walk(c, f)
	}
}

// Find returns the nodes of the kind in the subtree, in pre-order.
func (t *Tree) Find(id NodeID, kinds ...Kind) []NodeID {
	var found []NodeID
	t.Walk(id, func(n NodeID) bool {
		for _, k := range kinds {
			if t.nodes[n].Kind == k {
				found = append(found, n)
				break
			}
		}
		return true
	})
	return found
}

func (t *Tree) Option(id NodeID, name string) (string, bool) {
	for _, o := range t.nodes[id].Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

func (t *Tree) SetOption(id NodeID, name, value string) {
	n := t.nodes[id]
	for i, o := range n.Options {
		if o.Name == name {
			n.Options[i].Value = value
			return
		}
	}
	n.Options = append(n.Options, Option{
		Name:  name,
		Value: value,
		Pos:   n.Pos,
	})
}

func (t *Tree) DeleteOption(id NodeID, name string) {
	n := t.nodes[id]
	for i, o := range n.Options {
		if o.Name == name {
			n.Options = append(n.Options[:i:i], n.Options[i+1:]...)
			return
		}
	}
}

// Dup deep-copies a subtree within the arena and returns the detached copy.
func (t *Tree) Dup(id NodeID) NodeID {
	src := t.nodes[id]
	cp := t.Add(src.Kind, src.Text, src.Pos)
	n := t.nodes[cp]
	n.Options = append([]Option(nil), src.Options...)
	n.AltLabel = src.AltLabel
	n.AltLabelPos = src.AltLabelPos
	n.NonGreedy = src.NonGreedy
	n.Scope = src.Scope
	n.Arg = src.Arg
	n.HasArg = src.HasArg
	n.Synthetic = src.Synthetic
	for _, c := range src.Children {
		t.AppendChild(cp, t.Dup(c))
	}
	return cp
}
