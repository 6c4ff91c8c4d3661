package tree

import (
	"strings"
)

// Printer renders a subtree back to grammar source. The output reparses to a tree of the same shape.
type Printer struct {
	t *Tree
	b strings.Builder

	// OnNode, when set, is called with the output offset at which each node's text starts.
	OnNode func(offset int, id NodeID)
}

func NewPrinter(t *Tree) *Printer {
	return &Printer{
		t: t,
	}
}

// Format renders a subtree.
func Format(t *Tree, id NodeID) string {
	p := NewPrinter(t)
	p.Print(id)
	return p.String()
}

func (p *Printer) String() string {
	return p.b.String()
}

func (p *Printer) Len() int {
	return p.b.Len()
}

func (p *Printer) WriteString(s string) {
	p.b.WriteString(s)
}

// Mark reports the current output offset as the start of id to OnNode.
func (p *Printer) Mark(id NodeID) {
	if p.OnNode != nil {
		p.OnNode(p.b.Len(), id)
	}
}

func (p *Printer) Print(id NodeID) {
	t := p.t
	n := t.Node(id)
	switch n.Kind {
	case KindGrammar:
		p.printGrammar(id)
	case KindRule:
		p.printRule(id)
	case KindBlock:
		p.Mark(id)
		p.b.WriteString("(")
		p.printAlts(id, " | ")
		p.b.WriteString(")")
	case KindAlt:
		p.printAlt(id)
	case KindOptional, KindClosure, KindPositiveClosure:
		p.Mark(id)
		p.printBlockOperand(n.Children[0])
		switch n.Kind {
		case KindOptional:
			p.b.WriteString("?")
		case KindClosure:
			p.b.WriteString("*")
		case KindPositiveClosure:
			p.b.WriteString("+")
		}
		if n.NonGreedy {
			p.b.WriteString("?")
		}
	case KindAssign, KindPlusAssign:
		p.Mark(id)
		p.b.WriteString(n.Text)
		if n.Kind == KindAssign {
			p.b.WriteString("=")
		} else {
			p.b.WriteString("+=")
		}
		p.Print(n.Children[0])
	case KindRuleRef:
		p.Mark(id)
		p.b.WriteString(n.Text)
		if arg := t.FirstChildOfKind(id, KindArgAction); arg != Nil {
			p.Mark(arg)
			p.b.WriteString("[")
			p.b.WriteString(t.Text(arg))
			p.b.WriteString("]")
		}
		p.printElementOptions(n.Options)
	case KindTokenRef, KindStringLiteral, KindWildcard:
		p.Mark(id)
		p.b.WriteString(n.Text)
		p.printElementOptions(n.Options)
	case KindCharSet:
		p.Mark(id)
		p.b.WriteString(n.Text)
	case KindRange:
		p.Mark(id)
		p.Print(n.Children[0])
		p.b.WriteString("..")
		p.Print(n.Children[1])
	case KindNot:
		p.Mark(id)
		p.b.WriteString("~")
		p.Print(n.Children[0])
	case KindSet:
		p.Mark(id)
		p.b.WriteString("(")
		for i, c := range n.Children {
			if i > 0 {
				p.b.WriteString(" | ")
			}
			p.Print(c)
		}
		p.b.WriteString(")")
	case KindAction:
		p.Mark(id)
		p.b.WriteString("{")
		p.b.WriteString(n.Text)
		p.b.WriteString("}")
		p.printElementOptions(n.Options)
	case KindSempred:
		p.Mark(id)
		p.b.WriteString("{")
		p.b.WriteString(n.Text)
		p.b.WriteString("}?")
		p.printElementOptions(n.Options)
	case KindLexerCommands:
		p.Mark(id)
		p.b.WriteString("-> ")
		for i, c := range n.Children {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.Print(c)
		}
	case KindLexerCommand:
		p.Mark(id)
		p.b.WriteString(n.Text)
		if n.HasArg {
			p.b.WriteString("(")
			p.b.WriteString(n.Arg)
			p.b.WriteString(")")
		}
	case KindOptions:
		p.Mark(id)
		p.b.WriteString("options { ")
		for _, o := range n.Options {
			p.b.WriteString(o.Name)
			p.b.WriteString(" = ")
			p.b.WriteString(o.Value)
			p.b.WriteString("; ")
		}
		p.b.WriteString("}")
	case KindNamedAction:
		p.Mark(id)
		p.b.WriteString("@")
		if n.Scope != "" {
			p.b.WriteString(n.Scope)
			p.b.WriteString("::")
		}
		p.b.WriteString(n.Text)
		p.b.WriteString(" ")
		p.printAction(n.Children[0])
	case KindCatch:
		p.Mark(id)
		p.b.WriteString("catch ")
		arg := t.FirstChildOfKind(id, KindArgAction)
		p.Mark(arg)
		p.b.WriteString("[")
		p.b.WriteString(t.Text(arg))
		p.b.WriteString("] ")
		p.printAction(t.FirstChildOfKind(id, KindAction))
	case KindFinally:
		p.Mark(id)
		p.b.WriteString("finally ")
		p.printAction(n.Children[0])
	case KindTokensSpec, KindChannelsSpec:
		p.Mark(id)
		if n.Kind == KindTokensSpec {
			p.b.WriteString("tokens { ")
		} else {
			p.b.WriteString("channels { ")
		}
		for i, c := range n.Children {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.b.WriteString(t.Text(c))
		}
		p.b.WriteString(" }")
	case KindMode:
		p.Mark(id)
		p.b.WriteString("mode ")
		p.b.WriteString(n.Text)
		p.b.WriteString(";\n")
		for _, c := range n.Children {
			p.b.WriteString("\n")
			p.Print(c)
			p.b.WriteString("\n")
		}
	default:
		p.Mark(id)
		p.b.WriteString(n.Text)
	}
}

// printBlockOperand omits the parentheses of a block holding a single atom, so `ID*` stays `ID*`.
func (p *Printer) printBlockOperand(block NodeID) {
	t := p.t
	if t.Kind(block) == KindBlock && t.ChildCount(block) == 1 {
		alt := t.Child(block, 0)
		if t.ChildCount(alt) == 1 && len(t.Node(alt).Options) == 0 && t.Node(alt).AltLabel == "" {
			switch t.Kind(t.Child(alt, 0)) {
			case KindRuleRef, KindTokenRef, KindStringLiteral, KindWildcard, KindCharSet, KindNot, KindRange, KindSet, KindAssign, KindPlusAssign:
				// A label on the single element binds to the element, so `x+=ID*` reparses the same way.
				p.Mark(block)
				p.Mark(alt)
				p.Print(t.Child(alt, 0))
				return
			}
		}
	}
	p.Print(block)
}

func (p *Printer) printAlts(block NodeID, sep string) {
	for i, alt := range p.t.Children(block) {
		if i > 0 {
			p.b.WriteString(sep)
		}
		p.Print(alt)
	}
}

func (p *Printer) printAlt(id NodeID) {
	t := p.t
	n := t.Node(id)
	p.Mark(id)
	if len(n.Options) > 0 {
		p.printElementOptions(n.Options)
		if len(n.Children) > 0 {
			p.b.WriteString(" ")
		}
	}
	for i, c := range n.Children {
		if i > 0 {
			p.b.WriteString(" ")
		}
		p.Print(c)
	}
	if n.AltLabel != "" {
		p.b.WriteString(" # ")
		p.b.WriteString(n.AltLabel)
	}
}

func (p *Printer) printAction(id NodeID) {
	p.Mark(id)
	p.b.WriteString("{")
	p.b.WriteString(p.t.Text(id))
	p.b.WriteString("}")
}

func (p *Printer) printArgAction(id NodeID) {
	p.Mark(id)
	p.b.WriteString("[")
	p.b.WriteString(p.t.Text(id))
	p.b.WriteString("]")
}

func (p *Printer) printElementOptions(opts []Option) {
	if len(opts) == 0 {
		return
	}
	p.b.WriteString("<")
	for i, o := range opts {
		if i > 0 {
			p.b.WriteString(",")
		}
		p.b.WriteString(o.Name)
		if o.Value != "" {
			p.b.WriteString("=")
			p.b.WriteString(o.Value)
		}
	}
	p.b.WriteString(">")
}

func (p *Printer) printRule(id NodeID) {
	t := p.t
	n := t.Node(id)
	for _, m := range t.ChildrenOfKind(id, KindModifier) {
		p.Mark(m)
		p.b.WriteString(t.Text(m))
		p.b.WriteString(" ")
	}
	p.Mark(id)
	p.b.WriteString(n.Text)
	if arg := t.FirstChildOfKind(id, KindArgAction); arg != Nil {
		p.Mark(arg)
		p.b.WriteString("[")
		p.b.WriteString(t.Text(arg))
		p.b.WriteString("]")
	}
	if ret := t.FirstChildOfKind(id, KindReturns); ret != Nil {
		p.b.WriteString(" ")
		p.Mark(ret)
		p.b.WriteString("returns ")
		p.printArgAction(t.Child(ret, 0))
	}
	if loc := t.FirstChildOfKind(id, KindLocals); loc != Nil {
		p.b.WriteString(" ")
		p.Mark(loc)
		p.b.WriteString("locals ")
		p.printArgAction(t.Child(loc, 0))
	}
	for _, c := range t.ChildrenOfKind(id, KindOptions) {
		p.b.WriteString(" ")
		p.Print(c)
	}
	for _, c := range t.ChildrenOfKind(id, KindNamedAction) {
		p.b.WriteString(" ")
		p.Print(c)
	}
	p.b.WriteString("\n    ")
	blk := t.FirstChildOfKind(id, KindBlock)
	p.Mark(blk)
	p.b.WriteString(": ")
	p.printAlts(blk, "\n    | ")
	p.b.WriteString("\n    ;")
	for _, c := range n.Children {
		switch t.Kind(c) {
		case KindCatch, KindFinally:
			p.b.WriteString("\n")
			p.Print(c)
		}
	}
}

func (p *Printer) printGrammar(id NodeID) {
	t := p.t
	n := t.Node(id)
	p.Mark(id)
	switch n.Scope {
	case "lexer", "parser":
		p.b.WriteString(n.Scope)
		p.b.WriteString(" ")
	}
	p.b.WriteString("grammar ")
	p.b.WriteString(n.Text)
	p.b.WriteString(";\n")
	for _, c := range n.Children {
		switch t.Kind(c) {
		case KindRule, KindMode:
			p.b.WriteString("\n")
			p.Print(c)
			p.b.WriteString("\n")
		default:
			p.Print(c)
			p.b.WriteString("\n")
		}
	}
}
