package action

import (
	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Check reports the attribute references of every action that resolve to nothing in their scope. It only reads
// the grammar.
func Check(g *grammar.Grammar) {
	for _, a := range g.Actions {
		CheckAction(g, a)
	}
}

// CheckAction reports the unresolvable attribute references of one action.
func CheckAction(g *grammar.Grammar, a *grammar.Action) {
	c := &checker{
		g:   g,
		a:   a,
		res: a.Resolver,
	}
	c.examine(a.Text, 0)
}

type checker struct {
	g   *grammar.Grammar
	a   *grammar.Action
	res grammar.AttributeResolver
}

// examine checks text, a piece of the action starting at byte offset base.
func (c *checker) examine(text string, base int) {
	for _, s := range Split(text) {
		switch s.Kind {
		case SpanAttr:
			c.attr(s, base)
		case SpanQualifiedAttr:
			c.qualifiedAttr(s, base)
		case SpanSetAttr:
			c.setAttr(s, base)
		case SpanNonLocalAttr, SpanSetNonLocalAttr:
			c.nonLocalAttr(s, base)
		}
	}
}

func (c *checker) pos(offset int) tree.Position {
	return tree.Inside(c.a.Pos, c.a.Text, offset)
}

func (c *checker) report(kind *verr.Kind, offset int, args ...interface{}) {
	c.g.Errors().Report(kind, c.pos(offset), args...)
}

// inLexer reports whether the action belongs to a lexer rule, where no attribute is visible.
func (c *checker) inLexer() bool {
	if c.g.IsLexer() {
		return true
	}
	return c.a.Rule != nil && c.a.Rule.IsLexerRule()
}

func (c *checker) attr(s *Span, base int) {
	x := s.X
	if c.inLexer() {
		c.report(verr.ErrAttributeInLexerAction, base+s.XOffset, x)
		return
	}
	if c.res.ResolveToAttribute(x) != nil {
		return
	}
	if c.res.ResolvesToToken(x) || c.res.ResolvesToListLabel(x) {
		return
	}
	if c.res.ResolveToRule(x) != nil {
		c.report(verr.ErrIsolatedRuleRef, base+s.XOffset, x, s.Expr)
		return
	}
	c.report(verr.ErrUnknownSimpleAttribute, base+s.XOffset, x, s.Expr)
}

func (c *checker) qualifiedAttr(s *Span, base int) {
	x, y := s.X, s.Y
	if c.inLexer() {
		c.report(verr.ErrAttributeInLexerAction, base+s.XOffset, x+"."+y)
		return
	}
	// A member access on an attribute, like $ctx.start.
	if c.res.ResolveToAttribute(x) != nil {
		c.attr(&Span{
			Kind:    SpanAttr,
			Expr:    "$" + x,
			X:       x,
			XOffset: s.XOffset,
		}, base)
		return
	}
	if c.res.ResolveToQualifiedAttribute(x, y) != nil {
		return
	}
	if r := c.res.ResolveToRule(x); r != nil {
		if r.Args.Get(y) != nil {
			c.report(verr.ErrInvalidRuleParameterRef, base+s.YOffset, y, r.Name, s.Expr)
		} else {
			c.report(verr.ErrUnknownRuleAttribute, base+s.YOffset, y, r.Name, s.Expr)
		}
		return
	}
	if !c.res.ResolvesToAttributeDict(x) {
		c.report(verr.ErrUnknownSimpleAttribute, base+s.XOffset, x, s.Expr)
		return
	}
	c.report(verr.ErrUnknownAttributeInScope, base+s.YOffset, y, s.Expr)
}

func (c *checker) setAttr(s *Span, base int) {
	x := s.X
	if c.inLexer() {
		c.report(verr.ErrAttributeInLexerAction, base+s.XOffset, x)
		return
	}
	if c.res.ResolveToAttribute(x) == nil {
		if c.res.ResolvesToListLabel(x) {
			c.report(verr.ErrAssignmentToListLabel, base+s.XOffset, x)
		} else {
			c.report(verr.ErrUnknownSimpleAttribute, base+s.XOffset, x, s.Expr)
		}
	}
	c.examine(s.RHS, base+s.RHSOffset)
}

// nonLocalAttr checks $x::y. The right-hand side of an assignment to a non-local attribute is not examined.
func (c *checker) nonLocalAttr(s *Span, base int) {
	r := c.g.Rule(s.X)
	if r == nil || r.IsLexerRule() {
		c.report(verr.ErrUndefinedRuleInNonlocalRef, base+s.XOffset, s.X, s.Y, s.Expr)
		return
	}
	if r.ResolveToAttribute(s.Y) == nil {
		c.report(verr.ErrUnknownRuleAttribute, base+s.YOffset, s.Y, s.X, s.Expr)
	}
}
