package grammar

import (
	"strings"
	"unicode"
	"unicode/utf8"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/grammar/scope"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// CollectRules builds the rule table from the tree. Rules are numbered in the order they appear, rules of
// lexer modes following the rules of the default mode. Every call rebuilds the table from scratch, so
// collecting an unchanged tree twice yields the same table.
func (g *Grammar) CollectRules() {
	g.resetRules()
	t := g.Tree
	if !g.IsParser() {
		g.addMode(DefaultModeName)
	}
	for _, c := range t.Children(t.Root) {
		switch t.Kind(c) {
		case tree.KindRule:
			g.collectRule(c, DefaultModeName)
		case tree.KindMode:
			g.addMode(t.Text(c))
			for _, r := range t.ChildrenOfKind(c, tree.KindRule) {
				g.collectRule(r, t.Text(c))
			}
		}
	}
}

func (g *Grammar) collectRule(node tree.NodeID, mode string) {
	t := g.Tree
	n := t.Node(node)
	if prev := g.Rule(n.Text); prev != nil {
		g.errs.Report(verr.ErrRuleRedefinition, n.Pos, n.Text, prev.Pos.Row)
		return
	}
	r := g.buildRule(node, mode)
	g.DefineRule(r)
	for _, alt := range r.Alts[1:] {
		label := t.Node(alt.Node).AltLabel
		if label == "" {
			continue
		}
		for _, l := range []string{capitalize(label), decapitalize(label)} {
			if _, ok := g.altLabelOwners[l]; !ok {
				g.altLabelOwners[l] = r.Name
			}
		}
	}
	g.logger.Debug("rule collected", "component", "collector", "rule", r.Name, "index", r.Index, "alts", r.NumberOfAlts)
}

// RecollectRule rebuilds the rule whose subtree has been replaced by node. The rebuilt rule takes over the
// index of the rule it replaces.
func (g *Grammar) RecollectRule(node tree.NodeID) *Rule {
	name := g.Tree.Text(node)
	old := g.Rule(name)
	if old == nil {
		return nil
	}
	r := g.buildRule(node, old.Mode)
	g.ReplaceRule(r)
	g.logger.Debug("rule recollected", "component", "collector", "rule", r.Name, "index", r.Index, "alts", r.NumberOfAlts)
	return r
}

func (g *Grammar) buildRule(node tree.NodeID, mode string) *Rule {
	t := g.Tree
	r := newRule(g, t, node)
	if IsTokenName(r.Name) {
		r.Mode = mode
	}
	if arg := t.FirstChildOfKind(node, tree.KindArgAction); arg != tree.Nil {
		r.Args = scope.Parse(attr.DictKindArgument, "arguments", t.Text(arg), t.Node(arg).Pos, g.errs)
	}
	if ret := t.FirstChildOfKind(node, tree.KindReturns); ret != tree.Nil {
		arg := t.Child(ret, 0)
		r.Retvals = scope.Parse(attr.DictKindReturn, "returns", t.Text(arg), t.Node(arg).Pos, g.errs)
	}
	if loc := t.FirstChildOfKind(node, tree.KindLocals); loc != tree.Nil {
		arg := t.Child(loc, 0)
		r.Locals = scope.Parse(attr.DictKindLocal, "locals", t.Text(arg), t.Node(arg).Pos, g.errs)
	}
	return r
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// outerAltOf returns the outermost alternative enclosing id, or tree.Nil when id is not inside a rule block.
func outerAltOf(t *tree.Tree, id tree.NodeID) tree.NodeID {
	for n := id; n != tree.Nil; n = t.Parent(n) {
		if t.Kind(n) != tree.KindAlt {
			continue
		}
		blk := t.Parent(n)
		if blk != tree.Nil && t.Kind(t.Parent(blk)) == tree.KindRule {
			return n
		}
	}
	return tree.Nil
}

// ruleOf returns the rule enclosing id.
func (g *Grammar) ruleOf(id tree.NodeID) *Rule {
	t := g.Tree
	n := id
	if t.Kind(n) != tree.KindRule {
		n = t.Ancestor(id, tree.KindRule)
	}
	if n == tree.Nil {
		return nil
	}
	r := g.Rule(t.Text(n))
	if r == nil || r.Node != n {
		return nil
	}
	return r
}

// altOf returns the outermost alternative of r enclosing id.
func (r *Rule) altOf(id tree.NodeID) *Alternative {
	alt := outerAltOf(r.g.Tree, id)
	for _, a := range r.Alts[1:] {
		if a.Node == alt {
			return a
		}
	}
	return nil
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2
}
