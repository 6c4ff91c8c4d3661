package leftrec

import (
	"fmt"
	"strconv"
	"strings"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/spec/grammar/parser"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Transform rewrites every immediately left-recursive parser rule of g and returns the rewritten rules.
//
// Each rewritten rule is synthesized as source text, parsed, and put in place of the original rule; the rule
// table entry is rebuilt from the new subtree. Nodes of the new subtree take the positions of the nodes they were
// printed from so diagnostics still point into the grammar file. Finally, every other reference to a rewritten
// rule is given precedence 0.
func Transform(g *grammar.Grammar) []*grammar.Rule {
	z := &analyzer{
		g:    g,
		t:    g.Tree,
		errs: g.Errors(),
	}
	var rewritten []*grammar.Rule
	names := map[string]struct{}{}
	for _, r := range append([]*grammar.Rule(nil), g.Rules()...) {
		if r.IsLexerRule() || !HasImmediateLeftRecursion(z.t, r.Node) {
			continue
		}
		a := z.analyze(r)
		if !a.conforming() {
			z.errs.Report(verr.ErrNonconformingLRule, r.Pos, r.Name)
			continue
		}
		nr := z.splice(a)
		if nr == nil {
			continue
		}
		rewritten = append(rewritten, nr)
		names[nr.Name] = struct{}{}
	}
	if len(names) > 0 {
		setDefaultPrecedence(z.t, names)
	}
	return rewritten
}

// setDefaultPrecedence gives the references to the rewritten rules that carry no precedence the lowest one.
func setDefaultPrecedence(t *tree.Tree, names map[string]struct{}) {
	for _, ref := range t.Find(t.Root, tree.KindRuleRef) {
		if _, ok := names[t.Text(ref)]; !ok {
			continue
		}
		if _, ok := t.Option(ref, grammar.PrecedenceOptionName); ok {
			continue
		}
		t.SetOption(ref, grammar.PrecedenceOptionName, "0")
	}
}

type posKey struct {
	offset int
	kind   tree.Kind
}

func (z *analyzer) splice(a *analysis) *grammar.Rule {
	t := z.t
	r := a.rule
	text, origins := z.synthesize(a)
	node, err := parser.ParseRule(t, text)
	if err != nil {
		z.errs.Report(verr.ErrInternal, r.Pos, r.Name, err)
		return nil
	}
	restorePositions(t, node, r.Pos, origins)
	markPrimaryAction(t, node)

	t.Replace(r.Node, node)
	grammar.ReduceBlocksToSets(t, node, false)
	nr := z.g.RecollectRule(node)
	if nr == nil {
		z.errs.Report(verr.ErrInternal, r.Pos, r.Name, "the rewritten rule is not in the rule table")
		return nil
	}
	a.lr.Text = text
	nr.LeftRecursion = a.lr
	bindAlts(t, nr)

	for _, info := range a.lr.OpAlts {
		if label := LeftOperandLabel(t, r.Name, info); label != tree.Nil {
			nr.Alts[1].AddLabel(grammar.NewLabelElementPair(t, label))
		}
	}
	if len(a.lr.PrimaryAlts) == 0 {
		z.errs.Report(verr.ErrNoNonLRAlts, r.Pos, r.Name)
	}
	z.g.Logger().Debug("rule rewritten", "component", "leftrec", "rule", nr.Name, "primary", len(a.lr.PrimaryAlts), "operators", len(a.lr.OpAlts), "text", text)
	return nr
}

// synthesize prints the rewritten rule. The returned map tells which node each piece of the text was printed
// from, keyed by the offset the piece starts at and the kind of node it parses to.
func (z *analyzer) synthesize(a *analysis) (string, map[posKey]tree.NodeID) {
	t := z.t
	rule := a.rule.Node
	origins := map[posKey]tree.NodeID{}
	p := tree.NewPrinter(t)
	p.OnNode = func(offset int, id tree.NodeID) {
		k := posKey{
			offset: offset,
			kind:   t.Kind(id),
		}
		if _, ok := origins[k]; !ok {
			origins[k] = id
		}
	}

	for _, m := range t.ChildrenOfKind(rule, tree.KindModifier) {
		p.Mark(m)
		p.WriteString(t.Text(m) + " ")
	}
	p.Mark(rule)
	p.WriteString(t.Text(rule))
	precArg := "int " + grammar.PrecedenceArgName
	if arg := t.FirstChildOfKind(rule, tree.KindArgAction); arg != tree.Nil && strings.TrimSpace(t.Text(arg)) != "" {
		p.Mark(arg)
		p.WriteString("[" + t.Text(arg) + ", " + precArg + "]")
	} else {
		p.WriteString("[" + precArg + "]")
	}
	for _, kw := range []tree.Kind{tree.KindReturns, tree.KindLocals} {
		c := t.FirstChildOfKind(rule, kw)
		if c == tree.Nil {
			continue
		}
		p.WriteString(" ")
		p.Mark(c)
		if kw == tree.KindReturns {
			p.WriteString("returns ")
		} else {
			p.WriteString("locals ")
		}
		arg := t.Child(c, 0)
		p.Mark(arg)
		p.WriteString("[" + t.Text(arg) + "]")
	}
	for _, c := range t.ChildrenOfKind(rule, tree.KindOptions) {
		p.WriteString(" ")
		p.Print(c)
	}
	for _, c := range t.ChildrenOfKind(rule, tree.KindNamedAction) {
		p.WriteString(" ")
		p.Print(c)
	}

	p.WriteString("\n    ")
	p.Mark(t.FirstChildOfKind(rule, tree.KindBlock))
	p.WriteString(": ( {}")
	for i, aa := range a.primary {
		if i > 0 {
			p.WriteString("\n    |")
		}
		p.WriteString(" ")
		p.Print(aa.rewritten)
	}
	p.WriteString("\n    )\n    (")
	for i, aa := range a.ops {
		if i > 0 {
			p.WriteString("\n    |")
		}
		p.WriteString(" ")
		p.Mark(aa.rewritten)
		prec := strconv.Itoa(aa.info.Precedence)
		p.WriteString(fmt.Sprintf("{%v >= $%v}?<%v=%v>", prec, grammar.PrecedenceArgName, grammar.PrecedenceOptionName, prec))
		if t.ChildCount(aa.rewritten) > 0 {
			p.WriteString(" ")
			p.Print(aa.rewritten)
		}
	}
	p.WriteString("\n    )*\n    ;")
	for _, c := range t.Children(rule) {
		switch t.Kind(c) {
		case tree.KindCatch, tree.KindFinally:
			p.WriteString("\n")
			p.Print(c)
		}
	}
	return p.String(), origins
}

// restorePositions moves the positions of a freshly parsed subtree back into the grammar file. A node printed
// from an existing node takes that node's position; any other node takes its parent's.
func restorePositions(t *tree.Tree, root tree.NodeID, rulePos tree.Position, origins map[posKey]tree.NodeID) {
	var restore func(id tree.NodeID, parentPos tree.Position)
	restore = func(id tree.NodeID, parentPos tree.Position) {
		n := t.Node(id)
		pos := parentPos
		src, ok := origins[posKey{offset: n.Pos.Offset, kind: n.Kind}]
		if ok {
			pos = t.Node(src).Pos
		}
		for i, o := range n.Options {
			n.Options[i].Pos = pos
			if !ok {
				continue
			}
			for _, so := range t.Node(src).Options {
				if so.Name == o.Name {
					n.Options[i].Pos = so.Pos
				}
			}
		}
		n.Pos = pos
		for _, c := range n.Children {
			restore(c, pos)
		}
	}
	restore(root, rulePos)
}

// markPrimaryAction marks the empty action that opens the primary block as synthetic so it is not collected as
// an action of the rule.
func markPrimaryAction(t *tree.Tree, rule tree.NodeID) {
	blk := t.FirstChildOfKind(rule, tree.KindBlock)
	if blk == tree.Nil {
		return
	}
	main := t.Child(blk, 0)
	if main == tree.Nil {
		return
	}
	prim := t.Child(main, 0)
	if prim == tree.Nil || t.Kind(prim) != tree.KindBlock {
		return
	}
	alt := t.Child(prim, 0)
	if alt == tree.Nil {
		return
	}
	act := t.Child(alt, 0)
	if act == tree.Nil || t.Kind(act) != tree.KindAction || t.Text(act) != "" {
		return
	}
	t.Node(act).Synthetic = true
}

// bindAlts points each rewritten alternative at its node in the new rule: ( primary... ) ( op... )*.
func bindAlts(t *tree.Tree, r *grammar.Rule) {
	lr := r.LeftRecursion
	main := r.Alts[1].Node
	if t.ChildCount(main) < 2 {
		return
	}
	prim := t.Child(main, 0)
	if t.Kind(prim) == tree.KindBlock {
		for i, info := range lr.PrimaryAlts {
			info.Alt = t.Child(prim, i)
		}
	}
	loop := t.Child(main, 1)
	if t.Kind(loop) != tree.KindClosure {
		return
	}
	ops := t.Child(loop, 0)
	for j, info := range lr.OpAlts {
		info.Alt = t.Child(ops, j)
	}
}
