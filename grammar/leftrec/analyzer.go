// Package leftrec rewrites immediately left-recursive parser rules into a precedence-climbing form.
//
// A rule such as
//
//	e : e '*' e | e '+' e | INT ;
//
// becomes
//
//	e[int _p] : ( {} INT ) ( {3 >= $_p}?<p=3> '*' e<p=4> | {2 >= $_p}?<p=2> '+' e<p=3> )* ;
//
// Alternative i of n has precedence n-i+1, so the first alternative binds tightest. The trailing operand of a
// left-associative binary alternative recurses with the next higher precedence, and that of a right-associative
// one (`<assoc=right>`) with its own precedence. Operands between the operators of a ternary alternative such as
// `e '?' e ':' e` recurse with precedence 0.
//
// A self reference carrying arguments, as in `e[3] '+' e`, fits no operator shape.
package leftrec

import (
	"strconv"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// analyzedAlt is an alternative classified and rewritten, but not yet part of a rule.
type analyzedAlt struct {
	info *grammar.LeftRecursiveAlt

	// rewritten is a detached copy of the alternative with the left operand and the alternative label stripped
	// and the precedence options set.
	rewritten tree.NodeID
}

type analysis struct {
	rule    *grammar.Rule
	lr      *grammar.LeftRecursion
	primary []*analyzedAlt
	ops     []*analyzedAlt

	// leftRecPrimary is set when an alternative starts with a self reference but fits no operator shape.
	leftRecPrimary bool
}

// conforming reports whether the operator loop can handle every left-recursive alternative of the rule.
func (a *analysis) conforming() bool {
	return len(a.ops) > 0 && !a.leftRecPrimary
}

type analyzer struct {
	g    *grammar.Grammar
	t    *tree.Tree
	errs *verr.Manager
}

// HasImmediateLeftRecursion reports whether an outermost alternative of the rule starts with a reference to the
// rule itself, possibly labeled.
func HasImmediateLeftRecursion(t *tree.Tree, rule tree.NodeID) bool {
	name := t.Text(rule)
	blk := t.FirstChildOfKind(rule, tree.KindBlock)
	for _, alt := range t.Children(blk) {
		if t.ChildCount(alt) == 0 {
			continue
		}
		if ref, _ := recursiveRef(t, name, t.Child(alt, 0)); ref != tree.Nil {
			return true
		}
	}
	return false
}

// recursiveRef returns the reference to the rule named name that id is or labels, and the label node if any.
func recursiveRef(t *tree.Tree, name string, id tree.NodeID) (tree.NodeID, tree.NodeID) {
	switch t.Kind(id) {
	case tree.KindRuleRef:
		if t.Text(id) == name {
			return id, tree.Nil
		}
	case tree.KindAssign, tree.KindPlusAssign:
		c := t.Child(id, 0)
		if c != tree.Nil && t.Kind(c) == tree.KindRuleRef && t.Text(c) == name {
			return c, id
		}
	}
	return tree.Nil, tree.Nil
}

// operandRef is recursiveRef restricted to references without arguments, the only ones that can be operands.
func operandRef(t *tree.Tree, name string, id tree.NodeID) (tree.NodeID, tree.NodeID) {
	ref, label := recursiveRef(t, name, id)
	if ref == tree.Nil || t.FirstChildOfKind(ref, tree.KindArgAction) != tree.Nil {
		return tree.Nil, tree.Nil
	}
	return ref, label
}

func isEpsilon(k tree.Kind) bool {
	return k == tree.KindAction || k == tree.KindSempred
}

func (z *analyzer) analyze(r *grammar.Rule) *analysis {
	t := z.t
	a := &analysis{
		rule: r,
		lr:   grammar.NewLeftRecursion(r.Node, r.NumberOfAlts),
	}
	for _, alt := range r.Alts[1:] {
		info := &grammar.LeftRecursiveAlt{
			AltNum:      alt.Num,
			Precedence:  a.lr.PrecedenceOf(alt.Num),
			Assoc:       z.assoc(alt.Node),
			Label:       t.Node(alt.Node).AltLabel,
			LabelPos:    t.Node(alt.Node).AltLabelPos,
			OriginalAlt: alt.Node,
			Alt:         tree.Nil,
		}
		info.Kind = z.classify(r.Name, alt.Node)
		aa := &analyzedAlt{
			info:      info,
			rewritten: z.rewrite(r.Name, info),
		}
		info.AltText = tree.Format(t, aa.rewritten)
		if info.Kind.IsOperator() {
			a.ops = append(a.ops, aa)
			a.lr.OpAlts = append(a.lr.OpAlts, info)
		} else {
			if t.ChildCount(alt.Node) > 0 {
				if ref, _ := recursiveRef(t, r.Name, t.Child(alt.Node, 0)); ref != tree.Nil {
					a.leftRecPrimary = true
				}
			}
			a.primary = append(a.primary, aa)
			a.lr.PrimaryAlts = append(a.lr.PrimaryAlts, info)
		}
	}
	return a
}

func (z *analyzer) assoc(alt tree.NodeID) grammar.Assoc {
	for _, o := range z.t.Node(alt).Options {
		if o.Name != "assoc" {
			continue
		}
		switch o.Value {
		case "left":
			return grammar.AssocLeft
		case "right":
			return grammar.AssocRight
		}
		z.errs.Report(verr.ErrIllegalOptionValue, o.Pos, o.Name, o.Value)
	}
	return grammar.AssocLeft
}

// classify tells the shape of an alternative. Trailing actions and predicates do not count as elements.
//
//	ternary: e ... e ... e
//	binary:  e ... e
//	suffix:  e ...
//	prefix:  ... e
func (z *analyzer) classify(name string, alt tree.NodeID) grammar.LeftRecursiveAltKind {
	t := z.t
	cs := t.Children(alt)
	last := len(cs) - 1
	for last >= 0 && isEpsilon(t.Kind(cs[last])) {
		last--
	}
	isRec := func(id tree.NodeID) bool {
		ref, _ := operandRef(t, name, id)
		return ref != tree.Nil
	}
	leftRec := len(cs) > 0 && isRec(cs[0])
	switch {
	case leftRec && last >= 1 && isRec(cs[last]):
		for _, c := range cs[1:last] {
			if isRec(c) {
				return grammar.LeftRecursiveAltKindTernary
			}
		}
		return grammar.LeftRecursiveAltKindBinary
	case leftRec && len(cs) >= 2:
		return grammar.LeftRecursiveAltKindSuffix
	case !leftRec && last >= 1 && isRec(cs[last]):
		return grammar.LeftRecursiveAltKindPrefix
	}
	return grammar.LeftRecursiveAltKindOther
}

// rewrite returns a detached copy of the alternative in the form it takes in the rewritten rule.
func (z *analyzer) rewrite(name string, info *grammar.LeftRecursiveAlt) tree.NodeID {
	t := z.t
	dup := t.Dup(info.OriginalAlt)
	n := t.Node(dup)
	n.AltLabel = ""
	n.Options = nil

	switch info.Kind {
	case grammar.LeftRecursiveAltKindBinary, grammar.LeftRecursiveAltKindTernary:
		z.stripLeftRecursion(name, dup, info)
		info.NextPrecedence = info.Precedence + 1
		if info.Assoc == grammar.AssocRight {
			info.NextPrecedence = info.Precedence
		}
		z.setTrailingPrecedence(name, dup, info.NextPrecedence)
	case grammar.LeftRecursiveAltKindSuffix:
		z.stripLeftRecursion(name, dup, info)
	case grammar.LeftRecursiveAltKindPrefix:
		info.NextPrecedence = info.Precedence
		z.setTrailingPrecedence(name, dup, info.Precedence)
	}
	return dup
}

func (z *analyzer) stripLeftRecursion(name string, alt tree.NodeID, info *grammar.LeftRecursiveAlt) {
	t := z.t
	_, label := recursiveRef(t, name, t.Child(alt, 0))
	if label != tree.Nil {
		info.LeftRecursiveRuleRefLabel = t.Text(label)
		info.IsListLabel = t.Kind(label) == tree.KindPlusAssign
	}
	t.RemoveChild(alt, 0)
}

// LeftOperandLabel returns the label node of the left operand in the alternative as written, or tree.Nil.
func LeftOperandLabel(t *tree.Tree, ruleName string, info *grammar.LeftRecursiveAlt) tree.NodeID {
	if info.LeftRecursiveRuleRefLabel == "" || t.ChildCount(info.OriginalAlt) == 0 {
		return tree.Nil
	}
	_, label := recursiveRef(t, ruleName, t.Child(info.OriginalAlt, 0))
	return label
}

// setTrailingPrecedence sets the p option of the rightmost recursive reference of an alternative.
func (z *analyzer) setTrailingPrecedence(name string, alt tree.NodeID, prec int) {
	t := z.t
	cs := t.Children(alt)
	for i := len(cs) - 1; i >= 0; i-- {
		if isEpsilon(t.Kind(cs[i])) {
			continue
		}
		if ref, _ := operandRef(t, name, cs[i]); ref != tree.Nil {
			t.SetOption(ref, grammar.PrecedenceOptionName, strconv.Itoa(prec))
		}
		return
	}
}
