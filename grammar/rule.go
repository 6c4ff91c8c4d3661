package grammar

import (
	"fmt"

	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// AttributeResolver resolves the `$x` and `$x.y` references of an action. A grammar, a rule, and an alternative
// each resolve against a different scope chain.
type AttributeResolver interface {
	ResolveToAttribute(x string) *attr.Attribute
	ResolveToQualifiedAttribute(x, y string) *attr.Attribute
	ResolvesToLabel(x string) bool
	ResolvesToListLabel(x string) bool
	ResolvesToToken(x string) bool
	ResolvesToAttributeDict(x string) bool
	ResolveToRule(x string) *Rule
}

type LabelType int

const (
	LabelTypeRule LabelType = iota
	LabelTypeToken
	LabelTypeRuleList
	LabelTypeTokenList
)

func (t LabelType) String() string {
	switch t {
	case LabelTypeRule:
		return "RULE_LABEL"
	case LabelTypeToken:
		return "TOKEN_LABEL"
	case LabelTypeRuleList:
		return "RULE_LIST_LABEL"
	case LabelTypeTokenList:
		return "TOKEN_LIST_LABEL"
	}
	return fmt.Sprintf("LabelType(%d)", int(t))
}

// LabelElementPair binds a label to the element it labels.
type LabelElementPair struct {
	Name string
	Pos  tree.Position

	// Label is the ASSIGN or PLUS_ASSIGN node.
	Label tree.NodeID

	Element tree.NodeID

	// ElementText is the name of a labeled rule or token reference. It is kept apart from the tree so a pair
	// stays usable after the labeled element has been removed by a rewrite.
	ElementText string

	Type LabelType
}

func NewLabelElementPair(t *tree.Tree, label tree.NodeID) *LabelElementPair {
	l := t.Node(label)
	elem := t.Child(label, 0)
	p := &LabelElementPair{
		Name:    l.Text,
		Pos:     l.Pos,
		Label:   label,
		Element: elem,
	}
	if elem != tree.Nil {
		p.ElementText = t.Text(elem)
	}
	isRule := elem != tree.Nil && t.Kind(elem) == tree.KindRuleRef
	switch {
	case l.Kind == tree.KindAssign && isRule:
		p.Type = LabelTypeRule
	case l.Kind == tree.KindAssign:
		p.Type = LabelTypeToken
	case isRule:
		p.Type = LabelTypeRuleList
	default:
		p.Type = LabelTypeTokenList
	}
	return p
}

// predefinedScope returns the properties a label of the given type exposes. Lexer grammars and list labels
// expose none.
func predefinedScope(g *Grammar, typ LabelType) *attr.Dict {
	if g.IsLexer() {
		return nil
	}
	switch typ {
	case LabelTypeRule:
		return attr.PredefinedRuleProperties
	case LabelTypeToken:
		return attr.PredefinedTokenProperties
	}
	return nil
}

type ActionKind int

const (
	ActionKindNamed ActionKind = iota
	ActionKindAlt
	ActionKindPredicate
	ActionKindCatch
	ActionKindFinally
)

func (k ActionKind) String() string {
	switch k {
	case ActionKindNamed:
		return "named action"
	case ActionKindAlt:
		return "action"
	case ActionKindPredicate:
		return "predicate"
	case ActionKindCatch:
		return "catch"
	case ActionKindFinally:
		return "finally"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is an action, a predicate, or an exception handler together with the scope its attribute
// references resolve against.
type Action struct {
	Kind ActionKind

	// Node is the ACTION or SEMPRED node holding the text.
	Node tree.NodeID
	Text string
	Pos  tree.Position

	// Scope and Name are set for named actions, like `parser` and `members` in @parser::members.
	Scope string
	Name  string

	Rule     *Rule
	Alt      *Alternative
	Resolver AttributeResolver
}

// Key returns scope::name of a named action.
func (a *Action) Key() string {
	return a.Scope + "::" + a.Name
}

// Alternative is an outermost alternative of a rule.
type Alternative struct {
	Rule *Rule
	Num  int
	Node tree.NodeID

	// TokenRefs holds token references and string literals by text.
	TokenRefs map[string][]tree.NodeID
	RuleRefs  map[string][]tree.NodeID
	LabelDefs map[string][]*LabelElementPair

	labelOrder []string

	Actions []*Action
}

func newAlternative(r *Rule, num int, node tree.NodeID) *Alternative {
	return &Alternative{
		Rule:      r,
		Num:       num,
		Node:      node,
		TokenRefs: map[string][]tree.NodeID{},
		RuleRefs:  map[string][]tree.NodeID{},
		LabelDefs: map[string][]*LabelElementPair{},
	}
}

func (a *Alternative) addLabel(p *LabelElementPair) {
	if _, ok := a.LabelDefs[p.Name]; !ok {
		a.labelOrder = append(a.labelOrder, p.Name)
	}
	a.LabelDefs[p.Name] = append(a.LabelDefs[p.Name], p)
}

// AddLabel records the definition of a label whose element may no longer be in the tree.
func (a *Alternative) AddLabel(p *LabelElementPair) {
	a.addLabel(p)
}

// Labels returns the label definitions in order of first appearance.
func (a *Alternative) Labels() []*LabelElementPair {
	var ps []*LabelElementPair
	for _, n := range a.labelOrder {
		ps = append(ps, a.LabelDefs[n]...)
	}
	return ps
}

func (a *Alternative) anyLabelDef(x string) *LabelElementPair {
	if ps := a.LabelDefs[x]; len(ps) > 0 {
		return ps[0]
	}
	return nil
}

func (a *Alternative) ResolveToAttribute(x string) *attr.Attribute {
	return a.Rule.ResolveToAttribute(x)
}

func (a *Alternative) ResolveToQualifiedAttribute(x, y string) *attr.Attribute {
	g := a.Rule.g
	if _, ok := a.TokenRefs[x]; ok {
		return predefinedScope(g, LabelTypeToken).Get(y)
	}
	if _, ok := a.RuleRefs[x]; ok {
		if r := g.Rule(x); r != nil {
			return r.resolveRetvalOrProperty(y)
		}
		return nil
	}
	l := a.anyLabelDef(x)
	if l == nil {
		return nil
	}
	if l.Type == LabelTypeRule {
		if r := g.Rule(l.ElementText); r != nil {
			return r.resolveRetvalOrProperty(y)
		}
		return nil
	}
	return predefinedScope(g, l.Type).Get(y)
}

func (a *Alternative) ResolvesToLabel(x string) bool {
	l := a.anyLabelDef(x)
	return l != nil && (l.Type == LabelTypeToken || l.Type == LabelTypeRule)
}

func (a *Alternative) ResolvesToListLabel(x string) bool {
	l := a.anyLabelDef(x)
	return l != nil && (l.Type == LabelTypeTokenList || l.Type == LabelTypeRuleList)
}

func (a *Alternative) ResolvesToToken(x string) bool {
	if _, ok := a.TokenRefs[x]; ok {
		return true
	}
	l := a.anyLabelDef(x)
	return l != nil && l.Type == LabelTypeToken
}

func (a *Alternative) ResolvesToAttributeDict(x string) bool {
	if a.ResolvesToToken(x) {
		return true
	}
	if _, ok := a.RuleRefs[x]; ok {
		return true
	}
	l := a.anyLabelDef(x)
	return l != nil && l.Type == LabelTypeRule
}

func (a *Alternative) ResolveToRule(x string) *Rule {
	g := a.Rule.g
	if x == a.Rule.Name {
		return a.Rule
	}
	if l := a.anyLabelDef(x); l != nil {
		if l.Type == LabelTypeRule {
			return g.Rule(l.ElementText)
		}
		return nil
	}
	if _, ok := a.RuleRefs[x]; ok {
		return g.Rule(x)
	}
	return nil
}

type Rule struct {
	Name string
	Pos  tree.Position

	// Index is assigned when the rule is defined and never changes.
	Index int

	Node      tree.NodeID
	Modifiers []string

	// Mode is the lexer mode of a lexer rule and empty for a parser rule.
	Mode string

	Args    *attr.Dict
	Retvals *attr.Dict
	Locals  *attr.Dict

	// NamedActions holds @init, @after, and the like by name.
	NamedActions map[string]*Action
	Exceptions   []*Action
	Finally      *Action

	// Actions lists the actions and predicates of all alternatives.
	Actions []*Action

	// Alts holds the outermost alternatives from index 1; index 0 is unused.
	NumberOfAlts int
	Alts         []*Alternative

	// ActionIndex numbers the actions of a lexer rule within the grammar.
	ActionIndex int

	IsStartRule bool

	// LeftRecursion is set when the rule has been rewritten from a left-recursive form.
	LeftRecursion *LeftRecursion

	g *Grammar
}

func newRule(g *Grammar, t *tree.Tree, node tree.NodeID) *Rule {
	n := t.Node(node)
	r := &Rule{
		Name:         n.Text,
		Pos:          n.Pos,
		Node:         node,
		NamedActions: map[string]*Action{},
		ActionIndex:  -1,
		g:            g,
	}
	blk := t.FirstChildOfKind(node, tree.KindBlock)
	r.NumberOfAlts = t.ChildCount(blk)
	r.Alts = make([]*Alternative, r.NumberOfAlts+1)
	for i, alt := range t.Children(blk) {
		r.Alts[i+1] = newAlternative(r, i+1, alt)
	}
	for _, m := range t.ChildrenOfKind(node, tree.KindModifier) {
		r.Modifiers = append(r.Modifiers, t.Text(m))
	}
	return r
}

func (r *Rule) Grammar() *Grammar {
	return r.g
}

func (r *Rule) IsLexerRule() bool {
	return IsTokenName(r.Name)
}

func (r *Rule) IsFragment() bool {
	for _, m := range r.Modifiers {
		if m == "fragment" {
			return true
		}
	}
	return false
}

// AltLabels returns the alternatives carrying each `# label`, in alternative order.
func (r *Rule) AltLabels() map[string][]*Alternative {
	t := r.g.Tree
	labels := map[string][]*Alternative{}
	if r.LeftRecursion != nil {
		for _, a := range r.LeftRecursion.Alts() {
			if a.Label != "" {
				labels[a.Label] = append(labels[a.Label], r.Alts[1])
			}
		}
	}
	for _, alt := range r.Alts[1:] {
		if l := t.Node(alt.Node).AltLabel; l != "" {
			labels[l] = append(labels[l], alt)
		}
	}
	return labels
}

// HasAltSpecificContexts reports whether alternatives of the rule get contexts of their own.
func (r *Rule) HasAltSpecificContexts() bool {
	return len(r.AltLabels()) > 0
}

// LabelDefs returns the label definitions of all alternatives. A label defined in several alternatives
// appears several times.
func (r *Rule) LabelDefs() []*LabelElementPair {
	var ps []*LabelElementPair
	for _, alt := range r.Alts[1:] {
		ps = append(ps, alt.Labels()...)
	}
	return ps
}

func (r *Rule) anyLabelDef(x string) *LabelElementPair {
	for _, alt := range r.Alts[1:] {
		if l := alt.anyLabelDef(x); l != nil {
			return l
		}
	}
	return nil
}

func (r *Rule) resolveRetvalOrProperty(y string) *attr.Attribute {
	if a := r.Retvals.Get(y); a != nil {
		return a
	}
	return predefinedScope(r.g, LabelTypeRule).Get(y)
}

// ResolveToAttribute looks x up in arguments, return values, locals, and then the predefined properties.
func (r *Rule) ResolveToAttribute(x string) *attr.Attribute {
	if a := r.Args.Get(x); a != nil {
		return a
	}
	if a := r.Retvals.Get(x); a != nil {
		return a
	}
	if a := r.Locals.Get(x); a != nil {
		return a
	}
	return predefinedScope(r.g, LabelTypeRule).Get(x)
}

func (r *Rule) ResolveToQualifiedAttribute(x, y string) *attr.Attribute {
	l := r.anyLabelDef(x)
	if l == nil {
		return nil
	}
	if l.Type == LabelTypeRule {
		if callee := r.g.Rule(l.ElementText); callee != nil {
			return callee.resolveRetvalOrProperty(y)
		}
		return nil
	}
	return predefinedScope(r.g, l.Type).Get(y)
}

func (r *Rule) ResolvesToLabel(x string) bool {
	l := r.anyLabelDef(x)
	return l != nil && (l.Type == LabelTypeToken || l.Type == LabelTypeRule)
}

func (r *Rule) ResolvesToListLabel(x string) bool {
	l := r.anyLabelDef(x)
	return l != nil && (l.Type == LabelTypeTokenList || l.Type == LabelTypeRuleList)
}

func (r *Rule) ResolvesToToken(x string) bool {
	l := r.anyLabelDef(x)
	return l != nil && l.Type == LabelTypeToken
}

func (r *Rule) ResolvesToAttributeDict(x string) bool {
	return r.ResolvesToToken(x)
}

// ResolveToRule returns the rule x names as the rule itself or as a rule label. Plain rule references are only
// visible from inside an alternative.
func (r *Rule) ResolveToRule(x string) *Rule {
	if x == r.Name {
		return r
	}
	if l := r.anyLabelDef(x); l != nil && l.Type == LabelTypeRule {
		return r.g.Rule(l.ElementText)
	}
	return nil
}

func (r *Rule) String() string {
	return fmt.Sprintf("%v(%v alts)", r.Name, r.NumberOfAlts)
}
