package grammar

import (
	"fmt"
	"strconv"
	"strings"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/grammar/scope"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// CheckSymbols reports names that collide: rules using reserved names, redefined named actions, and labels and
// attributes conflicting with rules, tokens, or each other. It needs the symbols CollectSymbols found.
func (g *Grammar) CheckSymbols() {
	t := g.Tree
	for _, r := range g.ruleList {
		if IsCommonConstant(r.Name) {
			g.errs.Report(verr.ErrReservedRuleName, r.Pos, r.Name)
		}
	}
	for _, id := range g.syms.tokensDefs {
		if IsCommonConstant(t.Text(id)) {
			g.errs.Report(verr.ErrTokenConflictsWithCommonConstants, t.Node(id).Pos, t.Text(id))
		}
	}
	g.checkActionRedefinitions()

	tokenIDs := map[string]struct{}{}
	for _, id := range g.syms.tokenIDRefs {
		tokenIDs[t.Text(id)] = struct{}{}
	}
	for _, r := range g.ruleList {
		g.checkAttributeConflicts(r, tokenIDs)
		g.checkLabelConflicts(r, tokenIDs)
	}
}

func (g *Grammar) checkActionRedefinitions() {
	t := g.Tree
	seen := map[string]struct{}{}
	for _, id := range g.syms.namedActions {
		n := t.Node(id)
		s := n.Scope
		if s == "" {
			s = g.DefaultActionScope()
		}
		key := s + "::" + n.Text
		if _, ok := seen[key]; ok {
			g.errs.Report(verr.ErrActionRedefinition, n.Pos, n.Text)
			continue
		}
		seen[key] = struct{}{}
	}
}

func (g *Grammar) checkAttributeConflicts(r *Rule, tokenIDs map[string]struct{}) {
	for _, c := range []struct {
		dict     *attr.Dict
		withRule *verr.Kind
		withTok  *verr.Kind
	}{
		{r.Args, verr.ErrArgConflictsWithRule, verr.ErrArgConflictsWithToken},
		{r.Retvals, verr.ErrRetvalConflictsWithRule, verr.ErrRetvalConflictsWithToken},
		{r.Locals, verr.ErrLocalConflictsWithRule, verr.ErrLocalConflictsWithToken},
	} {
		for _, a := range c.dict.Attributes() {
			if g.Rule(a.Name) != nil {
				g.errs.Report(c.withRule, g.attrPos(r, a), a.Name, r.Name)
			}
			if _, ok := tokenIDs[a.Name]; ok {
				g.errs.Report(c.withTok, g.attrPos(r, a), a.Name, r.Name)
			}
		}
	}
	for _, c := range []struct {
		dict *attr.Dict
		ref  *attr.Dict
		kind *verr.Kind
	}{
		{r.Retvals, r.Args, verr.ErrRetvalConflictsWithArg},
		{r.Locals, r.Args, verr.ErrLocalConflictsWithArg},
		{r.Locals, r.Retvals, verr.ErrLocalConflictsWithRetval},
	} {
		for _, name := range c.dict.Intersection(c.ref) {
			g.errs.Report(c.kind, g.attrPos(r, c.dict.Get(name)), name, r.Name)
		}
	}
}

func (g *Grammar) attrPos(r *Rule, a *attr.Attribute) tree.Position {
	if a.Pos.Row == 0 {
		return r.Pos
	}
	return a.Pos
}

func (g *Grammar) checkLabelConflicts(r *Rule, tokenIDs map[string]struct{}) {
	altSpecific := r.HasAltSpecificContexts()
	lrAltLabels := map[tree.NodeID]string{}
	if r.LeftRecursion != nil {
		for _, a := range r.LeftRecursion.Alts() {
			if a.Alt != tree.Nil {
				lrAltLabels[a.Alt] = a.Label
			}
		}
	}
	namespace := map[string]*LabelElementPair{}
	for _, alt := range r.Alts[1:] {
		for _, name := range alt.labelOrder {
			pairs := alt.LabelDefs[name]
			if !altSpecific {
				g.checkLabelPairs(r, namespace, pairs, tokenIDs)
				continue
			}
			var groups []string
			byAltLabel := map[string][]*LabelElementPair{}
			for _, p := range pairs {
				l, ok := g.enclosingAltLabel(p.Label, lrAltLabels)
				if !ok {
					continue
				}
				if _, ok := byAltLabel[l]; !ok {
					groups = append(groups, l)
				}
				byAltLabel[l] = append(byAltLabel[l], p)
			}
			for _, l := range groups {
				g.checkLabelPairs(r, map[string]*LabelElementPair{}, byAltLabel[l], tokenIDs)
			}
		}
	}
}

// enclosingAltLabel finds the `# label` of the alternative enclosing a label definition.
func (g *Grammar) enclosingAltLabel(id tree.NodeID, lrAltLabels map[tree.NodeID]string) (string, bool) {
	t := g.Tree
	for n := id; n != tree.Nil; n = t.Parent(n) {
		if t.Kind(n) != tree.KindAlt {
			continue
		}
		if l := t.Node(n).AltLabel; l != "" {
			return l, true
		}
		if l, ok := lrAltLabels[n]; ok {
			return l, true
		}
	}
	return "", false
}

func (g *Grammar) checkLabelPairs(r *Rule, namespace map[string]*LabelElementPair, pairs []*LabelElementPair, tokenIDs map[string]struct{}) {
	for _, p := range pairs {
		g.checkLabelConflict(r, p, tokenIDs)
		prev, ok := namespace[p.Name]
		if !ok {
			namespace[p.Name] = p
			continue
		}
		g.checkLabelTypeMismatch(r, prev, p)
	}
}

func (g *Grammar) checkLabelConflict(r *Rule, p *LabelElementPair, tokenIDs map[string]struct{}) {
	if g.Rule(p.Name) != nil {
		g.errs.Report(verr.ErrLabelConflictsWithRule, p.Pos, p.Name, r.Name)
	}
	if _, ok := tokenIDs[p.Name]; ok {
		g.errs.Report(verr.ErrLabelConflictsWithToken, p.Pos, p.Name, r.Name)
	}
	if r.Args.Get(p.Name) != nil {
		g.errs.Report(verr.ErrLabelConflictsWithArg, p.Pos, p.Name, r.Name)
	}
	if r.Retvals.Get(p.Name) != nil {
		g.errs.Report(verr.ErrLabelConflictsWithRetval, p.Pos, p.Name, r.Name)
	}
	if r.Locals.Get(p.Name) != nil {
		g.errs.Report(verr.ErrLabelConflictsWithLocal, p.Pos, p.Name, r.Name)
	}
}

func (g *Grammar) checkLabelTypeMismatch(r *Rule, prev, p *LabelElementPair) {
	// Labels of a rewritten rule no longer sit where they were written.
	pos := p.Pos
	if r.LeftRecursion != nil {
		pos = r.Pos
	}
	if prev.Type != p.Type {
		g.errs.Report(verr.ErrLabelTypeConflict, pos, p.Name, fmt.Sprintf("%v!=%v", p.Type, prev.Type))
	}
	isRuleLabel := func(typ LabelType) bool {
		return typ == LabelTypeRule || typ == LabelTypeRuleList
	}
	if prev.ElementText != p.ElementText && isRuleLabel(prev.Type) && isRuleLabel(p.Type) {
		g.errs.Report(verr.ErrLabelTypeConflict, pos, labelText(p), labelText(prev))
	}
}

func labelText(p *LabelElementPair) string {
	op := "="
	if p.Type == LabelTypeRuleList || p.Type == LabelTypeTokenList {
		op = "+="
	}
	return p.Name + op + p.ElementText
}

// CheckModeConflicts reports lexer modes named like a token or a reserved constant. Token types must have been
// assigned.
func (g *Grammar) CheckModeConflicts() {
	if g.IsParser() {
		return
	}
	t := g.Tree
	for _, m := range t.ChildrenOfKind(t.Root, tree.KindMode) {
		name := t.Text(m)
		if name != DefaultModeName && IsCommonConstant(name) {
			g.errs.Report(verr.ErrModeConflictsWithCommonConstants, t.Node(m).Pos, name)
		}
		if _, ok := g.TokenType(name); ok {
			g.errs.Report(verr.ErrModeConflictsWithToken, t.Node(m).Pos, name)
		}
	}
}

// CheckUnreachableTokens warns about lexer rules of one mode matching the same string literal, where only the
// first one can ever match.
func (g *Grammar) CheckUnreachableTokens() {
	if g.IsParser() {
		return
	}
	for _, mode := range g.modes {
		var rules []*Rule
		var values [][]string
		for _, r := range g.modeRules[mode] {
			if vs := g.singleTokenValues(r); len(vs) > 0 {
				rules = append(rules, r)
				values = append(values, vs)
			}
		}
		for i, r1 := range rules {
			g.checkOverlap(r1, r1, values[i], values[i])
			if r1.IsFragment() {
				continue
			}
			for j := i + 1; j < len(rules); j++ {
				if !rules[j].IsFragment() {
					g.checkOverlap(r1, rules[j], values[i], values[j])
				}
			}
		}
	}
}

// singleTokenValues returns, for the alternatives of r made of string literals only, the strings they match.
func (g *Grammar) singleTokenValues(r *Rule) []string {
	t := g.Tree
	var values []string
	for _, alt := range r.Alts[1:] {
		var b strings.Builder
		literalsOnly := true
		for _, c := range t.Children(alt.Node) {
			if t.Kind(c) == tree.KindLexerCommands {
				continue
			}
			if t.Kind(c) != tree.KindStringLiteral {
				literalsOnly = false
				break
			}
			lit := t.Text(c)
			b.WriteString(lit[1 : len(lit)-1])
		}
		if literalsOnly && t.ChildCount(alt.Node) > 0 {
			values = append(values, b.String())
		}
	}
	return values
}

func (g *Grammar) checkOverlap(r1, r2 *Rule, values1, values2 []string) {
	for i, s1 := range values1 {
		from := 0
		if r1 == r2 {
			from = i + 1
		}
		for _, s2 := range values2[from:] {
			if s1 == s2 {
				g.errs.Report(verr.ErrTokenUnreachable, r2.Pos, r2.Name, s2, r1.Name)
			}
		}
	}
}

// CheckRuleRefs reports references to undefined rules and rule references whose arguments do not match the
// parameters of the callee. Rules no other rule references are marked as start rules.
func (g *Grammar) CheckRuleRefs() {
	t := g.Tree
	for _, r := range g.ruleList {
		r.IsStartRule = !r.IsLexerRule()
	}
	for _, ref := range g.syms.ruleRefs {
		n := t.Node(ref)
		callee := g.Rule(n.Text)
		if callee == nil {
			g.errs.Report(verr.ErrUndefinedRuleRef, n.Pos, n.Text)
			continue
		}
		callee.IsStartRule = false

		want := callee.UserArgCount()
		arg := t.FirstChildOfKind(ref, tree.KindArgAction)
		switch {
		case arg != tree.Nil && want == 0:
			g.errs.Report(verr.ErrRuleHasNoArgs, n.Pos, n.Text)
		case arg == tree.Nil && want > 0:
			g.errs.Report(verr.ErrMissingRuleArgs, n.Pos, n.Text)
		case arg != tree.Nil:
			if got := len(scope.SplitDecls(t.Text(arg), ',')); got != want {
				g.errs.Report(verr.ErrRuleArgCountMismatch, n.Pos, n.Text, want, got)
			}
		}
	}
	for _, r := range g.ruleList {
		if !r.IsLexerRule() {
			continue
		}
		for _, ref := range t.Find(r.Node, tree.KindTokenRef) {
			if name := t.Text(ref); g.Rule(name) == nil {
				g.errs.Report(verr.ErrUndefinedRuleRef, t.Node(ref).Pos, name)
			}
		}
	}
}

// UserArgCount returns the number of arguments a reference to the rule must pass, excluding the precedence a
// rewritten left-recursive rule receives through the p option.
func (r *Rule) UserArgCount() int {
	n := r.Args.Len()
	if r.LeftRecursion != nil && r.Args.Get(PrecedenceArgName) != nil {
		n--
	}
	return n
}

// CheckLexerCommands reports lexer commands whose argument names no known mode, token, or channel. Token and
// channel numbers must have been assigned.
func (g *Grammar) CheckLexerCommands() {
	t := g.Tree
	for _, id := range g.syms.lexerCommands {
		n := t.Node(id)
		if !n.HasArg || isNumber(n.Arg) {
			continue
		}
		switch n.Text {
		case "mode", "pushMode":
			if _, ok := g.modeRules[n.Arg]; !ok && !IsCommonConstant(n.Arg) {
				g.errs.Report(verr.ErrConstantValueIsNotARecognizedMode, n.Pos, n.Arg)
			}
		case "type":
			if _, ok := g.TokenType(n.Arg); !ok && n.Arg != "EOF" {
				g.errs.Report(verr.ErrConstantValueIsNotARecognizedToken, n.Pos, n.Arg)
			}
		case "channel":
			if _, ok := g.ChannelValue(n.Arg); !ok && !IsCommonConstant(n.Arg) {
				g.errs.Report(verr.ErrConstantValueIsNotARecognizedChannel, n.Pos, n.Arg)
			}
		}
	}
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
