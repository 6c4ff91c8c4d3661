package grammar

import (
	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// lexerCommandArity tells whether each lexer command takes an argument.
var lexerCommandArity = map[string]bool{
	"mode":     true,
	"pushMode": true,
	"type":     true,
	"channel":  true,
	"popMode":  false,
	"skip":     false,
	"more":     false,
}

// CheckBasics reports the structural errors that need only the collected rule table: misplaced rules and
// prequels, inconsistent alternative labels, illegal options, and misused lexer commands.
func (g *Grammar) CheckBasics() {
	c := &basicChecker{
		g:          g,
		t:          g.Tree,
		errs:       g.errs,
		checkAssoc: g.checkAssoc,
	}
	c.checkPrequels()
	c.checkModes()

	var rules []tree.NodeID
	t := g.Tree
	for _, n := range t.Children(t.Root) {
		switch t.Kind(n) {
		case tree.KindRule:
			rules = append(rules, n)
		case tree.KindMode:
			rules = append(rules, t.ChildrenOfKind(n, tree.KindRule)...)
		}
	}
	if len(rules) == 0 {
		g.errs.Report(verr.ErrNoRules, nil, g.Name)
	}
	for _, r := range rules {
		c.checkRule(r)
	}
}

type basicChecker struct {
	g    *Grammar
	t    *tree.Tree
	errs *verr.Manager

	// checkAssoc enables the placement check of the assoc option.
	checkAssoc bool

	rule       string
	inFragment bool
}

func (c *basicChecker) checkPrequels() {
	t := c.t
	root := t.Root
	for _, kind := range []tree.Kind{tree.KindOptions, tree.KindTokensSpec} {
		if ns := t.ChildrenOfKind(root, kind); len(ns) > 1 {
			c.errs.Report(verr.ErrRepeatedPrequel, t.Node(ns[1]).Pos)
		}
	}
	for _, opts := range t.ChildrenOfKind(root, tree.KindOptions) {
		for _, o := range t.Node(opts).Options {
			c.checkOption(grammarOptions, o)
		}
	}
	for _, toks := range t.ChildrenOfKind(root, tree.KindTokensSpec) {
		for _, id := range t.Children(toks) {
			if !IsTokenName(t.Text(id)) {
				c.errs.Report(verr.ErrTokenNamesMustStartUpper, t.Node(id).Pos, t.Text(id))
			}
		}
	}
	for _, chs := range t.ChildrenOfKind(root, tree.KindChannelsSpec) {
		switch {
		case c.g.IsParser():
			c.errs.Report(verr.ErrChannelsBlockInParserGrammar, t.Node(chs).Pos)
		case c.g.IsCombined():
			c.errs.Report(verr.ErrChannelsBlockInCombinedGrammar, t.Node(chs).Pos)
		}
	}
}

func (c *basicChecker) checkModes() {
	t := c.t
	for _, m := range t.ChildrenOfKind(t.Root, tree.KindMode) {
		if !c.g.IsLexer() {
			c.errs.Report(verr.ErrModeNotInLexer, t.Node(m).Pos, t.Text(m))
		}
		nonFragments := 0
		for _, r := range t.ChildrenOfKind(m, tree.KindRule) {
			if !hasModifier(t, r, "fragment") {
				nonFragments++
			}
		}
		if nonFragments == 0 {
			c.errs.Report(verr.ErrModeWithoutRules, t.Node(m).Pos, t.Text(m))
		}
	}
}

func hasModifier(t *tree.Tree, rule tree.NodeID, mod string) bool {
	for _, m := range t.ChildrenOfKind(rule, tree.KindModifier) {
		if t.Text(m) == mod {
			return true
		}
	}
	return false
}

func (c *basicChecker) checkOption(legal map[string]struct{}, o tree.Option) {
	if _, ok := legal[o.Name]; !ok {
		c.errs.Report(verr.ErrIllegalOption, o.Pos, o.Name)
		return
	}
	if o.Name == CaseInsensitiveOptionName && o.Value != "true" && o.Value != "false" {
		c.errs.Report(verr.ErrIllegalOptionValue, o.Pos, o.Name, o.Value)
	}
}

func (c *basicChecker) checkRule(rule tree.NodeID) {
	t := c.t
	n := t.Node(rule)
	c.rule = n.Text
	lexerRule := IsTokenName(n.Text)
	c.inFragment = lexerRule && hasModifier(t, rule, "fragment")

	if c.g.IsLexer() && !lexerRule {
		c.errs.Report(verr.ErrParserRulesNotAllowed, n.Pos, n.Text)
	}
	if c.g.IsParser() && lexerRule {
		c.errs.Report(verr.ErrLexerRulesNotAllowed, n.Pos, n.Text)
	}
	for _, m := range t.ChildrenOfKind(rule, tree.KindModifier) {
		mod := t.Text(m)
		if (lexerRule && mod != "fragment") || (!lexerRule && mod == "fragment") {
			c.errs.Report(verr.ErrInvalidRuleModifier, t.Node(m).Pos, mod, n.Text)
		}
	}
	legal := parserRuleOptions
	if lexerRule {
		legal = lexerRuleOptions
	}
	for _, opts := range t.ChildrenOfKind(rule, tree.KindOptions) {
		for _, o := range t.Node(opts).Options {
			c.checkOption(legal, o)
		}
	}

	blk := t.FirstChildOfKind(rule, tree.KindBlock)
	t.Walk(blk, func(id tree.NodeID) bool {
		c.checkElement(id)
		return true
	})

	if !lexerRule {
		c.checkAltLabels(rule, blk)
	}
}

func (c *basicChecker) checkElement(id tree.NodeID) {
	t := c.t
	n := t.Node(id)
	switch n.Kind {
	case tree.KindRuleRef:
		if c.g.IsLexer() || IsTokenName(c.rule) {
			c.errs.Report(verr.ErrParserRuleRefInLexerRule, n.Pos, n.Text, c.rule)
		}
	case tree.KindAssign, tree.KindPlusAssign:
		switch t.Kind(t.Child(id, 0)) {
		case tree.KindTokenRef, tree.KindStringLiteral, tree.KindRange, tree.KindSet, tree.KindNot, tree.KindRuleRef, tree.KindWildcard:
		default:
			c.errs.Report(verr.ErrLabelBlockNotASet, n.Pos, n.Text)
		}
	case tree.KindStringLiteral:
		if n.Text == "''" {
			c.errs.Report(verr.ErrEmptyStringsAndSetsNotAllowed, n.Pos, "''")
		}
	case tree.KindCharSet:
		if n.Text == "[]" {
			c.errs.Report(verr.ErrEmptyStringsAndSetsNotAllowed, n.Pos, "[]")
		}
	case tree.KindAction:
		if c.inFragment {
			c.errs.Report(verr.ErrFragmentActionIgnored, n.Pos, c.rule)
		}
	case tree.KindLexerCommands:
		c.checkLexerCommands(id)
	case tree.KindBlock:
		for _, o := range n.Options {
			c.checkOption(blockOptions, o)
		}
	}
	if n.Kind != tree.KindAlt && n.Kind != tree.KindBlock {
		for _, o := range n.Options {
			c.checkElementOption(n, o)
		}
	}
}

func (c *basicChecker) checkElementOption(n *tree.Node, o tree.Option) {
	if c.checkAssoc && o.Name == "assoc" && n.Kind != tree.KindAlt {
		c.errs.Report(verr.ErrUnrecognizedAssocOption, o.Pos, c.rule)
	}
	// Options without a value are user annotations and are not checked.
	if o.Value == "" {
		return
	}
	var legal map[string]struct{}
	switch n.Kind {
	case tree.KindRuleRef:
		legal = ruleRefOptions
	case tree.KindTokenRef, tree.KindStringLiteral:
		legal = tokenOptions
	case tree.KindSempred:
		legal = semPredOptions
	default:
		return
	}
	if _, ok := legal[o.Name]; !ok {
		c.errs.Report(verr.ErrIllegalOption, o.Pos, o.Name)
	}
}

func (c *basicChecker) checkLexerCommands(cmds tree.NodeID) {
	t := c.t
	alt := t.Parent(cmds)
	blk := t.Parent(alt)
	outermost := blk != tree.Nil && t.Kind(t.Parent(blk)) == tree.KindRule
	for _, cmd := range t.Children(cmds) {
		n := t.Node(cmd)
		if !outermost || t.ChildCount(blk) > 1 {
			c.errs.Report(verr.ErrLexerCommandPlacementIssue, n.Pos, c.rule)
		}
		if c.inFragment {
			c.errs.Report(verr.ErrFragmentActionIgnored, n.Pos, c.rule)
		}
		takesArg, ok := lexerCommandArity[n.Text]
		switch {
		case !ok:
			c.errs.Report(verr.ErrInvalidLexerCommand, n.Pos, n.Text)
		case takesArg && !n.HasArg:
			c.errs.Report(verr.ErrMissingLexerCommandArgument, n.Pos, n.Text)
		case !takesArg && n.HasArg:
			c.errs.Report(verr.ErrUnwantedLexerCommandArgument, n.Pos, n.Text)
		}
	}
}

func (c *basicChecker) checkAltLabels(rule, blk tree.NodeID) {
	t := c.t
	name := t.Text(rule)
	labeled := 0
	for _, alt := range t.Children(blk) {
		n := t.Node(alt)
		if n.AltLabel == "" {
			continue
		}
		labeled++
		if r := c.g.Rule(decapitalize(n.AltLabel)); r != nil {
			c.errs.Report(verr.ErrAltLabelConflictsWithRule, n.AltLabelPos, n.AltLabel, r.Name)
		}
		if owner, ok := c.g.altLabelOwners[n.AltLabel]; ok && owner != name {
			c.errs.Report(verr.ErrAltLabelRedef, n.AltLabelPos, n.AltLabel, name, owner)
		}
	}
	if labeled > 0 && labeled != t.ChildCount(blk) {
		c.errs.Report(verr.ErrRuleWithTooFewAltLabels, t.Node(rule).Pos, name)
	}
}
