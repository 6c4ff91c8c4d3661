package grammar

import (
	"github.com/nihei9/argot/spec/grammar/tree"
)

// collectedSymbols holds the references and definitions CollectSymbols finds, for the symbol checks and the
// type assignment.
type collectedSymbols struct {
	// ruleRefs are the rule references of every rule.
	ruleRefs []tree.NodeID

	// tokenIDRefs are the token references of parser rules and the names of the tokens{} block.
	tokenIDRefs []tree.NodeID

	// terminals are token references and string literals of parser rules, and the names of the tokens{} block.
	terminals []tree.NodeID

	tokensDefs    []tree.NodeID
	channelDefs   []tree.NodeID
	namedActions  []tree.NodeID
	lexerCommands []tree.NodeID
}

// CollectSymbols records the symbols every rule uses and defines: references to tokens and rules, labels, and
// actions together with the scope they resolve against. It must run after the rule table is final.
func (g *Grammar) CollectSymbols() {
	t := g.Tree
	g.syms = &collectedSymbols{}
	for _, c := range t.Children(t.Root) {
		switch t.Kind(c) {
		case tree.KindTokensSpec:
			for _, id := range t.Children(c) {
				g.syms.tokensDefs = append(g.syms.tokensDefs, id)
				g.syms.tokenIDRefs = append(g.syms.tokenIDRefs, id)
				g.syms.terminals = append(g.syms.terminals, id)
			}
		case tree.KindChannelsSpec:
			g.syms.channelDefs = append(g.syms.channelDefs, t.Children(c)...)
		case tree.KindNamedAction:
			g.collectGlobalNamedAction(c)
		}
	}

	lexerActionRules := 0
	for _, r := range g.ruleList {
		g.collectRuleSymbols(r)
		if r.IsLexerRule() && len(r.Actions) > 0 {
			r.ActionIndex = lexerActionRules
			lexerActionRules++
		}
	}
	g.logger.Debug("symbols collected", "component", "collector", "rule_refs", len(g.syms.ruleRefs), "token_refs", len(g.syms.tokenIDRefs), "actions", len(g.Actions))
}

func (g *Grammar) collectGlobalNamedAction(id tree.NodeID) {
	t := g.Tree
	n := t.Node(id)
	g.syms.namedActions = append(g.syms.namedActions, id)
	scope := n.Scope
	if scope == "" {
		scope = g.DefaultActionScope()
	}
	act := t.Child(id, 0)
	a := &Action{
		Kind:     ActionKindNamed,
		Node:     act,
		Text:     t.Text(act),
		Pos:      t.Node(act).Pos,
		Scope:    scope,
		Name:     n.Text,
		Resolver: g,
	}
	if _, ok := g.NamedActions[a.Key()]; !ok {
		g.NamedActions[a.Key()] = a
	}
	g.addAction(a)
}

func (g *Grammar) collectRuleSymbols(r *Rule) {
	t := g.Tree
	for _, c := range t.Children(r.Node) {
		switch t.Kind(c) {
		case tree.KindNamedAction:
			act := t.Child(c, 0)
			a := &Action{
				Kind:     ActionKindNamed,
				Node:     act,
				Text:     t.Text(act),
				Pos:      t.Node(act).Pos,
				Name:     t.Text(c),
				Rule:     r,
				Resolver: r,
			}
			r.NamedActions[a.Name] = a
			g.addAction(a)
		case tree.KindBlock:
			g.collectBlockSymbols(r, c)
		case tree.KindCatch:
			act := t.FirstChildOfKind(c, tree.KindAction)
			a := &Action{
				Kind:     ActionKindCatch,
				Node:     act,
				Text:     t.Text(act),
				Pos:      t.Node(act).Pos,
				Rule:     r,
				Resolver: r,
			}
			r.Exceptions = append(r.Exceptions, a)
			g.addAction(a)
		case tree.KindFinally:
			act := t.Child(c, 0)
			a := &Action{
				Kind:     ActionKindFinally,
				Node:     act,
				Text:     t.Text(act),
				Pos:      t.Node(act).Pos,
				Rule:     r,
				Resolver: r,
			}
			r.Finally = a
			g.addAction(a)
		}
	}
}

func (g *Grammar) collectBlockSymbols(r *Rule, blk tree.NodeID) {
	t := g.Tree
	lexerRule := r.IsLexerRule()
	t.Walk(blk, func(id tree.NodeID) bool {
		n := t.Node(id)
		alt := r.altOf(id)
		if alt == nil {
			return true
		}
		switch n.Kind {
		case tree.KindRuleRef:
			g.syms.ruleRefs = append(g.syms.ruleRefs, id)
			alt.RuleRefs[n.Text] = append(alt.RuleRefs[n.Text], id)
		case tree.KindTokenRef:
			if !lexerRule {
				g.syms.tokenIDRefs = append(g.syms.tokenIDRefs, id)
				g.syms.terminals = append(g.syms.terminals, id)
			}
			alt.TokenRefs[n.Text] = append(alt.TokenRefs[n.Text], id)
		case tree.KindStringLiteral:
			if !lexerRule {
				g.syms.terminals = append(g.syms.terminals, id)
			}
			alt.TokenRefs[n.Text] = append(alt.TokenRefs[n.Text], id)
		case tree.KindAssign, tree.KindPlusAssign:
			alt.addLabel(NewLabelElementPair(t, id))
		case tree.KindAction, tree.KindSempred:
			if n.Synthetic {
				break
			}
			kind := ActionKindAlt
			if n.Kind == tree.KindSempred {
				kind = ActionKindPredicate
			}
			a := &Action{
				Kind:     kind,
				Node:     id,
				Text:     n.Text,
				Pos:      n.Pos,
				Rule:     r,
				Alt:      alt,
				Resolver: alt,
			}
			alt.Actions = append(alt.Actions, a)
			r.Actions = append(r.Actions, a)
			g.addAction(a)
		case tree.KindLexerCommand:
			g.syms.lexerCommands = append(g.syms.lexerCommands, id)
		}
		return true
	})
}
