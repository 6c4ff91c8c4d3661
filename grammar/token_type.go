package grammar

import (
	"fmt"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// ImplicitToken is a token a combined grammar defines for a string literal its parser rules use without any
// lexer rule matching it.
type ImplicitToken struct {
	Name    string
	Literal string
}

// AssignTokenTypes gives every token name and string literal a token type.
//
// A lexer grammar defines the names of its tokens{} block, then the names of its non-fragment rules lacking a
// type or more command, and finally the literals of rules matching a single literal (`IF: 'if';`). A literal
// matched by more than one rule is dropped so a parser cannot refer to it.
//
// A parser grammar defines the names of its tokens{} block and of the tokens its rules reference. A combined
// grammar does both: its lexer rules are typed first, preceded by one implicit token per literal that only
// parser rules use.
func (g *Grammar) AssignTokenTypes() {
	switch g.Type {
	case TypeLexer:
		g.assignLexerTokenTypes(g.syms.tokensDefs)
	case TypeCombined:
		g.defineImplicitTokens()
		g.assignLexerTokenTypes(nil)
		g.assignParserTokenTypes()
	default:
		g.assignParserTokenTypes()
	}
}

func (g *Grammar) assignLexerTokenTypes(tokensDefs []tree.NodeID) {
	t := g.Tree
	for _, id := range tokensDefs {
		if name := t.Text(id); IsTokenName(name) {
			g.DefineTokenName(name)
		}
	}
	for _, r := range g.ruleList {
		if !r.IsLexerRule() || r.IsFragment() || g.hasTypeOrMoreCommand(r) {
			continue
		}
		g.DefineTokenName(r.Name)
	}

	conflicting := map[string]struct{}{}
	var order []string
	for _, a := range g.literalAliases() {
		if _, ok := g.TokenType(a.Literal); !ok {
			g.DefineTokenAlias(a.Name, a.Literal)
			continue
		}
		if _, ok := conflicting[a.Literal]; !ok {
			order = append(order, a.Literal)
		}
		conflicting[a.Literal] = struct{}{}
	}
	for _, lit := range order {
		g.logger.Debug("literal dropped", "component", "tokens", "literal", lit, "reason", "matched by more than one rule")
		g.RemoveStringLiteral(lit)
	}
}

func (g *Grammar) hasTypeOrMoreCommand(r *Rule) bool {
	t := g.Tree
	for _, cmd := range t.Find(r.Node, tree.KindLexerCommand) {
		n := t.Node(cmd)
		if (n.Text == "type" && n.HasArg) || n.Text == "more" {
			return true
		}
	}
	return false
}

// literalAliases returns the non-fragment lexer rules whose only alternative is a string literal, possibly
// followed by an action, a predicate, or lexer commands.
func (g *Grammar) literalAliases() []ImplicitToken {
	t := g.Tree
	var aliases []ImplicitToken
	for _, r := range g.ruleList {
		if !r.IsLexerRule() || len(r.Modifiers) > 0 || r.NumberOfAlts != 1 {
			continue
		}
		if t.FirstChildOfKind(r.Node, tree.KindOptions) != tree.Nil {
			continue
		}
		cs := t.Children(r.Alts[1].Node)
		if len(cs) == 0 || len(cs) > 2 || t.Kind(cs[0]) != tree.KindStringLiteral {
			continue
		}
		if len(cs) == 2 {
			switch t.Kind(cs[1]) {
			case tree.KindAction, tree.KindSempred, tree.KindLexerCommands:
			default:
				continue
			}
		}
		aliases = append(aliases, ImplicitToken{
			Name:    r.Name,
			Literal: t.Text(cs[0]),
		})
	}
	return aliases
}

// defineImplicitTokens creates the T__n tokens of a combined grammar in the order their literals first appear.
func (g *Grammar) defineImplicitTokens() {
	t := g.Tree
	aliased := map[string]struct{}{}
	for _, a := range g.literalAliases() {
		aliased[a.Literal] = struct{}{}
	}
	g.ImplicitTokens = nil
	seen := map[string]struct{}{}
	for _, id := range g.syms.terminals {
		if t.Kind(id) != tree.KindStringLiteral {
			continue
		}
		lit := t.Text(id)
		if _, ok := aliased[lit]; ok {
			continue
		}
		if _, ok := seen[lit]; ok {
			continue
		}
		seen[lit] = struct{}{}
		tok := ImplicitToken{
			Name:    fmt.Sprintf("%v%v", AutoTokenNamePrefix, len(g.ImplicitTokens)),
			Literal: lit,
		}
		g.ImplicitTokens = append(g.ImplicitTokens, tok)
		g.DefineTokenAlias(tok.Name, tok.Literal)
	}
}

func (g *Grammar) assignParserTokenTypes() {
	t := g.Tree
	for _, id := range g.syms.tokensDefs {
		name := t.Text(id)
		if _, ok := g.TokenType(name); ok {
			g.errs.Report(verr.ErrTokenNameReassignment, t.Node(id).Pos, name)
		}
		g.DefineTokenName(name)
	}
	for _, id := range g.syms.tokenIDRefs {
		name := t.Text(id)
		if _, ok := g.TokenType(name); !ok {
			g.errs.Report(verr.ErrImplicitTokenDefinition, t.Node(id).Pos, name)
		}
		g.DefineTokenName(name)
	}
	for _, id := range g.syms.terminals {
		if t.Kind(id) != tree.KindStringLiteral {
			continue
		}
		if _, ok := g.TokenType(t.Text(id)); !ok {
			g.errs.Report(verr.ErrImplicitStringDefinition, t.Node(id).Pos, t.Text(id))
		}
	}
	g.logger.Debug("token types assigned", "component", "tokens", "tokens", len(g.TokenNames()), "literals", len(g.StringLiterals()))
}

// AssignChannelTypes numbers the channels of the channels{} block. A channel may not share its name with a
// token, a mode, or a reserved constant.
func (g *Grammar) AssignChannelTypes() {
	t := g.Tree
	for _, id := range g.syms.channelDefs {
		n := t.Node(id)
		if _, ok := g.TokenType(n.Text); ok {
			g.errs.Report(verr.ErrChannelConflictsWithToken, n.Pos, n.Text)
		}
		if IsCommonConstant(n.Text) {
			g.errs.Report(verr.ErrChannelConflictsWithCommonConstants, n.Pos, n.Text)
		}
		if g.IsLexer() {
			if _, ok := g.modeRules[n.Text]; ok {
				g.errs.Report(verr.ErrChannelConflictsWithMode, n.Pos, n.Text)
			}
		}
		g.DefineChannelName(n.Text)
	}
}
