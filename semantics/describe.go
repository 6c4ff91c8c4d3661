package semantics

import (
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/attr"
	spec "github.com/nihei9/argot/spec/grammar"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Describe returns the description of a grammar that has passed every stage.
func (r *Result) Describe() *spec.ResolvedGrammar {
	g := r.Grammar
	d := &spec.ResolvedGrammar{
		Name:     g.Name,
		Type:     g.Type.String(),
		Tokens:   []*spec.Token{},
		Literals: []*spec.Token{},
		Rules:    []*spec.Rule{},
		Actions:  []*spec.Action{},
	}

	if opts := g.Tree.FirstChildOfKind(g.Tree.Root, tree.KindOptions); opts != tree.Nil {
		d.Options = map[string]string{}
		for _, o := range g.Tree.Node(opts).Options {
			d.Options[o.Name] = o.Value
		}
	}

	for _, e := range g.TokenNames() {
		d.Tokens = append(d.Tokens, &spec.Token{
			Name: e.Text,
			Type: e.Num.Int(),
		})
	}
	for _, e := range g.StringLiterals() {
		d.Literals = append(d.Literals, &spec.Token{
			Name: e.Text,
			Type: e.Num.Int(),
		})
	}
	for _, e := range g.Channels.Reader().Entries() {
		d.Channels = append(d.Channels, &spec.Channel{
			Name:  e.Text,
			Value: e.Num.Int(),
		})
	}
	if g.IsLexer() {
		d.Modes = g.Modes()
	}

	for _, rule := range g.Rules() {
		d.Rules = append(d.Rules, describeRule(rule))
	}

	for _, tr := range r.Actions {
		a := tr.Action
		da := &spec.Action{
			Kind:   a.Kind.String(),
			Scope:  a.Scope,
			Name:   a.Name,
			Row:    a.Pos.Row,
			Col:    a.Pos.Col,
			Text:   a.Text,
			Chunks: tr.Chunks,
		}
		if a.Rule != nil {
			da.Rule = a.Rule.Name
		}
		d.Actions = append(d.Actions, da)
	}
	return d
}

func describeRule(r *grammar.Rule) *spec.Rule {
	d := &spec.Rule{
		Index:   r.Index,
		Name:    r.Name,
		Lexer:   r.IsLexerRule(),
		Args:    describeAttrs(r.Args),
		Returns: describeAttrs(r.Retvals),
		Locals:  describeAttrs(r.Locals),
		Alts:    r.NumberOfAlts,
		Start:   r.IsStartRule,
	}
	if d.Lexer {
		d.Fragment = r.IsFragment()
		d.Mode = r.Mode
	}
	if lr := r.LeftRecursion; lr != nil {
		// A rewritten rule reports the alternatives it was written with.
		d.Alts = lr.OriginalNumberOfAlts()
		dl := &spec.LeftRecursion{
			Text: lr.Text,
		}
		for _, a := range lr.Alts() {
			dl.Alts = append(dl.Alts, &spec.LeftRecursiveAlt{
				Alt:            a.AltNum,
				Kind:           a.Kind.String(),
				Precedence:     a.Precedence,
				NextPrecedence: a.NextPrecedence,
				Assoc:          a.Assoc.String(),
				Label:          a.Label,
				Text:           a.AltText,
			})
		}
		d.LeftRecursion = dl
	}
	return d
}

func describeAttrs(d *attr.Dict) []*spec.Attribute {
	if d == nil {
		return nil
	}
	var as []*spec.Attribute
	for _, a := range d.Attributes() {
		as = append(as, &spec.Attribute{
			Name: a.Name,
			Type: a.Type,
			Init: a.InitValue,
		})
	}
	return as
}
