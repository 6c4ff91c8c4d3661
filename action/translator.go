package action

import (
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Translation is the chunk sequence of one action.
type Translation struct {
	Action *grammar.Action
	Chunks []*Chunk
}

// TranslateAll translates every action of the grammar in source order. Run it only after Check has reported
// no errors; a reference that resolves to nothing produces no chunk.
func TranslateAll(g *grammar.Grammar) []*Translation {
	var ts []*Translation
	for _, a := range g.Actions {
		ts = append(ts, &Translation{
			Action: a,
			Chunks: Translate(g, a),
		})
	}
	return ts
}

// Translate splits an action and resolves its references against the action's scope.
func Translate(g *grammar.Grammar, a *grammar.Action) []*Chunk {
	tr := &translator{
		g:   g,
		res: a.Resolver,
	}
	if a.Rule != nil {
		tr.ruleCtx = a.Rule.Name
		tr.ctx = a.Rule.Name
		if l := altLabel(g, a); l != "" {
			tr.ctx = l
		}
	}
	return tr.translate(a.Text)
}

// altLabel returns the label of the alternative an action is in. The alternatives of a rewritten left-recursive
// rule keep their labels in the rule's left-recursion record.
func altLabel(g *grammar.Grammar, a *grammar.Action) string {
	t := g.Tree
	if lr := a.Rule.LeftRecursion; lr != nil {
		for _, alt := range lr.Alts() {
			if alt.Alt != tree.Nil && within(t, a.Node, alt.Alt) {
				return alt.Label
			}
		}
		return ""
	}
	if a.Alt == nil {
		return ""
	}
	return t.Node(a.Alt.Node).AltLabel
}

func within(t *tree.Tree, id, anc tree.NodeID) bool {
	for ; id != tree.Nil; id = t.Parent(id) {
		if id == anc {
			return true
		}
	}
	return false
}

type translator struct {
	g       *grammar.Grammar
	res     grammar.AttributeResolver
	ruleCtx string
	ctx     string
	chunks  []*Chunk
}

func (tr *translator) translate(text string) []*Chunk {
	for _, s := range Split(text) {
		switch s.Kind {
		case SpanText:
			tr.emit(&Chunk{
				Kind: ChunkText,
				Text: s.Text,
			})
		case SpanAttr:
			tr.attr(s.X)
		case SpanQualifiedAttr:
			tr.qualifiedAttr(s.X, s.Y)
		case SpanSetAttr:
			tr.emit(&Chunk{
				Kind: ChunkSetAttr,
				Name: s.X,
				RHS:  tr.sub(s.RHS),
			})
		case SpanNonLocalAttr:
			tr.emit(&Chunk{
				Kind:      ChunkNonLocalAttrRef,
				Rule:      s.X,
				RuleIndex: tr.ruleIndex(s.X),
				Name:      s.Y,
			})
		case SpanSetNonLocalAttr:
			tr.emit(&Chunk{
				Kind:      ChunkSetNonLocalAttr,
				Rule:      s.X,
				RuleIndex: tr.ruleIndex(s.X),
				Name:      s.Y,
				RHS:       tr.sub(s.RHS),
			})
		}
	}
	tr.g.Logger().Debug("action translated", "component", "action", "text", text, "chunks", len(tr.chunks))
	return tr.chunks
}

// sub translates the right-hand side of an assignment in the same scope.
func (tr *translator) sub(text string) []*Chunk {
	sub := &translator{
		g:       tr.g,
		res:     tr.res,
		ruleCtx: tr.ruleCtx,
		ctx:     tr.ctx,
	}
	return sub.translate(text)
}

func (tr *translator) emit(c *Chunk) {
	if c.Kind != ChunkText && c.Kind != ChunkRetValueRef {
		c.Ctx = tr.ctx
	}
	tr.chunks = append(tr.chunks, c)
}

func (tr *translator) ruleIndex(name string) int {
	if r := tr.g.Rule(name); r != nil {
		return r.Index
	}
	return -1
}

func (tr *translator) attr(x string) {
	if a := tr.res.ResolveToAttribute(x); a != nil {
		switch a.Dict.Kind {
		case attr.DictKindArgument:
			tr.emit(&Chunk{Kind: ChunkArgRef, Name: x})
		case attr.DictKindReturn:
			tr.emit(&Chunk{Kind: ChunkRetValueRef, Ctx: tr.ruleCtx, Name: x})
		case attr.DictKindLocal:
			tr.emit(&Chunk{Kind: ChunkLocalRef, Name: x})
		case attr.DictKindPredefinedRule:
			tr.emit(&Chunk{Kind: ChunkThisRulePropertyRef, Label: tr.ruleCtx, Prop: x})
		case attr.DictKindToken:
			tr.emit(&Chunk{Kind: ChunkTokenRef, Label: x})
		}
		return
	}
	switch {
	case tr.res.ResolvesToToken(x):
		tr.emit(&Chunk{Kind: ChunkTokenRef, Label: x})
	case tr.res.ResolvesToLabel(x):
		tr.emit(&Chunk{Kind: ChunkLabelRef, Label: x})
	case tr.res.ResolvesToListLabel(x):
		tr.emit(&Chunk{Kind: ChunkListLabelRef, Name: x})
	case tr.g.Rule(x) != nil:
		tr.emit(&Chunk{Kind: ChunkLabelRef, Label: x})
	}
}

func (tr *translator) qualifiedAttr(x, y string) {
	// A member access on an attribute, like $ctx.start.
	if tr.res.ResolveToAttribute(x) != nil {
		tr.attr(x)
		tr.emit(&Chunk{Kind: ChunkText, Text: "." + y})
		return
	}
	a := tr.res.ResolveToQualifiedAttribute(x, y)
	if a == nil {
		return
	}
	switch a.Dict.Kind {
	case attr.DictKindArgument:
		tr.emit(&Chunk{Kind: ChunkArgRef, Name: y})
	case attr.DictKindReturn:
		tr.emit(&Chunk{Kind: ChunkQRetValueRef, Label: x, Name: y})
	case attr.DictKindLocal:
		tr.emit(&Chunk{Kind: ChunkLocalRef, Name: y})
	case attr.DictKindPredefinedRule:
		tr.emit(&Chunk{Kind: ChunkRulePropertyRef, Label: x, Prop: y})
	case attr.DictKindToken:
		tr.emit(&Chunk{Kind: ChunkTokenPropertyRef, Label: x, Prop: y})
	}
}
