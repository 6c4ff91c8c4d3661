// Package parser reads grammar files into the arena AST of the tree package.
package parser

import (
	"io"
	"strings"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Parse parses a whole grammar file. A syntax error is returned as a *verr.SpecError whose cause is
// verr.ErrSyntax.
func Parse(src io.Reader) (*tree.Tree, error) {
	t := tree.New()
	p, err := newParser(t, src)
	if err != nil {
		return nil, err
	}
	root, err := p.parse(p.parseGrammar)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

// ParseRule parses the source of a single rule into an existing tree and returns the detached rule node.
func ParseRule(t *tree.Tree, src string) (tree.NodeID, error) {
	p, err := newParser(t, strings.NewReader(src))
	if err != nil {
		return tree.Nil, err
	}
	return p.parse(func() tree.NodeID {
		if !p.isRuleStart() {
			p.raiseSyntaxError(synErrNotARule)
		}
		r := p.parseRule()
		if !p.consume(tokenKindEOF) {
			p.raiseSyntaxError(synErrNotARule)
		}
		return r
	})
}

type parser struct {
	lex     *lexer
	t       *tree.Tree
	buf     []*token
	lastTok *token
}

func newParser(t *tree.Tree, src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
		t:   t,
	}, nil
}

func (p *parser) parse(f func() tree.NodeID) (id tree.NodeID, retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		err, ok := v.(error)
		if !ok {
			panic(v)
		}
		id = tree.Nil
		retErr = err
	}()
	return f(), nil
}

func (p *parser) raiseSyntaxError(synErr *SyntaxError) {
	var pos tree.Position
	if len(p.buf) > 0 {
		pos = p.buf[0].pos
	} else if p.lastTok != nil {
		pos = p.lastTok.pos
	}
	panic(&verr.SpecError{
		Cause:  verr.ErrSyntax,
		Detail: verr.ErrSyntax.Format(synErr),
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func (p *parser) peek(n int) *token {
	for len(p.buf) <= n {
		tok, err := p.lex.next()
		if err != nil {
			panic(err)
		}
		p.buf = append(p.buf, tok)
		if tok.kind == tokenKindEOF {
			break
		}
	}
	if n >= len(p.buf) {
		return p.buf[len(p.buf)-1]
	}
	return p.buf[n]
}

func (p *parser) consume(expected tokenKind) bool {
	tok := p.peek(0)
	if tok.kind == tokenKindInvalid {
		p.raiseSyntaxError(synErrInvalidToken)
	}
	if tok.kind != expected {
		return false
	}
	p.buf = p.buf[1:]
	p.lastTok = tok
	return true
}

func (p *parser) consumeID() bool {
	return p.consume(tokenKindTokenRef) || p.consume(tokenKindRuleRef)
}

func (p *parser) parseGrammar() tree.NodeID {
	var typ string
	if p.consume(tokenKindKWLexer) {
		typ = "lexer"
	} else if p.consume(tokenKindKWParser) {
		typ = "parser"
	}
	if !p.consume(tokenKindKWGrammar) {
		p.raiseSyntaxError(synErrNoGrammarDecl)
	}
	if !p.consumeID() {
		p.raiseSyntaxError(synErrNoGrammarName)
	}
	g := p.t.Add(tree.KindGrammar, p.lastTok.text, p.lastTok.pos)
	p.t.Node(g).Scope = typ
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrNoSemicolon)
	}

	for prequel := true; prequel; {
		switch p.peek(0).kind {
		case tokenKindOptions:
			p.t.AppendChild(g, p.parseOptionsSpec())
		case tokenKindTokens:
			p.t.AppendChild(g, p.parseIDList(tokenKindTokens, tree.KindTokensSpec, "tokens"))
		case tokenKindChannels:
			p.t.AppendChild(g, p.parseIDList(tokenKindChannels, tree.KindChannelsSpec, "channels"))
		case tokenKindAt:
			p.t.AppendChild(g, p.parseNamedAction())
		default:
			prequel = false
		}
	}

	for p.isRuleStart() {
		p.t.AppendChild(g, p.parseRule())
	}
	for p.peek(0).kind == tokenKindKWMode {
		p.t.AppendChild(g, p.parseMode())
	}
	if !p.consume(tokenKindEOF) {
		p.raiseSyntaxError(synErrUnexpectedAfterRules)
	}

	return g
}

func (p *parser) isRuleStart() bool {
	switch p.peek(0).kind {
	case tokenKindRuleRef, tokenKindTokenRef, tokenKindKWFragment, tokenKindKWPublic, tokenKindKWPrivate, tokenKindKWProtected:
		return true
	}
	return false
}

func (p *parser) parseOptionsSpec() tree.NodeID {
	p.consume(tokenKindOptions)
	opts := p.t.Add(tree.KindOptions, "options", p.lastTok.pos)
	for !p.consume(tokenKindRBrace) {
		if p.peek(0).kind == tokenKindEOF {
			p.raiseSyntaxError(synErrUnclosedOptions)
		}
		if !p.consumeID() {
			p.raiseSyntaxError(synErrNoOptionName)
		}
		name := p.lastTok
		if !p.consume(tokenKindAssign) {
			p.raiseSyntaxError(synErrNoOptionValue)
		}
		value := p.parseOptionValue()
		if !p.consume(tokenKindSemicolon) {
			p.raiseSyntaxError(synErrNoSemicolon)
		}
		n := p.t.Node(opts)
		n.Options = append(n.Options, tree.Option{
			Name:  name.text,
			Value: value,
			Pos:   name.pos,
		})
	}
	return opts
}

// parseOptionValue accepts a (qualified) identifier, a string literal, or an integer.
func (p *parser) parseOptionValue() string {
	if p.consume(tokenKindString) || p.consume(tokenKindInt) {
		return p.lastTok.text
	}
	if !p.consumeID() {
		p.raiseSyntaxError(synErrNoOptionValue)
	}
	var b strings.Builder
	b.WriteString(p.lastTok.text)
	for p.consume(tokenKindDot) {
		if !p.consumeID() {
			p.raiseSyntaxError(synErrNoOptionValue)
		}
		b.WriteString(".")
		b.WriteString(p.lastTok.text)
	}
	return b.String()
}

func (p *parser) parseIDList(open tokenKind, kind tree.Kind, text string) tree.NodeID {
	p.consume(open)
	list := p.t.Add(kind, text, p.lastTok.pos)
	for !p.consume(tokenKindRBrace) {
		if !p.consumeID() {
			p.raiseSyntaxError(synErrUnclosedIDList)
		}
		p.t.AppendChild(list, p.t.Add(tree.KindID, p.lastTok.text, p.lastTok.pos))
		if !p.consume(tokenKindComma) && p.peek(0).kind != tokenKindRBrace {
			p.raiseSyntaxError(synErrUnclosedIDList)
		}
	}
	return list
}

func (p *parser) parseNamedAction() tree.NodeID {
	p.consume(tokenKindAt)
	pos := p.lastTok.pos
	if !p.consumeID() && !p.consume(tokenKindKWParser) && !p.consume(tokenKindKWLexer) {
		p.raiseSyntaxError(synErrNoNamedActionName)
	}
	name := p.lastTok.text
	var scope string
	if p.consume(tokenKindColonColon) {
		scope = name
		if !p.consumeID() {
			p.raiseSyntaxError(synErrNoNamedActionName)
		}
		name = p.lastTok.text
	}
	if !p.consume(tokenKindAction) {
		p.raiseSyntaxError(synErrNoNamedActionBody)
	}
	act := p.t.Add(tree.KindNamedAction, name, pos)
	p.t.Node(act).Scope = scope
	p.t.AppendChild(act, p.t.Add(tree.KindAction, p.lastTok.text, p.lastTok.pos))
	return act
}

func (p *parser) parseMode() tree.NodeID {
	p.consume(tokenKindKWMode)
	if !p.consumeID() {
		p.raiseSyntaxError(synErrNoModeName)
	}
	mode := p.t.Add(tree.KindMode, p.lastTok.text, p.lastTok.pos)
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrNoSemicolon)
	}
	for p.isRuleStart() {
		p.t.AppendChild(mode, p.parseRule())
	}
	return mode
}

func (p *parser) parseRule() tree.NodeID {
	var mods []*token
	for p.consume(tokenKindKWFragment) || p.consume(tokenKindKWPublic) || p.consume(tokenKindKWPrivate) || p.consume(tokenKindKWProtected) {
		mods = append(mods, p.lastTok)
	}
	if !p.consumeID() {
		p.raiseSyntaxError(synErrNoRuleName)
	}
	r := p.t.Add(tree.KindRule, p.lastTok.text, p.lastTok.pos)
	for _, m := range mods {
		p.t.AppendChild(r, p.t.Add(tree.KindModifier, m.text, m.pos))
	}
	if p.consume(tokenKindArg) {
		p.t.AppendChild(r, p.t.Add(tree.KindArgAction, p.lastTok.text, p.lastTok.pos))
	}
	if p.consume(tokenKindKWReturns) {
		ret := p.t.Add(tree.KindReturns, "returns", p.lastTok.pos)
		if !p.consume(tokenKindArg) {
			p.raiseSyntaxError(synErrNoReturnsArg)
		}
		p.t.AppendChild(ret, p.t.Add(tree.KindArgAction, p.lastTok.text, p.lastTok.pos))
		p.t.AppendChild(r, ret)
	}
	if p.consume(tokenKindKWLocals) {
		loc := p.t.Add(tree.KindLocals, "locals", p.lastTok.pos)
		if !p.consume(tokenKindArg) {
			p.raiseSyntaxError(synErrNoLocalsArg)
		}
		p.t.AppendChild(loc, p.t.Add(tree.KindArgAction, p.lastTok.text, p.lastTok.pos))
		p.t.AppendChild(r, loc)
	}
	for prequel := true; prequel; {
		switch p.peek(0).kind {
		case tokenKindOptions:
			p.t.AppendChild(r, p.parseOptionsSpec())
		case tokenKindAt:
			p.t.AppendChild(r, p.parseNamedAction())
		default:
			prequel = false
		}
	}

	if !p.consume(tokenKindColon) {
		p.raiseSyntaxError(synErrNoColon)
	}
	blk := p.t.Add(tree.KindBlock, "", p.lastTok.pos)
	p.parseAltList(blk, true)
	p.t.AppendChild(r, blk)
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrNoSemicolon)
	}

	for p.consume(tokenKindKWCatch) {
		c := p.t.Add(tree.KindCatch, "catch", p.lastTok.pos)
		if !p.consume(tokenKindArg) {
			p.raiseSyntaxError(synErrNoCatchArg)
		}
		p.t.AppendChild(c, p.t.Add(tree.KindArgAction, p.lastTok.text, p.lastTok.pos))
		if !p.consume(tokenKindAction) {
			p.raiseSyntaxError(synErrNoCatchArg)
		}
		p.t.AppendChild(c, p.t.Add(tree.KindAction, p.lastTok.text, p.lastTok.pos))
		p.t.AppendChild(r, c)
	}
	if p.consume(tokenKindKWFinally) {
		f := p.t.Add(tree.KindFinally, "finally", p.lastTok.pos)
		if !p.consume(tokenKindAction) {
			p.raiseSyntaxError(synErrNoFinallyAction)
		}
		p.t.AppendChild(f, p.t.Add(tree.KindAction, p.lastTok.text, p.lastTok.pos))
		p.t.AppendChild(r, f)
	}

	return r
}

func (p *parser) parseAltList(blk tree.NodeID, outermost bool) {
	p.t.AppendChild(blk, p.parseAlt(outermost))
	for p.consume(tokenKindOr) {
		p.t.AppendChild(blk, p.parseAlt(outermost))
	}
}

func (p *parser) parseAlt(outermost bool) tree.NodeID {
	alt := p.t.Add(tree.KindAlt, "", p.peek(0).pos)
	if p.peek(0).kind == tokenKindLT {
		p.t.Node(alt).Options = p.parseElementOptions()
	}

	for elem := true; elem; {
		switch p.peek(0).kind {
		case tokenKindOr, tokenKindRParen, tokenKindSemicolon, tokenKindPound, tokenKindRArrow, tokenKindEOF:
			elem = false
		default:
			p.t.AppendChild(alt, p.parseElement())
		}
	}

	if p.consume(tokenKindRArrow) {
		cmds := p.t.Add(tree.KindLexerCommands, "->", p.lastTok.pos)
		p.t.AppendChild(cmds, p.parseLexerCommand())
		for p.consume(tokenKindComma) {
			p.t.AppendChild(cmds, p.parseLexerCommand())
		}
		p.t.AppendChild(alt, cmds)
	}

	if outermost && p.consume(tokenKindPound) {
		if !p.consumeID() {
			p.raiseSyntaxError(synErrNoAltLabel)
		}
		n := p.t.Node(alt)
		n.AltLabel = p.lastTok.text
		n.AltLabelPos = p.lastTok.pos
	}

	return alt
}

func (p *parser) parseLexerCommand() tree.NodeID {
	// `mode` is a keyword of the grammar syntax but also the name of a lexer command.
	if !p.consumeID() && !p.consume(tokenKindKWMode) {
		p.raiseSyntaxError(synErrNoLexerCommand)
	}
	cmd := p.t.Add(tree.KindLexerCommand, p.lastTok.text, p.lastTok.pos)
	if p.consume(tokenKindLParen) {
		if !p.consumeID() && !p.consume(tokenKindInt) {
			p.raiseSyntaxError(synErrUnclosedCommandArg)
		}
		n := p.t.Node(cmd)
		n.Arg = p.lastTok.text
		n.HasArg = true
		if !p.consume(tokenKindRParen) {
			p.raiseSyntaxError(synErrUnclosedCommandArg)
		}
	}
	return cmd
}

func (p *parser) parseElement() tree.NodeID {
	tok := p.peek(0)
	switch tok.kind {
	case tokenKindAction:
		p.consume(tokenKindAction)
		kind := tree.KindAction
		if p.consume(tokenKindQuestion) {
			kind = tree.KindSempred
		}
		act := p.t.Add(kind, tok.text, tok.pos)
		if p.peek(0).kind == tokenKindLT {
			p.t.Node(act).Options = p.parseElementOptions()
		}
		return act
	case tokenKindRuleRef, tokenKindTokenRef:
		var kind tree.Kind
		switch p.peek(1).kind {
		case tokenKindAssign:
			kind = tree.KindAssign
		case tokenKindPlusAssign:
			kind = tree.KindPlusAssign
		default:
			return p.parseEBNFSuffix(p.parseAtom())
		}
		p.consumeID()
		if !p.consume(tokenKindAssign) {
			p.consume(tokenKindPlusAssign)
		}
		label := p.t.Add(kind, tok.text, tok.pos)
		switch {
		case p.peek(0).kind == tokenKindLParen:
			p.t.AppendChild(label, p.parseBlock())
		case p.isAtomStart():
			p.t.AppendChild(label, p.parseAtom())
		default:
			p.raiseSyntaxError(synErrLabelWithNoElement)
		}
		return p.parseEBNFSuffix(label)
	case tokenKindLParen:
		return p.parseEBNFSuffix(p.parseBlock())
	}
	return p.parseEBNFSuffix(p.parseAtom())
}

// parseEBNFSuffix wraps an element in an EBNF node when a `?`, `*`, or `+` follows. A non-block operand is
// wrapped in a single-alternative block first, so EBNF nodes always own exactly one block.
func (p *parser) parseEBNFSuffix(elem tree.NodeID) tree.NodeID {
	var kind tree.Kind
	switch {
	case p.consume(tokenKindQuestion):
		kind = tree.KindOptional
	case p.consume(tokenKindStar):
		kind = tree.KindClosure
	case p.consume(tokenKindPlus):
		kind = tree.KindPositiveClosure
	default:
		return elem
	}
	pos := p.t.Node(elem).Pos
	ebnf := p.t.Add(kind, "", pos)
	if p.consume(tokenKindQuestion) {
		p.t.Node(ebnf).NonGreedy = true
	}
	blk := elem
	if p.t.Kind(elem) != tree.KindBlock {
		blk = p.t.Add(tree.KindBlock, "", pos)
		alt := p.t.Add(tree.KindAlt, "", pos)
		p.t.AppendChild(alt, elem)
		p.t.AppendChild(blk, alt)
	}
	p.t.AppendChild(ebnf, blk)
	return ebnf
}

func (p *parser) parseBlock() tree.NodeID {
	p.consume(tokenKindLParen)
	blk := p.t.Add(tree.KindBlock, "", p.lastTok.pos)
	p.parseAltList(blk, false)
	if !p.consume(tokenKindRParen) {
		p.raiseSyntaxError(synErrUnclosedBlock)
	}
	return blk
}

func (p *parser) isAtomStart() bool {
	switch p.peek(0).kind {
	case tokenKindRuleRef, tokenKindTokenRef, tokenKindString, tokenKindDot, tokenKindNot, tokenKindArg:
		return true
	}
	return false
}

func (p *parser) parseAtom() tree.NodeID {
	tok := p.peek(0)
	switch tok.kind {
	case tokenKindRuleRef:
		p.consume(tokenKindRuleRef)
		ref := p.t.Add(tree.KindRuleRef, tok.text, tok.pos)
		if p.consume(tokenKindArg) {
			p.t.AppendChild(ref, p.t.Add(tree.KindArgAction, p.lastTok.text, p.lastTok.pos))
		}
		p.parseOptionalElementOptions(ref)
		return ref
	case tokenKindTokenRef:
		p.consume(tokenKindTokenRef)
		ref := p.t.Add(tree.KindTokenRef, tok.text, tok.pos)
		p.parseOptionalElementOptions(ref)
		return ref
	case tokenKindString:
		lit := p.parseStringOrRange()
		if p.t.Kind(lit) == tree.KindStringLiteral {
			p.parseOptionalElementOptions(lit)
		}
		return lit
	case tokenKindDot:
		p.consume(tokenKindDot)
		w := p.t.Add(tree.KindWildcard, ".", tok.pos)
		p.parseOptionalElementOptions(w)
		return w
	case tokenKindNot:
		p.consume(tokenKindNot)
		not := p.t.Add(tree.KindNot, "~", tok.pos)
		set := p.t.Add(tree.KindSet, "", p.peek(0).pos)
		if p.consume(tokenKindLParen) {
			p.t.AppendChild(set, p.parseSetElement())
			for p.consume(tokenKindOr) {
				p.t.AppendChild(set, p.parseSetElement())
			}
			if !p.consume(tokenKindRParen) {
				p.raiseSyntaxError(synErrUnclosedSet)
			}
		} else {
			p.t.AppendChild(set, p.parseSetElement())
		}
		p.t.AppendChild(not, set)
		return not
	case tokenKindArg:
		p.consume(tokenKindArg)
		return p.t.Add(tree.KindCharSet, "["+tok.text+"]", tok.pos)
	case tokenKindInvalid:
		p.raiseSyntaxError(synErrInvalidToken)
	}
	p.raiseSyntaxError(synErrNoElement)
	return tree.Nil
}

func (p *parser) parseSetElement() tree.NodeID {
	tok := p.peek(0)
	switch tok.kind {
	case tokenKindTokenRef:
		p.consume(tokenKindTokenRef)
		return p.t.Add(tree.KindTokenRef, tok.text, tok.pos)
	case tokenKindString:
		return p.parseStringOrRange()
	case tokenKindArg:
		p.consume(tokenKindArg)
		return p.t.Add(tree.KindCharSet, "["+tok.text+"]", tok.pos)
	}
	p.raiseSyntaxError(synErrInvalidSetElement)
	return tree.Nil
}

func (p *parser) parseStringOrRange() tree.NodeID {
	p.consume(tokenKindString)
	from := p.t.Add(tree.KindStringLiteral, p.lastTok.text, p.lastTok.pos)
	if !p.consume(tokenKindRange) {
		return from
	}
	if !p.consume(tokenKindString) {
		p.raiseSyntaxError(synErrNoRangeEnd)
	}
	to := p.t.Add(tree.KindStringLiteral, p.lastTok.text, p.lastTok.pos)
	r := p.t.Add(tree.KindRange, "..", p.t.Node(from).Pos)
	p.t.AppendChild(r, from)
	p.t.AppendChild(r, to)
	return r
}

func (p *parser) parseOptionalElementOptions(id tree.NodeID) {
	if p.peek(0).kind == tokenKindLT {
		p.t.Node(id).Options = p.parseElementOptions()
	}
}

func (p *parser) parseElementOptions() []tree.Option {
	p.consume(tokenKindLT)
	var opts []tree.Option
	for {
		if !p.consumeID() {
			p.raiseSyntaxError(synErrNoOptionName)
		}
		opt := tree.Option{
			Name: p.lastTok.text,
			Pos:  p.lastTok.pos,
		}
		if p.consume(tokenKindAssign) {
			opt.Value = p.parseOptionValue()
		}
		opts = append(opts, opt)
		if p.consume(tokenKindGT) {
			return opts
		}
		if !p.consume(tokenKindComma) {
			p.raiseSyntaxError(synErrUnclosedElemOptions)
		}
	}
}
