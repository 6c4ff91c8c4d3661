// Package driver interprets a resolved grammar. The lexer rules are compiled into a maleeni lexer, and the parser
// rules are run directly over the grammar tree with ordered choice and backtracking. Rewritten left-recursive
// rules are driven by their precedence options: a predicate carrying <p=N> holds iff N >= _p, and a rule
// reference carrying <p=N> calls its rule with _p = N.
package driver

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/symbol"
	"github.com/nihei9/argot/spec/grammar/tree"
)

type SyntaxError struct {
	Row            int
	Col            int
	Message        string
	Token          *Token
	ExpectedTokens []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v: %v", e.Row, e.Col, e.Message)
	if e.Token != nil {
		if e.Token.EOF {
			fmt.Fprintf(&b, ": <EOF>")
		} else {
			fmt.Fprintf(&b, ": %v", QuoteText(e.Token.Text))
		}
	}
	if len(e.ExpectedTokens) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.ExpectedTokens, ", "))
	}
	return b.String()
}

// DefaultStepLimit bounds the elements a single parse may try before it gives up.
const DefaultStepLimit = 1 << 22

type InterpreterOption func(i *Interpreter) error

// WithLexerGrammar supplies the lexer rules of a parser grammar.
func WithLexerGrammar(lg *grammar.Grammar) InterpreterOption {
	return func(i *Interpreter) error {
		if !lg.IsLexer() {
			return fmt.Errorf("grammar %v is not a lexer grammar", lg.Name)
		}
		i.lg = lg
		return nil
	}
}

func WithStepLimit(n int) InterpreterOption {
	return func(i *Interpreter) error {
		if n <= 0 {
			return fmt.Errorf("a step limit must be positive: %v", n)
		}
		i.stepLimit = n
		return nil
	}
}

type Interpreter struct {
	g         *grammar.Grammar
	lg        *grammar.Grammar
	lex       *lexSpec
	names     map[symbol.Num]string
	stepLimit int
	logger    *slog.Logger
}

// NewInterpreter compiles the lexer rules of a resolved grammar. A parser grammar needs WithLexerGrammar.
func NewInterpreter(g *grammar.Grammar, opts ...InterpreterOption) (*Interpreter, error) {
	i := &Interpreter{
		g:         g,
		lg:        g,
		stepLimit: DefaultStepLimit,
		logger:    g.Logger().With("component", "driver"),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.lg.IsParser() {
		return nil, fmt.Errorf("parser grammar %v has no lexer rules; interpret it together with its lexer grammar", g.Name)
	}

	i.names = tokenDisplayNames(g)
	lex, err := compileLexSpec(i.lg, g)
	if err != nil {
		return nil, err
	}
	i.lex = lex
	i.logger.Debug("lexer compiled", "grammar", g.Name, "lexer", i.lg.Name, "kinds", len(lex.kinds))
	return i, nil
}

// tokenDisplayNames names token types for parse trees. An implicit token is shown as its literal.
func tokenDisplayNames(g *grammar.Grammar) map[symbol.Num]string {
	names := map[symbol.Num]string{
		symbol.TokenTypeEOF: "EOF",
	}
	for _, e := range g.TokenNames() {
		if _, ok := names[e.Num]; !ok {
			names[e.Num] = e.Text
		}
	}
	for _, it := range g.ImplicitTokens {
		if num, ok := g.TokenType(it.Name); ok {
			names[num] = it.Literal
		}
	}
	return names
}

func (i *Interpreter) tokenName(num symbol.Num) string {
	if n, ok := i.names[num]; ok {
		return n
	}
	return i.g.TokenDisplayName(num)
}

// Tokenize returns the tokens of src on every channel, ending with EOF.
func (i *Interpreter) Tokenize(src io.Reader) ([]*Token, error) {
	s, err := newTokenStream(i.lex, i.tokenName, src)
	if err != nil {
		return nil, err
	}
	var toks []*Token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.EOF {
			return toks, nil
		}
	}
}

// DefaultStartRule returns the first parser rule.
func (i *Interpreter) DefaultStartRule() string {
	for _, r := range i.g.Rules() {
		if !r.IsLexerRule() {
			return r.Name
		}
	}
	return ""
}

// Parse parses src starting from a parser rule; the whole input must be consumed. An empty start rule means
// the default one.
func (i *Interpreter) Parse(start string, src io.Reader) (*Node, error) {
	if start == "" {
		start = i.DefaultStartRule()
	}
	r := i.g.Rule(start)
	if r == nil || r.IsLexerRule() {
		return nil, fmt.Errorf("%v is not a parser rule of grammar %v", start, i.g.Name)
	}

	all, err := i.Tokenize(src)
	if err != nil {
		return nil, err
	}
	var toks []*Token
	for _, tok := range all {
		if tok.Channel == symbol.ChannelDefault {
			toks = append(toks, tok)
		}
	}

	p := &parser{
		g:         i.g,
		toks:      toks,
		active:    map[activation]struct{}{},
		expected:  map[string]struct{}{},
		stepLimit: i.stepLimit,
	}
	root, err := p.parse(r)
	i.logger.Debug("input parsed", "start", start, "tokens", len(toks), "steps", p.steps, "ok", err == nil)
	return root, err
}

type activation struct {
	rule int
	pos  int
}

// parser matches elements in continuation-passing style: every match calls k with the input advanced and
// returns k's result, so a failure anywhere later backtracks into the most recent choice. Tree nodes are
// appended on the way in and removed again on the way back.
type parser struct {
	g    *grammar.Grammar
	toks []*Token
	pos  int

	// prec is the _p of the innermost rule invocation.
	prec int
	cur  *Node

	// active holds the rule invocations that have not consumed a token yet; re-entering one would never end.
	active map[activation]struct{}

	furthest int
	expected map[string]struct{}

	steps     int
	stepLimit int
}

func (p *parser) parse(start *grammar.Rule) (*Node, error) {
	root := &Node{}
	p.cur = root
	ok := p.callRule(start, 0, func() bool {
		if p.peek().EOF {
			return true
		}
		p.fail("EOF")
		return false
	})
	if p.steps > p.stepLimit {
		return nil, fmt.Errorf("the parse gave up after %v steps", p.stepLimit)
	}
	if !ok {
		tok := p.tokenAt(p.furthest)
		msg := "unexpected token"
		if tok.Invalid {
			msg = "invalid token"
		}
		var expected []string
		for e := range p.expected {
			expected = append(expected, e)
		}
		sort.Strings(expected)
		return nil, &SyntaxError{
			Row:            tok.Row,
			Col:            tok.Col,
			Message:        msg,
			Token:          tok,
			ExpectedTokens: expected,
		}
	}
	return root.Children[0], nil
}

func (p *parser) tokenAt(i int) *Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) peek() *Token {
	return p.tokenAt(p.pos)
}

func (p *parser) fail(expected ...string) {
	if p.pos > p.furthest {
		p.furthest = p.pos
		p.expected = map[string]struct{}{}
	}
	if p.pos == p.furthest {
		for _, e := range expected {
			p.expected[e] = struct{}{}
		}
	}
}

func (p *parser) step() bool {
	p.steps++
	return p.steps <= p.stepLimit
}

func (p *parser) callRule(r *grammar.Rule, prec int, k func() bool) bool {
	key := activation{
		rule: r.Index,
		pos:  p.pos,
	}
	if _, ok := p.active[key]; ok {
		return false
	}
	blk := p.g.Tree.FirstChildOfKind(r.Node, tree.KindBlock)
	if blk == tree.Nil {
		return false
	}

	tok := p.peek()
	n := &Node{
		KindName: r.Name,
		Row:      tok.Row,
		Col:      tok.Col,
	}
	parent := p.cur
	callerPrec := p.prec
	p.active[key] = struct{}{}
	p.cur = n
	p.prec = prec
	ok := p.alts(blk, func() bool {
		p.cur = parent
		p.prec = callerPrec
		delete(p.active, key)
		parent.Children = append(parent.Children, n)
		if k() {
			return true
		}
		parent.Children = parent.Children[:len(parent.Children)-1]
		p.active[key] = struct{}{}
		p.prec = prec
		p.cur = n
		return false
	})
	p.cur = parent
	p.prec = callerPrec
	delete(p.active, key)
	return ok
}

func (p *parser) alts(blk tree.NodeID, k func() bool) bool {
	for _, alt := range p.g.Tree.Children(blk) {
		if p.seq(p.g.Tree.Children(alt), k) {
			return true
		}
	}
	return false
}

func (p *parser) seq(elems []tree.NodeID, k func() bool) bool {
	if len(elems) == 0 {
		return k()
	}
	return p.element(elems[0], func() bool {
		return p.seq(elems[1:], k)
	})
}

func (p *parser) element(id tree.NodeID, k func() bool) bool {
	if !p.step() {
		return false
	}
	t := p.g.Tree
	n := t.Node(id)
	switch n.Kind {
	case tree.KindTokenRef, tree.KindStringLiteral:
		typ, ok := p.g.TokenType(n.Text)
		if !ok {
			return false
		}
		return p.token(func(tok *Token) bool {
			return tok.Type == typ
		}, k, n.Text)
	case tree.KindWildcard:
		return p.token(func(tok *Token) bool {
			return !tok.EOF && !tok.Invalid
		}, k)
	case tree.KindSet:
		types := p.setTypes(id)
		var expected []string
		for _, c := range n.Children {
			expected = append(expected, t.Text(c))
		}
		return p.token(func(tok *Token) bool {
			_, ok := types[tok.Type]
			return ok
		}, k, expected...)
	case tree.KindNot:
		types := p.setTypes(n.Children[0])
		return p.token(func(tok *Token) bool {
			_, ok := types[tok.Type]
			return !ok && !tok.EOF && !tok.Invalid
		}, k)
	case tree.KindRuleRef:
		r := p.g.Rule(n.Text)
		if r == nil {
			return false
		}
		prec := 0
		if v, ok := t.Option(id, grammar.PrecedenceOptionName); ok {
			prec, _ = strconv.Atoi(v)
		}
		return p.callRule(r, prec, k)
	case tree.KindAssign, tree.KindPlusAssign:
		return p.element(n.Children[0], k)
	case tree.KindBlock:
		return p.alts(id, k)
	case tree.KindOptional:
		blk := n.Children[0]
		if n.NonGreedy {
			return k() || p.alts(blk, k)
		}
		return p.alts(blk, k) || k()
	case tree.KindClosure:
		return p.closure(n.Children[0], n.NonGreedy, k)
	case tree.KindPositiveClosure:
		blk := n.Children[0]
		return p.alts(blk, func() bool {
			return p.closure(blk, n.NonGreedy, k)
		})
	case tree.KindSempred:
		if v, ok := t.Option(id, grammar.PrecedenceOptionName); ok {
			level, err := strconv.Atoi(v)
			if err != nil || level < p.prec {
				return false
			}
		}
		return k()
	}
	// Actions and anything the interpreter does not run.
	return k()
}

// closure matches blk as many times as possible, falling back to fewer iterations on failure. An iteration
// that consumes nothing ends the loop.
func (p *parser) closure(blk tree.NodeID, nonGreedy bool, k func() bool) bool {
	if nonGreedy && k() {
		return true
	}
	start := p.pos
	if p.alts(blk, func() bool {
		if p.pos == start {
			return false
		}
		return p.closure(blk, nonGreedy, k)
	}) {
		return true
	}
	return !nonGreedy && k()
}

func (p *parser) token(match func(*Token) bool, k func() bool, expected ...string) bool {
	if p.pos >= len(p.toks) {
		p.fail(expected...)
		return false
	}
	tok := p.toks[p.pos]
	if !match(tok) {
		p.fail(expected...)
		return false
	}
	p.cur.Children = append(p.cur.Children, &Node{
		KindName: tok.Name,
		Text:     tok.Text,
		Row:      tok.Row,
		Col:      tok.Col,
		Terminal: true,
	})
	p.pos++
	if k() {
		return true
	}
	p.pos--
	p.cur.Children = p.cur.Children[:len(p.cur.Children)-1]
	return false
}

func (p *parser) setTypes(set tree.NodeID) map[symbol.Num]struct{} {
	t := p.g.Tree
	types := map[symbol.Num]struct{}{}
	for _, c := range t.Children(set) {
		if typ, ok := p.g.TokenType(t.Text(c)); ok {
			types[typ] = struct{}{}
		}
	}
	return types
}
