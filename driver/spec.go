package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/symbol"
	"github.com/nihei9/argot/spec/grammar/tree"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

// lexKind describes the tokens a maleeni kind produces.
type lexKind struct {
	// rule is the lexer rule the kind was generated from, or the literal of an implicit token.
	rule    string
	typ     symbol.Num
	skip    bool
	more    bool
	channel symbol.Num
}

type lexSpec struct {
	cls   *mlspec.CompiledLexSpec
	kinds map[mlspec.LexKindName]*lexKind
}

func (s *lexSpec) kind(id mlspec.LexKindID) *lexKind {
	if int(id) <= 0 || int(id) >= len(s.cls.KindNames) {
		return nil
	}
	return s.kinds[s.cls.KindNames[id]]
}

// lexSpecBuilder translates the lexer rules of lg into a maleeni specification. Token types and channels are
// looked up in pg, the grammar whose parser consumes the tokens; the two are the same grammar unless a parser
// grammar is interpreted with a separate lexer grammar.
type lexSpecBuilder struct {
	lg *grammar.Grammar
	pg *grammar.Grammar

	entries []*mlspec.LexEntry
	kinds   map[mlspec.LexKindName]*lexKind

	// kindRules maps kind names back to rule names for compile errors.
	kindRules map[mlspec.LexKindName]string
	modes     map[string]mlspec.LexModeName
	frags     map[string]mlspec.LexKindName
	pat       *patternBuilder
}

func compileLexSpec(lg, pg *grammar.Grammar) (*lexSpec, error) {
	b := &lexSpecBuilder{
		lg:        lg,
		pg:        pg,
		kinds:     map[mlspec.LexKindName]*lexKind{},
		kindRules: map[mlspec.LexKindName]string{},
		modes:     map[string]mlspec.LexModeName{},
		frags:     map[string]mlspec.LexKindName{},
	}
	b.pat = newPatternBuilder(lg, b.frags)
	return b.build()
}

func (b *lexSpecBuilder) build() (*lexSpec, error) {
	for i, m := range b.lg.Modes() {
		if m == grammar.DefaultModeName {
			b.modes[m] = mlspec.LexModeName("default")
			continue
		}
		b.modes[m] = mlspec.LexModeName(fmt.Sprintf("mode_%v", i))
	}

	for _, r := range b.lg.Rules() {
		if r.IsLexerRule() && r.IsFragment() {
			b.frags[r.Name] = mlspec.LexKindName(fmt.Sprintf("frag_%v", r.Index))
		}
	}

	// Implicit tokens come first so that they win a tie against a lexer rule matching the same text.
	for i, it := range b.lg.ImplicitTokens {
		lit, err := grammar.UnquoteLiteral(it.Literal)
		if err != nil {
			return nil, err
		}
		typ, _ := b.pg.TokenType(it.Literal)
		kind := mlspec.LexKindName(fmt.Sprintf("lit_%v", i+1))
		b.entries = append(b.entries, &mlspec.LexEntry{
			Kind:    kind,
			Pattern: mlspec.LexPattern(mlspec.EscapePattern(lit)),
		})
		b.kinds[kind] = &lexKind{
			rule: it.Literal,
			typ:  typ,
		}
		b.kindRules[kind] = it.Name
	}

	for _, r := range b.lg.Rules() {
		if !r.IsLexerRule() {
			continue
		}
		if err := b.addRule(r); err != nil {
			return nil, err
		}
	}
	if len(b.entries) == 0 {
		return nil, fmt.Errorf("grammar %v has no lexer rules", b.lg.Name)
	}

	cls, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    "argot",
		Entries: b.entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) == 0 {
			return nil, err
		}
		var msgs []string
		for _, cErr := range cErrs {
			msgs = append(msgs, b.compileErrorMessage(cErr))
		}
		return nil, fmt.Errorf("cannot compile the lexer rules:\n%v", strings.Join(msgs, "\n"))
	}

	return &lexSpec{
		cls:   cls,
		kinds: b.kinds,
	}, nil
}

func (b *lexSpecBuilder) compileErrorMessage(cErr *mlcompiler.CompileError) string {
	kind := fmt.Sprint(cErr.Kind)
	name := b.kindRules[mlspec.LexKindName(kind)]
	if name == "" {
		name = kind
	}
	var w strings.Builder
	if cErr.Fragment {
		fmt.Fprintf(&w, "fragment ")
	}
	fmt.Fprintf(&w, "%v: %v", name, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(&w, ": %v", cErr.Detail)
	}
	return w.String()
}

func (b *lexSpecBuilder) addRule(r *grammar.Rule) error {
	t := b.lg.Tree
	blk := t.FirstChildOfKind(r.Node, tree.KindBlock)
	if blk == tree.Nil {
		return fmt.Errorf("lexer rule %v has no body", r.Name)
	}

	if r.IsFragment() {
		p, err := b.pat.rule(r)
		if err != nil {
			return err
		}
		kind := b.frags[r.Name]
		b.entries = append(b.entries, &mlspec.LexEntry{
			Fragment: true,
			Kind:     kind,
			Pattern:  mlspec.LexPattern(p),
		})
		b.kindRules[kind] = r.Name
		return nil
	}

	// Alternatives sharing their lexer commands become one entry. A rule whose alternatives run different
	// commands becomes one entry per alternative; they keep the rule's place in the priority order.
	alts := t.Children(blk)
	sigs := make([]string, len(alts))
	same := true
	for i, alt := range alts {
		sigs[i] = commandSignature(t, alt)
		if sigs[i] != sigs[0] {
			same = false
		}
	}
	if same {
		p, err := b.pat.alts(alts)
		if err != nil {
			return err
		}
		return b.addEntry(r, mlspec.LexKindName(fmt.Sprintf("rule_%v", r.Index)), p, commands(t, alts[0]))
	}
	for i, alt := range alts {
		p, err := b.pat.alt(alt)
		if err != nil {
			return err
		}
		kind := mlspec.LexKindName(fmt.Sprintf("rule_%v_%v", r.Index, i+1))
		if err := b.addEntry(r, kind, p, commands(t, alt)); err != nil {
			return err
		}
	}
	return nil
}

func (b *lexSpecBuilder) addEntry(r *grammar.Rule, kind mlspec.LexKindName, pattern string, cmds []*tree.Node) error {
	e := &mlspec.LexEntry{
		Kind:    kind,
		Pattern: mlspec.LexPattern(pattern),
	}
	if m, ok := b.modes[r.Mode]; ok && r.Mode != grammar.DefaultModeName {
		e.Modes = []mlspec.LexModeName{m}
	}
	k := &lexKind{
		rule:    r.Name,
		channel: symbol.ChannelDefault,
	}
	typeName := r.Name
	for _, cmd := range cmds {
		switch cmd.Text {
		case "skip":
			k.skip = true
		case "more":
			k.more = true
		case "type":
			typeName = cmd.Arg
		case "channel":
			ch, err := b.channel(cmd.Arg)
			if err != nil {
				return fmt.Errorf("lexer rule %v: %w", r.Name, err)
			}
			k.channel = ch
		case "mode":
			// The interpreter's lexer only knows a mode stack. Switching back to the default mode pops; any
			// other switch pushes.
			if cmd.Arg == grammar.DefaultModeName {
				e.Pop = true
			} else {
				m, err := b.mode(cmd.Arg)
				if err != nil {
					return fmt.Errorf("lexer rule %v: %w", r.Name, err)
				}
				e.Push = m
			}
		case "pushMode":
			m, err := b.mode(cmd.Arg)
			if err != nil {
				return fmt.Errorf("lexer rule %v: %w", r.Name, err)
			}
			e.Push = m
		case "popMode":
			e.Pop = true
		}
	}
	if !k.skip && !k.more {
		typ, ok := b.pg.TokenType(typeName)
		if !ok {
			if typeName != r.Name {
				return fmt.Errorf("lexer rule %v: unknown token type %v", r.Name, typeName)
			}
			// A parser grammar may leave a token of its lexer unreferenced.
			typ = symbol.NumNil
		}
		k.typ = typ
	}
	b.entries = append(b.entries, e)
	b.kinds[kind] = k
	b.kindRules[kind] = r.Name
	return nil
}

func (b *lexSpecBuilder) mode(name string) (mlspec.LexModeName, error) {
	m, ok := b.modes[name]
	if !ok {
		return "", fmt.Errorf("undefined mode %v", name)
	}
	return m, nil
}

func (b *lexSpecBuilder) channel(name string) (symbol.Num, error) {
	if n, err := strconv.Atoi(name); err == nil {
		return symbol.Num(n), nil
	}
	if ch, ok := b.lg.ChannelValue(name); ok {
		return ch, nil
	}
	return symbol.NumNil, fmt.Errorf("undefined channel %v", name)
}

func commands(t *tree.Tree, alt tree.NodeID) []*tree.Node {
	cmds := t.FirstChildOfKind(alt, tree.KindLexerCommands)
	if cmds == tree.Nil {
		return nil
	}
	var ns []*tree.Node
	for _, c := range t.Children(cmds) {
		ns = append(ns, t.Node(c))
	}
	return ns
}

func commandSignature(t *tree.Tree, alt tree.NodeID) string {
	var b strings.Builder
	for _, c := range commands(t, alt) {
		fmt.Fprintf(&b, "%v(%v);", c.Text, c.Arg)
	}
	return b.String()
}
