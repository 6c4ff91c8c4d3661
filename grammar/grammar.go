package grammar

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/grammar/symbol"
	"github.com/nihei9/argot/spec/grammar/tree"
)

type Type int

const (
	TypeCombined Type = iota
	TypeLexer
	TypeParser
)

func (t Type) String() string {
	switch t {
	case TypeLexer:
		return "lexer"
	case TypeParser:
		return "parser"
	}
	return "combined"
}

const (
	DefaultModeName           = "DEFAULT_MODE"
	PrecedenceOptionName      = "p"
	TokenIndexOptionName      = "tokenIndex"
	CaseInsensitiveOptionName = "caseInsensitive"
	TokenVocabOptionName      = "tokenVocab"
	AutoTokenNamePrefix       = "T__"
	TokensFileExtension       = ".tokens"
)

// commonConstants are the names a lexer's generated code defines by itself. Rules, tokens, channels, and modes
// may not use them.
var commonConstants = map[string]struct{}{
	"HIDDEN":                {},
	"DEFAULT_TOKEN_CHANNEL": {},
	"DEFAULT_MODE":          {},
	"SKIP":                  {},
	"MORE":                  {},
	"EOF":                   {},
	"MAX_CHAR_VALUE":        {},
	"MIN_CHAR_VALUE":        {},
}

func IsCommonConstant(name string) bool {
	_, ok := commonConstants[name]
	return ok
}

func newNameSet(names ...string) map[string]struct{} {
	s := map[string]struct{}{}
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Options each construct accepts.
var (
	grammarOptions    = newNameSet("superClass", "contextSuperClass", "TokenLabelType", TokenVocabOptionName, "language", "accessLevel", "exportMacro", CaseInsensitiveOptionName)
	lexerRuleOptions  = newNameSet(CaseInsensitiveOptionName, PrecedenceOptionName, TokenIndexOptionName)
	parserRuleOptions = newNameSet()
	blockOptions      = newNameSet()
	ruleRefOptions    = newNameSet(PrecedenceOptionName, TokenIndexOptionName)
	tokenOptions      = newNameSet("assoc", TokenIndexOptionName)
	semPredOptions    = newNameSet(PrecedenceOptionName, "fail")
)

// IsTokenName reports whether name is spelled as a token (its first letter is uppercase).
func IsTokenName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// Grammar is the aggregate every semantic pass reads and mutates. It owns the AST, the rule table, and the
// token, literal, and channel tables.
type Grammar struct {
	Name     string
	Type     Type
	FileName string
	LibDir   string
	Tree     *tree.Tree

	// Tokens holds token names and quoted string literals. A literal aliasing a token shares its type.
	Tokens   *symbol.Table
	Channels *symbol.Table

	// NamedActions are the global actions such as @header and @parser::members, keyed by scope::name.
	NamedActions map[string]*Action

	// Actions lists every action, predicate, and exception handler in the grammar in source order.
	Actions []*Action

	// ImplicitTokens are the T__n tokens of a combined grammar.
	ImplicitTokens []ImplicitToken

	rules     map[string]*Rule
	ruleList  []*Rule
	modes     []string
	modeRules map[string][]*Rule

	// altLabelOwners maps both the capitalized and the decapitalized spelling of an alternative label to the
	// first rule using it.
	altLabelOwners map[string]string

	syms *collectedSymbols

	// checkAssoc enables the check of misplaced assoc options.
	checkAssoc bool

	errs   *verr.Manager
	logger *slog.Logger
}

type Option func(g *Grammar)

func WithFileName(fileName string) Option {
	return func(g *Grammar) {
		g.FileName = fileName
	}
}

// WithLibDir sets the directory searched for .tokens files in addition to the grammar's own directory.
func WithLibDir(dir string) Option {
	return func(g *Grammar) {
		g.LibDir = dir
	}
}

// WithAssocCheck turns the check of assoc options placed elsewhere than on an alternative on or off.
func WithAssocCheck(enabled bool) Option {
	return func(g *Grammar) {
		g.checkAssoc = enabled
	}
}

// New creates a grammar from a parsed tree. Diagnostics of every pass go to errs.
func New(t *tree.Tree, errs *verr.Manager, opts ...Option) (*Grammar, error) {
	if t.Root == tree.Nil || t.Kind(t.Root) != tree.KindGrammar {
		return nil, fmt.Errorf("the tree is not a grammar")
	}
	root := t.Node(t.Root)
	g := &Grammar{
		Name:           root.Text,
		Type:           TypeCombined,
		Tree:           t,
		Tokens:         symbol.NewTokenTable(),
		Channels:       symbol.NewChannelTable(),
		NamedActions:   map[string]*Action{},
		rules:          map[string]*Rule{},
		modeRules:      map[string][]*Rule{},
		altLabelOwners: map[string]string{},
		syms:           &collectedSymbols{},
		checkAssoc:     true,
		errs:           errs,
		logger:         errs.Logger().With("grammar", root.Text),
	}
	switch root.Scope {
	case "lexer":
		g.Type = TypeLexer
	case "parser":
		g.Type = TypeParser
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Grammar) Errors() *verr.Manager {
	return g.errs
}

func (g *Grammar) Logger() *slog.Logger {
	return g.logger
}

func (g *Grammar) IsLexer() bool {
	return g.Type == TypeLexer
}

func (g *Grammar) IsParser() bool {
	return g.Type == TypeParser
}

func (g *Grammar) IsCombined() bool {
	return g.Type == TypeCombined
}

// DefaultActionScope is the scope of a named action written without one, like @members.
func (g *Grammar) DefaultActionScope() string {
	if g.IsLexer() {
		return "lexer"
	}
	return "parser"
}

// Option returns the value of a grammar-level option.
func (g *Grammar) Option(name string) (string, bool) {
	opts := g.Tree.FirstChildOfKind(g.Tree.Root, tree.KindOptions)
	if opts == tree.Nil {
		return "", false
	}
	return g.Tree.Option(opts, name)
}

// SetOption overrides a grammar-level option, adding an options block when the grammar has none.
func (g *Grammar) SetOption(name, value string) {
	t := g.Tree
	opts := t.FirstChildOfKind(t.Root, tree.KindOptions)
	if opts == tree.Nil {
		opts = t.Add(tree.KindOptions, "options", t.Node(t.Root).Pos)
		t.InsertChild(t.Root, 0, opts)
	}
	t.SetOption(opts, name, value)
}

// DefineRule adds r to the rule table and assigns its index. It returns false when a rule of the same name
// already exists.
func (g *Grammar) DefineRule(r *Rule) bool {
	if _, ok := g.rules[r.Name]; ok {
		return false
	}
	r.Index = len(g.ruleList)
	g.rules[r.Name] = r
	g.ruleList = append(g.ruleList, r)
	if r.Mode != "" {
		g.addMode(r.Mode)
		g.modeRules[r.Mode] = append(g.modeRules[r.Mode], r)
	}
	return true
}

func (g *Grammar) addMode(name string) {
	if _, ok := g.modeRules[name]; ok {
		return
	}
	g.modes = append(g.modes, name)
	g.modeRules[name] = nil
}

// ReplaceRule puts r in place of the rule of the same name. r takes over the index of the replaced rule.
func (g *Grammar) ReplaceRule(r *Rule) bool {
	old, ok := g.rules[r.Name]
	if !ok {
		return false
	}
	r.Index = old.Index
	g.rules[r.Name] = r
	g.ruleList[r.Index] = r
	if rs, ok := g.modeRules[r.Mode]; ok {
		for i, mr := range rs {
			if mr == old {
				rs[i] = r
			}
		}
	}
	return true
}

func (g *Grammar) resetRules() {
	g.rules = map[string]*Rule{}
	g.ruleList = nil
	g.modes = nil
	g.modeRules = map[string][]*Rule{}
	g.altLabelOwners = map[string]string{}
}

// Rule returns nil when the rule is not defined.
func (g *Grammar) Rule(name string) *Rule {
	return g.rules[name]
}

// Rules returns the rules in index order.
func (g *Grammar) Rules() []*Rule {
	return g.ruleList
}

// Modes returns the lexer modes in order of appearance, the default mode first.
func (g *Grammar) Modes() []string {
	return g.modes
}

func (g *Grammar) ModeRules(mode string) []*Rule {
	return g.modeRules[mode]
}

// TokenType returns the type of a token name or a quoted string literal.
func (g *Grammar) TokenType(name string) (symbol.Num, bool) {
	return g.Tokens.Reader().ToNum(name)
}

// TokenDisplayName returns the name of a type, or its literal when the type has no name.
func (g *Grammar) TokenDisplayName(num symbol.Num) string {
	if text, ok := g.Tokens.Reader().ToText(num); ok {
		return text
	}
	return fmt.Sprintf("<%v>", num.Int())
}

// TokenNames returns the token names and their types, excluding literals and EOF.
func (g *Grammar) TokenNames() []symbol.Entry {
	var es []symbol.Entry
	for _, e := range g.Tokens.Reader().Entries() {
		if !isLiteral(e.Text) {
			es = append(es, e)
		}
	}
	return es
}

// StringLiterals returns the string literals and their types.
func (g *Grammar) StringLiterals() []symbol.Entry {
	var es []symbol.Entry
	for _, e := range g.Tokens.Reader().Entries() {
		if isLiteral(e.Text) {
			es = append(es, e)
		}
	}
	return es
}

func isLiteral(text string) bool {
	return strings.HasPrefix(text, "'")
}

// DefineTokenName gives name a new type unless it already has one.
func (g *Grammar) DefineTokenName(name string) symbol.Num {
	num, added, err := g.Tokens.Writer().Register(name)
	if err != nil {
		g.errs.Report(verr.ErrInternal, nil, "token type assignment", err)
		return symbol.NumNil
	}
	if added {
		g.logger.Debug("token type assigned", "component", "grammar", "token", name, "type", num.Int())
	}
	return num
}

// DefineTokenNameAs gives name the given type unless it already has one, and returns the type name ends up with.
func (g *Grammar) DefineTokenNameAs(name string, num symbol.Num) symbol.Num {
	if prev, ok := g.TokenType(name); ok {
		return prev
	}
	if err := g.Tokens.Writer().Define(name, num); err != nil {
		g.errs.Report(verr.ErrInternal, nil, "token type assignment", err)
		return symbol.NumNil
	}
	return num
}

// DefineStringLiteral gives a quoted literal a new type unless it already has one.
func (g *Grammar) DefineStringLiteral(lit string) symbol.Num {
	return g.DefineTokenName(lit)
}

// DefineStringLiteralAs gives a literal the given type. It returns false when the literal already has a type.
func (g *Grammar) DefineStringLiteralAs(lit string, num symbol.Num) bool {
	if _, ok := g.TokenType(lit); ok {
		return false
	}
	g.DefineTokenNameAs(lit, num)
	return true
}

// DefineTokenAlias makes lit share the type of the token name.
func (g *Grammar) DefineTokenAlias(name, lit string) symbol.Num {
	num := g.DefineTokenName(name)
	if err := g.Tokens.Writer().Define(lit, num); err != nil {
		g.errs.Report(verr.ErrInternal, nil, "token type assignment", err)
	}
	return num
}

func (g *Grammar) RemoveStringLiteral(lit string) {
	g.Tokens.Writer().Remove(lit)
}

// DefineChannelName gives a channel a new number unless it already has one.
func (g *Grammar) DefineChannelName(name string) symbol.Num {
	num, _, err := g.Channels.Writer().Register(name)
	if err != nil {
		g.errs.Report(verr.ErrInternal, nil, "channel assignment", err)
		return symbol.NumNil
	}
	return num
}

func (g *Grammar) ChannelValue(name string) (symbol.Num, bool) {
	return g.Channels.Reader().ToNum(name)
}

func (g *Grammar) addAction(a *Action) {
	g.Actions = append(g.Actions, a)
}

// A grammar-level action has no attributes to refer to.

func (g *Grammar) ResolveToAttribute(x string) *attr.Attribute {
	return nil
}

func (g *Grammar) ResolveToQualifiedAttribute(x, y string) *attr.Attribute {
	return nil
}

func (g *Grammar) ResolvesToLabel(x string) bool {
	return false
}

func (g *Grammar) ResolvesToListLabel(x string) bool {
	return false
}

func (g *Grammar) ResolvesToToken(x string) bool {
	return false
}

func (g *Grammar) ResolvesToAttributeDict(x string) bool {
	return false
}

func (g *Grammar) ResolveToRule(x string) *Rule {
	return nil
}
