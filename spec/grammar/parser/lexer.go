package parser

import (
	"fmt"
	"io"
	"strings"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/spec/grammar/tree"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type tokenKind string

const (
	tokenKindKWGrammar   = tokenKind("grammar")
	tokenKindKWLexer     = tokenKind("lexer")
	tokenKindKWParser    = tokenKind("parser")
	tokenKindKWFragment  = tokenKind("fragment")
	tokenKindKWReturns   = tokenKind("returns")
	tokenKindKWLocals    = tokenKind("locals")
	tokenKindKWCatch     = tokenKind("catch")
	tokenKindKWFinally   = tokenKind("finally")
	tokenKindKWMode      = tokenKind("mode")
	tokenKindKWPublic    = tokenKind("public")
	tokenKindKWPrivate   = tokenKind("private")
	tokenKindKWProtected = tokenKind("protected")
	tokenKindOptions     = tokenKind("options {")
	tokenKindTokens      = tokenKind("tokens {")
	tokenKindChannels    = tokenKind("channels {")
	tokenKindTokenRef    = tokenKind("token reference")
	tokenKindRuleRef     = tokenKind("rule reference")
	tokenKindInt         = tokenKind("integer")
	tokenKindString      = tokenKind("string literal")
	tokenKindAction      = tokenKind("action")
	tokenKindArg         = tokenKind("argument")
	tokenKindColon       = tokenKind(":")
	tokenKindColonColon  = tokenKind("::")
	tokenKindSemicolon   = tokenKind(";")
	tokenKindOr          = tokenKind("|")
	tokenKindLParen      = tokenKind("(")
	tokenKindRParen      = tokenKind(")")
	tokenKindRBrace      = tokenKind("}")
	tokenKindQuestion    = tokenKind("?")
	tokenKindStar        = tokenKind("*")
	tokenKindPlus        = tokenKind("+")
	tokenKindPlusAssign  = tokenKind("+=")
	tokenKindAssign      = tokenKind("=")
	tokenKindLT          = tokenKind("<")
	tokenKindGT          = tokenKind(">")
	tokenKindComma       = tokenKind(",")
	tokenKindDot         = tokenKind(".")
	tokenKindRange       = tokenKind("..")
	tokenKindNot         = tokenKind("~")
	tokenKindAt          = tokenKind("@")
	tokenKindPound       = tokenKind("#")
	tokenKindRArrow      = tokenKind("->")
	tokenKindEOF         = tokenKind("eof")
	tokenKindInvalid     = tokenKind("invalid")
)

type token struct {
	kind tokenKind
	text string
	pos  tree.Position
}

func newPosition(row, col, offset int) tree.Position {
	return tree.Position{
		Row:    row,
		Col:    col,
		Offset: offset,
	}
}

func newSymbolToken(kind tokenKind, text string, pos tree.Position) *token {
	return &token{
		kind: kind,
		text: text,
		pos:  pos,
	}
}

func newEOFToken(pos tree.Position) *token {
	return &token{
		kind: tokenKindEOF,
		pos:  pos,
	}
}

func newInvalidToken(text string, pos tree.Position) *token {
	return &token{
		kind: tokenKindInvalid,
		text: text,
		pos:  pos,
	}
}

const (
	modeAction = mlspec.LexModeName("action")
	modeArg    = mlspec.LexModeName("arg")
)

const wsChars = `[\u{0009}\u{000A}\u{000D}\u{0020}]`

func entry(kind, pattern string) *mlspec.LexEntry {
	return &mlspec.LexEntry{
		Kind:    mlspec.LexKindName(kind),
		Pattern: mlspec.LexPattern(pattern),
	}
}

func inMode(e *mlspec.LexEntry, mode mlspec.LexModeName) *mlspec.LexEntry {
	e.Modes = []mlspec.LexModeName{mode}
	return e
}

func pushing(e *mlspec.LexEntry, mode mlspec.LexModeName) *mlspec.LexEntry {
	e.Push = mode
	return e
}

func popping(e *mlspec.LexEntry) *mlspec.LexEntry {
	e.Pop = true
	return e
}

// Kinds of the default mode map directly to token kinds. Keywords precede the identifiers because maleeni
// breaks a tie between two longest matches in favour of the earlier entry.
var defaultKinds = []struct {
	name    string
	pattern string
	kind    tokenKind
}{
	{"kw_grammar", `grammar`, tokenKindKWGrammar},
	{"kw_lexer", `lexer`, tokenKindKWLexer},
	{"kw_parser", `parser`, tokenKindKWParser},
	{"kw_fragment", `fragment`, tokenKindKWFragment},
	{"kw_returns", `returns`, tokenKindKWReturns},
	{"kw_locals", `locals`, tokenKindKWLocals},
	{"kw_catch", `catch`, tokenKindKWCatch},
	{"kw_finally", `finally`, tokenKindKWFinally},
	{"kw_mode", `mode`, tokenKindKWMode},
	{"kw_public", `public`, tokenKindKWPublic},
	{"kw_private", `private`, tokenKindKWPrivate},
	{"kw_protected", `protected`, tokenKindKWProtected},
	{"options_open", `options` + wsChars + `*{`, tokenKindOptions},
	{"tokens_open", `tokens` + wsChars + `*{`, tokenKindTokens},
	{"channels_open", `channels` + wsChars + `*{`, tokenKindChannels},
	{"token_ref", `[A-Z][0-9A-Za-z_]*`, tokenKindTokenRef},
	{"rule_ref", `[a-z][0-9A-Za-z_]*`, tokenKindRuleRef},
	{"int", `[0-9]+`, tokenKindInt},
	{"string_literal", `'(\\[^\u{000A}]|[^\\'\u{000A}])*'`, tokenKindString},
	{"colon_colon", `::`, tokenKindColonColon},
	{"colon", `:`, tokenKindColon},
	{"semicolon", `;`, tokenKindSemicolon},
	{"or", `\|`, tokenKindOr},
	{"l_paren", `\(`, tokenKindLParen},
	{"r_paren", `\)`, tokenKindRParen},
	{"r_brace", `}`, tokenKindRBrace},
	{"question", `\?`, tokenKindQuestion},
	{"star", `\*`, tokenKindStar},
	{"plus_assign", `\+=`, tokenKindPlusAssign},
	{"plus", `\+`, tokenKindPlus},
	{"assign", `=`, tokenKindAssign},
	{"lt", `<`, tokenKindLT},
	{"gt", `>`, tokenKindGT},
	{"comma", `,`, tokenKindComma},
	{"range", `\.\.`, tokenKindRange},
	{"dot", `\.`, tokenKindDot},
	{"not", `~`, tokenKindNot},
	{"at", `@`, tokenKindAt},
	{"pound", `#`, tokenKindPound},
	{"r_arrow", `->`, tokenKindRArrow},
}

var kindName2TokenKind = map[string]tokenKind{}

var lexSpec *mlspec.CompiledLexSpec

func init() {
	entries := []*mlspec.LexEntry{
		entry("white_space", wsChars+`+`),
		entry("line_comment", `//[^\u{000A}]*`),
		entry("block_comment", `/\*([^*]|\*+[^*/])*\*+/`),
	}
	for _, k := range defaultKinds {
		entries = append(entries, entry(k.name, k.pattern))
		kindName2TokenKind[k.name] = k.kind
	}
	entries = append(entries,
		entry("unclosed_string", `'(\\[^\u{000A}]|[^\\'\u{000A}])*`),
		pushing(entry("action_open", `{`), modeAction),
		pushing(entry("arg_open", `\[`), modeArg),

		// Nested braces, string and character literals, and comments inside an action are kept verbatim; only
		// an unbalanced `}` outside of them closes the action.
		pushing(inMode(entry("action_nested_open", `{`), modeAction), modeAction),
		popping(inMode(entry("action_close", `}`), modeAction)),
		inMode(entry("action_string", `"(\\[^\u{000A}]|[^\\"\u{000A}])*"`), modeAction),
		inMode(entry("action_char", `'(\\[^\u{000A}]|[^\\'\u{000A}])*'`), modeAction),
		inMode(entry("action_quote", `["']`), modeAction),
		inMode(entry("action_line_comment", `//[^\u{000A}]*`), modeAction),
		inMode(entry("action_block_comment", `/\*([^*]|\*+[^*/])*\*+/`), modeAction),
		inMode(entry("action_escape", `\\[^\u{000A}]`), modeAction),
		inMode(entry("action_backslash", `\\`), modeAction),
		inMode(entry("action_text", `[^{}"'/\\]+`), modeAction),
		inMode(entry("action_slash", `/`), modeAction),

		pushing(inMode(entry("arg_nested_open", `\[`), modeArg), modeArg),
		popping(inMode(entry("arg_close", `\]`), modeArg)),
		inMode(entry("arg_escape", `\\[^\u{000A}]`), modeArg),
		inMode(entry("arg_backslash", `\\`), modeArg),
		inMode(entry("arg_text", `[^[\]\\]+`), modeArg),
	)

	cls, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    "grammar",
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "cannot compile the grammar lexer: %v", err)
		for _, cErr := range cErrs {
			fmt.Fprintf(&b, "\n%v: %v: %v", cErr.Kind, cErr.Cause, cErr.Detail)
		}
		panic(b.String())
	}
	lexSpec = cls
}

type lexer struct {
	d      *mldriver.Lexer
	offset int
}

func newLexer(src io.Reader) (*lexer, error) {
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(lexSpec), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		d: d,
	}, nil
}

// read returns the next maleeni token together with its position. Rows and columns become 1-based, and the
// byte offset is the running sum of the lexemes read so far.
func (l *lexer) read() (*mldriver.Token, string, tree.Position, error) {
	tok, err := l.d.Next()
	if err != nil {
		return nil, "", tree.Position{}, err
	}
	pos := newPosition(tok.Row+1, tok.Col+1, l.offset)
	l.offset += len(tok.Lexeme)
	if tok.EOF || tok.Invalid {
		return tok, "", pos, nil
	}
	return tok, lexSpec.KindNames[tok.KindID].String(), pos, nil
}

func (l *lexer) next() (*token, error) {
	for {
		tok, kindName, pos, err := l.read()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return newEOFToken(pos), nil
		}
		if tok.Invalid {
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}

		switch kindName {
		case "white_space", "line_comment", "block_comment":
			continue
		case "unclosed_string":
			return nil, &verr.SpecError{
				Cause:  verr.ErrSyntax,
				Detail: verr.ErrSyntax.Format(synErrUnclosedString),
				Row:    pos.Row,
				Col:    pos.Col,
			}
		case "action_open":
			text, err := l.readNested(pos, "action_close", synErrUnclosedAction)
			if err != nil {
				return nil, err
			}
			return newSymbolToken(tokenKindAction, text, pos), nil
		case "arg_open":
			text, err := l.readNested(pos, "arg_close", synErrUnclosedArg)
			if err != nil {
				return nil, err
			}
			return newSymbolToken(tokenKindArg, text, pos), nil
		}

		kind, ok := kindName2TokenKind[kindName]
		if !ok {
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}
		return newSymbolToken(kind, string(tok.Lexeme), pos), nil
	}
}

// readNested collects the text between an opening bracket and its matching close. The maleeni mode stack tracks
// the nesting; the depth counted here only tells which close is the matching one.
func (l *lexer) readNested(open tree.Position, closeKind string, unclosed *SyntaxError) (string, error) {
	var b strings.Builder
	depth := 1
	for {
		tok, kindName, _, err := l.read()
		if err != nil {
			return "", err
		}
		if tok.EOF {
			return "", &verr.SpecError{
				Cause:  verr.ErrSyntax,
				Detail: verr.ErrSyntax.Format(unclosed),
				Row:    open.Row,
				Col:    open.Col,
			}
		}
		switch kindName {
		case "action_nested_open", "arg_nested_open":
			depth++
		case closeKind:
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.Write(tok.Lexeme)
	}
}
