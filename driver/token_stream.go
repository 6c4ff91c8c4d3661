package driver

import (
	"io"

	"github.com/nihei9/argot/grammar/symbol"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Token is a token the interpreter's lexer produced. Row and Col are 1-based.
type Token struct {
	Type    symbol.Num
	Name    string
	Text    string
	Channel symbol.Num
	Row     int
	Col     int
	EOF     bool
	Invalid bool
}

type tokenStream struct {
	lex  *mldriver.Lexer
	spec *lexSpec
	name func(symbol.Num) string
}

func newTokenStream(spec *lexSpec, name func(symbol.Num) string, src io.Reader) (*tokenStream, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(spec.cls), src)
	if err != nil {
		return nil, err
	}
	return &tokenStream{
		lex:  lex,
		spec: spec,
		name: name,
	}, nil
}

// next returns the next token on any channel. Skipped tokens are dropped and the text of `more` tokens is
// prepended to the token that follows them.
func (s *tokenStream) next() (*Token, error) {
	var prefix []byte
	var row, col int
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		if prefix == nil {
			row, col = tok.Row+1, tok.Col+1
		}
		if tok.EOF {
			return &Token{
				Type:    symbol.TokenTypeEOF,
				Name:    "EOF",
				Channel: symbol.ChannelDefault,
				Row:     row,
				Col:     col,
				EOF:     true,
			}, nil
		}
		if tok.Invalid {
			return &Token{
				Text:    string(prefix) + string(tok.Lexeme),
				Channel: symbol.ChannelDefault,
				Row:     row,
				Col:     col,
				Invalid: true,
			}, nil
		}

		k := s.spec.kind(mlspec.LexKindID(tok.KindID))
		if k == nil {
			return &Token{
				Text:    string(prefix) + string(tok.Lexeme),
				Channel: symbol.ChannelDefault,
				Row:     row,
				Col:     col,
				Invalid: true,
			}, nil
		}
		switch {
		case k.more:
			prefix = append(prefix, tok.Lexeme...)
			continue
		case k.skip:
			prefix = nil
			continue
		}
		name := k.rule
		if k.typ != symbol.NumNil {
			name = s.name(k.typ)
		}
		return &Token{
			Type:    k.typ,
			Name:    name,
			Text:    string(prefix) + string(tok.Lexeme),
			Channel: k.channel,
			Row:     row,
			Col:     col,
		}, nil
	}
}
