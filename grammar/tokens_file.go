package grammar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/symbol"
)

var reTokenDef = regexp.MustCompile(`^(.+?)[ \t]*=[ \t]*([0-9]+)$`)

// ImportTokenVocab defines the token types of the .tokens file the tokenVocab option names. The file is looked
// up in the grammar's directory first, then in the library directory.
func (g *Grammar) ImportTokenVocab() {
	vocab, ok := g.Option(TokenVocabOptionName)
	if !ok || vocab == "" {
		return
	}
	path, f, err := g.openTokensFile(vocab)
	if err != nil {
		g.errs.Report(verr.ErrCannotFindTokensFileInGram, nil, vocab+TokensFileExtension)
		return
	}
	defer f.Close()
	n := g.ReadTokens(path, f)
	g.logger.Debug("tokens imported", "component", "tokens", "file", path, "count", n)
}

func (g *Grammar) openTokensFile(vocab string) (string, *os.File, error) {
	name := vocab + TokensFileExtension
	var dirs []string
	if g.FileName != "" {
		dirs = append(dirs, filepath.Dir(g.FileName))
	}
	if g.LibDir != "" {
		dirs = append(dirs, g.LibDir)
	}
	if len(dirs) == 0 {
		dirs = append(dirs, ".")
	}
	var lastErr error
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err == nil {
			return path, f, nil
		}
		lastErr = err
	}
	return "", nil, lastErr
}

// ReadTokens defines the `NAME=type` and `'literal'=type` lines of a .tokens file and returns the number of
// definitions read. Malformed lines are reported and skipped.
func (g *Grammar) ReadTokens(path string, r io.Reader) int {
	count := 0
	s := bufio.NewScanner(r)
	row := 0
	for s.Scan() {
		row++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		m := reTokenDef.FindStringSubmatch(line)
		if m == nil {
			g.errs.Report(verr.ErrTokensFileSyntax, nil, path, fmt.Sprintf("%v: bad token def: %v", row, line))
			continue
		}
		v, err := strconv.Atoi(m[2])
		if err != nil {
			g.errs.Report(verr.ErrTokensFileSyntax, nil, path, fmt.Sprintf("%v: bad token type: %v", row, m[2]))
			continue
		}
		name := m[1]
		if isQuoted(name) {
			g.DefineStringLiteralAs(name, symbol.Num(v))
		} else {
			g.DefineTokenNameAs(name, symbol.Num(v))
		}
		count++
	}
	if err := s.Err(); err != nil {
		g.errs.Report(verr.ErrTokensFileSyntax, nil, path, err)
	}
	return count
}

// WriteTokens writes the token names and then the literals in .tokens format, each group ordered by type.
func (g *Grammar) WriteTokens(w io.Writer) error {
	for _, e := range g.TokenNames() {
		if _, err := fmt.Fprintf(w, "%v=%v\n", e.Text, e.Num.Int()); err != nil {
			return err
		}
	}
	for _, e := range g.StringLiterals() {
		if _, err := fmt.Fprintf(w, "%v=%v\n", e.Text, e.Num.Int()); err != nil {
			return err
		}
	}
	return nil
}

// TokensFileName is the name of the .tokens file of the grammar.
func (g *Grammar) TokensFileName() string {
	return g.Name + TokensFileExtension
}
