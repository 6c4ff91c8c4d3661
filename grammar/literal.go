package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// UnquoteLiteral returns the characters a quoted grammar literal such as 'a\n' or '\u{1F600}' matches.
func UnquoteLiteral(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return "", fmt.Errorf("not a quoted literal: %v", lit)
	}
	s := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("a literal ends with a backslash: %v", lit)
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '\\', '\'', '"', '-', ']':
			b.WriteByte(s[i])
		case 'u':
			r, n, err := readCodePoint(s[i+1:])
			if err != nil {
				return "", fmt.Errorf("%w: %v", err, lit)
			}
			b.WriteRune(r)
			i += n
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c: %v", s[i], lit)
		}
	}
	return b.String(), nil
}

// readCodePoint reads the XXXX of \uXXXX or the X..X of \u{X..X} and returns the number of bytes it consumed.
func readCodePoint(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, fmt.Errorf("unclosed code point escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > 0x10ffff {
			return 0, 0, fmt.Errorf("invalid code point escape")
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short code point escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid code point escape")
	}
	return rune(v), 4, nil
}
