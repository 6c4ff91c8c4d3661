package symbol

import (
	"fmt"
	"sort"
	"strings"
)

// Num is a token type or a channel number.
type Num int

func (n Num) Int() int {
	return int(n)
}

const (
	NumNil = Num(0)

	// TokenTypeEOF is the type of the end-of-input token. It lies outside of the user-defined range.
	TokenTypeEOF = Num(-1)

	TokenTypeMin = Num(1)

	ChannelDefault = Num(0)
	ChannelHidden  = Num(1)
	ChannelMin     = Num(2)

	numMax = Num(0xffff)
)

// Table is a bidirectional mapping between names and numbers. Several names may share a number (a literal and
// a token name both map to one token type, for instance); the reverse mapping keeps the first name defined for a
// number unless that name is a quoted literal.
type Table struct {
	text2Num map[string]Num
	num2Text map[Num]string
	min      Num
	next     Num
}

type TableWriter struct {
	*Table
}

type TableReader struct {
	*Table
}

// NewTable creates a table whose automatically assigned numbers start at min.
func NewTable(min Num) *Table {
	return &Table{
		text2Num: map[string]Num{},
		num2Text: map[Num]string{},
		min:      min,
		next:     min,
	}
}

// NewTokenTable is a table of token types. EOF is predefined.
func NewTokenTable() *Table {
	t := NewTable(TokenTypeMin)
	t.text2Num["EOF"] = TokenTypeEOF
	t.num2Text[TokenTypeEOF] = "EOF"
	return t
}

// NewChannelTable is a table of channels. DEFAULT_TOKEN_CHANNEL and HIDDEN are predefined.
func NewChannelTable() *Table {
	t := NewTable(ChannelMin)
	t.text2Num["DEFAULT_TOKEN_CHANNEL"] = ChannelDefault
	t.num2Text[ChannelDefault] = "DEFAULT_TOKEN_CHANNEL"
	t.text2Num["HIDDEN"] = ChannelHidden
	t.num2Text[ChannelHidden] = "HIDDEN"
	return t
}

func (t *Table) Writer() *TableWriter {
	return &TableWriter{
		Table: t,
	}
}

func (t *Table) Reader() *TableReader {
	return &TableReader{
		Table: t,
	}
}

// Register assigns the next free number to text. When text is already registered, its number is returned and
// the second result is false.
func (w *TableWriter) Register(text string) (Num, bool, error) {
	if num, ok := w.text2Num[text]; ok {
		return num, false, nil
	}
	if w.next > numMax {
		return NumNil, false, fmt.Errorf("a number exceeds the limit; limit: %v, passed: %v", numMax, w.next)
	}
	num := w.next
	w.next++
	w.text2Num[text] = num
	w.setText(num, text)
	return num, true, nil
}

// Define maps text to a given number. Numbers defined this way are never handed out by Register afterwards.
func (w *TableWriter) Define(text string, num Num) error {
	if num > numMax {
		return fmt.Errorf("a number exceeds the limit; limit: %v, passed: %v", numMax, num)
	}
	w.text2Num[text] = num
	w.setText(num, text)
	if num >= w.next {
		w.next = num + 1
	}
	return nil
}

func (w *TableWriter) setText(num Num, text string) {
	prev, ok := w.num2Text[num]
	if !ok || strings.HasPrefix(prev, "'") {
		w.num2Text[num] = text
	}
}

// Remove deletes text. The number stays reserved.
func (w *TableWriter) Remove(text string) {
	num, ok := w.text2Num[text]
	if !ok {
		return
	}
	delete(w.text2Num, text)
	if w.num2Text[num] != text {
		return
	}
	delete(w.num2Text, num)
	for t, n := range w.text2Num {
		if n == num {
			w.setText(num, t)
		}
	}
}

func (r *TableReader) ToNum(text string) (Num, bool) {
	num, ok := r.text2Num[text]
	return num, ok
}

func (r *TableReader) ToText(num Num) (string, bool) {
	text, ok := r.num2Text[num]
	return text, ok
}

// Max returns the largest number in use, or the number preceding the automatic range when the table has no
// user-defined entries.
func (r *TableReader) Max() Num {
	return r.next - 1
}

// Entry is a name and its number.
type Entry struct {
	Text string
	Num  Num
}

// Entries returns the user-defined entries sorted by number, then by name. Predefined entries are omitted.
func (r *TableReader) Entries() []Entry {
	es := make([]Entry, 0, len(r.text2Num))
	for text, num := range r.text2Num {
		if num < r.min {
			continue
		}
		es = append(es, Entry{
			Text: text,
			Num:  num,
		})
	}
	sort.Slice(es, func(i, j int) bool {
		if es[i].Num != es[j].Num {
			return es[i].Num < es[j].Num
		}
		return es[i].Text < es[j].Text
	})
	return es
}

func (r *TableReader) Len() int {
	return len(r.text2Num)
}
