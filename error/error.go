package error

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type SpecError struct {
	Cause      error
	Detail     string
	FilePath   string
	SourceName string
	Row        int
	Col        int
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		if e.Col != 0 {
			fmt.Fprintf(&b, "%v:%v: ", e.Row, e.Col)
		} else {
			fmt.Fprintf(&b, "%v: ", e.Row)
		}
	}
	if k, ok := e.Cause.(*Kind); ok && e.Detail != "" {
		// The detail of a catalog error is the fully formatted message.
		fmt.Fprintf(&b, "%v(%v): %v", k.Severity, k.Code, e.Detail)
	} else {
		fmt.Fprintf(&b, "error: %v", e.Cause)
		if e.Detail != "" {
			fmt.Fprintf(&b, ": %v", e.Detail)
		}
	}

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

// Kind returns the catalog entry the error was raised with, or nil when the cause is not a catalog kind.
func (e *SpecError) Kind() *Kind {
	k, _ := e.Cause.(*Kind)
	return k
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}

type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}

	return b.String()
}
