package error

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Locator is implemented by anything that can point at a place in a grammar file.
type Locator interface {
	Location() (row, col int)
}

type MessageFormat string

const (
	MessageFormatANTLR  = MessageFormat("antlr")
	MessageFormatGNU    = MessageFormat("gnu")
	MessageFormatVS2005 = MessageFormat("vs2005")
)

type ManagerOption func(m *Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithSource(filePath, sourceName string) ManagerOption {
	return func(m *Manager) {
		m.filePath = filePath
		m.sourceName = sourceName
	}
}

func WarningsAreErrors() ManagerOption {
	return func(m *Manager) {
		m.warningsAreErrors = true
	}
}

func WithMessageFormat(f MessageFormat) ManagerOption {
	return func(m *Manager) {
		m.format = f
	}
}

// Manager is the diagnostics sink of one grammar compilation. Every pass reports through it, and the pipeline
// consults its counters to decide whether to advance to the next stage.
type Manager struct {
	filePath          string
	sourceName        string
	warningsAreErrors bool
	format            MessageFormat
	logger            *slog.Logger

	diags       SpecErrors
	errCount    int
	warnCount   int
	fatal       bool
	promotedOne bool
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		format: MessageFormatANTLR,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Report records a diagnostic of the given kind. loc may be nil when the diagnostic concerns the whole grammar.
func (m *Manager) Report(kind *Kind, loc Locator, args ...interface{}) {
	e := &SpecError{
		Cause:      kind,
		Detail:     kind.Format(args...),
		FilePath:   m.filePath,
		SourceName: m.sourceName,
	}
	if loc != nil {
		e.Row, e.Col = loc.Location()
	}
	m.Add(e)
}

// Add records an already built error. Errors whose cause is not a catalog kind count as errors.
func (m *Manager) Add(e *SpecError) {
	if e.FilePath == "" {
		e.FilePath = m.filePath
	}
	if e.SourceName == "" {
		e.SourceName = m.sourceName
	}
	m.diags = append(m.diags, e)

	sev := SeverityError
	if k := e.Kind(); k != nil {
		sev = k.Severity
	}
	m.logger.Debug("diagnostic", "severity", sev.String(), "row", e.Row, "col", e.Col, "message", e.Detail)
	switch sev {
	case SeverityWarning:
		m.warnCount++
		if m.warningsAreErrors {
			m.errCount++
			if !m.promotedOne {
				m.promotedOne = true
				m.diags = append(m.diags, &SpecError{
					Cause:      ErrWarningTreatedAsError,
					Detail:     ErrWarningTreatedAsError.Format(),
					FilePath:   m.filePath,
					SourceName: m.sourceName,
				})
			}
		}
	case SeverityFatal:
		m.fatal = true
		m.errCount++
	default:
		m.errCount++
	}
}

func (m *Manager) ErrorCount() int {
	return m.errCount
}

func (m *Manager) WarningCount() int {
	return m.warnCount
}

// Fatal reports whether an internal error aborted the grammar unit.
func (m *Manager) Fatal() bool {
	return m.fatal
}

// All returns every diagnostic in the order they were reported.
func (m *Manager) All() SpecErrors {
	return m.diags
}

func (m *Manager) Errors() SpecErrors {
	return m.filter(func(sev Severity) bool { return sev != SeverityWarning })
}

func (m *Manager) Warnings() SpecErrors {
	return m.filter(func(sev Severity) bool { return sev == SeverityWarning })
}

func (m *Manager) filter(keep func(Severity) bool) SpecErrors {
	var errs SpecErrors
	for _, e := range m.diags {
		sev := SeverityError
		if k := e.Kind(); k != nil {
			sev = k.Severity
		}
		if keep(sev) {
			errs = append(errs, e)
		}
	}
	return errs
}

// Has reports whether a diagnostic of the kind was reported.
func (m *Manager) Has(kind *Kind) bool {
	for _, e := range m.diags {
		if e.Cause == kind {
			return true
		}
	}
	return false
}

// Format renders a diagnostic in the manager's message format.
func (m *Manager) Format(e *SpecError) string {
	k := e.Kind()
	if k == nil {
		return e.Error()
	}
	msg := e.Detail
	if msg == "" {
		msg = k.Format()
	}
	switch m.format {
	case MessageFormatGNU:
		return fmt.Sprintf("%v:%v:%v: %v %v: %v", e.SourceName, e.Row, e.Col, k.Severity, k.Code, msg)
	case MessageFormatVS2005:
		return fmt.Sprintf("%v(%v,%v) : %v %v : %v", e.SourceName, e.Row, e.Col, k.Severity, k.Code, msg)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v(%v): ", k.Severity, k.Code)
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v:", e.SourceName)
	}
	if e.Row != 0 {
		fmt.Fprintf(&b, "%v:%v: ", e.Row, e.Col)
	} else if e.SourceName != "" {
		b.WriteString(" ")
	}
	b.WriteString(msg)
	return b.String()
}

// Print writes all diagnostics, one per line.
func (m *Manager) Print(w io.Writer) {
	for _, e := range m.diags {
		fmt.Fprintln(w, m.Format(e))
	}
}
