// Package semantics runs the semantic passes over a parsed grammar in order. The passes are grouped into stages;
// a stage that reports an error stops the pipeline so that later stages never see a tree or a rule table the
// earlier ones could not make consistent.
package semantics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/nihei9/argot/action"
	"github.com/nihei9/argot/config"
	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/grammar/leftrec"
	"github.com/nihei9/argot/spec/grammar/parser"
	"github.com/nihei9/argot/spec/grammar/tree"
)

type Stage int

const (
	StageNone Stage = iota
	StageCollection
	StageLeftRecursion
	StageSymbols
	StageActions
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageCollection:
		return "collection"
	case StageLeftRecursion:
		return "left-recursion"
	case StageSymbols:
		return "symbols"
	case StageActions:
		return "actions"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Result is a resolved grammar. When the pipeline stops early, Stage is the stage that reported errors and the
// grammar holds what the stages before it produced.
type Result struct {
	Grammar *grammar.Grammar
	Stage   Stage

	// Rewritten lists the rules the left-recursion stage rewrote.
	Rewritten []*grammar.Rule

	// Actions holds the translation of every action once all stages have passed.
	Actions []*action.Translation
}

// Complete reports whether all stages have passed.
func (r *Result) Complete() bool {
	return r.Stage == StageActions && r.Actions != nil
}

type Builder struct {
	Tree     *tree.Tree
	FileName string
	Config   *config.Config
	Errs     *verr.Manager
}

// Build runs the stages. It returns the diagnostics as verr.SpecErrors when any stage reports an error.
func (b *Builder) Build() (*Result, error) {
	cfg := b.Config
	if cfg == nil {
		cfg = config.Default()
	}
	errs := b.Errs
	if errs == nil {
		errs = verr.NewManager()
	}

	g, err := grammar.New(b.Tree, errs,
		grammar.WithFileName(b.FileName),
		grammar.WithLibDir(cfg.LibDir),
		grammar.WithAssocCheck(cfg.CheckAssocOptions),
	)
	if err != nil {
		return nil, err
	}
	logger := g.Logger().With("component", "semantics")
	applyDefines(g, cfg.Defines)

	res := &Result{
		Grammar: g,
	}
	stop := func(s Stage) bool {
		res.Stage = s
		logger.Debug("stage finished", "stage", s, "errors", errs.ErrorCount(), "warnings", errs.WarningCount())
		return errs.ErrorCount() > 0 || errs.Fatal()
	}

	g.CollectRules()
	g.CheckBasics()
	if stop(StageCollection) {
		return res, errs.Errors()
	}

	res.Rewritten = leftrec.Transform(g)
	if stop(StageLeftRecursion) {
		return res, errs.Errors()
	}

	g.CollectSymbols()
	g.CheckSymbols()
	g.ImportTokenVocab()
	g.AssignTokenTypes()
	g.CheckModeConflicts()
	g.CheckUnreachableTokens()
	g.AssignChannelTypes()
	g.CheckRuleRefs()
	g.CheckLexerCommands()
	if stop(StageSymbols) {
		return res, errs.Errors()
	}

	action.Check(g)
	if stop(StageActions) {
		return res, errs.Errors()
	}
	res.Actions = action.TranslateAll(g)
	if res.Actions == nil {
		res.Actions = []*action.Translation{}
	}
	return res, nil
}

// applyDefines overrides grammar options in name order.
func applyDefines(g *grammar.Grammar, defs map[string]string) {
	names := make([]string, 0, len(defs))
	for n := range defs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		g.SetOption(n, defs[n])
	}
}

// Load reads and resolves a grammar file. The returned manager holds every diagnostic, including a syntax
// error, and is non-nil whenever the file could be read.
func Load(path string, cfg *config.Config, logger *slog.Logger) (*Result, *verr.Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	opts := []verr.ManagerOption{
		verr.WithSource(path, filepath.Base(path)),
		verr.WithMessageFormat(verr.MessageFormat(cfg.MessageFormat)),
	}
	if logger != nil {
		opts = append(opts, verr.WithLogger(logger))
	}
	if cfg.WarningsAreErrors {
		opts = append(opts, verr.WarningsAreErrors())
	}
	errs := verr.NewManager(opts...)

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()

	t, err := parser.Parse(f)
	if err != nil {
		if specErr, ok := err.(*verr.SpecError); ok {
			errs.Add(specErr)
			return nil, errs, errs.Errors()
		}
		return nil, errs, err
	}

	b := &Builder{
		Tree:     t,
		FileName: path,
		Config:   cfg,
		Errs:     errs,
	}
	res, err := b.Build()
	return res, errs, err
}
