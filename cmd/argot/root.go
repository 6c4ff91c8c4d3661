package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/nihei9/argot/config"
	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/semantics"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "argot",
	Short: "Check, resolve and interpret ANTLR grammars",
	Long: `argot runs the semantic analysis of ANTLR v4 grammars:
- Checks a grammar and reports its diagnostics.
- Rewrites left-recursive rules and resolves token types and action attributes.
- Interprets a grammar over an input to debug it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var rootFlags = struct {
	config            *string
	defines           *[]string
	warningsAreErrors *bool
	messageFormat     *string
	longMessages      *bool
	logLevel          *string
}{}

func init() {
	fs := rootCmd.PersistentFlags()
	rootFlags.config = fs.String("config", "", "TOML config file path")
	rootFlags.defines = fs.StringArrayP("define", "D", nil, "override a grammar option (name=value)")
	rootFlags.warningsAreErrors = fs.Bool("warnings-as-errors", false, "treat warnings as errors")
	rootFlags.messageFormat = fs.String("message-format", "", "diagnostic format: antlr, gnu, or vs2005")
	rootFlags.longMessages = fs.Bool("long-messages", false, "do not wrap long diagnostics")
	rootFlags.logLevel = fs.String("log-level", "", "log level: debug, info, warn, or error")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

// loadConfig reads the config file, if any, and applies the flags the user set on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if *rootFlags.config != "" {
		var err error
		cfg, err = config.Load(*rootFlags.config)
		if err != nil {
			return nil, err
		}
	}
	fs := cmd.Flags()
	if fs.Changed("warnings-as-errors") {
		cfg.WarningsAreErrors = *rootFlags.warningsAreErrors
	}
	if fs.Changed("message-format") {
		cfg.MessageFormat = *rootFlags.messageFormat
	}
	if fs.Changed("long-messages") {
		cfg.LongMessages = *rootFlags.longMessages
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *rootFlags.logLevel
	}
	for _, d := range *rootFlags.defines {
		if err := cfg.SetDefine(d); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadGrammar resolves a grammar file and prints its diagnostics to stderr.
func loadGrammar(path string, cfg *config.Config, logger *slog.Logger) (*semantics.Result, error) {
	res, errs, err := semantics.Load(path, cfg, logger)
	if errs != nil {
		printDiagnostics(os.Stderr, errs, cfg.LongMessages)
	}
	if err != nil {
		if _, ok := err.(verr.SpecErrors); ok {
			return nil, fmt.Errorf("%v: %v error(s), %v warning(s)", path, errs.ErrorCount(), errs.WarningCount())
		}
		return nil, err
	}
	return res, nil
}

const diagnosticWidth = 100

func printDiagnostics(w io.Writer, errs *verr.Manager, long bool) {
	for _, e := range errs.All() {
		msg := errs.Format(e)
		if !long && len(msg) > diagnosticWidth {
			msg = rosed.Edit(msg).Wrap(diagnosticWidth).String()
			msg = strings.ReplaceAll(msg, "\n", "\n    ")
		}
		fmt.Fprintln(w, msg)
	}
}
