// Package config holds the tool configuration. A configuration file is TOML:
//
//	warnings_are_errors = false
//	message_format = "antlr"
//	log_level = "warn"
//	check_assoc_options = true
//	lib_dir = "grammars"
//
//	[defines]
//	tokenVocab = "CommonLexer"
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	WarningsAreErrors bool   `toml:"warnings_are_errors"`
	MessageFormat     string `toml:"message_format"`
	LongMessages      bool   `toml:"long_messages"`
	LogLevel          string `toml:"log_level"`

	// CheckAssocOptions enables the check reporting `assoc` element options in places where they have no effect.
	CheckAssocOptions bool `toml:"check_assoc_options"`

	OutputDir string `toml:"output_dir"`

	// LibDir is searched for .tokens files after the grammar's own directory.
	LibDir string `toml:"lib_dir"`

	// Defines override grammar-level options.
	Defines map[string]string `toml:"defines"`
}

func Default() *Config {
	return &Config{
		MessageFormat:     "antlr",
		LogLevel:          "warn",
		CheckAssocOptions: true,
		Defines:           map[string]string{},
	}
}

// Load reads a configuration file on top of the default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read the config file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.MessageFormat {
	case "antlr", "gnu", "vs2005":
	default:
		return fmt.Errorf("invalid message format: %v (antlr, gnu, or vs2005 expected)", c.MessageFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %v (debug, info, warn, or error expected)", c.LogLevel)
	}
	return nil
}

// SetDefine parses a `name=value` pair and records it as a grammar option override.
func (c *Config) SetDefine(pair string) error {
	i := strings.Index(pair, "=")
	if i <= 0 {
		return fmt.Errorf("invalid -Dname=value syntax: %v", pair)
	}
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	c.Defines[strings.TrimSpace(pair[:i])] = strings.TrimSpace(pair[i+1:])
	return nil
}
