// Package config loads the build limits and policies of lalrgen.
//
// Values are layered; later layers override earlier ones:
//
//  1. defaults
//  2. a config file (lalrgen.yaml in the working directory, or the file given explicitly)
//  3. environment variables with the LALRGEN_ prefix (LALRGEN_MAX_STATES -> max_states)
//  4. command line flags that were set explicitly (--max-states -> max_states)
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/nihei9/lalrgen/grammar"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "LALRGEN_"

	// NoExpectation disables a conflict count check.
	NoExpectation = -1
)

var configFileNames = []string{"lalrgen.yaml", "lalrgen.yml"}

type Config struct {
	MaxStates   int `koanf:"max_states"`
	MaxItems    int `koanf:"max_items"`
	Parallelism int `koanf:"parallelism"`

	// ExpectSR and ExpectRR are the numbers of conflicts the grammar is known to have, like
	// bison's %expect and %expect-rr. NoExpectation skips the check.
	ExpectSR int `koanf:"expect_sr"`
	ExpectRR int `koanf:"expect_rr"`

	Compress   bool   `koanf:"compress"`
	Report     bool   `koanf:"report"`
	Binary     bool   `koanf:"binary"`
	TraceLevel string `koanf:"trace_level"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"max_states":  grammar.DefaultMaxStates,
		"max_items":   grammar.DefaultMaxItems,
		"parallelism": 1,
		"expect_sr":   NoExpectation,
		"expect_rr":   NoExpectation,
		"compress":    false,
		"report":      true,
		"binary":      false,
		"trace_level": "Error",
	}
}

// findConfigFile returns the explicit path if any, or a config file in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads the configuration. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := defaults()[key]; !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be 1 or more: %v", c.Parallelism)
	}
	if c.ExpectSR < NoExpectation {
		return fmt.Errorf("expect_sr must be 0 or more: %v", c.ExpectSR)
	}
	if c.ExpectRR < NoExpectation {
		return fmt.Errorf("expect_rr must be 0 or more: %v", c.ExpectRR)
	}
	switch strings.ToLower(c.TraceLevel) {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("trace_level must be one of Debug, Info, or Error: %v", c.TraceLevel)
	}
	return nil
}

// CompileOptions translates the configuration into options of grammar.Compile.
func (c *Config) CompileOptions() []grammar.CompileOption {
	opts := []grammar.CompileOption{
		grammar.WithMaxStates(c.MaxStates),
		grammar.WithMaxItems(c.MaxItems),
		grammar.WithParallelism(c.Parallelism),
	}
	if c.Report {
		opts = append(opts, grammar.EnableReporting())
	}
	if c.Compress {
		opts = append(opts, grammar.EnableCompression())
	}
	return opts
}

// CheckConflicts fails when the grammar has a different number of conflicts than expected.
func (c *Config) CheckConflicts(diags *grammar.Diagnostics) error {
	if c.ExpectSR != NoExpectation && diags.SRConflictCount() != c.ExpectSR {
		return fmt.Errorf("expected %v shift/reduce conflicts, but found %v", c.ExpectSR, diags.SRConflictCount())
	}
	if c.ExpectRR != NoExpectation && diags.RRConflictCount() != c.ExpectRR {
		return fmt.Errorf("expected %v reduce/reduce conflicts, but found %v", c.ExpectRR, diags.RRConflictCount())
	}
	return nil
}
