package main

import (
	"fmt"
	"math/big"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/formulas"
)

// config is the contents of a config file. Each field has a corresponding
// command-line flag.
type config struct {
	Precision     uint   `yaml:"precision,omitempty"`
	Decimal       string `yaml:"decimal,omitempty"`
	Separator     string `yaml:"separator,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty"`
	// Constants are registered with the engine. They cannot be overwritten.
	Constants defs `yaml:"constants,omitempty"`
	// Variables are bound for every formula.
	Variables defs `yaml:"variables,omitempty"`
}

// def is a named formula.
type def struct {
	name, formula string
}

// defs is a list of named formulas in the order they are defined. Each may
// refer to those before it.
type defs []def

// UnmarshalYAML decodes a mapping of names to formulas, keeping its order.
func (d *defs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: definitions must be a mapping of names to formulas", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: definition of %q must be a formula", k.Line, k.Value)
		}
		*d = append(*d, def{name: k.Value, formula: v.Value})
	}
	return nil
}

func loadConfig(name string) (config, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return config{}, err
	}
	var c config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return config{}, fmt.Errorf("reading config %s: %w", name, err)
	}
	return c, nil
}

// merge combines c with flag settings. Settings from flags named in set win,
// as do flag defaults for settings the file leaves out.
func (c config) merge(flags config, set map[string]bool) config {
	if set["p"] || c.Precision == 0 {
		c.Precision = flags.Precision
	}
	if set["decimal"] || c.Decimal == "" {
		c.Decimal = flags.Decimal
	}
	if set["sep"] || c.Separator == "" {
		c.Separator = flags.Separator
	}
	if set["case"] {
		c.CaseSensitive = flags.CaseSensitive
	}
	return c
}

// engine creates an engine with the configured settings and constants.
func (c config) engine() (*formulas.Engine[*big.Float], error) {
	loc := formulas.Locale{Decimal: single(c.Decimal), Separator: single(c.Separator)}
	if err := loc.Check(); err != nil {
		return nil, fmt.Errorf("decimal %q and separator %q: %w", c.Decimal, c.Separator, err)
	}
	if c.Precision == 0 {
		return nil, fmt.Errorf("precision must be positive")
	}
	e := formulas.NewBigFloatEngine(c.Precision, formulas.WithLocale(loc), formulas.WithCaseSensitive(c.CaseSensitive))
	for _, d := range c.Constants {
		r, err := e.Calculate(d.formula, nil)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", d.name, err)
		}
		if err := e.AddConstant(d.name, r, false); err != nil {
			return nil, fmt.Errorf("constant %s: %w", d.name, err)
		}
	}
	return e, nil
}

// vars evaluates the configured variables in order.
func (c config) vars(e *formulas.Engine[*big.Float]) (map[string]*big.Float, error) {
	vars := make(map[string]*big.Float, len(c.Variables))
	for _, d := range c.Variables {
		r, err := e.Calculate(d.formula, vars)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", d.name, err)
		}
		vars[d.name] = r
	}
	return vars, nil
}

// single returns the only rune in s, or 0 if s is not exactly one rune.
func single(s string) rune {
	r, n := utf8.DecodeRuneInString(s)
	if n != len(s) || r == utf8.RuneError {
		return 0
	}
	return r
}
