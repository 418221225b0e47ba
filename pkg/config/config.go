// Package config holds the allocator driver settings. Values are layered:
// built-in defaults, then environment variables, then an optional YAML file,
// then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// DefaultRegisters is the register budget used when nothing else is set
const DefaultRegisters = 8

// Environment variables read by FromEnv
const (
	EnvRegisters = "REGALLOC_REGISTERS"
	EnvVerbose   = "REGALLOC_VERBOSE"
)

// ErrInvalidConfig is wrapped by every validation error
var ErrInvalidConfig = errors.New("invalid configuration")

// Dump names accepted in Config.Dump
var validDumps = map[string]bool{
	"tac":    true,
	"cfg":    true,
	"live":   true,
	"interf": true,
	"raw":    true,
}

// Config is the driver configuration
type Config struct {
	// Registers is the number of allocatable registers
	Registers int `yaml:"registers"`
	// Verbose enables debug logging of the passes
	Verbose bool `yaml:"verbose"`
	// Check verifies the coloring after allocation
	Check bool `yaml:"check"`
	// Dump lists intermediate results to print (tac, cfg, live, interf, raw)
	Dump []string `yaml:"dump"`
	// SecondaryOrder breaks ties between variables of equal degree
	SecondaryOrder map[string]int `yaml:"secondary_order"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{Registers: DefaultRegisters}
}

// FromEnv returns the defaults overridden by REGALLOC_* environment variables.
// A value that is not an integer leaves the default register count.
func FromEnv() *Config {
	// env caches the environment on first use; re-read it
	env.Load()
	c := Default()
	c.Registers = env.Int(EnvRegisters, c.Registers)
	c.Verbose = env.Bool(EnvVerbose)
	return c
}

// Load reads a YAML file on top of c. Keys missing from the file keep
// their current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadOrder reads a YAML mapping of variable name to tie-break key
func LoadOrder(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	order := make(map[string]int)
	if err := yaml.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return order, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Registers <= 0 {
		return fmt.Errorf("%w: registers must be positive, got %d", ErrInvalidConfig, c.Registers)
	}
	for _, d := range c.Dump {
		if !validDumps[d] {
			return fmt.Errorf("%w: unknown dump %q", ErrInvalidConfig, d)
		}
	}
	return nil
}

// Dumps reports whether the named dump is enabled
func (c *Config) Dumps(name string) bool {
	for _, d := range c.Dump {
		if d == name {
			return true
		}
	}
	return false
}

// Order converts SecondaryOrder to the allocator's key type
func (c *Config) Order() map[tac.Ident]int {
	if len(c.SecondaryOrder) == 0 {
		return nil
	}
	order := make(map[tac.Ident]int, len(c.SecondaryOrder))
	for v, k := range c.SecondaryOrder {
		order[tac.Ident(v)] = k
	}
	return order
}
