package gen

import (
	"errors"
	"go/token"
	"path/filepath"
	"runtime"
)

// DefaultHeader is the header comment of every generated file.
const DefaultHeader = "Code generated by reposql. DO NOT EDIT."

// Config is the configuration of one generation run.
type Config struct {
	// Package is the package name of the generated files. It defaults to
	// the base name of Target.
	Package string
	// Target is the output directory.
	Target string
	// Header is written at the top of each generated file.
	Header string
	// Workers bounds the number of files rendered concurrently.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the package name of the generated files.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package must be a Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithHeader sets the file header comment.
// An empty header omits it.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "need at least one worker")
		}
		c.Workers = n
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig returns a config with defaults applied and then opts. A target
// directory is required.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
	}
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	if c.Target == "" {
		return nil, NewConfigError("Target", nil, "target directory is required")
	}
	if c.Package == "" {
		pkg := filepath.Base(filepath.Clean(c.Target))
		if !token.IsIdentifier(pkg) {
			return nil, NewConfigError("Package", pkg, "cannot derive a package name from the target; use WithPackage")
		}
		c.Package = pkg
	}
	return c, nil
}
