package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrEmptyCommand   = errors.New("command cannot be empty")
	ErrInvalidPort    = errors.New("port must be between 1 and 65535")
	ErrPortConflict   = errors.New("port is already used by another server")
	ErrUnknownProbe   = errors.New("readiness kind must be 'delay', 'port', 'log', or 'file'")
	ErrMissingPattern = errors.New("log readiness requires a pattern")
	ErrMissingFile    = errors.New("file readiness requires a file")
	ErrUnknownPolicy  = errors.New("optional_failure must be 'fatal' or 'skip'")
	ErrInvalidMount   = errors.New("mount must be a single directory name")
	ErrEmptyDir       = errors.New("directory cannot be empty")
	ErrUnknownColor   = errors.New("unknown color")
)

// Colors are the color names accepted for project labels.
var Colors = map[string]bool{
	"cyan":    true,
	"yellow":  true,
	"green":   true,
	"red":     true,
	"magenta": true,
	"blue":    true,
	"white":   true,
}

// ValidationError wraps a validation error with the offending field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %v (got %q)", e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration and returns every problem found,
// joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, value string, err error) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Err: err})
	}

	for _, p := range []struct {
		key string
		cfg ProjectConfig
	}{{"primary", c.Primary}, {"secondary", c.Secondary}} {
		if strings.TrimSpace(p.cfg.Dir) == "" {
			add(p.key+".dir", "", ErrEmptyDir)
		}
		if strings.TrimSpace(p.cfg.Dist) == "" {
			add(p.key+".dist", "", ErrEmptyDir)
		}
		if len(p.cfg.Build) == 0 || p.cfg.Build[0] == "" {
			add(p.key+".build", "", ErrEmptyCommand)
		}
		if len(p.cfg.Dev) == 0 || p.cfg.Dev[0] == "" {
			add(p.key+".dev", "", ErrEmptyCommand)
		}
		if !validPort(p.cfg.Port) {
			add(p.key+".port", fmt.Sprint(p.cfg.Port), ErrInvalidPort)
		}
		if p.cfg.Color != "" && !Colors[p.cfg.Color] {
			add(p.key+".color", p.cfg.Color, ErrUnknownColor)
		}
	}

	if err := validateMount(c.Secondary.Mount); err != nil {
		add("secondary.mount", c.Secondary.Mount, err)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		add("output.dir", "", ErrEmptyDir)
	}

	if !validPort(c.Preview.Port) {
		add("preview.port", fmt.Sprint(c.Preview.Port), ErrInvalidPort)
	}
	if len(c.Preview.Command) == 0 && !c.Preview.Builtin {
		add("preview.command", "", ErrEmptyCommand)
	}
	ports := map[int]string{}
	for _, p := range []struct {
		key  string
		port int
	}{{"primary.port", c.Primary.Port}, {"secondary.port", c.Secondary.Port}, {"preview.port", c.Preview.Port}} {
		if other, ok := ports[p.port]; ok && validPort(p.port) {
			add(p.key, other, ErrPortConflict)
		}
		ports[p.port] = p.key
	}

	r := c.Dev.Readiness
	switch r.Kind {
	case ProbeDelay, ProbePort:
	case ProbeLog:
		if r.Pattern == "" {
			add("dev.readiness.pattern", "", ErrMissingPattern)
		}
	case ProbeFile:
		if r.File == "" {
			add("dev.readiness.file", "", ErrMissingFile)
		}
	default:
		add("dev.readiness.kind", r.Kind, ErrUnknownProbe)
	}

	switch c.Build.OptionalFailure {
	case FailureFatal, FailureSkip:
	default:
		add("build.optional_failure", c.Build.OptionalFailure, ErrUnknownPolicy)
	}

	return errors.Join(errs...)
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

// validateMount requires a plain directory name so the secondary output
// always nests directly under the output root.
func validateMount(mount string) error {
	if mount == "" || mount == "." || mount == ".." {
		return ErrInvalidMount
	}
	if strings.ContainsAny(mount, `/\`) {
		return ErrInvalidMount
	}
	return nil
}
