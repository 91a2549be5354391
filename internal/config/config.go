// Package config provides configuration loading and validation for mfe.
//
// A Config is built once at startup and passed by pointer to every
// component. Defaults reproduce the layout of the Aziende platform
// workspace: a required host app and an optional editor remote.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Readiness probe kinds.
const (
	ProbeDelay = "delay"
	ProbePort  = "port"
	ProbeLog   = "log"
	ProbeFile  = "file"
)

// Policies for a present-but-failing secondary build.
const (
	FailureFatal = "fatal"
	FailureSkip  = "skip"
)

// Defaults.
const (
	DefaultPrimaryDir     = "Starterkit - ts"
	DefaultSecondaryDir   = "AziendePlatformEditor"
	DefaultOutputDir      = "dist"
	DefaultMount          = "editor"
	DefaultPrimaryPort    = 5000
	DefaultSecondaryPort  = 5021
	DefaultPreviewPort    = 4173
	DefaultWarmUp         = 3 * time.Second
	DefaultReadyTimeout   = 30 * time.Second
	DefaultStopTimeout    = 5 * time.Second
	DefaultReadinessProbe = ProbePort
)

// Duration is a time.Duration that decodes from strings like "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML decodes a YAML scalar duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Config is the full mfe configuration.
type Config struct {
	// Root is the workspace root. Not read from the file.
	Root string `toml:"-" yaml:"-"`

	Primary   ProjectConfig `toml:"primary" yaml:"primary"`
	Secondary ProjectConfig `toml:"secondary" yaml:"secondary"`
	Output    OutputConfig  `toml:"output" yaml:"output"`
	Build     BuildConfig   `toml:"build" yaml:"build"`
	Dev       DevConfig     `toml:"dev" yaml:"dev"`
	Preview   PreviewConfig `toml:"preview" yaml:"preview"`
}

// ProjectConfig describes one sub-project.
type ProjectConfig struct {
	Name  string `toml:"name" yaml:"name"`
	Label string `toml:"label" yaml:"label"`
	// Dir is the project directory, relative to Root unless absolute.
	Dir string `toml:"dir" yaml:"dir"`
	// Dist is the build output directory, relative to Dir.
	Dist  string   `toml:"dist" yaml:"dist"`
	Build []string `toml:"build" yaml:"build"`
	Dev   []string `toml:"dev" yaml:"dev"`
	Port  int      `toml:"port" yaml:"port"`
	Color string   `toml:"color" yaml:"color"`

	// Mount is the output subdirectory holding the secondary build.
	// Ignored for the primary.
	Mount string `toml:"mount" yaml:"mount"`
	// Routes are the paths the host exposes for the secondary, listed in
	// the dev banner. Ignored for the primary.
	Routes []string `toml:"routes" yaml:"routes"`
}

// OutputConfig describes the unified output tree.
type OutputConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

// BuildConfig contains builder settings.
type BuildConfig struct {
	// OptionalFailure is "fatal" or "skip".
	OptionalFailure string `toml:"optional_failure" yaml:"optional_failure"`
}

// DevConfig contains dev orchestrator settings.
type DevConfig struct {
	Readiness   ReadinessConfig `toml:"readiness" yaml:"readiness"`
	StopTimeout Duration        `toml:"stop_timeout" yaml:"stop_timeout"`
	// EnvFile is a dotenv file whose variables are added to every child.
	EnvFile string `toml:"env_file" yaml:"env_file"`
}

// ReadinessConfig selects how the dev orchestrator decides the secondary
// dev server is up before starting the primary.
type ReadinessConfig struct {
	Kind    string   `toml:"kind" yaml:"kind"`
	Delay   Duration `toml:"delay" yaml:"delay"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
	Host    string   `toml:"host" yaml:"host"`
	Pattern string   `toml:"pattern" yaml:"pattern"`
	File    string   `toml:"file" yaml:"file"`
}

// PreviewConfig contains preview server settings.
type PreviewConfig struct {
	Port int `toml:"port" yaml:"port"`
	// Command is the static server argv; {dir} and {port} are expanded.
	Command []string `toml:"command" yaml:"command"`
	// Builtin serves the output tree in-process instead of spawning Command.
	Builtin bool `toml:"builtin" yaml:"builtin"`
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Primary: ProjectConfig{
			Name:  "host",
			Label: "HOST",
			Dir:   DefaultPrimaryDir,
			Dist:  "dist",
			Build: []string{"npm", "run", "build"},
			Dev:   []string{"npm", "run", "dev"},
			Port:  DefaultPrimaryPort,
			Color: "cyan",
		},
		Secondary: ProjectConfig{
			Name:   "editor",
			Label:  "EDITOR",
			Dir:    DefaultSecondaryDir,
			Dist:   "dist",
			Build:  []string{"npm", "run", "build"},
			Dev:    []string{"npm", "run", "dev"},
			Port:   DefaultSecondaryPort,
			Color:  "magenta",
			Mount:  DefaultMount,
			Routes: []string{"editor", "viewer"},
		},
		Output: OutputConfig{Dir: DefaultOutputDir},
		Build:  BuildConfig{OptionalFailure: FailureFatal},
		Dev: DevConfig{
			Readiness: ReadinessConfig{
				Kind:    DefaultReadinessProbe,
				Delay:   Duration{DefaultWarmUp},
				Timeout: Duration{DefaultReadyTimeout},
				Host:    "localhost",
			},
			StopTimeout: Duration{DefaultStopTimeout},
		},
		Preview: PreviewConfig{
			Port:    DefaultPreviewPort,
			Command: []string{"npx", "serve", "-s", "{dir}", "-l", "{port}"},
		},
	}
}

// Load reads the config file at path over the defaults for root.
// If explicit is false a missing file is not an error.
func Load(root, path string, explicit bool) (*Config, error) {
	cfg := Default(root)
	if err := decodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// decodeFile decodes path into cfg, choosing the format by extension.
func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.DecodeFile(path, cfg)
		return err
	}
}

// Resolve returns p joined to Root unless p is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c == nil {
		return p
	}
	return filepath.Join(c.Root, p)
}

// OutputPath returns the absolute output tree path.
func (c *Config) OutputPath() string {
	return c.Resolve(c.Output.Dir)
}

// StopTimeout returns the configured child stop timeout or the default.
func (c *Config) StopTimeout() time.Duration {
	if c != nil && c.Dev.StopTimeout.Duration > 0 {
		return c.Dev.StopTimeout.Duration
	}
	return DefaultStopTimeout
}

// ReadyTimeout returns the readiness timeout or the default.
func (c *Config) ReadyTimeout() time.Duration {
	if c != nil && c.Dev.Readiness.Timeout.Duration > 0 {
		return c.Dev.Readiness.Timeout.Duration
	}
	return DefaultReadyTimeout
}

// SkipFailedSecondary reports whether a failing secondary build is skipped
// instead of aborting the build.
func (c *Config) SkipFailedSecondary() bool {
	return c != nil && c.Build.OptionalFailure == FailureSkip
}
