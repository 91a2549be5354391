package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/work")

	if cfg.Primary.Dir != "Starterkit - ts" {
		t.Errorf("Primary.Dir = %q, want %q", cfg.Primary.Dir, "Starterkit - ts")
	}
	if cfg.Secondary.Dir != "AziendePlatformEditor" {
		t.Errorf("Secondary.Dir = %q, want %q", cfg.Secondary.Dir, "AziendePlatformEditor")
	}
	if cfg.Primary.Port != 5000 || cfg.Secondary.Port != 5021 || cfg.Preview.Port != 4173 {
		t.Errorf("ports = %d/%d/%d, want 5000/5021/4173", cfg.Primary.Port, cfg.Secondary.Port, cfg.Preview.Port)
	}
	if cfg.Secondary.Mount != "editor" {
		t.Errorf("Secondary.Mount = %q, want editor", cfg.Secondary.Mount)
	}
	if !reflect.DeepEqual(cfg.Primary.Build, []string{"npm", "run", "build"}) {
		t.Errorf("Primary.Build = %v", cfg.Primary.Build)
	}
	if cfg.OutputPath() != filepath.Join("/work", "dist") {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
	if cfg.Dev.Readiness.Delay.Duration != 3*time.Second {
		t.Errorf("Readiness.Delay = %v, want 3s", cfg.Dev.Readiness.Delay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, filepath.Join(root, "mfe.toml"), false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default(root)) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	root := t.TempDir()

	if _, err := Load(root, filepath.Join(root, "nope.toml"), true); err == nil {
		t.Error("Load() error = nil, want error for missing explicit config")
	}
}

func TestLoadTOMLAndYAMLAgree(t *testing.T) {
	root := t.TempDir()
	tomlPath := filepath.Join(root, "mfe.toml")
	yamlPath := filepath.Join(root, "mfe.yaml")

	writeFile(t, tomlPath, `
[primary]
dir = "host"
port = 6000

[secondary]
mount = "remote"
routes = ["remote"]

[output]
dir = "public"

[build]
optional_failure = "skip"

[dev]
stop_timeout = "2s"
env_file = ".env.dev"

[dev.readiness]
kind = "log"
pattern = "ready in"
timeout = "10s"
`)
	writeFile(t, yamlPath, `
primary:
  dir: host
  port: 6000
secondary:
  mount: remote
  routes: [remote]
output:
  dir: public
build:
  optional_failure: skip
dev:
  stop_timeout: 2s
  env_file: .env.dev
  readiness:
    kind: log
    pattern: ready in
    timeout: 10s
`)

	fromTOML, err := Load(root, tomlPath, true)
	if err != nil {
		t.Fatalf("Load(toml) error = %v", err)
	}
	fromYAML, err := Load(root, yamlPath, true)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	if !reflect.DeepEqual(fromTOML, fromYAML) {
		t.Errorf("TOML and YAML configs differ:\n%+v\n%+v", fromTOML, fromYAML)
	}

	cfg := fromTOML
	if cfg.Primary.Dir != "host" || cfg.Primary.Port != 6000 {
		t.Errorf("Primary = %+v", cfg.Primary)
	}
	// Unset fields keep their defaults.
	if cfg.Primary.Label != "HOST" || cfg.Secondary.Dir != DefaultSecondaryDir {
		t.Errorf("defaults not preserved: %+v / %+v", cfg.Primary, cfg.Secondary)
	}
	if !cfg.SkipFailedSecondary() {
		t.Error("SkipFailedSecondary() = false, want true")
	}
	if cfg.StopTimeout() != 2*time.Second {
		t.Errorf("StopTimeout() = %v, want 2s", cfg.StopTimeout())
	}
	if cfg.ReadyTimeout() != 10*time.Second {
		t.Errorf("ReadyTimeout() = %v, want 10s", cfg.ReadyTimeout())
	}
	if cfg.Dev.Readiness.Delay.Duration != DefaultWarmUp {
		t.Errorf("Readiness.Delay = %v, want default", cfg.Dev.Readiness.Delay)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mfe.toml")
	writeFile(t, path, "[dev]\nstop_timeout = \"soon\"\n")

	if _, err := Load(root, path, true); err == nil {
		t.Error("Load() error = nil, want duration error")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mfe.toml")
	writeFile(t, path, "[preview]\nport = 5000\n")

	_, err := Load(root, path, true)
	if err == nil {
		t.Fatal("Load() error = nil, want port conflict")
	}
}

func TestAccessorsNilConfig(t *testing.T) {
	var cfg *Config

	if cfg.StopTimeout() != DefaultStopTimeout {
		t.Errorf("StopTimeout() = %v, want default", cfg.StopTimeout())
	}
	if cfg.ReadyTimeout() != DefaultReadyTimeout {
		t.Errorf("ReadyTimeout() = %v, want default", cfg.ReadyTimeout())
	}
	if cfg.SkipFailedSecondary() {
		t.Error("SkipFailedSecondary() = true for nil config")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default("/work")

	if got := cfg.Resolve("/abs/path"); got != "/abs/path" {
		t.Errorf("Resolve(abs) = %q", got)
	}
	if got := cfg.Resolve("rel"); got != filepath.Join("/work", "rel") {
		t.Errorf("Resolve(rel) = %q", got)
	}
}
