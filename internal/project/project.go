// Package project provides the Project type: a reference to one of the
// sub-projects mfe builds and serves, and the presence check for it.
package project

import (
	"os"
	"path/filepath"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/runner"
)

// Project references a sub-project on disk.
type Project struct {
	Name     string        // Short name (e.g., "host")
	Label    string        // Console label (e.g., "HOST")
	Path     string        // Absolute project directory
	Dist     string        // Build output directory, relative to Path
	Color    console.Color // Label color for the project's output
	Port     int           // Dev server port
	Build    []string      // Build command argv
	Dev      []string      // Dev server command argv
	Mount    string        // Output subdirectory (secondary only)
	Routes   []string      // Host routes serving this project (secondary only)
	Required bool          // Whether the pipeline aborts when absent
}

// New creates a Project from its config section.
func New(cfg *config.Config, pc config.ProjectConfig, required bool) *Project {
	return &Project{
		Name:     pc.Name,
		Label:    pc.Label,
		Path:     cfg.Resolve(pc.Dir),
		Dist:     pc.Dist,
		Color:    console.Color(pc.Color),
		Port:     pc.Port,
		Build:    pc.Build,
		Dev:      pc.Dev,
		Mount:    pc.Mount,
		Routes:   pc.Routes,
		Required: required,
	}
}

// Resolve returns the required primary project and the optional secondary.
func Resolve(cfg *config.Config) (primary, secondary *Project) {
	return New(cfg, cfg.Primary, true), New(cfg, cfg.Secondary, false)
}

// Exists reports whether the project directory exists. A missing directory
// is an expected outcome, not an error.
func (p *Project) Exists() bool {
	return exists(p.Path)
}

// DistPath returns the absolute build output directory.
func (p *Project) DistPath() string {
	if filepath.IsAbs(p.Dist) {
		return p.Dist
	}
	return filepath.Join(p.Path, p.Dist)
}

// HasDist reports whether the build output directory exists.
func (p *Project) HasDist() bool {
	return exists(p.DistPath())
}

// BuildCommand returns the command that builds the project.
func (p *Project) BuildCommand() runner.Command {
	return p.command(p.Build, nil)
}

// DevCommand returns the command that runs the project's dev server with
// env added to the inherited environment.
func (p *Project) DevCommand(env []string) runner.Command {
	return p.command(p.Dev, env)
}

func (p *Project) command(args []string, env []string) runner.Command {
	return runner.Command{
		Label: p.Label,
		Color: p.Color,
		Dir:   p.Path,
		Args:  append([]string(nil), args...),
		Env:   env,
	}
}

// Presence records which projects exist. It is computed once per command
// invocation and never re-checked.
type Presence struct {
	Primary   bool
	Secondary bool
}

// Check runs the presence check for both projects.
func Check(primary, secondary *Project) Presence {
	return Presence{
		Primary:   primary.Exists(),
		Secondary: secondary.Exists(),
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
