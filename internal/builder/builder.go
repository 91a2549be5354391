// Package builder produces the unified output tree: it builds the optional
// secondary project and the required primary project, then merges their
// build outputs with the secondary nested under its mount directory.
package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/reflow/indent"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
	"github.com/tessro/mfe/internal/project"
	"github.com/tessro/mfe/internal/runner"
)

// Errors returned by Build.
var (
	ErrPrimaryMissing = errors.New("primary project not found")
	ErrBuildFailed    = errors.New("build failed")
	ErrUnsafeOutput   = errors.New("output directory overlaps the workspace")
)

// Console labels.
const (
	labelBuild = "BUILD"
	labelError = "ERROR"
)

// CommandRunner runs one build command to completion.
type CommandRunner interface {
	Run(ctx context.Context, c runner.Command) error
}

// Builder runs the build pipeline. Steps run strictly in order; a failure
// leaves the output tree as far as it got. Re-running starts from a clean
// tree.
type Builder struct {
	cfg *config.Config
	run CommandRunner
	log *console.Logger
}

// New creates a Builder.
func New(cfg *config.Config, run CommandRunner, log *console.Logger) *Builder {
	return &Builder{cfg: cfg, run: run, log: log}
}

// Build runs the pipeline.
func (b *Builder) Build(ctx context.Context) error {
	b.log.Banner("Aziende platform - build script", console.Cyan)

	primary, secondary := project.Resolve(b.cfg)
	presence := project.Check(primary, secondary)

	if !presence.Primary {
		b.log.Errorf(labelError, "%s project (%s) not found!", primary.Label, filepath.Base(primary.Path))
		return fmt.Errorf("%w: %s", ErrPrimaryMissing, primary.Path)
	}

	out := b.cfg.OutputPath()
	if err := checkOutput(b.cfg.Root, out, primary, secondary); err != nil {
		b.log.Errorf(labelError, "Refusing to use output directory %s: %v", out, err)
		return err
	}
	if err := b.resetOutput(out); err != nil {
		b.log.Errorf(labelError, "Cannot prepare output directory: %v", err)
		return err
	}

	withSecondary := presence.Secondary
	if withSecondary {
		b.log.Logf(labelBuild, secondary.Color, "Building %s...", secondary.Name)
		if err := b.run.Run(ctx, secondary.BuildCommand()); err != nil {
			if !b.cfg.SkipFailedSecondary() {
				b.log.Errorf(labelError, "%s build failed!", secondary.Label)
				return fmt.Errorf("%w: %s: %w", ErrBuildFailed, secondary.Name, err)
			}
			b.log.Logf(labelBuild, console.Yellow, "%s build failed, continuing without it", secondary.Label)
			withSecondary = false
		} else {
			b.log.Log(secondary.Label, console.Green, "Build completed!")
		}
	} else {
		b.log.Logf(labelBuild, console.Yellow, "%s project not found, skipping...", secondary.Name)
	}

	b.log.Logf(labelBuild, primary.Color, "Building %s...", primary.Name)
	if err := b.run.Run(ctx, primary.BuildCommand()); err != nil {
		b.log.Errorf(labelError, "%s build failed!", primary.Label)
		return fmt.Errorf("%w: %s: %w", ErrBuildFailed, primary.Name, err)
	}
	b.log.Log(primary.Label, console.Green, "Build completed!")

	base := filepath.Base(out)
	b.log.Logf(labelBuild, console.Yellow, "Copying %s build to output...", primary.Name)
	if primary.HasDist() {
		if err := copyTree(primary.DistPath(), out); err != nil {
			b.log.Errorf(labelError, "Copy failed: %v", err)
			return fmt.Errorf("copy %s output: %w", primary.Name, err)
		}
		b.log.Logf(labelBuild, console.Green, "%s copied to %s/", primary.Label, base)
	} else {
		b.log.Logf(labelBuild, console.Yellow, "No build output at %s", primary.DistPath())
	}

	if withSecondary {
		mount := filepath.Join(out, secondary.Mount)
		b.log.Logf(labelBuild, console.Yellow, "Copying %s build to %s/%s...", secondary.Name, base, secondary.Mount)
		if secondary.HasDist() {
			if err := copyTree(secondary.DistPath(), mount); err != nil {
				b.log.Errorf(labelError, "Copy failed: %v", err)
				return fmt.Errorf("copy %s output: %w", secondary.Name, err)
			}
			b.log.Logf(labelBuild, console.Green, "%s copied to %s/%s/", secondary.Label, base, secondary.Mount)
		} else {
			b.log.Logf(labelBuild, console.Yellow, "No build output at %s", secondary.DistPath())
		}
	}

	b.log.Banner("Build successful!", console.Green)
	b.printSummary(out, primary, secondary, withSecondary)
	return nil
}

// resetOutput removes out and recreates it empty.
func (b *Builder) resetOutput(out string) error {
	if _, err := os.Stat(out); err == nil {
		b.log.Log(labelBuild, console.Yellow, "Cleaning previous build...")
		if err := os.RemoveAll(out); err != nil {
			return fmt.Errorf("remove %s: %w", out, err)
		}
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	return nil
}

func (b *Builder) printSummary(out string, primary, secondary *project.Project, withSecondary bool) {
	b.log.Infof(console.Green, "Output directory: %s", out)

	notes := map[string]string{}
	if withSecondary && secondary.HasDist() {
		notes[secondary.Mount] = "(" + secondary.Label + " app)"
	}
	lines, err := Tree(out, notes, "("+primary.Label+")")
	if err != nil {
		b.log.Logf(labelBuild, console.Yellow, "Cannot list output: %v", err)
		return
	}

	b.log.Info(console.Green, "Structure:")
	for _, line := range strings.Split(indent.String(strings.Join(lines, "\n"), 2), "\n") {
		b.log.Info(console.Cyan, line)
	}
	b.log.Blank()
	b.log.Info(console.Yellow, "To preview: mfe preview")
}

// checkOutput rejects output paths whose reset would delete the workspace
// root or a project, or that would copy a dist onto itself.
func checkOutput(root, out string, projects ...*project.Project) error {
	if isWithin(root, out) {
		return fmt.Errorf("%w: %s contains the workspace root", ErrUnsafeOutput, out)
	}
	for _, p := range projects {
		if isWithin(p.Path, out) || isWithin(out, p.Path) {
			return fmt.Errorf("%w: %s overlaps %s", ErrUnsafeOutput, out, p.Path)
		}
	}
	return nil
}

// isWithin reports whether path is dir or inside it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
