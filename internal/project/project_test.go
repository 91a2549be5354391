package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/console"
)

func TestResolve(t *testing.T) {
	cfg := config.Default("/work")

	primary, secondary := Resolve(cfg)

	if !primary.Required {
		t.Error("primary.Required = false, want true")
	}
	if secondary.Required {
		t.Error("secondary.Required = true, want false")
	}
	if primary.Path != filepath.Join("/work", "Starterkit - ts") {
		t.Errorf("primary.Path = %q", primary.Path)
	}
	if secondary.Mount != "editor" {
		t.Errorf("secondary.Mount = %q, want editor", secondary.Mount)
	}
	if primary.Color != console.Cyan || secondary.Color != console.Magenta {
		t.Errorf("colors = %q/%q", primary.Color, secondary.Color)
	}
	if secondary.DistPath() != filepath.Join("/work", "AziendePlatformEditor", "dist") {
		t.Errorf("secondary.DistPath() = %q", secondary.DistPath())
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	primary, secondary := Resolve(cfg)

	if primary.Exists() || secondary.Exists() {
		t.Fatal("Exists() = true before directories are created")
	}

	if err := os.Mkdir(primary.Path, 0755); err != nil {
		t.Fatal(err)
	}

	got := Check(primary, secondary)
	if got != (Presence{Primary: true, Secondary: false}) {
		t.Errorf("Check() = %+v, want primary only", got)
	}
}

func TestHasDist(t *testing.T) {
	root := t.TempDir()
	primary, _ := Resolve(config.Default(root))

	if primary.HasDist() {
		t.Fatal("HasDist() = true before build")
	}
	if err := os.MkdirAll(primary.DistPath(), 0755); err != nil {
		t.Fatal(err)
	}
	if !primary.HasDist() {
		t.Error("HasDist() = false after creating dist")
	}
}

func TestCommands(t *testing.T) {
	primary, _ := Resolve(config.Default("/work"))

	build := primary.BuildCommand()
	if build.Label != "HOST" || build.Dir != primary.Path {
		t.Errorf("BuildCommand() = %+v", build)
	}
	if !reflect.DeepEqual(build.Args, []string{"npm", "run", "build"}) {
		t.Errorf("BuildCommand().Args = %v", build.Args)
	}

	dev := primary.DevCommand([]string{"API_URL=http://localhost:8080"})
	if !reflect.DeepEqual(dev.Args, []string{"npm", "run", "dev"}) {
		t.Errorf("DevCommand().Args = %v", dev.Args)
	}
	if !reflect.DeepEqual(dev.Env, []string{"API_URL=http://localhost:8080"}) {
		t.Errorf("DevCommand().Env = %v", dev.Env)
	}

	// The command owns its argv.
	dev.Args[0] = "yarn"
	if primary.Dev[0] != "npm" {
		t.Error("DevCommand() shares argv with the project")
	}
}
