package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

// Tree lists dir as a tree, one line per entry. Top-level entries named in
// notes are annotated with their note and expanded one level; every other
// top-level entry gets fallback.
func Tree(dir string, notes map[string]string, fallback string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	lines := []string{filepath.Base(dir) + "/"}
	for i, e := range entries {
		branch, cont := branches(i == len(entries)-1)
		note, expand := notes[e.Name()]
		if !expand {
			note = fallback
		}
		lines = append(lines, fmt.Sprintf("%s%-16s%s", branch, entryName(e), note))

		if !expand || !e.IsDir() {
			continue
		}
		children, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for j, c := range children {
			childBranch, _ := branches(j == len(children)-1)
			lines = append(lines, cont+childBranch+entryName(c))
		}
	}
	return lines, nil
}

func branches(last bool) (branch, cont string) {
	if last {
		return "└── ", "    "
	}
	return "├── ", "│   "
}

func entryName(e os.DirEntry) string {
	if e.IsDir() {
		return e.Name() + "/"
	}
	return e.Name()
}
