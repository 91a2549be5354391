// Command mfe builds, runs, and previews the micro-frontend workspace.
package main

import (
	"fmt"
	"os"

	"github.com/tessro/mfe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mfe: %v\n", err)
		os.Exit(1)
	}
}
