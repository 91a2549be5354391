package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/mfe/internal/logging"
	"github.com/tessro/mfe/internal/paths"
)

// Global flag values.
var (
	rootDir    string
	configPath string
	logFile    string
	logLevel   string
)

// closeLog closes the diagnostic log file; nil when none is open.
var closeLog func()

var rootCmd = &cobra.Command{
	Use:   "mfe",
	Short: "Build, run, and preview the micro-frontend workspace",
	Long: "mfe orchestrates a host app and an optional editor remote: it builds both into one " +
		"output tree, runs their dev servers side by side, and previews the result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Export flag overrides so all path helpers see them.
		for env, val := range map[string]string{
			paths.EnvRoot:       rootDir,
			paths.EnvConfigPath: configPath,
			paths.EnvLogPath:    logFile,
		} {
			if val == "" {
				continue
			}
			if err := os.Setenv(env, val); err != nil {
				return err
			}
		}

		cleanup, err := logging.Setup(paths.LogPath(), logging.ParseLevel(logLevel))
		if err != nil {
			// Diagnostics are optional; never block a build on them.
			fmt.Fprintf(os.Stderr, "mfe: diagnostic log disabled: %v\n", err)
			logging.Discard()
			return nil
		}
		closeLog = cleanup
		slog.Debug("command starting", "cmd", cmd.CommandPath(), "args", args)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "workspace root containing the projects (overrides $MFE_ROOT, default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: mfe.toml or mfe.yaml in the root)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "diagnostic log file (default: ~/.mfe/mfe.log)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
}

// Execute runs the root command. The diagnostic log is closed on every
// path, including command errors.
func Execute() error {
	defer closeDiagnostics()
	return rootCmd.Execute()
}

func closeDiagnostics() {
	if closeLog == nil {
		return
	}
	closeLog()
	closeLog = nil
	logging.Discard()
}
