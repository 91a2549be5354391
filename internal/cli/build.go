package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/mfe/internal/builder"
	"github.com/tessro/mfe/internal/config"
	"github.com/tessro/mfe/internal/runner"
)

var skipFailedSecondary bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build both projects into the output tree",
	Long: "Build the editor remote (if present) and the host app, then merge their outputs: " +
		"the host at the root of the output directory and the editor under its mount directory. " +
		"The output directory is wiped first.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if skipFailedSecondary {
			cfg.Build.OptionalFailure = config.FailureSkip
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		log := newConsole()
		return builder.New(cfg, runner.New(log), log).Build(ctx)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&skipFailedSecondary, "skip-failed-editor", false, "continue without the editor if its build fails")
	rootCmd.AddCommand(buildCmd)
}
