package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/mfe/internal/preview"
	"github.com/tessro/mfe/internal/runner"
)

var previewBuiltin bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve the built output tree",
	Long:  "Serve the output of 'mfe build' with a static file server. Fails if nothing has been built.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if previewBuiltin {
			cfg.Preview.Builtin = true
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		log := newConsole()
		return preview.New(cfg, log, runner.New(log).Spawner()).Run(ctx)
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewBuiltin, "builtin", false, "serve with the built-in file server instead of the configured command")
	rootCmd.AddCommand(previewCmd)
}
