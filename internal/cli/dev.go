package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/mfe/internal/devserver"
	"github.com/tessro/mfe/internal/runner"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the dev servers until interrupted",
	Long: "Start the editor dev server (if present), wait until it is ready, then start the host " +
		"dev server. Ctrl+C stops both.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		log := newConsole()
		return devserver.New(cfg, log, runner.New(log).Spawner()).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(devCmd)
}
