package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lead-agent",
	Short: "Lead discovery and outreach for photographers",
	Long:  "Finds venues, planners and studios near a photographer through Google Places, scores and dedups them, and runs email outreach on demand or once a day.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "lead-agent: load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "lead-agent: init logger")
		}

		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
			zap.Bool("outreach_enabled", cfg.Outreach.Enabled),
			zap.Bool("cron_enabled", cfg.Cron.Enabled),
			zap.String("cron_schedule", cfg.Cron.Schedule),
		)
		if !cfg.Outreach.Enabled && (cmd.Name() == "serve" || cmd.Name() == "daily") {
			zap.L().Info("email delivery disabled, outreach will be skipped")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
