package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the autonomous daily pass once for every opted-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "daily")
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Daily.RunDaily(ctx, time.Now())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}
