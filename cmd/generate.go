package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var generateUser string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new leads for one user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "generate")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Leadgen.Generate(ctx, generateUser)
		if err != nil {
			return eris.Wrapf(err, "generate leads for %s", generateUser)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateUser, "user", "", "user id to generate leads for (required)")
	_ = generateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(generateCmd)
}
