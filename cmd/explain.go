package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/scoring"
)

var (
	explainName      string
	explainWebsite   string
	explainPhone     string
	explainAddress   string
	explainNiche     string
	explainLocations string
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show how a business would be scored",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("explain"); err != nil {
			return err
		}
		lead := scoring.Lead{
			Name:    explainName,
			Website: explainWebsite,
			Phone:   explainPhone,
			Address: explainAddress,
		}
		prefs := discovery.Preferences{
			Niche:     explainNiche,
			Locations: discovery.ParseLocations(explainLocations),
		}
		printBreakdown(cmd.OutOrStdout(), scoring.Explain(lead, prefs.ScoringContext()))
		return nil
	},
}

func printBreakdown(out io.Writer, b scoring.Breakdown) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RULE\tPOINTS\tAPPLIED")
	_, _ = fmt.Fprintln(w, "----\t------\t-------")
	for _, r := range b.Rules {
		mark := "no"
		if r.Applied {
			mark = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.Name, r.Points, mark)
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\t\n", b.Total)
	_ = w.Flush()
}

func init() {
	explainCmd.Flags().StringVar(&explainName, "name", "", "business name (required)")
	explainCmd.Flags().StringVar(&explainWebsite, "website", "", "business website")
	explainCmd.Flags().StringVar(&explainPhone, "phone", "", "business phone")
	explainCmd.Flags().StringVar(&explainAddress, "address", "", "business address")
	explainCmd.Flags().StringVar(&explainNiche, "niche", "wedding", "photographer niche")
	explainCmd.Flags().StringVar(&explainLocations, "locations", "", "comma-separated target locations")
	_ = explainCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(explainCmd)
}
