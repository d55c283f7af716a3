package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/billing"
)

var (
	planUser    string
	planName    string
	planPriceID string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Assign a subscription plan to a user",
	Long:  "Sets a user's plan by name or by payment provider price id. Usage counters are left untouched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		plan, err := resolvePlan(billing.NewCatalog(cfg.Billing), planName, planPriceID)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sub, err := st.GetSubscription(ctx, planUser)
		if err != nil {
			return eris.Wrapf(err, "get subscription %s", planUser)
		}
		sub.Plan = string(plan)
		sub.Status = "active"
		if err := st.UpsertSubscription(ctx, *sub); err != nil {
			return eris.Wrapf(err, "save subscription %s", planUser)
		}

		usage := billing.UsageFor(*sub)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: plan=%s used=%d limit=%d\n", planUser, usage.Plan, usage.Used, usage.Limit)
		return nil
	},
}

// resolvePlan picks the plan from an explicit name or a price id.
func resolvePlan(catalog *billing.Catalog, name, priceID string) (billing.Plan, error) {
	switch {
	case name != "" && priceID != "":
		return "", eris.New("use either --plan or --price-id, not both")
	case name != "":
		p := billing.Plan(name)
		if p != billing.PlanFree && p != billing.PlanPro && p != billing.PlanPremium {
			return "", eris.Errorf("unknown plan %q", name)
		}
		return p, nil
	case priceID != "":
		return catalog.PlanByPriceID(priceID), nil
	default:
		return "", eris.New("one of --plan or --price-id is required")
	}
}

func init() {
	planCmd.Flags().StringVar(&planUser, "user", "", "user id (required)")
	planCmd.Flags().StringVar(&planName, "plan", "", "plan name: free, pro or premium")
	planCmd.Flags().StringVar(&planPriceID, "price-id", "", "payment provider price id")
	_ = planCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(planCmd)
}
