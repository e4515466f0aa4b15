package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rate-engine/core/types"
)

var (
	profileModel      string
	profileContribPct string
	profileBaseHours  int
	profileBillable   int
	profileProfitPct  string
	profileRounding   string
)

// profilesCmd manages position profiles
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage position profiles",
	Long: `Create the position profiles that rate observations and work items
reference. Contractor parameters default to 30% contributions, 160 base
hours, 120 billable hours and 15% profit; flags override them.`,
}

var profilesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := types.ParseModel(profileModel)
		if err != nil {
			return err
		}

		params := types.DefaultParams(model)
		if cmd.Flags().Changed("contrib-pct") {
			pct, err := decimal.NewFromString(profileContribPct)
			if err != nil {
				return fmt.Errorf("invalid contribution percentage %q", profileContribPct)
			}
			params.EmployerContribPct = pct
		}
		if cmd.Flags().Changed("base-hours") {
			params.BaseHoursMonth = profileBaseHours
		}
		if cmd.Flags().Changed("billable-hours") {
			billable := profileBillable
			params.BillableHoursMonth = &billable
		}
		if cmd.Flags().Changed("profit-pct") {
			pct, err := decimal.NewFromString(profileProfitPct)
			if err != nil {
				return fmt.Errorf("invalid profit percentage %q", profileProfitPct)
			}
			params.ProfitPct = pct
		}
		if cmd.Flags().Changed("rounding") {
			mode, err := types.ParseRoundingMode(profileRounding)
			if err != nil {
				return err
			}
			params.RoundingMode = mode
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		profile, err := store.CreateProfile(ctx, args[0], params)
		if err != nil {
			return err
		}

		fmt.Printf("Created profile %d: %s (model=%s, rounding=%s)\n",
			profile.ID, profile.Name, params.RateModel, params.RoundingMode)
		return nil
	},
}

func init() {
	profilesAddCmd.Flags().StringVar(&profileModel, "model", "labor", "rate model (labor, contractor)")
	profilesAddCmd.Flags().StringVar(&profileContribPct, "contrib-pct", "30", "employer contribution percentage")
	profilesAddCmd.Flags().IntVar(&profileBaseHours, "base-hours", 160, "base hours per month")
	profilesAddCmd.Flags().IntVar(&profileBillable, "billable-hours", 120, "billable hours per month (0 disables the utilization load)")
	profilesAddCmd.Flags().StringVar(&profileProfitPct, "profit-pct", "15", "profit percentage")
	profilesAddCmd.Flags().StringVar(&profileRounding, "rounding", "none", "rounding mode (none, int, 10, 100)")

	profilesCmd.AddCommand(profilesAddCmd)
}
