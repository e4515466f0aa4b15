package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rate-engine/core/types"
)

var (
	sourceRegion int64
	sourceLabel  string
	sourceLink   string
	sourceNote   string
	sourceDate   string
)

// sourcesCmd manages rate observations
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage rate observations",
	Long: `Add, list and disable the external rate observations that feed
preview rate calculation.`,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <profile-id> <rate>",
	Short: "Record a rate observation for a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[0])
		}
		rate, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid rate value %q", args[1])
		}
		if rate.Sign() <= 0 {
			return fmt.Errorf("rate must be positive, got %s", rate)
		}

		observedAt := time.Now().UTC()
		if sourceDate != "" {
			observedAt, err = time.Parse("2006-01-02", sourceDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", sourceDate)
			}
		}

		var regionID *int64
		if cmd.Flags().Changed("region") {
			regionID = &sourceRegion
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		obs, err := store.AddObservation(ctx, types.Observation{
			ProfileID:     profileID,
			RegionID:      regionID,
			RatePerHour:   rate,
			ObservedAt:    observedAt,
			SourceLabel:   sourceLabel,
			ReferenceLink: sourceLink,
			Note:          sourceNote,
			IsActive:      true,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Recorded observation %d: %s ₽/h for profile %d\n", obs.ID, obs.RatePerHour.StringFixed(2), obs.ProfileID)
		return nil
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list <profile-id>",
	Short: "List active observations for a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[0])
		}

		var regionID *int64
		if cmd.Flags().Changed("region") {
			regionID = &sourceRegion
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		observations, err := store.FetchActive(ctx, profileID, regionID)
		if err != nil {
			return err
		}
		if len(observations) == 0 {
			fmt.Println("No active observations")
			return nil
		}

		for _, obs := range observations {
			region := "global"
			if obs.RegionID != nil {
				region = fmt.Sprintf("region %d", *obs.RegionID)
			}
			line := fmt.Sprintf("#%d  %s ₽/h  %s  %s", obs.ID, obs.RatePerHour.StringFixed(2), obs.ObservedAt.Format("2006-01-02"), region)
			if obs.SourceLabel != "" {
				line += "  " + obs.SourceLabel
			}
			fmt.Println(line)
		}
		return nil
	},
}

var sourcesDisableCmd = &cobra.Command{
	Use:   "disable <observation-id>",
	Short: "Exclude an observation from future calculations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid observation id %q", args[0])
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeactivateObservation(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Observation %d disabled\n", id)
		return nil
	},
}

func init() {
	sourcesAddCmd.Flags().Int64Var(&sourceRegion, "region", 0, "region id (default: global)")
	sourcesAddCmd.Flags().StringVar(&sourceLabel, "label", "", "source label, e.g. a marketplace name")
	sourcesAddCmd.Flags().StringVar(&sourceLink, "link", "", "reference link for the observation")
	sourcesAddCmd.Flags().StringVar(&sourceNote, "note", "", "free-form note")
	sourcesAddCmd.Flags().StringVar(&sourceDate, "date", "", "observation date (YYYY-MM-DD, default: today)")

	sourcesListCmd.Flags().Int64Var(&sourceRegion, "region", 0, "region id (default: global observations)")

	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesDisableCmd)
}
