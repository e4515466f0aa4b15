package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// overridesCmd inspects the override audit trail
var overridesCmd = &cobra.Command{
	Use:   "overrides <project-id>",
	Short: "List a project's rate overrides, newest first",
	Long: `List every fixed and locked override row of a project, including
superseded locked rows kept as history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		overrides, err := store.ListOverrides(ctx, projectID)
		if err != nil {
			return err
		}
		if len(overrides) == 0 {
			fmt.Println("No overrides")
			return nil
		}

		for _, override := range overrides {
			at := override.FixedAt
			if override.LockedAt != nil {
				at = *override.LockedAt
			}
			region := "global"
			if override.RegionID != nil {
				region = "region " + strconv.FormatInt(*override.RegionID, 10)
			}
			fmt.Printf("%s  %-6s  profile %d  %s ₽/h  %s  %s\n",
				at.Format("2006-01-02 15:04"), override.State, override.ProfileID,
				override.RateValue.StringFixed(2), region, override.ID)
			if override.LockedReason != "" {
				fmt.Printf("  reason: %s\n", override.LockedReason)
			}
		}
		return nil
	},
}
