package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rate-engine/core/types"
	"rate-engine/internal/config"
)

var (
	lockMethod        string
	lockOnlyIfMissing bool
)

// lockCmd bulk-locks profile rates for a project
var lockCmd = &cobra.Command{
	Use:   "lock <project-id>",
	Short: "Recalculate and lock all profile rates of a project",
	Long: `Recalculate a fresh rate for every profile referenced by the project's
work items, persist each as an audit-immutable Locked override, and
refresh derived work-item costs.

Already-locked profiles are skipped with --only-if-missing; without it
they are superseded by a new locked row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		if !cmd.Flags().Changed("method") {
			lockMethod = config.Get().Engine.DefaultMethod
		}
		method, err := types.ParseMethod(lockMethod)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := eng.RecalculateAndLock(ctx, projectID, method, lockOnlyIfMissing)
		if err != nil {
			return err
		}

		fmt.Printf("Locked %d rates, skipped %d, updated %d work items\n",
			len(result.CreatedOverrideIDs), len(result.SkippedProfiles), result.UpdatedWorkCount)
		for _, id := range result.CreatedOverrideIDs {
			fmt.Printf("  created override %s\n", id)
		}
		if len(result.Errors) > 0 {
			fmt.Printf("Errors (%d):\n", len(result.Errors))
			for _, profileErr := range result.Errors {
				fmt.Printf("  profile %d: %s\n", profileErr.ProfileID, profileErr.Message)
			}
		}
		return nil
	},
}

func init() {
	lockCmd.Flags().StringVar(&lockMethod, "method", "", "aggregation method (single, mean, median, trimmed_mean)")
	lockCmd.Flags().BoolVar(&lockOnlyIfMissing, "only-if-missing", false, "skip profiles that already have a locked rate")
}
