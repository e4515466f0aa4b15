package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rate-engine/core/justify"
)

var (
	resolveRegion       int64
	resolveForcePreview bool
	resolveJSON         bool
)

// resolveCmd resolves the effective rate for a (project, profile) pair
var resolveCmd = &cobra.Command{
	Use:   "resolve <project-id> <profile-id>",
	Short: "Resolve the effective rate for a profile in a project",
	Long: `Resolve the effective hourly rate with Locked > Fixed > Preview
priority and print the auditable justification.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}
		profileID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[1])
		}

		var regionID *int64
		if cmd.Flags().Changed("region") {
			regionID = &resolveRegion
		}

		ctx := cmd.Context()
		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := eng.ResolveEffectiveRate(ctx, projectID, profileID, regionID, resolveForcePreview)
		if err != nil {
			return err
		}

		if resolveJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if !result.HasRate() {
			fmt.Printf("Rate missing (source=%s): %s\n", result.Source, result.Breakdown.Message)
			return nil
		}

		fmt.Printf("Effective rate: %s ₽/h (source=%s)\n\n", result.RatePerHour.StringFixed(2), result.Source)
		fmt.Print(justify.FormatResult(result))
		return nil
	},
}

func init() {
	resolveCmd.Flags().Int64Var(&resolveRegion, "region", 0, "region id (default: project region)")
	resolveCmd.Flags().BoolVar(&resolveForcePreview, "force-preview", false, "skip locked/fixed overrides and recompute from observations")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output raw JSON")
}
