package cmd

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rate-engine/core/types"
)

// worksCmd manages project work items
var worksCmd = &cobra.Command{
	Use:   "works",
	Short: "Manage project work items",
}

var worksAddCmd = &cobra.Command{
	Use:   "add <project-id> <profile-id> <title> <hours>",
	Short: "Add a work item to a project",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}
		profileID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[1])
		}
		workHours, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("invalid hours value %q", args[3])
		}
		if workHours.Sign() <= 0 {
			return fmt.Errorf("hours must be positive, got %s", workHours)
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		work, err := store.CreateWorkItem(ctx, types.WorkItem{
			ProjectID: projectID,
			ProfileID: profileID,
			Title:     args[2],
			Hours:     workHours,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created work item %d: %s (%sh, profile %d)\n",
			work.ID, work.Title, work.Hours, work.ProfileID)
		return nil
	},
}

var worksListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's work items with their current costs",
	Args:  cobra.ExactArgs(1),
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

		works, err := store.ListByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if len(works) == 0 {
			fmt.Println("No work items")
			return nil
		}

		total := decimal.Zero
		for _, work := range works {
			fmt.Printf("#%d  %-30s  %sh x %s ₽/h = %s ₽\n",
				work.ID, work.Title, work.Hours, work.RatePerHour.StringFixed(2), work.CostTotal.StringFixed(2))
			total = total.Add(work.CostTotal)
		}
		fmt.Printf("Total: %s ₽\n", total.StringFixed(2))
		return nil
	},
}

func init() {
	worksCmd.AddCommand(worksAddCmd)
	worksCmd.AddCommand(worksListCmd)
}
