package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var projectRegion int64

// projectsCmd manages projects
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var regionID *int64
		if cmd.Flags().Changed("region") {
			regionID = &projectRegion
		}

		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		project, err := store.CreateProject(ctx, args[0], regionID)
		if err != nil {
			return err
		}

		region := "global"
		if project.RegionID != nil {
			region = "region " + strconv.FormatInt(*project.RegionID, 10)
		}
		fmt.Printf("Created project %d: %s (%s)\n", project.ID, project.Name, region)
		return nil
	},
}

// regionsCmd manages regions
var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Manage regions",
}

var regionsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		region, err := store.CreateRegion(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Created region %d: %s\n", region.ID, region.Name)
		return nil
	},
}

func init() {
	projectsAddCmd.Flags().Int64Var(&projectRegion, "region", 0, "default region id for the project")

	projectsCmd.AddCommand(projectsAddCmd)
	regionsCmd.AddCommand(regionsAddCmd)
}
