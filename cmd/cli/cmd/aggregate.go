package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rate-engine/core/stats"
	"rate-engine/core/types"
	"rate-engine/internal/config"
)

var (
	aggMethod       string
	aggTrimFraction float64
)

// aggregateCmd aggregates ad-hoc rate values without touching storage
var aggregateCmd = &cobra.Command{
	Use:   "aggregate <rate>...",
	Short: "Aggregate a list of rates with a statistical method",
	Long: `Aggregate one or more positive rate values into a single figure.

Useful for sanity-checking observation sets before importing them:
  rate-engine aggregate --method trimmed_mean 625 1000 1125 1313`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]decimal.Decimal, 0, len(args))
		for _, arg := range args {
			v, err := decimal.NewFromString(arg)
			if err != nil {
				return fmt.Errorf("invalid rate value %q", arg)
			}
			values = append(values, v)
		}

		if !cmd.Flags().Changed("method") {
			aggMethod = config.Get().Engine.DefaultMethod
		}
		method, err := types.ParseMethod(aggMethod)
		if err != nil {
			return err
		}

		var opts []stats.Option
		if cmd.Flags().Changed("trim-fraction") {
			opts = append(opts, stats.WithTrimFraction(aggTrimFraction))
		} else if config.Get().Engine.TrimFraction > 0 {
			opts = append(opts, stats.WithTrimFraction(config.Get().Engine.TrimFraction))
		}

		result, err := stats.Aggregate(values, method, opts...)
		if err != nil {
			return err
		}

		fmt.Printf("Method:     %s\n", result.Method)
		fmt.Printf("Count:      %d\n", result.Count)
		fmt.Printf("Range:      %s - %s\n", result.Min.StringFixed(2), result.Max.StringFixed(2))
		fmt.Printf("Aggregated: %s\n", result.Aggregated.StringFixed(2))
		if result.FallbackNote != "" {
			fmt.Printf("Note:       %s\n", result.FallbackNote)
		}
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggMethod, "method", "", "aggregation method (single, mean, median, trimmed_mean)")
	aggregateCmd.Flags().Float64Var(&aggTrimFraction, "trim-fraction", stats.DefaultTrimFraction, "fraction trimmed from each end for trimmed_mean")
}
