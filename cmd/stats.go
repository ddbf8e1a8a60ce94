package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teymia/habitkit/pkg/habit"
)

var (
	statsGranularity string
	statsDate        string
)

var statsCmd = &cobra.Command{
	Use:   "stats <habit-id>",
	Short: "Show streaks and progress for a habit",
	Long: `The "stats" command shows the current and best streak, total
completions, and a progress breakdown for the selected period.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stats(cmd, args[0])
	},
}

func stats(cmd *cobra.Command, habitID string) error {
	c := newClient()
	ctx := cmd.Context()

	summary, err := c.GetSummary(ctx, habitID)
	if err != nil {
		return err
	}
	cmd.Printf("Current streak:    %d\n", summary.CurrentStreak)
	cmd.Printf("Best streak:       %d\n", summary.BestStreak)
	cmd.Printf("Total completions: %d\n", summary.TotalCompletions)

	gran := habit.Granularity(statsGranularity)
	switch gran {
	case habit.ByWeek, habit.ByMonth, habit.ByYear:
	default:
		return fmt.Errorf("unknown granularity %q", statsGranularity)
	}

	chart, err := c.GetChart(ctx, habitID, gran, statsDate)
	if err != nil {
		return err
	}
	cmd.Printf("\nPeriod starting %s (%s):\n", chart.PeriodStart.Format("2006-01-02"), gran)
	for _, p := range chart.Points {
		mark := " "
		if p.Exceeded {
			mark = "+"
		} else if p.Completed {
			mark = "x"
		}
		cmd.Printf("  %s  [%s]  %d\n", p.Date.Format("2006-01-02"), mark, p.Value)
	}
	cmd.Printf("Total %d, average %.1f\n", chart.Summary.Total, chart.Summary.Average)
	return nil
}

func init() {
	statsCmd.Flags().StringVar(&statsGranularity, "granularity", "week", "chart granularity: week, month or year")
	statsCmd.Flags().StringVar(&statsDate, "date", "", "show the period containing this date (YYYY-MM-DD)")
	rootCmd.AddCommand(statsCmd)
}
