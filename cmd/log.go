package cmd

import (
	"github.com/spf13/cobra"
)

var (
	logValue int
	logFill  bool
)

var logCmd = &cobra.Command{
	Use:   "log <habit-id>",
	Short: "Log progress against a habit",
	Long: `The "log" command records progress for today. Use --value for the
amount (repetitions, or seconds for time habits), or --fill to top the
habit up to its daily goal in one go.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return logProgress(cmd, args[0])
	},
}

func logProgress(cmd *cobra.Command, habitID string) error {
	c := newClient()
	if err := c.LogCompletion(cmd.Context(), habitID, logValue, logFill); err != nil {
		return err
	}

	resp, err := c.GetHabit(cmd.Context(), habitID)
	if err != nil {
		// The write landed; showing progress is best effort.
		cmd.Println("Logged.")
		return nil
	}
	cmd.Printf("Logged. Today: %d (%.0f%%)\n", resp.Today, resp.Percent*100)
	return nil
}

func init() {
	logCmd.Flags().IntVar(&logValue, "value", 1, "amount to log")
	logCmd.Flags().BoolVar(&logFill, "fill", false, "fill up to the daily goal")
	rootCmd.AddCommand(logCmd)
}
