package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teymia/habitkit/internal/config"
	"github.com/teymia/habitkit/internal/reminder"
	"github.com/teymia/habitkit/internal/reminder/resend"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminder emails for habits still open today",
	Long: `The "remind" command fetches your habits, picks the ones scheduled for
today with a reminder time set and the goal not yet met, and sends a
single digest email. Intended to run from cron.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("HABITKIT_RESEND_API_KEY") == "" {
			return fmt.Errorf("HABITKIT_RESEND_API_KEY is not set")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return remind(cmd)
	},
}

func remind(cmd *cobra.Command) error {
	cfg := config.LoadOrDefault()
	notifier := &resend.ResendNotifier{
		ApiKey: os.Getenv("HABITKIT_RESEND_API_KEY"),
		From:   cfg.Reminder.FromEmail,
		Email:  cfg.Reminder.ToEmail,
	}
	return reminder.Run(cmd.Context(), newClient(), notifier, time.Now())
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
