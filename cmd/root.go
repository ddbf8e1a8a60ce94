package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teymia/habitkit/internal/apiclient"
	"github.com/teymia/habitkit/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "habitkit",
	Short: "Track habits, streaks and progress",
	Long: `
	Habitkit tracks count- and time-based habits: daily goals, weekday
	schedules, streaks and progress charts. Run the server with
	"habitkit server" and use the other commands against it.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *apiclient.Client {
	cfg := config.LoadOrDefault()
	return apiclient.New(cfg.APIBaseURL, os.Getenv("HABITKIT_AUTH_TOKEN"))
}
