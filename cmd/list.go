package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long:  `The "list" command lists your tracked habits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return list(cmd)
	},
}

func list(cmd *cobra.Command) error {
	c := newClient()
	habits, err := c.ListHabits(cmd.Context())
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		cmd.Println("No habits yet. Add one with \"habitkit add\".")
		return nil
	}
	for _, h := range habits {
		marker := " "
		if h.Pinned {
			marker = "*"
		}
		cmd.Printf("%s %-36s  %-20s  goal %s\n", marker, h.ID, h.Title, h.FormattedGoal())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
}
