package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teymia/habitkit/pkg/habit"
)

var (
	addKind   string
	addGoal   int
	addDays   string
	addRemind string
	addIcon   string
	addColor  string
	addPinned bool
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new habit",
	Long: `The "add" command creates a habit. Count habits track repetitions,
time habits track seconds. Restrict the schedule with --days, e.g.
--days mon,wed,fri.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return add(cmd, args[0])
	},
}

var dayNames = map[string]habit.Weekday{
	"mon": habit.Monday,
	"tue": habit.Tuesday,
	"wed": habit.Wednesday,
	"thu": habit.Thursday,
	"fri": habit.Friday,
	"sat": habit.Saturday,
	"sun": habit.Sunday,
}

func parseDays(s string) (habit.WeekdaySet, error) {
	if s == "" {
		return habit.AllWeekdays, nil
	}
	var days []habit.Weekday
	for _, part := range strings.Split(s, ",") {
		d, ok := dayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, fmt.Errorf("unknown day %q", part)
		}
		days = append(days, d)
	}
	return habit.NewWeekdaySet(days...), nil
}

func add(cmd *cobra.Command, title string) error {
	days, err := parseDays(addDays)
	if err != nil {
		return err
	}

	req := map[string]any{
		"title":       title,
		"kind":        addKind,
		"goal":        addGoal,
		"active_days": int(days),
	}
	if addRemind != "" {
		req["reminder_time"] = addRemind
	}
	if addIcon != "" {
		req["icon"] = addIcon
	}
	if addColor != "" {
		req["color"] = addColor
	}
	if addPinned {
		req["pinned"] = true
	}

	c := newClient()
	h, err := c.CreateHabit(cmd.Context(), req)
	if err != nil {
		return err
	}
	cmd.Printf("Added %q (%s), goal %s\n", h.Title, h.ID, h.FormattedGoal())
	return nil
}

func init() {
	addCmd.Flags().StringVar(&addKind, "kind", "count", "habit kind: count or time")
	addCmd.Flags().IntVar(&addGoal, "goal", 1, "daily goal (repetitions, or seconds for time habits)")
	addCmd.Flags().StringVar(&addDays, "days", "", "active weekdays, comma separated (default every day)")
	addCmd.Flags().StringVar(&addRemind, "remind", "", "daily reminder time, HH:MM")
	addCmd.Flags().StringVar(&addIcon, "icon", "", "icon name")
	addCmd.Flags().StringVar(&addColor, "color", "", "display color")
	addCmd.Flags().BoolVar(&addPinned, "pinned", false, "pin the habit to the top of the list")
	rootCmd.AddCommand(addCmd)
}
