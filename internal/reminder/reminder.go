package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/pkg/habit"
)

// Entry is one habit due for a reminder today.
type Entry struct {
	HabitID string
	Title   string
	At      string // "HH:MM"
}

// Notifier delivers a reminder digest. The scheduler computes what is due;
// delivery is someone else's problem.
type Notifier interface {
	SendReminders(entries []Entry) error
}

// DueToday selects the habits that want a reminder on now's weekday: a
// reminder time is set, the habit is not archived, and the day is in the
// habit's schedule. The active-day check uses the same canonical weekday
// numbering as the statistics core; translation to any platform trigger
// numbering is the notifier's concern.
func DueToday(habits []*habit.Habit, now time.Time) []Entry {
	var out []Entry
	for _, h := range habits {
		if h.Archived || h.ReminderTime == "" {
			continue
		}
		if !h.IsActiveOn(now) {
			continue
		}
		out = append(out, Entry{HabitID: h.ID, Title: h.Title, At: h.ReminderTime})
	}
	return out
}

// Run fetches habits, filters those due and still short of today's goal,
// and hands them to the notifier as one digest.
func Run(ctx context.Context, q Querier, n Notifier, now time.Time) error {
	habits, err := q.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("listing habits: %w", err)
	}
	byID := make(map[string]*habit.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	due := DueToday(habits, now)
	pending := make([]Entry, 0, len(due))
	for _, e := range due {
		progress, err := q.TodayProgress(ctx, e.HabitID)
		if err != nil {
			logger.Warn("Failed to fetch progress, including habit anyway", "habit_id", e.HabitID, "error", err)
			pending = append(pending, e)
			continue
		}
		if goalMet(byID[e.HabitID], progress) {
			continue
		}
		pending = append(pending, e)
	}

	if len(pending) == 0 {
		logger.Info("No reminders due")
		return nil
	}
	logger.Info("Sending reminders", "count", len(pending))
	return n.SendReminders(pending)
}

func goalMet(h *habit.Habit, progress int) bool {
	if h == nil {
		return false
	}
	if h.Goal <= 0 {
		return progress > 0
	}
	return progress >= h.Goal
}
