package habit

import (
	"fmt"
	"time"
)

// progressClamp caps the progress value used for percentage display so a
// runaway value cannot produce a pathological ratio. Raw progress is still
// used for completion and over-achievement checks.
const progressClamp = 999999

// StartOfDay truncates t to the start of its calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsActiveOn reports whether the habit is scheduled on the given date: the
// date must not precede the habit's start day and its weekday must be in the
// active set. Both sides compare at day granularity so DST shifts cannot
// produce off-by-one results.
func (h *Habit) IsActiveOn(d time.Time) bool {
	if StartOfDay(d).Before(StartOfDay(h.StartDate)) {
		return false
	}
	return h.ActiveDays.Has(WeekdayOf(d.Weekday()))
}

// ProgressOn sums the values of all completions recorded on the same
// calendar day as d.
func (h *Habit) ProgressOn(d time.Time, ledger Ledger) int {
	return ledger.DayTotal(d)
}

// CompletionPercentOn returns the day's progress as a fraction of the goal,
// clamped to [0, 1]. A non-positive goal means any progress at all counts as
// full completion.
func (h *Habit) CompletionPercentOn(d time.Time, ledger Ledger) float64 {
	progress := ledger.DayTotal(d)
	if h.Goal <= 0 {
		if progress > 0 {
			return 1.0
		}
		return 0.0
	}
	if progress > progressClamp {
		progress = progressClamp
	}
	pct := float64(progress) / float64(h.Goal)
	if pct > 1.0 {
		return 1.0
	}
	return pct
}

// IsCompletedOn checks the day's raw (unclamped) progress against the goal.
func (h *Habit) IsCompletedOn(d time.Time, ledger Ledger) bool {
	return meetsGoal(h.Goal, ledger.DayTotal(d))
}

// IsExceededOn reports strict over-achievement for the day.
func (h *Habit) IsExceededOn(d time.Time, ledger Ledger) bool {
	return ledger.DayTotal(d) > h.Goal
}

func meetsGoal(goal, progress int) bool {
	if goal <= 0 {
		return progress > 0
	}
	return progress >= goal
}

// FormattedGoal renders the goal for display: a plain count, or h/m/s for
// time habits.
func (h *Habit) FormattedGoal() string {
	if h.Kind == KindTime {
		return formatSeconds(h.Goal)
	}
	return fmt.Sprintf("%d", h.Goal)
}

// FormattedProgressOn renders the day's progress against the goal.
func (h *Habit) FormattedProgressOn(d time.Time, ledger Ledger) string {
	progress := ledger.DayTotal(d)
	if h.Kind == KindTime {
		return fmt.Sprintf("%s / %s", formatSeconds(progress), formatSeconds(h.Goal))
	}
	return fmt.Sprintf("%d / %d", progress, h.Goal)
}

func formatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	hours := s / 3600
	mins := (s % 3600) / 60
	secs := s % 60
	switch {
	case hours > 0 && secs > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0 && secs > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm", mins)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
