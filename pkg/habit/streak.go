package habit

import "time"

// maxStreakLookback bounds the backward walk of the current-streak
// computation. A year of history is as far as any view renders, and the cap
// keeps the walk finite for habits whose schedule never breaks.
const maxStreakLookback = 365

// ComputeSummary derives current streak, best streak and total completions
// for a habit from its ledger, as of ref. Completions dated after ref's
// calendar day are invisible to every statistic. It is a pure function of
// its arguments and never fails: habits with no completions, empty schedules
// or non-positive goals all degrade to zeros.
func ComputeSummary(h *Habit, ledger Ledger, ref time.Time) Summary {
	ledger = ledger.OnOrBefore(ref)
	return Summary{
		HabitID:          h.ID,
		CurrentStreak:    currentStreak(h, ledger, ref),
		BestStreak:       bestStreak(h, ledger, ref),
		TotalCompletions: totalCompletions(h, ledger),
	}
}

// currentStreak walks backward from ref. Inactive days are skipped without
// breaking the run. An incomplete ref day is neutral: it neither counts nor
// breaks, the decision falls to the most recent resolved day. Any earlier
// active day below goal ends the walk.
func currentStreak(h *Habit, ledger Ledger, ref time.Time) int {
	if h.ActiveDays.Empty() {
		return 0
	}
	refDay := StartOfDay(ref)
	start := StartOfDay(h.StartDate)
	totals := ledger.DayTotals()

	streak := 0
	day := refDay
	for steps := 0; steps < maxStreakLookback; steps++ {
		if day.Before(start) {
			break
		}
		if h.IsActiveOn(day) {
			done := meetsGoal(h.Goal, totals[day.Format(dayKeyFormat)])
			switch {
			case done:
				streak++
			case day.Equal(refDay):
				// today is still in play, keep walking
			default:
				return streak
			}
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// bestStreak scans completed active days in ascending order, chaining two
// days when no active day between them was missed. Inactive days are never
// gaps.
func bestStreak(h *Habit, ledger Ledger, ref time.Time) int {
	days := completedActiveDays(h, ledger, ref)
	if len(days) == 0 {
		return 0
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		next, ok := nextActiveDay(h, days[i-1])
		if ok && SameDay(next, days[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// totalCompletions counts distinct calendar days whose summed progress meets
// the goal. Multiple entries on one day count once.
func totalCompletions(h *Habit, ledger Ledger) int {
	n := 0
	for _, total := range ledger.DayTotals() {
		if meetsGoal(h.Goal, total) {
			n++
		}
	}
	return n
}

func completedActiveDays(h *Habit, ledger Ledger, ref time.Time) []time.Time {
	days := ledger.Days(ref.Location())
	out := days[:0]
	totals := ledger.DayTotals()
	for _, d := range days {
		if h.IsActiveOn(d) && meetsGoal(h.Goal, totals[d.Format(dayKeyFormat)]) {
			out = append(out, d)
		}
	}
	return out
}

// nextActiveDay finds the first scheduled day strictly after d. With at
// least one weekday in the set it lands within seven days.
func nextActiveDay(h *Habit, d time.Time) (time.Time, bool) {
	if h.ActiveDays.Empty() {
		return time.Time{}, false
	}
	day := StartOfDay(d)
	for i := 0; i < 7; i++ {
		day = day.AddDate(0, 0, 1)
		if h.ActiveDays.Has(WeekdayOf(day.Weekday())) {
			return day, true
		}
	}
	return time.Time{}, false
}
