package habit

import "time"

// Point is one chart bucket: a day for the weekly/monthly views, a month for
// the yearly view.
type Point struct {
	Date      time.Time `json:"date"`
	Value     int       `json:"value"`
	Completed bool      `json:"completed"`
	Exceeded  bool      `json:"exceeded"`
}

// ChartSummary aggregates a window of points. Average covers only buckets
// with progress; Total covers all of them.
type ChartSummary struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"`
}

// WeekPoints produces the seven day-buckets of the week starting at
// weekStart. Days outside [habit start, now] or off-schedule contribute
// zero.
func WeekPoints(h *Habit, ledger Ledger, weekStart, now time.Time) []Point {
	return dayPoints(h, ledger, StartOfDay(weekStart), 7, now)
}

// MonthPoints produces one day-bucket per day of the month containing
// monthStart.
func MonthPoints(h *Habit, ledger Ledger, monthStart, now time.Time) []Point {
	first := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, monthStart.Location())
	return dayPoints(h, ledger, first, daysInMonth(first), now)
}

func dayPoints(h *Habit, ledger Ledger, start time.Time, n int, now time.Time) []Point {
	today := StartOfDay(now)
	totals := ledger.DayTotals()
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i)
		value := 0
		if h.IsActiveOn(day) && !day.After(today) {
			value = totals[day.Format(dayKeyFormat)]
		}
		out = append(out, Point{
			Date:      day,
			Value:     value,
			Completed: meetsGoal(h.Goal, value),
			Exceeded:  value > h.Goal,
		})
	}
	return out
}

// YearPoints produces the twelve month-buckets of the year containing
// yearStart. A month's value sums progress over its active in-range days,
// and the month counts as completed when that sum reaches goal times the
// number of those days, i.e. the implied daily average meets the daily goal.
func YearPoints(h *Habit, ledger Ledger, yearStart, now time.Time) []Point {
	today := StartOfDay(now)
	totals := ledger.DayTotals()
	year := yearStart.Year()
	loc := yearStart.Location()

	out := make([]Point, 0, 12)
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, loc)
		value, activeDays := 0, 0
		for i := 0; i < daysInMonth(first); i++ {
			day := first.AddDate(0, 0, i)
			if !h.IsActiveOn(day) || day.After(today) {
				continue
			}
			activeDays++
			value += totals[day.Format(dayKeyFormat)]
		}

		threshold := h.Goal * activeDays
		completed := false
		if activeDays > 0 {
			completed = meetsGoal(threshold, value)
		}
		out = append(out, Point{
			Date:      first,
			Value:     value,
			Completed: completed,
			Exceeded:  activeDays > 0 && value > threshold,
		})
	}
	return out
}

// Summarize folds a window of points into its total and its average over
// non-zero buckets.
func Summarize(points []Point) ChartSummary {
	total, nonZero := 0, 0
	for _, p := range points {
		total += p.Value
		if p.Value > 0 {
			nonZero++
		}
	}
	s := ChartSummary{Total: total}
	if nonZero > 0 {
		s.Average = float64(total) / float64(nonZero)
	}
	return s
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
