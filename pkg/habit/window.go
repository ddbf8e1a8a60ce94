package habit

import "time"

// Granularity selects the period size the windowing engine works in. The
// same engine backs the weekly, monthly and yearly charts and the calendar
// grid; only the period arithmetic differs.
type Granularity string

const (
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

// DefaultHistoryLimit bounds how far back charts and calendars render,
// independent of how old a habit is. In days.
const DefaultHistoryLimit = 365

// Window generates the enumerable sequence of periods between a habit's
// history-limited start date and now, and answers index navigation queries
// over it.
type Window struct {
	Gran         Granularity
	Start        time.Time // habit start date
	Now          time.Time
	WeekStart    Weekday // first weekday for week-period boundaries
	HistoryLimit int     // days; <= 0 means DefaultHistoryLimit
}

// NewWindow builds a window over the habit's lifetime, capped by the history
// limit.
func NewWindow(h *Habit, gran Granularity, weekStart Weekday, historyLimit int, now time.Time) Window {
	return Window{
		Gran:         gran,
		Start:        h.StartDate,
		Now:          now,
		WeekStart:    weekStart,
		HistoryLimit: historyLimit,
	}
}

func (w Window) historyLimit() int {
	if w.HistoryLimit <= 0 {
		return DefaultHistoryLimit
	}
	return w.HistoryLimit
}

// limitedStart is max(habit start, now - history limit), at day granularity.
func (w Window) limitedStart() time.Time {
	floor := StartOfDay(w.Now).AddDate(0, 0, -w.historyLimit())
	start := StartOfDay(w.Start)
	if start.Before(floor) {
		return floor
	}
	return start
}

// PeriodStart returns the start of the period containing t.
func (w Window) PeriodStart(t time.Time) time.Time {
	t = StartOfDay(t)
	switch w.Gran {
	case ByWeek:
		shift := OrderIndex(w.weekStart(), WeekdayOf(t.Weekday()))
		return t.AddDate(0, 0, -shift)
	case ByYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
}

func (w Window) weekStart() Weekday {
	if w.WeekStart < Monday || w.WeekStart > Sunday {
		return Monday
	}
	return w.WeekStart
}

func (w Window) advance(t time.Time) time.Time {
	switch w.Gran {
	case ByWeek:
		return t.AddDate(0, 0, 7)
	case ByYear:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Periods enumerates period-start dates ascending, from the history-limited
// start's period through the period containing now. Always at least one
// entry: a habit created today still shows today's period.
func (w Window) Periods() []time.Time {
	last := w.PeriodStart(w.Now)
	cur := w.PeriodStart(w.limitedStart())
	if cur.After(last) {
		cur = last
	}

	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		next := w.advance(cur)
		if !next.After(cur) {
			break
		}
		cur = next
	}
	return out
}

// IndexOf locates the period containing d in the generated sequence. Dates
// outside the window fall back to the last index so navigation always has
// somewhere to land.
func (w Window) IndexOf(d time.Time) int {
	periods := w.Periods()
	target := w.PeriodStart(d)
	for i, p := range periods {
		if p.Equal(target) {
			return i
		}
	}
	return len(periods) - 1
}

// CanPrev reports whether backward navigation from i is possible.
func (w Window) CanPrev(i int) bool {
	return i > 0
}

// CanNext reports whether forward navigation from i is possible. The period
// containing now is the hard edge: there is no navigating into the future.
func (w Window) CanNext(i int) bool {
	periods := w.Periods()
	if i < 0 || i >= len(periods) {
		return false
	}
	return periods[i].Before(w.PeriodStart(w.Now))
}

// Prev steps the index backward, clamping at the first period.
func (w Window) Prev(i int) int {
	if w.CanPrev(i) {
		return i - 1
	}
	return i
}

// Next steps the index forward, clamping at the current period.
func (w Window) Next(i int) int {
	if w.CanNext(i) {
		return i + 1
	}
	return i
}
