package habit

import (
	"sort"
	"time"
)

// dayKey identifies a calendar day independent of time zone offset within
// the day. Bucketing on it keeps aggregation stable no matter what location
// each completion's timestamp carries.
const dayKeyFormat = "2006-01-02"

// Ledger is the set of completions recorded for one habit. Order never
// matters: every aggregation here is a commutative reduction over matching
// records, so a ledger loaded in any order produces the same totals.
type Ledger []Completion

// DayTotal sums the values of completions recorded on the same calendar day
// as d.
func (l Ledger) DayTotal(d time.Time) int {
	total := 0
	for i := range l {
		if SameDay(l[i].Date, d) {
			total += l[i].Value
		}
	}
	return total
}

// OnOrBefore returns the completions whose calendar day is the cutoff day or
// earlier.
func (l Ledger) OnOrBefore(cutoff time.Time) Ledger {
	end := StartOfDay(cutoff).AddDate(0, 0, 1)
	out := make(Ledger, 0, len(l))
	for i := range l {
		if l[i].Date.Before(end) {
			out = append(out, l[i])
		}
	}
	return out
}

// DayTotals buckets the ledger by calendar day, keyed by "2006-01-02".
func (l Ledger) DayTotals() map[string]int {
	totals := make(map[string]int, len(l))
	for i := range l {
		totals[l[i].Date.Format(dayKeyFormat)] += l[i].Value
	}
	return totals
}

// Days returns the distinct calendar days (as start-of-day times in loc)
// that have at least one completion, ascending.
func (l Ledger) Days(loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	totals := l.DayTotals()
	out := make([]time.Time, 0, len(totals))
	for k := range totals {
		d, err := time.ParseInLocation(dayKeyFormat, k, loc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
