package habit

import (
	"testing"
	"time"
)

func TestWeekPoints(t *testing.T) {
	h := newTestHabit(2, AllWeekdays, jun2)
	ledger := Ledger{
		entry(h, jun2, 2),                  // Monday, complete
		entry(h, jun2.AddDate(0, 0, 1), 1), // Tuesday, partial
		entry(h, jun2.AddDate(0, 0, 2), 3), // Wednesday, exceeded
	}
	now := jun2.AddDate(0, 0, 3) // Thursday

	points := WeekPoints(h, ledger, jun2, now)
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}

	if !points[0].Completed || points[0].Exceeded || points[0].Value != 2 {
		t.Errorf("Monday wrong: %+v", points[0])
	}
	if points[1].Completed || points[1].Value != 1 {
		t.Errorf("Tuesday wrong: %+v", points[1])
	}
	if !points[2].Completed || !points[2].Exceeded {
		t.Errorf("Wednesday wrong: %+v", points[2])
	}
	// Friday through Sunday are in the future: zero, not completed.
	for i := 4; i < 7; i++ {
		if points[i].Value != 0 || points[i].Completed {
			t.Errorf("future day %d should be zero: %+v", i, points[i])
		}
	}
}

func TestWeekPoints_InactiveDaysZero(t *testing.T) {
	h := newTestHabit(1, NewWeekdaySet(Monday), jun2)
	// An entry recorded on an off-schedule day contributes nothing.
	ledger := Ledger{entry(h, jun2.AddDate(0, 0, 1), 5)}
	points := WeekPoints(h, ledger, jun2, jun2.AddDate(0, 0, 6))
	if points[1].Value != 0 {
		t.Errorf("off-schedule Tuesday should be zero, got %d", points[1].Value)
	}
}

func TestMonthPoints(t *testing.T) {
	h := newTestHabit(1, AllWeekdays, jun2)
	ledger := Ledger{entry(h, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), 1)}
	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	points := MonthPoints(h, ledger, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), now)
	if len(points) != 30 {
		t.Fatalf("expected 30 points for June, got %d", len(points))
	}
	if !points[0].Date.Equal(jun2.AddDate(0, 0, -1)) {
		t.Errorf("first point should be June 1, got %v", points[0].Date)
	}
	if points[14].Value != 1 || !points[14].Completed {
		t.Errorf("June 15 wrong: %+v", points[14])
	}

	feb := MonthPoints(h, nil, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), now)
	if len(feb) != 29 {
		t.Errorf("expected 29 points for a leap February, got %d", len(feb))
	}
}

func TestYearPoints_MonthThreshold(t *testing.T) {
	// Goal 2 every day of June: the month completes at 2 * 30.
	h := newTestHabit(2, AllWeekdays, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	now := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	var ledger Ledger
	for i := 0; i < 30; i++ {
		ledger = append(ledger, entry(h, h.StartDate.AddDate(0, 0, i), 2))
	}

	points := YearPoints(h, ledger, now, now)
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	june := 5
	if points[june].Value != 60 || !points[june].Completed {
		t.Errorf("June should be complete at 60: %+v", points[june])
	}
	if points[june].Exceeded {
		t.Error("exactly at threshold is not exceeded")
	}
	// July has active days but no progress.
	if points[june+1].Completed || points[june+1].Value != 0 {
		t.Errorf("July wrong: %+v", points[june+1])
	}
	// Months before the start date have no active days at all.
	if points[0].Completed || points[0].Exceeded {
		t.Errorf("January has no active days: %+v", points[0])
	}
}

func TestYearPoints_PartialMonthScales(t *testing.T) {
	// Mondays only: June 2025 has five Mondays, so the threshold is 5 not 30.
	h := newTestHabit(1, NewWeekdaySet(Monday), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	var ledger Ledger
	for i := 0; i < 5; i++ {
		ledger = append(ledger, entry(h, jun2.AddDate(0, 0, 7*i), 1))
	}

	points := YearPoints(h, ledger, now, now)
	june := points[5]
	if june.Value != 5 || !june.Completed {
		t.Errorf("five of five Mondays should complete June: %+v", june)
	}
}

func TestSummarize(t *testing.T) {
	points := []Point{
		{Value: 4}, {Value: 0}, {Value: 2}, {Value: 0},
	}
	s := Summarize(points)
	if s.Total != 6 {
		t.Errorf("expected total 6, got %d", s.Total)
	}
	// Average counts only buckets with progress.
	if s.Average != 3.0 {
		t.Errorf("expected average 3.0 over non-zero buckets, got %.2f", s.Average)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.Average != 0 {
		t.Errorf("empty input should summarize to zeros, got %+v", empty)
	}
}
