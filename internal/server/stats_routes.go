package server

import (
	"net/http"
	"time"

	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/pkg/habit"
)

func (s *Server) getHabitSummary(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	ledger, err := s.store.ListCompletions(userID, h.ID)
	if err != nil {
		logger.Error("Failed to load completions for summary", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	ref := s.now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, `{"error":"bad as_of date, want YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		ref = parsed
	}

	summary := habit.ComputeSummary(h, ledger, ref)
	if err := writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary}); err != nil {
		logger.Error("Failed to serialize summary", "habit_id", h.ID, "error", err)
	}
}

// getChart serves one window page of the weekly, monthly or yearly chart.
// The window engine decides which periods exist and where the requested date
// lands; the aggregation fills in the buckets.
func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	gran := habit.Granularity(r.URL.Query().Get("granularity"))
	switch gran {
	case habit.ByWeek, habit.ByMonth, habit.ByYear:
	case "":
		gran = habit.ByWeek
	default:
		http.Error(w, `{"error":"bad granularity, want week, month or year"}`, http.StatusBadRequest)
		return
	}

	now := s.now()
	target := now
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, `{"error":"bad date, want YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		target = parsed
	}

	ledger, err := s.store.ListCompletions(userID, h.ID)
	if err != nil {
		logger.Error("Failed to load completions for chart", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	window := habit.NewWindow(h, gran, s.cfg.WeekStart(), s.cfg.HistoryLimitDays, now)
	periods := window.Periods()
	idx := window.IndexOf(target)
	periodStart := periods[idx]

	var points []habit.Point
	switch gran {
	case habit.ByWeek:
		points = habit.WeekPoints(h, ledger, periodStart, now)
	case habit.ByMonth:
		points = habit.MonthPoints(h, ledger, periodStart, now)
	case habit.ByYear:
		points = habit.YearPoints(h, ledger, periodStart, now)
	}

	resp := ChartResponse{
		HabitID:     h.ID,
		Granularity: gran,
		PeriodStart: periodStart,
		Index:       idx,
		PeriodCount: len(periods),
		CanPrev:     window.CanPrev(idx),
		CanNext:     window.CanNext(idx),
		Points:      points,
		Summary:     habit.Summarize(points),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize chart", "habit_id", h.ID, "error", err)
	}
}

// getCalendar serves the monthly grid. It shares the month windowing with
// the chart view; the pad count and weekday labels let a client lay out the
// grid without re-deriving the first-weekday preference.
func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	now := s.now()
	target := now
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			http.Error(w, `{"error":"bad month, want YYYY-MM"}`, http.StatusBadRequest)
			return
		}
		target = parsed
	}

	ledger, err := s.store.ListCompletions(userID, h.ID)
	if err != nil {
		logger.Error("Failed to load completions for calendar", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	weekStart := s.cfg.WeekStart()
	window := habit.NewWindow(h, habit.ByMonth, weekStart, s.cfg.HistoryLimitDays, now)
	idx := window.IndexOf(target)
	monthStart := window.Periods()[idx]

	ordered := habit.OrderedWeek(weekStart)
	labels := make([]string, 7)
	for i, d := range ordered {
		labels[i] = d.String()
	}

	resp := CalendarResponse{
		HabitID:    h.ID,
		MonthStart: monthStart,
		PadDays:    habit.OrderIndex(weekStart, habit.WeekdayOf(monthStart.Weekday())),
		Weekdays:   labels,
		Points:     habit.MonthPoints(h, ledger, monthStart, now),
		CanPrev:    window.CanPrev(idx),
		CanNext:    window.CanNext(idx),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize calendar", "habit_id", h.ID, "error", err)
	}
}
