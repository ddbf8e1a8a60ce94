package server

import (
	"time"

	"github.com/teymia/habitkit/pkg/habit"
)

type HabitListResponse struct {
	Habits []*habit.Habit `json:"habits"`
}

type HabitGetResponse struct {
	Habit   *habit.Habit `json:"habit"`
	Today   int          `json:"today_progress"`
	Percent float64      `json:"today_percent"`
}

type CompletionListResponse struct {
	HabitID     string       `json:"habit_id"`
	Completions habit.Ledger `json:"completions"`
}

type SummaryResponse struct {
	Summary habit.Summary `json:"summary"`
}

// ChartResponse carries one window of chart points plus the navigation
// state the paging views need.
type ChartResponse struct {
	HabitID     string             `json:"habit_id"`
	Granularity habit.Granularity  `json:"granularity"`
	PeriodStart time.Time          `json:"period_start"`
	Index       int                `json:"index"`
	PeriodCount int                `json:"period_count"`
	CanPrev     bool               `json:"can_prev"`
	CanNext     bool               `json:"can_next"`
	Points      []habit.Point      `json:"points"`
	Summary     habit.ChartSummary `json:"summary"`
}

// CalendarResponse is the monthly grid: one point per day of the month plus
// leading pad days so the first row starts on the user's first weekday.
type CalendarResponse struct {
	HabitID    string        `json:"habit_id"`
	MonthStart time.Time     `json:"month_start"`
	PadDays    int           `json:"pad_days"`
	Weekdays   []string      `json:"weekdays"`
	Points     []habit.Point `json:"points"`
	CanPrev    bool          `json:"can_prev"`
	CanNext    bool          `json:"can_next"`
}

type FolderListResponse struct {
	Folders []*habit.Folder `json:"folders"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}
