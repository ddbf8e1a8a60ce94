package habit

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes what a habit's goal counts.
type Kind string

const (
	KindCount Kind = "count" // goal is a number of occurrences per day
	KindTime  Kind = "time"  // goal is a number of seconds per day
)

type Habit struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Kind         Kind       `json:"kind"`
	Goal         int        `json:"goal"`
	ActiveDays   WeekdaySet `json:"active_days"`
	StartDate    time.Time  `json:"start_date"`
	ReminderTime string     `json:"reminder_time,omitempty"` // "HH:MM", empty when no reminder
	Icon         string     `json:"icon,omitempty"`
	Color        string     `json:"color,omitempty"`
	Archived     bool       `json:"archived"`
	Pinned       bool       `json:"pinned"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewHabit builds a habit with its start date normalized to the start of its
// calendar day. A zero startDate means the habit starts today.
func NewHabit(title string, kind Kind, goal int, activeDays WeekdaySet, startDate time.Time) *Habit {
	if startDate.IsZero() {
		startDate = time.Now()
	}
	return &Habit{
		ID:         uuid.NewString(),
		Title:      title,
		Kind:       kind,
		Goal:       goal,
		ActiveDays: activeDays,
		StartDate:  StartOfDay(startDate),
		CreatedAt:  time.Now(),
	}
}

// Update replaces the habit's configuration atomically. Completions are not
// touched; derived values pick up the new configuration on the next query.
func (h *Habit) Update(title string, kind Kind, goal int, activeDays WeekdaySet, startDate time.Time, reminderTime, icon, color string) {
	h.Title = title
	h.Kind = kind
	h.Goal = goal
	h.ActiveDays = activeDays
	h.StartDate = StartOfDay(startDate)
	h.ReminderTime = reminderTime
	h.Icon = icon
	h.Color = color
}

// Completion is one recorded progress entry. Several completions may land on
// the same calendar day; the day's progress is their summed value.
type Completion struct {
	ID      string    `json:"id"`
	HabitID string    `json:"habit_id"`
	Date    time.Time `json:"date"`
	Value   int       `json:"value"`
}

// NewCompletion records value for a habit. A zero date defaults to now;
// negative values are clamped to zero so a bad client can never subtract
// progress.
func NewCompletion(habitID string, date time.Time, value int) Completion {
	if date.IsZero() {
		date = time.Now()
	}
	if value < 0 {
		value = 0
	}
	return Completion{
		ID:      uuid.NewString(),
		HabitID: habitID,
		Date:    date,
		Value:   value,
	}
}

// Folder groups habits. Membership is many-to-many and deleting a folder
// leaves its habits in place.
type Folder struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DisplayOrder int      `json:"display_order"`
	HabitIDs     []string `json:"habit_ids"`
}

func NewFolder(name string) *Folder {
	return &Folder{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// Summary holds the computed statistics for one habit.
type Summary struct {
	HabitID          string `json:"habit_id"`
	CurrentStreak    int    `json:"current_streak"`
	BestStreak       int    `json:"best_streak"`
	TotalCompletions int    `json:"total_completions"`
}
