package reminder

import (
	"context"

	"github.com/teymia/habitkit/pkg/habit"
)

// Querier is the slice of the API the reminder job needs.
type Querier interface {
	ListHabits(ctx context.Context) ([]*habit.Habit, error)
	TodayProgress(ctx context.Context, habitID string) (int, error)
}
