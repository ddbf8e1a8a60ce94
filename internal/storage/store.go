package storage

import (
	"errors"

	"github.com/teymia/habitkit/pkg/habit"
)

// ErrNotFound is returned when a habit, completion or folder does not exist
// for the given user.
var ErrNotFound = errors.New("not found")

// Store is the habit record store. The core computes everything from
// snapshots it reads here; it never assumes a write is durable before the
// next read. Implementations must make DeleteHabit cascade to the habit's
// completions and remove it from folders, and make DeleteFolder leave the
// member habits untouched.
type Store interface {
	PutHabit(userID string, h *habit.Habit) error
	GetHabit(userID, habitID string) (*habit.Habit, error)
	ListHabits(userID string, includeArchived bool) ([]*habit.Habit, error)
	DeleteHabit(userID, habitID string) error

	PutCompletion(userID string, c habit.Completion) error
	ListCompletions(userID, habitID string) (habit.Ledger, error)
	DeleteCompletion(userID, habitID, completionID string) error
	ResetHistory(userID, habitID string) error

	PutFolder(userID string, f *habit.Folder) error
	GetFolder(userID, folderID string) (*habit.Folder, error)
	ListFolders(userID string) ([]*habit.Folder, error)
	DeleteFolder(userID, folderID string) error

	Close() error
}
