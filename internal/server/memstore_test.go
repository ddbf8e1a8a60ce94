package server

import (
	"errors"
	"sort"
	"sync"

	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/pkg/habit"
)

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	mu          sync.Mutex
	habits      map[string]map[string]*habit.Habit
	completions map[string]map[string]habit.Ledger
	folders     map[string]map[string]*habit.Folder

	// failPutCompletion simulates a storage outage on the completion
	// write path.
	failPutCompletion bool
}

func newMemStore() *memStore {
	return &memStore{
		habits:      make(map[string]map[string]*habit.Habit),
		completions: make(map[string]map[string]habit.Ledger),
		folders:     make(map[string]map[string]*habit.Folder),
	}
}

func (m *memStore) PutHabit(userID string, h *habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.habits[userID] == nil {
		m.habits[userID] = make(map[string]*habit.Habit)
	}
	cp := *h
	m.habits[userID][h.ID] = &cp
	return nil
}

func (m *memStore) GetHabit(userID, habitID string) (*habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[userID][habitID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memStore) ListHabits(userID string, includeArchived bool) ([]*habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*habit.Habit
	for _, h := range m.habits[userID] {
		if h.Archived && !includeArchived {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) DeleteHabit(userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.habits[userID], habitID)
	delete(m.completions[userID], habitID)
	for _, f := range m.folders[userID] {
		kept := f.HabitIDs[:0]
		for _, id := range f.HabitIDs {
			if id != habitID {
				kept = append(kept, id)
			}
		}
		f.HabitIDs = kept
	}
	return nil
}

func (m *memStore) PutCompletion(userID string, c habit.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPutCompletion {
		return errors.New("simulated write failure")
	}
	if m.completions[userID] == nil {
		m.completions[userID] = make(map[string]habit.Ledger)
	}
	m.completions[userID][c.HabitID] = append(m.completions[userID][c.HabitID], c)
	return nil
}

func (m *memStore) ListCompletions(userID, habitID string) (habit.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.completions[userID][habitID]
	out := make(habit.Ledger, len(src))
	copy(out, src)
	return out, nil
}

func (m *memStore) DeleteCompletion(userID, habitID, completionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger := m.completions[userID][habitID]
	for i := range ledger {
		if ledger[i].ID == completionID {
			m.completions[userID][habitID] = append(ledger[:i], ledger[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) ResetHistory(userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.completions[userID], habitID)
	return nil
}

func (m *memStore) PutFolder(userID string, f *habit.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.folders[userID] == nil {
		m.folders[userID] = make(map[string]*habit.Folder)
	}
	cp := *f
	m.folders[userID][f.ID] = &cp
	return nil
}

func (m *memStore) GetFolder(userID, folderID string) (*habit.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[userID][folderID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) ListFolders(userID string) ([]*habit.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*habit.Folder
	for _, f := range m.folders[userID] {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memStore) DeleteFolder(userID, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[userID][folderID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.folders[userID], folderID)
	return nil
}

func (m *memStore) Close() error { return nil }

var _ storage.Store = (*memStore)(nil)
