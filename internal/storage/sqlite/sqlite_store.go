package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/pkg/habit"
)

// Store implements storage.Store on a local SQLite database. Completion
// cascade and folder nullify semantics come from the schema's foreign keys.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS habits (
	user_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	title         TEXT NOT NULL,
	kind          TEXT NOT NULL,
	goal          INTEGER NOT NULL,
	active_days   INTEGER NOT NULL,
	start_date    TEXT NOT NULL,
	reminder_time TEXT NOT NULL DEFAULT '',
	icon          TEXT NOT NULL DEFAULT '',
	color         TEXT NOT NULL DEFAULT '',
	archived      INTEGER NOT NULL DEFAULT 0,
	pinned        INTEGER NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS completions (
	user_id  TEXT NOT NULL,
	id       TEXT NOT NULL,
	habit_id TEXT NOT NULL,
	date     TEXT NOT NULL,
	value    INTEGER NOT NULL,
	PRIMARY KEY (user_id, id),
	FOREIGN KEY (user_id, habit_id) REFERENCES habits(user_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS folders (
	user_id       TEXT NOT NULL,
	id            TEXT NOT NULL,
	name          TEXT NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS folder_habits (
	user_id   TEXT NOT NULL,
	folder_id TEXT NOT NULL,
	habit_id  TEXT NOT NULL,
	PRIMARY KEY (user_id, folder_id, habit_id),
	FOREIGN KEY (user_id, folder_id) REFERENCES folders(user_id, id) ON DELETE CASCADE,
	FOREIGN KEY (user_id, habit_id) REFERENCES habits(user_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_completions_habit ON completions(user_id, habit_id);
`

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type habitRow struct {
	UserID       string `db:"user_id"`
	ID           string `db:"id"`
	Title        string `db:"title"`
	Kind         string `db:"kind"`
	Goal         int    `db:"goal"`
	ActiveDays   int    `db:"active_days"`
	StartDate    string `db:"start_date"`
	ReminderTime string `db:"reminder_time"`
	Icon         string `db:"icon"`
	Color        string `db:"color"`
	Archived     bool   `db:"archived"`
	Pinned       bool   `db:"pinned"`
	DisplayOrder int    `db:"display_order"`
	CreatedAt    string `db:"created_at"`
}

func (r habitRow) toHabit() *habit.Habit {
	start, _ := time.Parse(time.RFC3339, r.StartDate)
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &habit.Habit{
		ID:           r.ID,
		Title:        r.Title,
		Kind:         habit.Kind(r.Kind),
		Goal:         r.Goal,
		ActiveDays:   habit.WeekdaySetFromMask(r.ActiveDays),
		StartDate:    start,
		ReminderTime: r.ReminderTime,
		Icon:         r.Icon,
		Color:        r.Color,
		Archived:     r.Archived,
		Pinned:       r.Pinned,
		DisplayOrder: r.DisplayOrder,
		CreatedAt:    created,
	}
}

func (s *Store) PutHabit(userID string, h *habit.Habit) error {
	_, err := s.db.Exec(`
		INSERT INTO habits (
			user_id, id, title, kind, goal, active_days, start_date,
			reminder_time, icon, color, archived, pinned, display_order, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title=excluded.title, kind=excluded.kind, goal=excluded.goal,
			active_days=excluded.active_days, start_date=excluded.start_date,
			reminder_time=excluded.reminder_time, icon=excluded.icon,
			color=excluded.color, archived=excluded.archived,
			pinned=excluded.pinned, display_order=excluded.display_order`,
		userID, h.ID, h.Title, string(h.Kind), h.Goal, h.ActiveDays.Mask(),
		h.StartDate.Format(time.RFC3339), h.ReminderTime, h.Icon, h.Color,
		h.Archived, h.Pinned, h.DisplayOrder, h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing habit %s: %w", h.ID, err)
	}
	return nil
}

func (s *Store) GetHabit(userID, habitID string) (*habit.Habit, error) {
	var r habitRow
	err := s.db.Get(&r, "SELECT * FROM habits WHERE user_id = ? AND id = ?", userID, habitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading habit %s: %w", habitID, err)
	}
	return r.toHabit(), nil
}

func (s *Store) ListHabits(userID string, includeArchived bool) ([]*habit.Habit, error) {
	q := `SELECT * FROM habits WHERE user_id = ?
		ORDER BY pinned DESC, display_order ASC, created_at ASC`
	if !includeArchived {
		q = `SELECT * FROM habits WHERE user_id = ? AND archived = 0
			ORDER BY pinned DESC, display_order ASC, created_at ASC`
	}
	var rows []habitRow
	if err := s.db.Select(&rows, q, userID); err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	out := make([]*habit.Habit, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toHabit())
	}
	return out, nil
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	_, err := s.db.Exec("DELETE FROM habits WHERE user_id = ? AND id = ?", userID, habitID)
	if err != nil {
		return fmt.Errorf("deleting habit %s: %w", habitID, err)
	}
	return nil
}

func (s *Store) PutCompletion(userID string, c habit.Completion) error {
	_, err := s.db.Exec(`
		INSERT INTO completions (user_id, id, habit_id, date, value)
		VALUES (?, ?, ?, ?, ?)`,
		userID, c.ID, c.HabitID, c.Date.Format(time.RFC3339), c.Value,
	)
	if err != nil {
		return fmt.Errorf("storing completion %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) ListCompletions(userID, habitID string) (habit.Ledger, error) {
	var rows []struct {
		ID      string `db:"id"`
		HabitID string `db:"habit_id"`
		Date    string `db:"date"`
		Value   int    `db:"value"`
	}
	err := s.db.Select(&rows,
		"SELECT id, habit_id, date, value FROM completions WHERE user_id = ? AND habit_id = ?",
		userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("listing completions for %s: %w", habitID, err)
	}
	out := make(habit.Ledger, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			return nil, fmt.Errorf("bad completion date %q: %w", r.Date, err)
		}
		out = append(out, habit.Completion{ID: r.ID, HabitID: r.HabitID, Date: date, Value: r.Value})
	}
	return out, nil
}

func (s *Store) DeleteCompletion(userID, habitID, completionID string) error {
	res, err := s.db.Exec(
		"DELETE FROM completions WHERE user_id = ? AND habit_id = ? AND id = ?",
		userID, habitID, completionID)
	if err != nil {
		return fmt.Errorf("deleting completion %s: %w", completionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ResetHistory(userID, habitID string) error {
	_, err := s.db.Exec(
		"DELETE FROM completions WHERE user_id = ? AND habit_id = ?", userID, habitID)
	if err != nil {
		return fmt.Errorf("resetting history for %s: %w", habitID, err)
	}
	return nil
}

func (s *Store) PutFolder(userID string, f *habit.Folder) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO folders (user_id, id, name, display_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name=excluded.name, display_order=excluded.display_order`,
		userID, f.ID, f.Name, f.DisplayOrder)
	if err != nil {
		return fmt.Errorf("storing folder %s: %w", f.ID, err)
	}
	if _, err := tx.Exec(
		"DELETE FROM folder_habits WHERE user_id = ? AND folder_id = ?", userID, f.ID); err != nil {
		return err
	}
	for _, habitID := range f.HabitIDs {
		if _, err := tx.Exec(
			"INSERT INTO folder_habits (user_id, folder_id, habit_id) VALUES (?, ?, ?)",
			userID, f.ID, habitID); err != nil {
			return fmt.Errorf("storing folder membership: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetFolder(userID, folderID string) (*habit.Folder, error) {
	var r struct {
		ID           string `db:"id"`
		Name         string `db:"name"`
		DisplayOrder int    `db:"display_order"`
	}
	err := s.db.Get(&r,
		"SELECT id, name, display_order FROM folders WHERE user_id = ? AND id = ?",
		userID, folderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading folder %s: %w", folderID, err)
	}

	var habitIDs []string
	err = s.db.Select(&habitIDs,
		"SELECT habit_id FROM folder_habits WHERE user_id = ? AND folder_id = ?",
		userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("loading folder members: %w", err)
	}
	return &habit.Folder{ID: r.ID, Name: r.Name, DisplayOrder: r.DisplayOrder, HabitIDs: habitIDs}, nil
}

func (s *Store) ListFolders(userID string) ([]*habit.Folder, error) {
	var ids []string
	err := s.db.Select(&ids,
		"SELECT id FROM folders WHERE user_id = ? ORDER BY display_order ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	out := make([]*habit.Folder, 0, len(ids))
	for _, id := range ids {
		f, err := s.GetFolder(userID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) DeleteFolder(userID, folderID string) error {
	res, err := s.db.Exec(
		"DELETE FROM folders WHERE user_id = ? AND id = ?", userID, folderID)
	if err != nil {
		return fmt.Errorf("deleting folder %s: %w", folderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
