package bolt

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/pkg/habit"
)

const (
	rootBucket        = "users"
	habitsBucket      = "habits"
	completionsBucket = "completions"
	foldersBucket     = "folders"
	defaultUserID     = "default"
)

// Store keeps each user's habits, completions and folders in nested bbolt
// buckets: users/<id>/habits, users/<id>/completions/<habitID>,
// users/<id>/folders. Values are JSON.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func userBucket(tx *bbolt.Tx, userID, name string) (*bbolt.Bucket, error) {
	if userID == "" {
		userID = defaultUserID
	}
	users := tx.Bucket([]byte(rootBucket))
	user, err := users.CreateBucketIfNotExists([]byte(userID))
	if err != nil {
		return nil, err
	}
	return user.CreateBucketIfNotExists([]byte(name))
}

// viewBucket is the read-only counterpart of userBucket; a nil result means
// nothing was ever written for this user.
func viewBucket(tx *bbolt.Tx, userID, name string) *bbolt.Bucket {
	if userID == "" {
		userID = defaultUserID
	}
	user := tx.Bucket([]byte(rootBucket)).Bucket([]byte(userID))
	if user == nil {
		return nil
	}
	return user.Bucket([]byte(name))
}

func (s *Store) PutHabit(userID string, h *habit.Habit) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		val, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("marshalling habit %s: %w", h.ID, err)
		}
		return bucket.Put([]byte(h.ID), val)
	})
}

func (s *Store) GetHabit(userID, habitID string) (*habit.Habit, error) {
	var h *habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := viewBucket(tx, userID, habitsBucket)
		if bucket == nil {
			return storage.ErrNotFound
		}
		v := bucket.Get([]byte(habitID))
		if v == nil {
			return storage.ErrNotFound
		}
		h = &habit.Habit{}
		return json.Unmarshal(v, h)
	})
	return h, err
}

func (s *Store) ListHabits(userID string, includeArchived bool) ([]*habit.Habit, error) {
	var out []*habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := viewBucket(tx, userID, habitsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			if h.Archived && !includeArchived {
				return nil
			}
			out = append(out, &h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortHabits(out)
	return out, nil
}

// DeleteHabit removes the habit, cascades to its completions and drops its
// membership from every folder.
func (s *Store) DeleteHabit(userID, habitID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		habits, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if err := habits.Delete([]byte(habitID)); err != nil {
			return err
		}

		completions, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		if completions.Bucket([]byte(habitID)) != nil {
			if err := completions.DeleteBucket([]byte(habitID)); err != nil {
				return err
			}
		}

		folders, err := userBucket(tx, userID, foldersBucket)
		if err != nil {
			return err
		}
		// Collect the membership rewrites first; the bucket must not be
		// mutated while ForEach iterates it.
		rewrites := make(map[string][]byte)
		err = folders.ForEach(func(k, v []byte) error {
			var f habit.Folder
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			kept := f.HabitIDs[:0]
			for _, id := range f.HabitIDs {
				if id != habitID {
					kept = append(kept, id)
				}
			}
			if len(kept) == len(f.HabitIDs) {
				return nil
			}
			f.HabitIDs = kept
			val, err := json.Marshal(&f)
			if err != nil {
				return err
			}
			rewrites[string(k)] = val
			return nil
		})
		if err != nil {
			return err
		}
		for k, val := range rewrites {
			if err := folders.Put([]byte(k), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) PutCompletion(userID string, c habit.Completion) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		completions, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		bucket, err := completions.CreateBucketIfNotExists([]byte(c.HabitID))
		if err != nil {
			return err
		}
		val, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshalling completion %s: %w", c.ID, err)
		}
		return bucket.Put([]byte(c.ID), val)
	})
}

func (s *Store) ListCompletions(userID, habitID string) (habit.Ledger, error) {
	var out habit.Ledger
	err := s.db.View(func(tx *bbolt.Tx) error {
		completions := viewBucket(tx, userID, completionsBucket)
		if completions == nil {
			return nil
		}
		bucket := completions.Bucket([]byte(habitID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var c habit.Completion
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteCompletion(userID, habitID, completionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		completions, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		bucket := completions.Bucket([]byte(habitID))
		if bucket == nil {
			return storage.ErrNotFound
		}
		if bucket.Get([]byte(completionID)) == nil {
			return storage.ErrNotFound
		}
		return bucket.Delete([]byte(completionID))
	})
}

// ResetHistory drops every completion for the habit, leaving the habit
// itself in place.
func (s *Store) ResetHistory(userID, habitID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		completions, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		if completions.Bucket([]byte(habitID)) == nil {
			return nil
		}
		return completions.DeleteBucket([]byte(habitID))
	})
}

func (s *Store) PutFolder(userID string, f *habit.Folder) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, foldersBucket)
		if err != nil {
			return err
		}
		val, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("marshalling folder %s: %w", f.ID, err)
		}
		return bucket.Put([]byte(f.ID), val)
	})
}

func (s *Store) GetFolder(userID, folderID string) (*habit.Folder, error) {
	var f *habit.Folder
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := viewBucket(tx, userID, foldersBucket)
		if bucket == nil {
			return storage.ErrNotFound
		}
		v := bucket.Get([]byte(folderID))
		if v == nil {
			return storage.ErrNotFound
		}
		f = &habit.Folder{}
		return json.Unmarshal(v, f)
	})
	return f, err
}

func (s *Store) ListFolders(userID string) ([]*habit.Folder, error) {
	var out []*habit.Folder
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := viewBucket(tx, userID, foldersBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var f habit.Folder
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			out = append(out, &f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// DeleteFolder removes the folder only; member habits stay.
func (s *Store) DeleteFolder(userID, folderID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, userID, foldersBucket)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(folderID)) == nil {
			return storage.ErrNotFound
		}
		return bucket.Delete([]byte(folderID))
	})
}

func sortHabits(hs []*habit.Habit) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Pinned != hs[j].Pinned {
			return hs[i].Pinned
		}
		if hs[i].DisplayOrder != hs[j].DisplayOrder {
			return hs[i].DisplayOrder < hs[j].DisplayOrder
		}
		return hs[i].CreatedAt.Before(hs[j].CreatedAt)
	})
}

var _ storage.Store = (*Store)(nil)
