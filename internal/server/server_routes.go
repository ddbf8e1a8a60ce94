package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/pkg/habit"
	"github.com/teymia/habitkit/pkg/versioninfo"
)

type habitRequest struct {
	Title        string    `json:"title"`
	Kind         string    `json:"kind"`
	Goal         int       `json:"goal"`
	ActiveDays   int       `json:"active_days"` // 7-bit mask, bit 0 = Monday
	StartDate    time.Time `json:"start_date"`
	ReminderTime string    `json:"reminder_time"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	Pinned       bool      `json:"pinned"`
	DisplayOrder int       `json:"display_order"`
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		http.Error(w, `{"error":"user id is required"}`, http.StatusBadRequest)
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if err := validateHabitRequest(req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"%s"}`, err.Error()), http.StatusBadRequest)
		return
	}

	// Habit cap for non-premium users. Entitlement is a plain boolean from
	// the session; the statistics core knows nothing about it.
	if !premiumFromContext(s.cfg.AuthEnabled, r) {
		existing, err := s.store.ListHabits(userID, false)
		if err != nil {
			logger.Error("Failed to count habits for limit check", "user_id", userID, "error", err)
			http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
			return
		}
		if len(existing) >= s.cfg.FreeHabitLimit {
			http.Error(w, `{"error":"habit limit reached"}`, http.StatusForbidden)
			return
		}
	}

	h := habit.NewHabit(req.Title, habit.Kind(req.Kind), req.Goal,
		habit.WeekdaySetFromMask(req.ActiveDays), req.StartDate)
	h.ReminderTime = req.ReminderTime
	h.Icon = req.Icon
	h.Color = req.Color
	h.Pinned = req.Pinned
	h.DisplayOrder = req.DisplayOrder

	logger.Info("Creating habit", "user_id", userID, "habit_id", h.ID, "title", h.Title)
	if err := s.store.PutHabit(userID, h); err != nil {
		logger.Error("Failed to store habit", "user_id", userID, "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"database write failed"}`, http.StatusInternalServerError)
		return
	}
	s.updateHabitGauge(userID)

	if err := writeJSON(w, http.StatusCreated, h); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		http.Error(w, `{"error":"user id is required"}`, http.StatusBadRequest)
		return
	}
	includeArchived := r.URL.Query().Get("archived") == "1"

	habits, err := s.store.ListHabits(userID, includeArchived)
	if err != nil {
		logger.Error("Failed to list habits", "user_id", userID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	if habits == nil {
		habits = []*habit.Habit{}
	}
	if err := writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits}); err != nil {
		logger.Error("Failed to serialize habit list", "user_id", userID, "error", err)
	}
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	ledger, err := s.store.ListCompletions(userID, h.ID)
	if err != nil {
		logger.Error("Failed to load completions", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	now := s.now()
	resp := HabitGetResponse{
		Habit:   h,
		Today:   h.ProgressOn(now, ledger),
		Percent: h.CompletionPercentOn(now, ledger),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if err := validateHabitRequest(req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"%s"}`, err.Error()), http.StatusBadRequest)
		return
	}

	h.Update(req.Title, habit.Kind(req.Kind), req.Goal,
		habit.WeekdaySetFromMask(req.ActiveDays), req.StartDate,
		req.ReminderTime, req.Icon, req.Color)
	h.Pinned = req.Pinned
	h.DisplayOrder = req.DisplayOrder

	if err := s.store.PutHabit(userID, h); err != nil {
		logger.Error("Failed to update habit", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"database write failed"}`, http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) archiveHabit(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	var req struct {
		Archived bool `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	h.Archived = req.Archived
	if err := s.store.PutHabit(userID, h); err != nil {
		logger.Error("Failed to archive habit", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"database write failed"}`, http.StatusInternalServerError)
		return
	}
	logger.Info("Habit archive state changed", "habit_id", h.ID, "archived", h.Archived)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	habitID := chi.URLParam(r, "habit_id")
	if userID == "" || habitID == "" {
		http.Error(w, `{"error":"user id and habit id are required"}`, http.StatusBadRequest)
		return
	}

	logger.Info("Deleting habit", "user_id", userID, "habit_id", habitID)
	if err := s.store.DeleteHabit(userID, habitID); err != nil {
		logger.Error("Failed to delete habit", "habit_id", habitID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	s.updateHabitGauge(userID)
	w.WriteHeader(http.StatusNoContent)
}

type completionRequest struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
	// Fill, when set, ignores Value and records whatever is left to reach
	// the day's goal (the "complete" shortcut).
	Fill bool `json:"fill"`
}

func (s *Server) logCompletion(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}

	// Serialize the read-modify-write below so two concurrent logs cannot
	// both see the same day total.
	unlock := s.lockHabit(h.ID)
	defer unlock()

	value := req.Value
	if req.Fill {
		ledger, err := s.store.ListCompletions(userID, h.ID)
		if err != nil {
			logger.Error("Failed to load completions", "habit_id", h.ID, "error", err)
			http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
			return
		}
		value = remainingToGoal(h, ledger, req.Date)
		if value == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	c := habit.NewCompletion(h.ID, req.Date, value)
	if err := s.store.PutCompletion(userID, c); err != nil {
		// Optimistic persistence: log and count the failure, keep serving.
		// The response still reflects the attempted record so clients
		// behave as before, but the failure is observable.
		logger.Error("Failed to store completion", "habit_id", h.ID, "error", err)
		persistFailuresTotal.Inc()
	}
	if err := writeJSON(w, http.StatusCreated, c); err != nil {
		logger.Error("Failed to serialize completion", "habit_id", h.ID, "error", err)
	}
}

// remainingToGoal computes the fill value for the complete shortcut. A habit
// with no positive goal fills with a single unit when the day is untouched.
func remainingToGoal(h *habit.Habit, ledger habit.Ledger, d time.Time) int {
	progress := h.ProgressOn(d, ledger)
	if h.Goal <= 0 {
		if progress > 0 {
			return 0
		}
		return 1
	}
	if progress >= h.Goal {
		return 0
	}
	return h.Goal - progress
}

func (s *Server) listCompletions(w http.ResponseWriter, r *http.Request) {
	userID, h, ok := s.loadHabit(w, r)
	if !ok {
		return
	}

	ledger, err := s.store.ListCompletions(userID, h.ID)
	if err != nil {
		logger.Error("Failed to list completions", "habit_id", h.ID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	if ledger == nil {
		ledger = habit.Ledger{}
	}
	resp := CompletionListResponse{HabitID: h.ID, Completions: ledger}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize completions", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	habitID := chi.URLParam(r, "habit_id")
	completionID := chi.URLParam(r, "completion_id")
	if userID == "" || habitID == "" || completionID == "" {
		http.Error(w, `{"error":"user id, habit id and completion id are required"}`, http.StatusBadRequest)
		return
	}

	unlock := s.lockHabit(habitID)
	defer unlock()

	err := s.store.DeleteCompletion(userID, habitID, completionID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"completion not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to delete completion", "habit_id", habitID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetHistory(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	habitID := chi.URLParam(r, "habit_id")
	if userID == "" || habitID == "" {
		http.Error(w, `{"error":"user id and habit id are required"}`, http.StatusBadRequest)
		return
	}

	unlock := s.lockHabit(habitID)
	defer unlock()

	logger.Info("Resetting habit history", "user_id", userID, "habit_id", habitID)
	if err := s.store.ResetHistory(userID, habitID); err != nil {
		logger.Error("Failed to reset history", "habit_id", habitID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	info := versioninfo.VersionInfo{
		Version:   versioninfo.Version,
		BuildDate: versioninfo.BuildDate,
	}
	if err := writeJSON(w, http.StatusOK, info); err != nil {
		logger.Error("Failed to serialize version info", "error", err)
	}
}

// loadHabit resolves the request's habit or writes the error response.
func (s *Server) loadHabit(w http.ResponseWriter, r *http.Request) (string, *habit.Habit, bool) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	habitID := chi.URLParam(r, "habit_id")
	if userID == "" || habitID == "" {
		http.Error(w, `{"error":"user id and habit id are required"}`, http.StatusBadRequest)
		return "", nil, false
	}

	h, err := s.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"habit not found"}`, http.StatusNotFound)
		return "", nil, false
	}
	if err != nil {
		logger.Error("Failed to load habit", "user_id", userID, "habit_id", habitID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return "", nil, false
	}
	return userID, h, true
}

func (s *Server) updateHabitGauge(userID string) {
	habits, err := s.store.ListHabits(userID, false)
	if err != nil {
		logger.Warn("Failed to update active habits metric", "user_id", userID, "error", err)
		return
	}
	UpdateActiveHabitsForUser(userID, len(habits))
}

func validateHabitRequest(req habitRequest) error {
	const maxTitleLength = 60

	if len(req.Title) == 0 || len(req.Title) > maxTitleLength {
		return fmt.Errorf("bad habit title: must be 1-%d characters", maxTitleLength)
	}
	switch habit.Kind(req.Kind) {
	case habit.KindCount, habit.KindTime:
	default:
		return fmt.Errorf("bad habit kind: must be count or time")
	}
	if req.ActiveDays != habit.WeekdaySetFromMask(req.ActiveDays).Mask() {
		return fmt.Errorf("bad active days mask")
	}
	if req.ReminderTime != "" {
		if _, err := time.Parse("15:04", req.ReminderTime); err != nil {
			return fmt.Errorf("bad reminder time: must be HH:MM")
		}
	}
	return nil
}
