package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teymia/habitkit/internal/config"
	"github.com/teymia/habitkit/pkg/habit"
)

// testNow is a Thursday; all handler tests run against this pinned clock.
var testNow = time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	cfg := &config.Config{
		FreeHabitLimit:   3,
		HistoryLimitDays: habit.DefaultHistoryLimit,
	}
	st := newMemStore()
	s := New(st, cfg)
	s.now = func() time.Time { return testNow }
	return s, st
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mustDecode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func habitBody(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"kind":        "count",
		"goal":        2,
		"active_days": 127,
		"start_date":  testNow.AddDate(0, 0, -30),
	}
}

func createTestHabit(t *testing.T, router http.Handler, title string) habit.Habit {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/habits/", habitBody(title))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create habit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var h habit.Habit
	mustDecode(t, rec, &h)
	return h
}

func TestCreateHabit(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	h := createTestHabit(t, router, "read")
	if h.ID == "" {
		t.Fatal("expected generated habit ID")
	}
	if h.Title != "read" || h.Goal != 2 || h.Kind != habit.KindCount {
		t.Fatalf("unexpected habit: %+v", h)
	}
	if h.ActiveDays != habit.AllWeekdays {
		t.Fatalf("expected all weekdays active, got %07b", h.ActiveDays.Mask())
	}
}

func TestCreateHabit_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"empty title", func(b map[string]any) { b["title"] = "" }},
		{"long title", func(b map[string]any) { b["title"] = string(make([]byte, 61)) }},
		{"bad kind", func(b map[string]any) { b["kind"] = "weekly" }},
		{"bad mask", func(b map[string]any) { b["active_days"] = 255 }},
		{"bad reminder", func(b map[string]any) { b["reminder_time"] = "25:70" }},
	}
	for _, tc := range cases {
		body := habitBody("read")
		tc.mutate(body)
		rec := doRequest(t, router, http.MethodPost, "/habits/", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestListHabits_EmptyIsNotNull(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s.Router(), http.MethodGet, "/habits/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HabitListResponse
	mustDecode(t, rec, &resp)
	if resp.Habits == nil || len(resp.Habits) != 0 {
		t.Fatalf("expected empty array, got %v", resp.Habits)
	}
}

func TestGetHabit_TodayProgress(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log completion: expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/habits/"+h.ID+"/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HabitGetResponse
	mustDecode(t, rec, &resp)
	if resp.Today != 1 {
		t.Errorf("expected today progress 1, got %d", resp.Today)
	}
	if resp.Percent != 0.5 {
		t.Errorf("expected 0.5 of the goal, got %.2f", resp.Percent)
	}
}

func TestGetHabit_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s.Router(), http.MethodGet, "/habits/no-such-id/", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateHabit(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	body := habitBody("read more")
	body["goal"] = 5
	body["active_days"] = habit.NewWeekdaySet(habit.Monday, habit.Friday).Mask()
	rec := doRequest(t, router, http.MethodPut, "/habits/"+h.ID+"/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated habit.Habit
	mustDecode(t, rec, &updated)
	if updated.ID != h.ID {
		t.Fatalf("update must not change the ID: %s -> %s", h.ID, updated.ID)
	}
	if updated.Title != "read more" || updated.Goal != 5 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.ActiveDays.Has(habit.Monday) || updated.ActiveDays.Has(habit.Tuesday) {
		t.Fatalf("schedule not applied: %07b", updated.ActiveDays.Mask())
	}
}

func TestArchiveHabit(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/archive",
		map[string]any{"archived": true})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	var resp HabitListResponse
	rec = doRequest(t, router, http.MethodGet, "/habits/", nil)
	mustDecode(t, rec, &resp)
	if len(resp.Habits) != 0 {
		t.Fatalf("archived habit should be hidden by default, got %d", len(resp.Habits))
	}

	rec = doRequest(t, router, http.MethodGet, "/habits/?archived=1", nil)
	mustDecode(t, rec, &resp)
	if len(resp.Habits) != 1 {
		t.Fatalf("archived habit should appear with ?archived=1, got %d", len(resp.Habits))
	}

	// Unarchive brings it back.
	rec = doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/archive",
		map[string]any{"archived": false})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/habits/", nil)
	mustDecode(t, rec, &resp)
	if len(resp.Habits) != 1 {
		t.Fatalf("unarchived habit should be listed again, got %d", len(resp.Habits))
	}
}

func TestDeleteHabit(t *testing.T) {
	s, st := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")
	doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": 1})

	rec := doRequest(t, router, http.MethodDelete, "/habits/"+h.ID+"/", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/habits/"+h.ID+"/", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if ledger, _ := st.ListCompletions("anonymous", h.ID); len(ledger) != 0 {
		t.Fatalf("expected completions removed with habit, got %d", len(ledger))
	}
}

func TestLogCompletion_NegativeClamped(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": -3})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var c habit.Completion
	mustDecode(t, rec, &c)
	if c.Value != 0 {
		t.Fatalf("expected negative value clamped to 0, got %d", c.Value)
	}
}

func TestLogCompletion_Fill(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read") // goal 2

	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	// Fill records only the remainder.
	rec = doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"fill": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var c habit.Completion
	mustDecode(t, rec, &c)
	if c.Value != 1 {
		t.Fatalf("expected fill value 1, got %d", c.Value)
	}

	// Filling an already-complete day records nothing.
	rec = doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"fill": true})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for a no-op fill, got %d", rec.Code)
	}
}

func TestLogCompletion_PersistFailureStillAccepted(t *testing.T) {
	s, st := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	st.failPutCompletion = true
	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("a failed persist still acknowledges the record, got %d", rec.Code)
	}
	var c habit.Completion
	mustDecode(t, rec, &c)
	if c.Value != 1 {
		t.Fatalf("response should carry the attempted record, got %+v", c)
	}
}

func TestDeleteCompletion(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	rec := doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
		map[string]any{"value": 1})
	var c habit.Completion
	mustDecode(t, rec, &c)

	rec = doRequest(t, router, http.MethodDelete,
		fmt.Sprintf("/habits/%s/completions/%s", h.ID, c.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete,
		fmt.Sprintf("/habits/%s/completions/%s", h.ID, c.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a gone completion, got %d", rec.Code)
	}
}

func TestResetHistory(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()
	h := createTestHabit(t, router, "read")

	for i := 0; i < 3; i++ {
		doRequest(t, router, http.MethodPost, "/habits/"+h.ID+"/completions",
			map[string]any{"value": 1, "date": testNow.AddDate(0, 0, -i)})
	}

	rec := doRequest(t, router, http.MethodDelete, "/habits/"+h.ID+"/completions", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/habits/"+h.ID+"/completions", nil)
	var resp CompletionListResponse
	mustDecode(t, rec, &resp)
	if len(resp.Completions) != 0 {
		t.Fatalf("expected history wiped, got %d entries", len(resp.Completions))
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s.Router(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
