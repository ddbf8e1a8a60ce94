package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teymia/habitkit/internal/config"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := generateAPIKey()
	if err != nil {
		t.Fatalf("generateAPIKey failed: %v", err)
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		t.Fatalf("expected %q prefix, got %q", apiKeyPrefix, key)
	}
	other, _ := generateAPIKey()
	if key == other {
		t.Fatal("two generated keys should differ")
	}
}

func TestAPIKeyStore(t *testing.T) {
	store := NewAPIKeyStore()
	store.Add("hbk_test-key", "user-abc", true)

	user, ok := store.Authenticate("hbk_test-key")
	if !ok {
		t.Fatal("expected key to authenticate")
	}
	if user.UserID != "user-abc" || !user.Premium {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, ok := store.Authenticate("hbk_wrong-key"); ok {
		t.Fatal("unknown key should not authenticate")
	}
}

func TestParseProviderToken(t *testing.T) {
	p, jwt, err := parseProviderToken("google:abc.def.ghi")
	if err != nil || p != "google" || jwt != "abc.def.ghi" {
		t.Fatalf("unexpected parse result: %q %q %v", p, jwt, err)
	}

	for _, bad := range []string{"", "no-colon", ":jwt", "provider:"} {
		if _, _, err := parseProviderToken(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestUserIDFromClaims(t *testing.T) {
	claims := map[string]any{"iss": "https://issuer.example", "sub": "sub-1"}
	a := userIDFromClaims(claims)
	b := userIDFromClaims(claims)
	if a == "" || a != b {
		t.Fatalf("expected a stable derived ID, got %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "user-") {
		t.Fatalf("unexpected ID shape: %q", a)
	}

	other := userIDFromClaims(map[string]any{"iss": "https://issuer.example", "sub": "sub-2"})
	if a == other {
		t.Fatal("different subjects should not share an ID")
	}
	if got := userIDFromClaims(map[string]any{"sub": "sub-1"}); got != "" {
		t.Fatalf("missing issuer should yield empty ID, got %q", got)
	}
}

func authedRequest(t *testing.T, router http.Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.Config{AuthEnabled: true, FreeHabitLimit: 3}
	s := New(newMemStore(), cfg)
	router := s.Router()

	rec := authedRequest(t, router, http.MethodGet, "/habits/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected a WWW-Authenticate challenge")
	}

	rec = authedRequest(t, router, http.MethodGet, "/habits/", "hbk_unknown", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an unknown key, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_ScopesUser(t *testing.T) {
	cfg := &config.Config{AuthEnabled: true, FreeHabitLimit: 3}
	s := New(newMemStore(), cfg)
	s.apiKeys.Add("hbk_alice", "user-alice", true)
	s.apiKeys.Add("hbk_bob", "user-bob", true)
	router := s.Router()

	rec := authedRequest(t, router, http.MethodPost, "/habits/", "hbk_alice", habitBody("read"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp HabitListResponse
	rec = authedRequest(t, router, http.MethodGet, "/habits/", "hbk_alice", nil)
	mustDecode(t, rec, &resp)
	if len(resp.Habits) != 1 {
		t.Fatalf("alice should see her habit, got %d", len(resp.Habits))
	}

	rec = authedRequest(t, router, http.MethodGet, "/habits/", "hbk_bob", nil)
	mustDecode(t, rec, &resp)
	if len(resp.Habits) != 0 {
		t.Fatalf("bob should see no habits, got %d", len(resp.Habits))
	}
}

func TestFreeHabitLimit(t *testing.T) {
	cfg := &config.Config{AuthEnabled: true, FreeHabitLimit: 3}
	s := New(newMemStore(), cfg)
	s.apiKeys.Add("hbk_free", "user-free", false)
	s.apiKeys.Add("hbk_premium", "user-premium", true)
	router := s.Router()

	for i := 0; i < 3; i++ {
		rec := authedRequest(t, router, http.MethodPost, "/habits/", "hbk_free", habitBody("read"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("habit %d: expected 201, got %d", i+1, rec.Code)
		}
	}
	rec := authedRequest(t, router, http.MethodPost, "/habits/", "hbk_free", habitBody("one too many"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 over the free limit, got %d", rec.Code)
	}

	// Premium users are not capped.
	for i := 0; i < 5; i++ {
		rec := authedRequest(t, router, http.MethodPost, "/habits/", "hbk_premium", habitBody("read"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("premium habit %d: expected 201, got %d", i+1, rec.Code)
		}
	}

	// Archived habits free up a slot.
	var listResp HabitListResponse
	recList := authedRequest(t, router, http.MethodGet, "/habits/", "hbk_free", nil)
	mustDecode(t, recList, &listResp)
	recArch := authedRequest(t, router, http.MethodPost,
		"/habits/"+listResp.Habits[0].ID+"/archive", "hbk_free", map[string]any{"archived": true})
	if recArch.Code != http.StatusNoContent {
		t.Fatalf("archive: expected 204, got %d", recArch.Code)
	}
	rec = authedRequest(t, router, http.MethodPost, "/habits/", "hbk_free", habitBody("replacement"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after archiving, got %d", rec.Code)
	}
}

func TestStateStore(t *testing.T) {
	store := NewStateStore(time.Minute)
	store.Put("state-1", authState{Verifier: "v", ExpireAt: time.Now().Add(time.Minute)})

	st, ok := store.GetAndDelete("state-1")
	if !ok || st.Verifier != "v" {
		t.Fatalf("expected stored state back, got %+v ok=%v", st, ok)
	}
	if _, ok := store.GetAndDelete("state-1"); ok {
		t.Fatal("state should be single-use")
	}

	store.Put("stale", authState{ExpireAt: time.Now().Add(-time.Minute)})
	if _, ok := store.GetAndDelete("stale"); ok {
		t.Fatal("expired state should not be returned")
	}
}
