package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teymia/habitkit/internal/config"
	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/internal/storage"
)

type Server struct {
	store storage.Store
	cfg   *config.Config

	providers     map[string]*AuthProvider
	sessionCookie *securecookie.SecureCookie
	states        *StateStore
	apiKeys       *APIKeyStore

	// habitLocks serializes completion mutations per habit. Reads go
	// straight to the store; only the read-modify-write paths (log,
	// complete-for-day) funnel through here.
	habitLocks sync.Map // habit ID -> *sync.Mutex

	// now is the reference clock for all statistics; tests pin it.
	now func() time.Time
}

func New(store storage.Store, cfg *config.Config) *Server {
	s := &Server{
		store:   store,
		cfg:     cfg,
		states:  NewStateStore(10 * time.Minute),
		apiKeys: NewAPIKeyStore(),
		now:     time.Now,
	}

	if cfg.AuthEnabled {
		providers, cookie, err := ConfigureOIDCProviders(cfg)
		if err != nil {
			logger.Error("Failed to configure OIDC providers, auth routes disabled", "error", err)
		} else {
			s.providers = providers
			s.sessionCookie = cookie
		}
	}
	return s
}

func (s *Server) lockHabit(habitID string) func() {
	v, _ := s.habitLocks.LoadOrStore(habitID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/version", s.getVersionInfo)

	if s.providers != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/{provider}/login", s.login)
			r.Get("/{provider}/callback", s.callback)
			r.Get("/logout", s.logout)
			r.With(s.authMiddleware).Post("/apikeys", s.createAPIKey)
		})
	}

	r.Route("/habits", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.userAwareMetricsMiddleware)

		r.Post("/", s.createHabit)
		r.Get("/", s.listHabits)
		r.Route("/{habit_id}", func(r chi.Router) {
			r.Get("/", s.getHabit)
			r.Put("/", s.updateHabit)
			r.Delete("/", s.deleteHabit)
			r.Post("/archive", s.archiveHabit)

			r.Post("/completions", s.logCompletion)
			r.Get("/completions", s.listCompletions)
			r.Delete("/completions", s.resetHistory)
			r.Delete("/completions/{completion_id}", s.deleteCompletion)

			r.Get("/summary", s.getHabitSummary)
			r.Get("/chart", s.getChart)
			r.Get("/calendar", s.getCalendar)
		})
	})

	r.Route("/folders", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/", s.createFolder)
		r.Get("/", s.listFolders)
		r.Put("/{folder_id}", s.updateFolder)
		r.Delete("/{folder_id}", s.deleteFolder)
	})

	return r
}
