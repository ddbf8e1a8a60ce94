package server

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"

	"github.com/teymia/habitkit/internal/config"
	"github.com/teymia/habitkit/internal/logger"
)

const (
	sessionMaxAge = 24 * time.Hour
	apiKeyPrefix  = "hbk_"
	premiumClaim  = "premium" // boolean claim carried in the ID token
)

type userCtxKey struct{}

// User is the authenticated principal. Premium is the entitlement boolean
// the paywall exposes; handlers consult it for policy checks like the free
// habit limit, the statistics core never sees it.
type User struct {
	Subject string
	Email   string
	UserID  string
	Premium bool
	Claims  map[string]any
}

type AuthProvider struct {
	name       string
	oauth2     *oauth2.Config
	oidcProv   *oidc.Provider
	idVerifier *oidc.IDTokenVerifier
}

type authState struct {
	Verifier string
	Return   string
	ExpireAt time.Time
}

type StateStore struct {
	ttl time.Duration
	mu  sync.Mutex
	m   map[string]authState
}

func NewStateStore(ttl time.Duration) *StateStore {
	s := &StateStore{ttl: ttl, m: make(map[string]authState)}
	go func() { // janitor
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()
			s.mu.Lock()
			for k, v := range s.m {
				if now.After(v.ExpireAt) {
					delete(s.m, k)
				}
			}
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *StateStore) Put(key string, v authState) {
	s.mu.Lock()
	s.m[key] = v
	s.mu.Unlock()
}

func (s *StateStore) GetAndDelete(key string) (authState, bool) {
	s.mu.Lock()
	v, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	s.mu.Unlock()
	if ok && time.Now().After(v.ExpireAt) {
		return authState{}, false
	}
	return v, ok
}

func ConfigureOIDCProviders(cfg *config.Config) (map[string]*AuthProvider, *securecookie.SecureCookie, error) {
	logger.Info("Configuring OIDC providers", "count", len(cfg.OIDCProviders))
	providers := make(map[string]*AuthProvider)

	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)
	if hashKey == nil || blockKey == nil {
		return nil, nil, fmt.Errorf("failed to generate secure cookie keys")
	}
	sessionCookie := securecookie.New(hashKey, blockKey)
	sessionCookie.MaxAge(int(sessionMaxAge.Seconds()))

	for _, p := range cfg.OIDCProviders {
		prov, err := oidc.NewProvider(context.Background(), p.Issuer)
		if err != nil {
			logger.Error("Failed to create OIDC provider", "id", p.Id, "error", err)
			return nil, nil, fmt.Errorf("failed to create OIDC provider %s: %w", p.Id, err)
		}

		providers[p.Id] = &AuthProvider{
			name:       p.Name,
			oidcProv:   prov,
			idVerifier: prov.Verifier(&oidc.Config{ClientID: p.ClientID}),
			oauth2: &oauth2.Config{
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				Endpoint:     prov.Endpoint(),
				RedirectURL:  p.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			},
		}
		logger.Info("OIDC provider configured", "id", p.Id, "name", p.Name)
	}

	return providers, sessionCookie, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		var rawIDToken, providerID string

		// Session cookie first.
		if c, err := r.Cookie("session"); err == nil && s.sessionCookie != nil {
			var prefixedToken string
			if err := s.sessionCookie.Decode("session", c.Value, &prefixedToken); err == nil {
				if pID, token, err := parseProviderToken(prefixedToken); err == nil {
					providerID, rawIDToken = pID, token
				}
			}
		}

		// Then API key or provider-prefixed Bearer token.
		if rawIDToken == "" {
			if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
				token := strings.TrimPrefix(ah, "Bearer ")
				if strings.HasPrefix(token, apiKeyPrefix) {
					if user, ok := s.apiKeys.Authenticate(token); ok {
						next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, user)))
						return
					}
					logger.Debug("API key authentication failed")
					s.handleAuthFailure(w, r, false)
					return
				}
				if pID, token, err := parseProviderToken(token); err == nil {
					if _, exists := s.providers[pID]; exists {
						providerID, rawIDToken = pID, token
					}
				}
			}
		}

		if rawIDToken == "" || providerID == "" {
			s.handleAuthFailure(w, r, false)
			return
		}

		idTok, err := s.providers[providerID].idVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			logger.Debug("ID token verification failed", "provider", providerID, "error", err)
			s.handleAuthFailure(w, r, true)
			return
		}

		var claims map[string]any
		if err := idTok.Claims(&claims); err != nil {
			logger.Error("Failed to extract claims from token", "error", err)
			s.handleAuthFailure(w, r, true)
			return
		}
		u := &User{
			Subject: idTok.Subject,
			Email:   strClaim(claims, "email"),
			UserID:  userIDFromClaims(claims),
			Premium: boolClaim(claims, premiumClaim),
			Claims:  claims,
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u)))
	})
}

func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request, clearCookie bool) {
	if clearCookie {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	}

	accept := r.Header.Get("Accept")
	if r.Method == http.MethodGet && strings.Contains(accept, "text/html") {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	if clearCookie {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="habitkit"`)
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// parseProviderToken splits a "provider:jwt" token.
func parseProviderToken(token string) (providerID, jwt string, err error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid token format: expected 'provider:jwt'")
	}
	return parts[0], parts[1], nil
}

func strClaim(m map[string]any, k string) string {
	if v, ok := m[k].(string); ok {
		return v
	}
	return ""
}

func boolClaim(m map[string]any, k string) bool {
	v, _ := m[k].(bool)
	return v
}

// userIDFromClaims derives a stable user ID from issuer and subject.
func userIDFromClaims(claims map[string]any) string {
	iss, ok := claims["iss"].(string)
	if !ok {
		return ""
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return ""
	}
	hash := sha256.Sum256([]byte(iss + "|" + sub))
	return fmt.Sprintf("user-%x", hash[:8])
}

// userIDFromContext extracts the user ID, or "anonymous" when auth is off.
func userIDFromContext(authEnabled bool, r *http.Request) string {
	if !authEnabled {
		return "anonymous"
	}
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok {
		logger.Error("No user in context")
		return ""
	}
	return user.UserID
}

// premiumFromContext is the entitlement query. With auth disabled there is
// no paywall, so everything is allowed.
func premiumFromContext(authEnabled bool, r *http.Request) bool {
	if !authEnabled {
		return true
	}
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	return ok && user.Premium
}
