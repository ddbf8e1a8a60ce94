package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/teymia/habitkit/internal/logger"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	provider, ok := s.providers[id]
	if !ok {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	// PKCE challenge
	verifier := make([]byte, 48)
	if _, err := rand.Read(verifier); err != nil {
		http.Error(w, "pkce gen failed", http.StatusInternalServerError)
		return
	}
	verifierStr := base64.RawURLEncoding.EncodeToString(verifier)
	hash := sha256.Sum256([]byte(verifierStr))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "state gen failed", http.StatusInternalServerError)
		return
	}
	st := hex.EncodeToString(stateBytes)

	// Keep the post-login return path relative.
	ret := r.URL.Query().Get("return")
	if ret == "" {
		ret = "/"
	} else if u, err := url.Parse(ret); err != nil || u.IsAbs() || u.Host != "" {
		ret = "/"
	}

	s.states.Put(st, authState{
		Verifier: verifierStr,
		Return:   ret,
		ExpireAt: time.Now().Add(5 * time.Minute),
	})

	authURL := provider.oauth2.AuthCodeURL(
		st,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	provider, ok := s.providers[id]
	if !ok {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}

	st := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if st == "" || code == "" {
		http.Error(w, "missing state or code", http.StatusBadRequest)
		return
	}

	saved, ok := s.states.GetAndDelete(st)
	if !ok || saved.Verifier == "" {
		http.Error(w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	tok, err := provider.oauth2.Exchange(
		r.Context(),
		code,
		oauth2.SetAuthURLParam("code_verifier", saved.Verifier),
	)
	if err != nil {
		logger.Warn("OIDC code exchange failed", "provider", id, "error", err)
		http.Error(w, "code exchange failed", http.StatusBadGateway)
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		http.Error(w, "no id_token in response", http.StatusBadGateway)
		return
	}
	if _, err := provider.idVerifier.Verify(r.Context(), rawIDToken); err != nil {
		http.Error(w, "id_token invalid", http.StatusUnauthorized)
		return
	}

	val, err := s.sessionCookie.Encode("session", id+":"+rawIDToken)
	if err != nil {
		logger.Error("Failed to encode session cookie", "error", err)
		http.Error(w, "session encode failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionMaxAge.Seconds()),
	})
	http.Redirect(w, r, saved.Return, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}

// createAPIKey issues a bearer key bound to the session's user and premium
// entitlement. Only the hash is kept server-side.
func (s *Server) createAPIKey(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	key, err := generateAPIKey()
	if err != nil {
		logger.Error("Failed to generate API key", "error", err)
		http.Error(w, "key generation failed", http.StatusInternalServerError)
		return
	}
	s.apiKeys.Add(key, user.UserID, user.Premium)
	logger.Info("Issued API key", "user_id", user.UserID)

	if err := writeJSON(w, http.StatusCreated, APIKeyResponse{APIKey: key}); err != nil {
		logger.Error("Failed to serialize API key response", "error", err)
	}
}
