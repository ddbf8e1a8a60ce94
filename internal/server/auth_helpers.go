package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
)

func hashAPIKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

func truncateHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func generateAPIKey() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

type apiKeyRecord struct {
	UserID  string
	Premium bool
}

// APIKeyStore keeps sha256 hashes of issued keys in memory. Keys do not
// survive a restart; clients re-issue via /auth/apikeys.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]apiKeyRecord
}

func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{keys: make(map[string]apiKeyRecord)}
}

func (s *APIKeyStore) Add(apiKey, userID string, premium bool) {
	s.mu.Lock()
	s.keys[hashAPIKey(apiKey)] = apiKeyRecord{UserID: userID, Premium: premium}
	s.mu.Unlock()
}

// Authenticate resolves an API key to its user, or reports failure.
func (s *APIKeyStore) Authenticate(apiKey string) (*User, bool) {
	keyHash := hashAPIKey(apiKey)
	s.mu.RLock()
	rec, ok := s.keys[keyHash]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &User{
		UserID:  rec.UserID,
		Subject: "apikey:" + truncateHash(keyHash),
		Premium: rec.Premium,
		Claims:  map[string]any{"auth_method": "api_key"},
	}, true
}
