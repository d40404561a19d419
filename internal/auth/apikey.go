// Package auth carries the minimal admin guard mounted in front of
// mutating routes. Full authentication is the surrounding system's
// concern.
package auth

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const headerAPIKey = "X-Api-Key"

// APIKeyGuard verifies the admin API key against a stored bcrypt hash.
type APIKeyGuard struct {
	hash   []byte
	logger *slog.Logger
}

// NewAPIKeyGuard builds a guard. An empty hash disables the check.
func NewAPIKeyGuard(hash string, logger *slog.Logger) *APIKeyGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyGuard{hash: []byte(hash), logger: logger}
}

// Require rejects requests whose API key does not match the stored hash.
func (g *APIKeyGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.hash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(headerAPIKey)
		if key == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(key)); err != nil {
			g.logger.Warn("admin api key rejected", slog.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
