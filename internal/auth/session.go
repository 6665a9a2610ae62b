// Package auth holds the caller's opaque bearer credential.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/logging"
	"storefront/internal/storage"
)

// CredentialKey is the durable slot the bearer token lives in
const CredentialKey = "auth_token"

// Session is the single writer of the current credential. The token is
// opaque: it is stored and forwarded, never parsed.
type Session struct {
	mu         sync.RWMutex
	credential string
	backend    storage.Backend
	logger     *zap.Logger
}

// NewSession creates a session seeded from the credential stored in backend
func NewSession(ctx context.Context, backend storage.Backend, logger *zap.Logger) *Session {
	s := &Session{
		backend: backend,
		logger:  logging.Named(logger, "auth"),
	}

	data, err := backend.Get(ctx, CredentialKey)
	switch {
	case err == nil:
		s.credential = strings.TrimSpace(string(data))
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Warn("stored credential unreadable", zap.Error(err))
	}
	return s
}

// Credential returns the current bearer token, or "" when logged out
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Authenticated reports whether a credential is present
func (s *Session) Authenticated() bool {
	return s.Credential() != ""
}

// SetCredential stores a new bearer token. Persistence failures are logged;
// the token stays usable for the current session.
func (s *Session) SetCredential(ctx context.Context, token string) {
	token = strings.TrimSpace(token)

	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()

	if err := s.backend.Set(ctx, CredentialKey, []byte(token)); err != nil {
		s.logger.Warn("failed to persist credential", zap.Error(err))
	}
}

// Logout forgets the credential
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.credential = ""
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, CredentialKey); err != nil {
		s.logger.Warn("failed to remove stored credential", zap.Error(err))
	}
}
