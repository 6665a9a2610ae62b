package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionBackend stores slots as values of a gorilla session. It is bound to
// a single request/response pair and must not outlive the request.
type SessionBackend struct {
	store sessions.Store
	name  string
	w     http.ResponseWriter
	r     *http.Request
}

// NewSessionBackend binds the named session of r to a backend
func NewSessionBackend(store sessions.Store, name string, w http.ResponseWriter, r *http.Request) *SessionBackend {
	return &SessionBackend{store: store, name: name, w: w, r: r}
}

func (s *SessionBackend) session() (*sessions.Session, error) {
	session, err := s.store.Get(s.r, s.name)
	if err != nil {
		return session, fmt.Errorf("failed to decode session %s: %w", s.name, err)
	}
	return session, nil
}

func (s *SessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}

	raw, ok := session.Values[key]
	if !ok {
		return nil, ErrNotFound
	}

	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("session value %s has type %T", key, raw)
	}
	return []byte(value), nil
}

func (s *SessionBackend) Set(ctx context.Context, key string, value []byte) error {
	session, err := s.session()
	if session == nil {
		return err
	}

	session.Values[key] = string(value)
	if err := session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionBackend) Delete(ctx context.Context, key string) error {
	session, err := s.session()
	if session == nil {
		return err
	}

	delete(session.Values, key)
	if err := session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionBackend) Name() string { return "session" }
