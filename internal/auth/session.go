package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Session is the console's view of the logged-in admin: it owns the user
// token, persists it to a TokenStore and tells watchers when it changes.
// It also stands in for the login prompt: OpenAuthModal hands control to
// whatever prompt handler the front end registered.
type Session struct {
	store TokenStore
	key   string

	mu       sync.Mutex
	token    string
	prompts  int
	onPrompt func()
	watchers []func(prev, next string)
}

// NewSession loads the currently persisted token from store.
func NewSession(ctx context.Context, store TokenStore, key string) (*Session, error) {
	tok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &Session{store: store, key: key, token: tok}, nil
}

// Token reads the bearer token from the persisted store.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx, s.key)
}

// UserToken is the in-process token value last set through the session.
func (s *Session) UserToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// OnAuthRequired registers the prompt shown by OpenAuthModal.
func (s *Session) OnAuthRequired(fn func()) {
	s.mu.Lock()
	s.onPrompt = fn
	s.mu.Unlock()
}

func (s *Session) OpenAuthModal() {
	s.mu.Lock()
	s.prompts++
	fn := s.onPrompt
	s.mu.Unlock()

	log.Warn().Msg("authentication required")
	if fn != nil {
		fn()
	}
}

// Prompts reports how many times the auth modal was opened.
func (s *Session) Prompts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}

// Watch registers fn for token transitions. fn is called synchronously.
func (s *Session) Watch(fn func(prev, next string)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Session) SetUserToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, s.key, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if c, err := Inspect(token); err == nil {
		ev := log.Info().Str("subject", c.Subject)
		if c.Expired(time.Now()) {
			ev = log.Warn().Str("subject", c.Subject).Time("expired_at", c.ExpiresAt)
		}
		ev.Msg("user token set")
	}
	s.swap(token)
	return nil
}

func (s *Session) ClearUserToken(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.swap("")
	return nil
}

func (s *Session) swap(next string) {
	s.mu.Lock()
	prev := s.token
	s.token = next
	watchers := append(([]func(prev, next string))(nil), s.watchers...)
	s.mu.Unlock()

	if prev == next {
		return
	}
	for _, fn := range watchers {
		fn(prev, next)
	}
}
