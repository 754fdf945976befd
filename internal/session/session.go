// Package session tracks the authenticated identity on the client.
//
// At most one credential exists at a time: it is persisted in the state
// database, attached to the API client for outgoing calls, overwritten on
// login and removed on logout. Startup restore revalidates the persisted
// credential against the server before the session counts as usable; any
// failure demotes silently to anonymous instead of surfacing an error.
package session

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/vitrine-app/vitrine/internal/api"
	"github.com/vitrine-app/vitrine/internal/auth"
	"github.com/vitrine-app/vitrine/internal/model"
	"github.com/vitrine-app/vitrine/internal/store"
)

// State of the session.
type State int

const (
	// StateUnknown is the state before Restore has run.
	StateUnknown State = iota
	// StateAnonymous means no usable credential.
	StateAnonymous
	// StateAuthenticated means a validated user is attached.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the mutex-guarded session store. Create one with New and inject
// it where needed; all mutations go through the methods below.
type Session struct {
	client *api.Client
	db     *sql.DB

	mu    sync.Mutex
	state State
	user  *model.User
}

// New creates a session store in StateUnknown. Call Restore before use.
func New(client *api.Client, db *sql.DB) *Session {
	return &Session{client: client, db: db, state: StateUnknown}
}

// Restore resolves the persisted credential, if any, into a session.
// A missing, expired or rejected credential yields StateAnonymous without
// an error; locally-expired tokens are dropped without a network call.
func (s *Session) Restore(ctx context.Context) State {
	token, err := store.LoadToken(ctx, s.db)
	if err != nil {
		slog.Warn("loading persisted credential failed", "error", err)
		return s.demote(ctx, false)
	}
	if token == "" {
		return s.demote(ctx, false)
	}

	if auth.Expired(token) {
		slog.Info("persisted credential expired, starting anonymous")
		return s.demote(ctx, true)
	}

	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		slog.Info("persisted credential rejected, starting anonymous", "error", err)
		return s.demote(ctx, true)
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()
	slog.Info("session restored", "user", user.Email, "role", user.Role)
	return StateAuthenticated
}

// Login exchanges credentials for a session. On failure the current state is
// left unchanged and the human-readable reason is returned as the error.
func (s *Session) Login(ctx context.Context, email, password string) error {
	token, user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.establish(ctx, token, user)
	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	return nil
}

// Register creates an account and starts its session. Failure leaves the
// current state unchanged.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	token, user, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	s.establish(ctx, token, user)
	slog.Info("user registered", "user", user.Email)
	return nil
}

// Logout clears the persisted credential and the in-memory session. It
// always succeeds and is safe to call repeatedly.
func (s *Session) Logout(ctx context.Context) {
	s.demote(ctx, true)
	slog.Info("user logged out")
}

// Current returns the authenticated user, or nil.
func (s *Session) Current() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAdmin reports whether the session belongs to an admin. This only gates
// which actions the client offers; the server enforces permissions.
func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.IsAdmin()
}

// establish persists the token, attaches it to the client, and records the
// user. A persistence failure is logged but does not fail the session: the
// user is logged in for this run either way.
func (s *Session) establish(ctx context.Context, token string, user *model.User) {
	if err := store.SaveToken(ctx, s.db, token); err != nil {
		slog.Warn("persisting credential failed", "error", err)
	}
	s.client.SetToken(token)

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()
}

// demote drops to anonymous, optionally removing the persisted credential.
func (s *Session) demote(ctx context.Context, dropToken bool) State {
	if dropToken {
		if err := store.DeleteToken(ctx, s.db); err != nil {
			slog.Warn("removing persisted credential failed", "error", err)
		}
	}
	s.client.ClearToken()

	s.mu.Lock()
	s.state = StateAnonymous
	s.user = nil
	s.mu.Unlock()
	return StateAnonymous
}
