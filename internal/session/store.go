package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vitalcare/clinic-portal/internal/clinicapi"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/scheduling"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

// ErrNoSession is returned by a Persister when nothing is stored.
var ErrNoSession = errors.New("session: no persisted session")

// AuthAPI is the slice of the clinic API client the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*scheduling.User, error)
}

// Persister stores the signed session token so identity survives restarts.
type Persister interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Store owns the current authenticated user. It is created once at startup,
// injected into every consumer, and lives for the process lifetime; logout
// resets its fields rather than reconstructing it.
type Store struct {
	api       AuthAPI
	persister Persister
	secret    []byte
	notify    *notifications.Queue
	logger    *logging.Logger

	mu            sync.RWMutex
	user          *scheduling.User
	authenticated bool

	resetHooks []func()
}

// NewStore creates the session store. Call Restore afterwards to pick up a
// previously persisted identity.
func NewStore(api AuthAPI, persister Persister, secret []byte, notify *notifications.Queue, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		api:       api,
		persister: persister,
		secret:    secret,
		notify:    notify,
		logger:    logger.With("component", "session"),
	}
}

// OnLogout registers a hook run as part of the full state reset after
// logout. Hooks must be registered before the store is shared.
func (s *Store) OnLogout(hook func()) {
	s.resetHooks = append(s.resetHooks, hook)
}

// Restore attempts to load a previously persisted identity. Any failure —
// nothing stored, unreadable persister, bad signature, malformed user —
// fails open to the logged-out state and never returns an error.
func (s *Store) Restore(ctx context.Context) {
	if s.persister == nil {
		return
	}
	token, err := s.persister.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.logger.Warn("session restore failed", "error", err)
		}
		return
	}
	user, err := parseUser(s.secret, token)
	if err != nil {
		s.logger.Warn("discarding unparsable persisted session", "error", err)
		if clearErr := s.persister.Clear(ctx); clearErr != nil {
			s.logger.Warn("failed to clear persisted session", "error", clearErr)
		}
		return
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()
	s.logger.Info("session restored", "user_id", user.ID, "role", user.Role)
}

// Login sends the credentials to the authentication endpoint. It reports
// success as a boolean and never raises: rejections and connection failures
// surface only as notifications, and state stays unauthenticated.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		s.notify.Error(loginFailureMessage(err))
		return false
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()

	s.persist(ctx, *user)
	s.notify.Success(fmt.Sprintf("Welcome %s", user.Name))
	s.logger.Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return true
}

// Logout clears the user, the authenticated flag, and the persisted
// identity, then runs the registered reset hooks so no stale state from the
// previous session survives.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear persisted session", "error", err)
		}
	}
	for _, hook := range s.resetHooks {
		hook()
	}
	s.notify.Info("Session closed successfully")
}

// Current returns the authenticated user, if any.
func (s *Store) Current() (scheduling.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated || s.user == nil {
		return scheduling.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) persist(ctx context.Context, user scheduling.User) {
	if s.persister == nil {
		return
	}
	token, err := signUser(s.secret, user, time.Now())
	if err != nil {
		s.logger.Warn("failed to sign session token", "error", err)
		return
	}
	if err := s.persister.Save(ctx, token); err != nil {
		// Login still succeeds; only restart restoration is lost.
		s.logger.Warn("failed to persist session", "error", err)
	}
}

func loginFailureMessage(err error) string {
	var apiErr *clinicapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid credentials. Please try again."
	}
	return "Connection error with the server."
}
