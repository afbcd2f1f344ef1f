// Package session holds the client's authentication state.
//
// Store is the single owner of "who is logged in": the current user, the
// loading flag raised until startup bootstrap finishes, and the persisted
// bearer token. It is the only component that writes the token. Readers
// take immutable Snapshots.
//
// Every identity transition (login, register, logout, invalidation of a
// stored token) advances the session epoch. Callers that issue requests on
// behalf of the session capture the epoch first and drop responses that
// arrive after it moved.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/certportal/internal/logging"
	"github.com/go-playground/validator/v10"
)

const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgMissingCredentials = "Email and password are required"
)

var (
	// ErrNotAuthenticated is returned by Refresh when there is no session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrStale means the session changed while a request was in flight and
	// its response was dropped.
	ErrStale = errors.New("session changed while request was in flight")
)

// AuthAPI is the part of the backend the store needs.
type AuthAPI interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*client.AuthResponse, error)
}

// Snapshot is a consistent, read-only view of the session.
type Snapshot struct {
	User    *models.User
	Loading bool
	Epoch   uint64
}

// Authenticated reports whether a user is present.
func (s Snapshot) Authenticated() bool { return s.User != nil }

// Result is the outcome of Login or Register. Message is set on failure
// and prefers the backend's text.
type Result struct {
	Success bool
	User    *models.User
	Message string
}

type credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Store is the session store. The zero value is not usable; use NewStore.
type Store struct {
	api      AuthAPI
	tokens   tokenstore.Store
	log      logging.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	user    *models.User
	loading bool
	epoch   uint64

	readyOnce sync.Once
	ready     chan struct{}
}

// NewStore returns a store in its initial state: no user, loading.
func NewStore(api AuthAPI, tokens tokenstore.Store, log logging.Logger) *Store {
	return &Store{
		api:      api,
		tokens:   tokens,
		log:      log.With("component", "session"),
		validate: validator.New(),
		loading:  true,
		ready:    make(chan struct{}),
	}
}

// Snapshot returns the current state. The user is a copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user.Clone(), Loading: s.loading, Epoch: s.epoch}
}

// Epoch returns the current session epoch.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Ready is closed once the first bootstrap has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// setUserLocked installs u and advances the epoch. Callers hold s.mu.
func (s *Store) setUserLocked(u *models.User) {
	s.user = u.Clone()
	s.epoch++
}

func (s *Store) finishLoadingLocked() {
	if s.loading {
		s.loading = false
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// Bootstrap restores the session from the persisted token. It never fails:
// any problem leaves the session logged out. Loading is cleared when it
// returns.
//
// A login or logout that completes while the whoami call is in flight wins;
// the bootstrap result is then discarded.
func (s *Store) Bootstrap(ctx context.Context) {
	started := s.Epoch()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn(ctx, "reading stored token failed", "error", err)
		token = ""
	}

	if token == "" {
		s.mu.Lock()
		s.finishLoadingLocked()
		s.mu.Unlock()
		s.log.Debug(ctx, "no stored token")
		return
	}

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.finishLoadingLocked()

	if s.epoch != started {
		s.log.Debug(ctx, "session changed during bootstrap, result discarded")
		return
	}

	if err != nil || user == nil {
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.log.Warn(ctx, "clearing stored token failed", "error", cerr)
		}
		if s.user != nil {
			s.setUserLocked(nil)
		}
		s.log.Info(ctx, "stored token rejected, starting logged out", "error", err)
		return
	}

	s.setUserLocked(user)
	s.log.Info(ctx, "session restored", "user", user.Email, "role", user.Role)
}

// Login authenticates with the backend. On success the token is persisted
// and the user installed; on failure the session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return Result{Message: MsgMissingCredentials}
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Info(ctx, "login failed", "error", err)
		return Result{Message: client.ErrorMessage(err, MsgLoginFailed)}
	}
	return s.establish(ctx, resp, MsgLoginFailed)
}

// Register creates an account and logs into it. Same contract as Login.
func (s *Store) Register(ctx context.Context, email, password, name string) Result {
	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return Result{Message: MsgMissingCredentials}
	}

	resp, err := s.api.Register(ctx, email, password, name)
	if err != nil {
		s.log.Info(ctx, "registration failed", "error", err)
		return Result{Message: client.ErrorMessage(err, MsgRegistrationFailed)}
	}
	return s.establish(ctx, resp, MsgRegistrationFailed)
}

func (s *Store) establish(ctx context.Context, resp *client.AuthResponse, fallback string) Result {
	if resp == nil || resp.Token == "" || resp.User == nil {
		return Result{Message: fallback}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Token and user change together so a reader never sees a user
	// without a stored token.
	if err := s.tokens.Save(ctx, resp.Token); err != nil {
		s.log.Error(ctx, "persisting token failed", "error", err)
		return Result{Message: fallback}
	}
	s.setUserLocked(resp.User)
	s.log.Info(ctx, "logged in", "user", resp.User.Email, "role", resp.User.Role)

	return Result{Success: true, User: resp.User.Clone()}
}

// Logout clears the token and the user. It does not call the backend and
// cannot fail; a storage error is logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn(ctx, "clearing stored token failed", "error", err)
	}
	s.setUserLocked(nil)
	s.log.Info(ctx, "logged out")
}

// Refresh re-reads the current user (reward points, role) from the backend.
// A rejected token logs the session out; other failures leave it as is.
func (s *Store) Refresh(ctx context.Context) (*models.User, error) {
	snap := s.Snapshot()
	if snap.User == nil {
		return nil, ErrNotAuthenticated
	}

	user, err := s.api.Me(ctx)
	if err == nil && user == nil {
		err = client.ErrMalformedResponse
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != snap.Epoch {
		return nil, ErrStale
	}

	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			if cerr := s.tokens.Clear(ctx); cerr != nil {
				s.log.Warn(ctx, "clearing stored token failed", "error", cerr)
			}
			s.setUserLocked(nil)
			s.log.Info(ctx, "token rejected on refresh, logged out")
		}
		return nil, err
	}

	// Same identity: update in place without moving the epoch.
	s.user = user.Clone()
	return user.Clone(), nil
}
