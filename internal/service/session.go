package service

// SESSION STORE:
// The session is three observable values (token, user, expiry) mirrored into
// a KeyValueStore. Two derived values sit on top:
//
//   IsAuthenticated = token != ""
//   IsAdmin         = user != nil && user.Role == ADMIN
//
// WRITE-THROUGH:
// Every Set on a session signal is followed, synchronously, by a write to the
// store (or a delete when the value is cleared). There is no "save" method to
// forget to call; the store always matches memory.
//
// LOAD:
// At construction the store is read back. A user record that is not valid
// JSON, or an expiry in the past, ends the session right there: both token
// and user are cleared. A broken record never turns into an error for the
// caller, only into a logged-out state.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/form"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/signal"
)

// AuthAPI is the part of the remote API the session needs.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
}

// Session messages.
const (
	MsgLoggedOut          = "You have been logged out successfully"
	MsgWelcomeBack        = "Welcome back!"
	MsgWelcomeAboard      = "Welcome aboard!"
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
)

// ErrNoSession is returned by Token when nobody is logged in.
var ErrNoSession = apperror.Unauthorized("not logged in")

// SessionStore owns the authentication state.
type SessionStore struct {
	token     *signal.Signal[string]
	user      *signal.Signal[*model.User]
	expiresAt *signal.Signal[time.Time]

	isAuthenticated *signal.Computed[bool]
	isAdmin         *signal.Computed[bool]

	store    repository.KeyValueStore
	api      AuthAPI
	notifier *NotificationService
	logger   *slog.Logger
	now      func() time.Time
	unsubs   []func()
}

// NewSessionStore loads any persisted session and starts write-through.
// Only a failing store backend is an error; bad data is not.
func NewSessionStore(ctx context.Context, store repository.KeyValueStore, api AuthAPI, notifier *NotificationService, logger *slog.Logger) (*SessionStore, error) {
	s := &SessionStore{
		store:    store,
		api:      api,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}

	token, user, expiresAt, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.token = signal.New(token)
	s.user = signal.New(user)
	s.expiresAt = signal.New(expiresAt)

	s.isAuthenticated = signal.Derive(func() bool {
		return s.token.Get() != ""
	}, s.token)
	s.isAdmin = signal.Derive(func() bool {
		return s.user.Get().IsAdmin()
	}, s.user)

	s.unsubs = append(s.unsubs,
		s.token.Subscribe(func(v string) { s.persist(repository.KeyAuthToken, v) }),
		s.user.Subscribe(func(u *model.User) { s.persistUser(u) }),
		s.expiresAt.Subscribe(func(t time.Time) { s.persistExpiry(t) }),
	)

	// A session that failed to load may have left stale keys behind.
	if token == "" {
		s.clearPersisted(ctx)
	}

	return s, nil
}

// load reads the three keys and decides whether they form a usable session.
func (s *SessionStore) load(ctx context.Context) (string, *model.User, time.Time, error) {
	token, _, err := s.store.Get(ctx, repository.KeyAuthToken)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("loading session token: %w", err)
	}
	rawUser, hasUser, err := s.store.Get(ctx, repository.KeyAuthUser)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("loading session user: %w", err)
	}
	rawExpiry, hasExpiry, err := s.store.Get(ctx, repository.KeyAuthExpiresAt)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("loading session expiry: %w", err)
	}

	var user *model.User
	if hasUser && rawUser != "" && rawUser != "null" {
		var u model.User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			s.logger.Warn("discarding corrupt stored user",
				slog.String("error", apperror.DecodeFailed("stored user", err).Error()))
			return "", nil, time.Time{}, nil
		}
		user = &u
	}

	var expiresAt time.Time
	if hasExpiry && rawExpiry != "" {
		t, err := time.Parse(time.RFC3339Nano, rawExpiry)
		if err != nil {
			s.logger.Warn("ignoring corrupt stored expiry", slog.String("value", rawExpiry))
		} else {
			expiresAt = t
		}
	}

	if token != "" && !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		s.logger.Info("stored session expired", slog.Time("expiredAt", expiresAt))
		return "", nil, time.Time{}, nil
	}
	if token == "" {
		return "", nil, time.Time{}, nil
	}

	return token, user, expiresAt, nil
}

// ---- read side ----

// AccessToken returns the raw bearer token, "" when logged out.
func (s *SessionStore) AccessToken() string { return s.token.Get() }

// User returns the current user or nil. Treat the value as read-only.
func (s *SessionStore) User() *model.User { return s.user.Get() }

// ExpiresAt is the zero time when unknown.
func (s *SessionStore) ExpiresAt() time.Time { return s.expiresAt.Get() }

func (s *SessionStore) IsAuthenticated() bool { return s.isAuthenticated.Get() }

func (s *SessionStore) IsAdmin() bool { return s.isAdmin.Get() }

// Authenticated is the observable form of IsAuthenticated.
func (s *SessionStore) Authenticated() signal.Readable[bool] { return s.isAuthenticated }

// Admin is the observable form of IsAdmin.
func (s *SessionStore) Admin() signal.Readable[bool] { return s.isAdmin }

// CurrentUser is the observable user.
func (s *SessionStore) CurrentUser() signal.Readable[*model.User] { return s.user }

// Token implements oauth2.TokenSource so the API client can attach the
// bearer header without knowing about the session.
//
// No Expiry is set on the returned token: whether it is still good is for
// the server to say.
func (s *SessionStore) Token() (*oauth2.Token, error) {
	tok := s.token.Get()
	if tok == "" {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*SessionStore)(nil)

// ---- write side ----

// SetSession replaces the session with resp.
//
// ORDER:
// The user is set before the token. Anyone reacting to IsAuthenticated
// turning true already sees the new user.
func (s *SessionStore) SetSession(resp model.AuthResponse) {
	u := resp.User
	expiresAt := s.now().Add(time.Duration(resp.ExpiresIn) * time.Millisecond)

	s.user.Set(&u)
	s.expiresAt.Set(expiresAt)
	s.token.Set(resp.Token)

	s.logger.Info("session established",
		slog.Int64("userID", u.ID),
		slog.String("role", string(u.Role)),
		slog.Time("expiresAt", expiresAt),
	)
}

// Logout clears the session and says so.
//
// ORDER:
// Token first, so IsAuthenticated is false before the user disappears.
func (s *SessionStore) Logout() {
	s.token.Set("")
	s.user.Set(nil)
	s.expiresAt.Set(time.Time{})

	s.logger.Info("session cleared")
	s.notifier.Success(MsgLoggedOut)
}

// Login validates req, calls the API, and on success establishes the session.
// Failures are shown to the user (server message first, generic fallback
// otherwise) and returned.
func (s *SessionStore) Login(ctx context.Context, req model.LoginRequest) error {
	return s.authenticate(ctx, req, MsgWelcomeBack, MsgLoginFailed, func() (*model.AuthResponse, error) {
		return s.api.Login(ctx, req)
	})
}

// Register is Login for a new account.
func (s *SessionStore) Register(ctx context.Context, req model.RegisterRequest) error {
	return s.authenticate(ctx, req, MsgWelcomeAboard, MsgRegistrationFailed, func() (*model.AuthResponse, error) {
		return s.api.Register(ctx, req)
	})
}

func (s *SessionStore) authenticate(ctx context.Context, req any, welcome, fallback string, call func() (*model.AuthResponse, error)) error {
	if err := form.Validate(req); err != nil {
		s.notifier.Error(apperror.MessageOr(err, fallback))
		return err
	}

	resp, err := call()
	if err != nil {
		s.logger.Error("authentication failed", slog.String("error", err.Error()))
		s.notifier.Error(apperror.MessageOr(err, fallback))
		return fmt.Errorf("authenticating: %w", err)
	}
	if resp.Token == "" {
		err := apperror.Unauthorized(fallback)
		s.notifier.Error(fallback)
		return err
	}

	s.SetSession(*resp)
	s.notifier.Success(welcome)
	return nil
}

// Close detaches persistence. The store itself is owned by the caller.
func (s *SessionStore) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.isAuthenticated.Close()
	s.isAdmin.Close()
}

// ---- persistence ----

// persist writes value under key, or deletes key when value is empty.
// Subscribers cannot return errors, so failures are logged.
func (s *SessionStore) persist(key, value string) {
	ctx := context.Background()
	var err error
	if value == "" {
		err = s.store.Delete(ctx, key)
	} else {
		err = s.store.Set(ctx, key, value)
	}
	if err != nil {
		s.logger.Error("persisting session", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *SessionStore) persistUser(u *model.User) {
	if u == nil {
		s.persist(repository.KeyAuthUser, "")
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		s.logger.Error("encoding session user", slog.String("error", err.Error()))
		return
	}
	s.persist(repository.KeyAuthUser, string(raw))
}

func (s *SessionStore) persistExpiry(t time.Time) {
	if t.IsZero() {
		s.persist(repository.KeyAuthExpiresAt, "")
		return
	}
	s.persist(repository.KeyAuthExpiresAt, t.UTC().Format(time.RFC3339Nano))
}

func (s *SessionStore) clearPersisted(ctx context.Context) {
	var errs []error
	for _, key := range []string{repository.KeyAuthToken, repository.KeyAuthUser, repository.KeyAuthExpiresAt} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("clearing stale session keys", slog.String("error", err.Error()))
	}
}
