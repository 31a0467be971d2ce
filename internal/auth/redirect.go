package auth

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
)

// Timings of the follow-up navigation.
const (
	FailureRedirectDelay = 2 * time.Second
	SuccessRedirectDelay = 1 * time.Second

	// DefaultExpiresIn applies when the token carries no "exp".
	DefaultExpiresIn = time.Hour
)

// User-visible messages.
const (
	MsgMissingToken  = "No authentication token received"
	MsgInvalidToken  = "Invalid authentication token"
	MsgAuthenticated = "Successfully authenticated!"

	StatusFailed      = "Authentication failed"
	StatusRedirecting = "Redirecting..."
)

// SessionSetter stores a freshly established session.
type SessionSetter interface {
	SetSession(resp model.AuthResponse)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(message string, duration ...time.Duration) string
	Error(message string, duration ...time.Duration) string
}

// Outcome tells the caller where to go next and after how long.
// Err is nil on success.
type Outcome struct {
	Navigate string
	Delay    time.Duration
	Message  string
	Err      error
}

// RedirectHandler processes the query string of the OAuth callback.
type RedirectHandler struct {
	session  SessionSetter
	notifier Notifier
	logger   *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

func NewRedirectHandler(session SessionSetter, notifier Notifier, logger *slog.Logger) *RedirectHandler {
	return &RedirectHandler{
		session:  session,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle runs the redirect exchange. It never panics and never returns a
// partially established session: either SetSession ran with a complete
// response or the session was not touched.
//
// DECISION ORDER:
//
//	?error=...            → provider's message, back to /login
//	no ?token             → "No authentication token received"
//	undecodable / no sub  → "Invalid authentication token"
//	otherwise             → session set, on to /home
func (h *RedirectHandler) Handle(query url.Values) Outcome {
	if providerErr := query.Get("error"); providerErr != "" {
		return h.fail(providerErr, apperror.Unauthorized(providerErr))
	}

	token := query.Get("token")
	if token == "" {
		return h.fail(MsgMissingToken, apperror.Unauthorized(MsgMissingToken))
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		h.logger.Warn("oauth token decode failed", slog.String("error", err.Error()))
		return h.fail(MsgInvalidToken, err)
	}
	if claims.Subject == "" {
		h.logger.Warn("oauth token has no subject")
		return h.fail(MsgInvalidToken, apperror.DecodeFailed("token", nil))
	}

	now := h.now()
	h.session.SetSession(model.AuthResponse{
		Token:     token,
		User:      h.userFromClaims(claims, now),
		ExpiresIn: expiresInMillis(claims, now),
	})

	h.logger.Info("oauth login completed", slog.String("sub", claims.Subject))
	h.notifier.Success(MsgAuthenticated)
	return Outcome{
		Navigate: "/home",
		Delay:    SuccessRedirectDelay,
		Message:  StatusRedirecting,
	}
}

func (h *RedirectHandler) fail(message string, err error) Outcome {
	h.notifier.Error(message)
	return Outcome{
		Navigate: "/login",
		Delay:    FailureRedirectDelay,
		Message:  StatusFailed,
		Err:      err,
	}
}

// userFromClaims fills the gaps the way the backend's own login would:
// role defaults to USER, createdAt to the issue time (or now).
func (h *RedirectHandler) userFromClaims(c *Claims, now time.Time) model.User {
	role := c.Role
	if role == "" {
		role = model.RoleUser
	}

	createdAt := now
	if c.IssuedAt != nil {
		createdAt = *c.IssuedAt
	}
	lastLogin := now.UTC().Format(time.RFC3339Nano)

	return model.User{
		ID:          c.UserID(),
		Email:       c.Email,
		Name:        c.Name,
		Role:        role,
		CreatedAt:   createdAt.UTC().Format(time.RFC3339Nano),
		LastLoginAt: &lastLogin,
	}
}

// expiresInMillis is exp - now in milliseconds, or one hour without exp.
// A token that is already expired yields a negative value; the session store
// treats that as "expired" rather than rejecting the login here.
func expiresInMillis(c *Claims, now time.Time) int64 {
	if c.ExpiresAt == nil {
		return DefaultExpiresIn.Milliseconds()
	}
	return c.ExpiresAt.Sub(now).Milliseconds()
}
