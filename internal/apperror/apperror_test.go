package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case names an error constructor and the sentinel it must (or must not)
// match through errors.Is. Adding a case is adding one struct literal.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("project", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("rating", "please select a rating"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("please log in"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "DecodeFailed wraps ErrDecode",
			err:       DecodeFailed("token", errors.New("bad base64")),
			target:    ErrDecode,
			wantMatch: true,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("loading project: %w", NotFound("project", "7")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("project", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusInternalServerError, ErrUpstream},
		{http.StatusBadGateway, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "boom")
			if !errors.Is(err, tt.want) {
				t.Errorf("FromStatus(%d) = %v, want chain containing %v", tt.status, err.Err, tt.want)
			}
			if err.Status != tt.status {
				t.Errorf("Status = %d, want %d", err.Status, tt.status)
			}
		})
	}
}

func TestMessageOr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error uses fallback", nil, "Login failed"},
		{"server message wins", FromStatus(401, "Bad credentials"), "Bad credentials"},
		{"empty server message uses fallback", FromStatus(500, ""), "Login failed"},
		{"plain error uses fallback", errors.New("dial tcp: refused"), "Login failed"},
		{"wrapped AppError is found", fmt.Errorf("login: %w", FromStatus(400, "Email taken")), "Email taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageOr(tt.err, "Login failed"); got != tt.want {
				t.Errorf("MessageOr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("project", "42"),
			wantMessage: "project not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("email", "email is required"),
			wantMessage: "email is required",
		},
		{
			name:        "DecodeFailed includes cause",
			err:         DecodeFailed("token", errors.New("unexpected EOF")),
			wantMessage: "failed to decode token: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
