// Package auth turns what the identity provider hands back into a local
// session.
//
// AUTHENTICATION FLOW OVERVIEW (social login):
//  1. ProviderLoginURL builds the backend's /oauth2/authorization/{provider}
//     URL; the user opens it in a browser.
//  2. The backend runs the Authorization Code flow with the provider, issues
//     its own JWT, and redirects the browser to our callback:
//     /oauth2/redirect?token=<jwt>   or   /oauth2/redirect?error=<message>
//  3. RedirectHandler decodes the JWT payload, builds a User from the claims
//     and stores the session.
//
// WHY NO SIGNATURE CHECK?
// The client never holds the backend's signing key. The token is a bearer
// credential: we read the claims for display and hand the token back on every
// API call, where the server verifies it. Trusting the payload locally only
// affects what the client shows, never what the server allows.
//
// JWT STRUCTURE (three base64url-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"42","email":"a@b.com","role":"ADMIN","iat":...,"exp":...}
//	- Signature: ignored here
//
// Only the payload is read. The header is not parsed at all, so an unknown or
// missing "alg" does not stop a login.
package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
)

// Claims is the part of the backend token payload the client cares about.
// IssuedAt and ExpiresAt are nil when the claim is absent.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Role      model.Role
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// UserID returns the numeric user id carried in "sub", or 0 when the subject
// is not a number (some providers put an email there).
func (c *Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// DecodeClaims reads the payload of a JWT WITHOUT verifying its signature.
//
// jwt.MapClaims is used instead of a struct because backends disagree on the
// type of "sub": Spring emits a string, some emit a number. MapClaims keeps
// whatever JSON type arrived and we normalise it below.
//
// Every failure (wrong segment count, bad base64, non-JSON payload) comes back
// as an ErrDecode; nothing here panics on hostile input.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, apperror.DecodeFailed("token", fmt.Errorf("token has %d segments, want 3", len(parts)))
	}

	// Padded and unpadded base64url both occur in the wild.
	payload, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		return nil, apperror.DecodeFailed("token", err)
	}

	mc := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &mc); err != nil {
		return nil, apperror.DecodeFailed("token", err)
	}

	c := &Claims{
		Subject: stringClaim(mc, "sub"),
		Email:   stringClaim(mc, "email"),
		Name:    stringClaim(mc, "name"),
		Role:    model.Role(stringClaim(mc, "role")),
	}

	// GetIssuedAt/GetExpirationTime accept both float64 and json.Number and
	// return nil for a missing claim.
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		c.IssuedAt = &t
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}

	return c, nil
}

// stringClaim returns a claim as a string whatever its JSON type was.
// Missing and null claims give "".
func stringClaim(mc jwt.MapClaims, key string) string {
	switch v := mc[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
