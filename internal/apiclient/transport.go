package apiclient

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// BearerTransport attaches "Authorization: Bearer <token>" to requests aimed
// at baseURL, and only those.
//
// SCOPING:
// The same process also uploads images straight to the image host. That host
// must never see the session token, so the check is a plain prefix match on
// the full request URL.
//
// NO TOKEN:
// When tokens reports an error or an empty access token (logged out), the
// request goes out unauthenticated. The server decides what is public.
//
// The header itself is set by oauth2.Transport, which clones the request
// rather than mutating the caller's.
func BearerTransport(baseURL string, tokens oauth2.TokenSource, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &bearerTransport{baseURL: strings.TrimRight(baseURL, "/"), tokens: tokens, next: next}
}

type bearerTransport struct {
	baseURL string
	tokens  oauth2.TokenSource
	next    http.RoundTripper
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if !strings.HasPrefix(r.URL.String(), t.baseURL) {
		return t.next.RoundTrip(r)
	}

	tok, err := t.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return t.next.RoundTrip(r)
	}

	authed := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(tok),
		Base:   t.next,
	}
	return authed.RoundTrip(r)
}
