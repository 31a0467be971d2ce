package auth

import (
	"fmt"
	"strings"

	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/apperror"
)

// Providers the backend knows how to start a social login for.
var Providers = []string{"google", "github", "facebook"}

// ProviderLogin is where to send the user to start a social login.
type ProviderLogin struct {
	URL   string
	State string // echo this back to correlate the callback
}

// ProviderLoginURL builds the start URL for provider.
//
// The backend owns the whole OAuth 2.0 Authorization Code exchange (it holds
// the client secret). From our side the "authorization endpoint" is simply
// {apiBase}/oauth2/authorization/{provider}, so we describe it as an
// oauth2.Config and let AuthCodeURL encode redirect_uri and state the same
// way any OAuth client would.
//
// redirectURL is the local callback, e.g. http://127.0.0.1:4200/oauth2/redirect.
func ProviderLoginURL(apiBase, provider, redirectURL string) (*ProviderLogin, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !supported(provider) {
		return nil, apperror.ValidationFailed("provider",
			fmt.Sprintf("%s login is not available at the moment. Please use email and password to sign in.", displayName(provider)))
	}

	cfg := &oauth2.Config{
		ClientID:    "portfolio",
		RedirectURL: redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL: strings.TrimRight(apiBase, "/") + "/oauth2/authorization/" + provider,
		},
	}

	// xid is predictable, which is fine here: the backend does not echo
	// state back, so the callback never checks it.
	state := xid.New().String()
	return &ProviderLogin{
		URL:   cfg.AuthCodeURL(state, oauth2.AccessTypeOnline),
		State: state,
	}, nil
}

func supported(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// displayName capitalises the first letter: "github" → "Github".
func displayName(provider string) string {
	if provider == "" {
		return "This provider's"
	}
	return strings.ToUpper(provider[:1]) + provider[1:]
}
