package apiclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

func TestBearerTransport(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path+"|"+r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	base := srv.URL + "/api/v1"

	tests := []struct {
		name   string
		tokens oauth2.TokenSource
		url    string
		want   string
	}{
		{
			name:   "api request with token",
			tokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t1"}),
			url:    base + "/projects",
			want:   "/api/v1/projects|Bearer t1",
		},
		{
			name:   "foreign host never gets the token",
			tokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t1"}),
			url:    srv.URL + "/v1_1/demo/image/upload",
			want:   "/v1_1/demo/image/upload|",
		},
		{
			name:   "logged out",
			tokens: tokenFunc(func() (*oauth2.Token, error) { return nil, errors.New("no session") }),
			url:    base + "/projects",
			want:   "/api/v1/projects|",
		},
		{
			name:   "empty token",
			tokens: oauth2.StaticTokenSource(&oauth2.Token{}),
			url:    base + "/projects",
			want:   "/api/v1/projects|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			client := &http.Client{Transport: BearerTransport(base, tt.tokens, nil)}

			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			require.Len(t, seen, 1)
			assert.Equal(t, tt.want, seen[0])
			assert.Empty(t, req.Header.Get("Authorization"), "caller's request must not be mutated")
		})
	}
}
