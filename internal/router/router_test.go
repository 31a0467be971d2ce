package router

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewer struct{ authed, admin bool }

func (v *fakeViewer) IsAuthenticated() bool { return v.authed }
func (v *fakeViewer) IsAdmin() bool         { return v.admin }

type fakeNotifier struct{ errors []string }

func (n *fakeNotifier) Error(msg string, _ ...time.Duration) string {
	n.errors = append(n.errors, msg)
	return ""
}

type fakeForm struct{ dirty bool }

func (f *fakeForm) Dirty() bool         { return f.dirty }
func (f *fakeForm) LeavePrompt() string { return "Leave?" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMatch(t *testing.T) {
	routes := Routes(Guards{})

	tests := []struct {
		path    string
		wantURL string
		wantBC  string
	}{
		{"", "/home", "Home"},
		{"/", "/home", "Home"},
		{"/home", "/home", "Home"},
		{"/projects", "/projects", ""},
		{"/projects/", "/projects", ""},
		{"/projects/42", "/projects/42", ProjectDetailsLabel},
		{"/projects/42?tab=ratings", "/projects/42", ProjectDetailsLabel},
		{"/oauth2/redirect?token=abc", "/oauth2/redirect", ""},
		{"/admin", "/admin", "Admin"},
		{"/nope/at/all", "/nope/at/all", "Not Found"},
		{"/projects/42/extra", "/projects/42/extra", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			a, err := Match(routes, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, a.URL())
			assert.Equal(t, tt.wantBC, a.Leaf().Route.Breadcrumb)
		})
	}
}

func TestMatch_Params(t *testing.T) {
	a, err := Match(Routes(Guards{}), "/projects/7")
	require.NoError(t, err)

	id, ok := a.Param("id")
	assert.True(t, ok)
	assert.Equal(t, "7", id)

	_, ok = a.Param("missing")
	assert.False(t, ok)
}

func TestMatch_Errors(t *testing.T) {
	_, err := Match([]*Route{{Path: "home"}}, "/away")
	assert.True(t, errors.Is(err, ErrNoRoute))

	loop := []*Route{{Path: "a", RedirectTo: "/b"}, {Path: "b", RedirectTo: "/a"}}
	_, err = Match(loop, "/a")
	assert.True(t, errors.Is(err, ErrRedirectLoop))
}

func TestBuildBreadcrumbs(t *testing.T) {
	routes := Routes(Guards{})
	names := map[string]string{"7": "Hotel Booking"}
	lookup := func(id string) (string, bool) { n, ok := names[id]; return n, ok }

	tests := []struct {
		path string
		want []Breadcrumb
	}{
		{"/home", []Breadcrumb{{"Home", "/home"}}},
		{"/projects", []Breadcrumb{{"Projects", "/projects"}}},
		{"/projects/7", []Breadcrumb{{"Projects", "/projects"}, {"Hotel Booking", "/projects/7"}}},
		{"/projects/99", []Breadcrumb{{"Projects", "/projects"}, {ProjectDetailsLabel, "/projects/99"}}},
		{"/oauth2/redirect", []Breadcrumb{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			a, err := Match(routes, tt.path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, BuildBreadcrumbs(a, lookup)); diff != "" {
				t.Errorf("BuildBreadcrumbs mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Equal(t, []Breadcrumb{}, BuildBreadcrumbs(nil, lookup))
}

func TestBuildBreadcrumbs_NilLookupFallsBack(t *testing.T) {
	a, err := Match(Routes(Guards{}), "/projects/7")
	require.NoError(t, err)

	crumbs := BuildBreadcrumbs(a, nil)
	require.Len(t, crumbs, 2)
	assert.Equal(t, ProjectDetailsLabel, crumbs[1].Label)
}

func TestDecision(t *testing.T) {
	assert.True(t, Allow().Allowed())
	assert.True(t, Deny().Denied())
	to, ok := RedirectTo("/x").Redirect()
	assert.True(t, ok)
	assert.Equal(t, "/x", to)
	_, ok = Allow().Redirect()
	assert.False(t, ok)
}

func newTestNavigator(v *fakeViewer, n *fakeNotifier, form *fakeForm, answer bool, asked *[]string) *Navigator {
	confirm := func(prompt string) bool {
		*asked = append(*asked, prompt)
		return answer
	}
	g := Guards{
		Auth:         AuthGuard(v, n),
		Admin:        AdminGuard(v),
		ContactLeave: UnsavedChangesGuard(form, confirm),
	}
	return NewNavigator(Routes(g), quietLogger())
}

func TestNavigator_AuthGuardRedirectsToLogin(t *testing.T) {
	v, n := &fakeViewer{}, &fakeNotifier{}
	var asked []string
	nav := newTestNavigator(v, n, &fakeForm{}, true, &asked)

	res, err := nav.Navigate("/contact")
	require.NoError(t, err)

	assert.False(t, res.Blocked)
	assert.Equal(t, "/login", res.Route.URL())
	assert.Equal(t, []string{"/login"}, res.Redirects)
	assert.Equal(t, []string{MsgLoginRequired}, n.errors)
}

func TestNavigator_AdminGuard(t *testing.T) {
	v, n := &fakeViewer{authed: true}, &fakeNotifier{}
	var asked []string
	nav := newTestNavigator(v, n, &fakeForm{}, true, &asked)

	res, err := nav.Navigate("/admin")
	require.NoError(t, err)
	assert.Equal(t, "/home", res.Route.URL(), "authenticated non-admin goes home")

	v.admin = true
	res, err = nav.Navigate("/admin")
	require.NoError(t, err)
	assert.Equal(t, "/admin", res.Route.URL())
	assert.Empty(t, n.errors)
}

func TestNavigator_UnsavedChangesGuard(t *testing.T) {
	v, n := &fakeViewer{authed: true}, &fakeNotifier{}
	form := &fakeForm{}

	t.Run("clean form leaves without asking", func(t *testing.T) {
		var asked []string
		nav := newTestNavigator(v, n, form, false, &asked)
		_, err := nav.Navigate("/contact")
		require.NoError(t, err)

		res, err := nav.Navigate("/home")
		require.NoError(t, err)
		assert.Equal(t, "/home", res.Route.URL())
		assert.Empty(t, asked)
	})

	t.Run("dirty form declined stays", func(t *testing.T) {
		var asked []string
		nav := newTestNavigator(v, n, form, false, &asked)
		_, err := nav.Navigate("/contact")
		require.NoError(t, err)
		form.dirty = true
		defer func() { form.dirty = false }()

		res, err := nav.Navigate("/home")
		require.NoError(t, err)
		assert.True(t, res.Blocked)
		assert.Equal(t, "/contact", nav.Current().URL())
		assert.Equal(t, []string{"Leave?"}, asked)
	})

	t.Run("dirty form confirmed leaves", func(t *testing.T) {
		var asked []string
		nav := newTestNavigator(v, n, form, true, &asked)
		_, err := nav.Navigate("/contact")
		require.NoError(t, err)
		form.dirty = true
		defer func() { form.dirty = false }()

		res, err := nav.Navigate("/about")
		require.NoError(t, err)
		assert.False(t, res.Blocked)
		assert.Equal(t, "/about", nav.Current().URL())
	})
}

func TestNavigator_DenyOnEnterKeepsCurrent(t *testing.T) {
	routes := []*Route{
		{Path: "open"},
		{Path: "closed", CanActivate: []Guard{func(*ActivatedRoute) Decision { return Deny() }}},
	}
	nav := NewNavigator(routes, quietLogger())
	_, err := nav.Navigate("/open")
	require.NoError(t, err)

	res, err := nav.Navigate("/closed")
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, "/open", nav.Current().URL())
}
