package apiclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/apiclient/apitest"
	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/perf"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newClient(t *testing.T, api *apitest.Server, token string) *Client {
	t.Helper()
	var tokens oauth2.TokenSource
	if token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}
	return New(api.BaseURL(), tokens, WithLogger(quietLogger))
}

func newAdminAPI(t *testing.T) *apitest.Server {
	api := apitest.New(t)
	api.AddUser("tok-admin", model.User{ID: 1, Name: "Admin", Role: model.RoleAdmin}, "admin@example.com", "secret")
	api.AddUser("tok-user", model.User{ID: 2, Name: "User", Role: model.RoleUser}, "user@example.com", "hunter2")
	return api
}

func TestListProjects_EmptyIsNotNil(t *testing.T) {
	api := newAdminAPI(t)
	c := newClient(t, api, "")

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestProjectCRUD(t *testing.T) {
	api := newAdminAPI(t)
	c := newClient(t, api, "tok-admin")
	ctx := context.Background()

	created, err := c.CreateProject(ctx, model.ProjectInput{
		Name:         "Portfolio",
		Description:  "A personal portfolio site",
		Technologies: []string{"Go"},
		GithubLink:   model.StringPtr("https://github.com/x/y"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := c.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio", got.Name)
	assert.Equal(t, "https://github.com/x/y", model.Deref(got.GithubLink))

	updated, err := c.UpdateProject(ctx, created.ID, model.ProjectInput{
		Name: "Portfolio v2", Description: "A personal portfolio site", Technologies: []string{"Go", "chi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Portfolio v2", updated.Name)

	require.NoError(t, c.DeleteProject(ctx, created.ID))

	_, err = c.GetProject(ctx, created.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "Project not found", apperror.MessageOr(err, "fallback"))
}

func TestErrorEnvelope_MapsToSentinels(t *testing.T) {
	api := newAdminAPI(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		token  string
		target error
	}{
		{"anonymous", "", apperror.ErrUnauthorized},
		{"plain user", "tok-user", apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, api, tt.token)
			_, err := c.CreateProject(ctx, model.ProjectInput{Name: "nope"})
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestErrorEnvelope_NonJSONBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, WithLogger(quietLogger))
	_, err := c.ListProjects(context.Background())

	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Equal(t, "Bad Gateway", apperror.MessageOr(err, "fallback"))
}

func TestRatings(t *testing.T) {
	api := newAdminAPI(t)
	p := api.AddProject(model.Project{Name: "Rated"})
	c := newClient(t, api, "tok-user")
	ctx := context.Background()

	rated, err := c.HasRated(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, rated)

	r, err := c.CreateRating(ctx, model.RatingCreate{ProjectID: p.ID, Rating: 4, Comment: "nice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.UserID)

	_, err = c.CreateRating(ctx, model.RatingCreate{ProjectID: p.ID, Rating: 5})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "second rating must conflict")

	stars := 2
	updated, err := c.UpdateRating(ctx, r.ID, model.RatingUpdate{Rating: &stars})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "nice", updated.Comment, "omitted comment is left unchanged")

	avg, err := c.AverageRating(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 0.001)

	count, err := c.RatingCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	dist, err := c.RatingDistribution(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingDistribution{2: 1}, dist)

	mine, err := c.MyRatings(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	list, err := c.ProjectRatings(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteRating(ctx, r.ID))
	assert.Equal(t, 0, api.RatingCount(p.ID))
}

func TestResetProjectRatings_AdminOnly(t *testing.T) {
	api := newAdminAPI(t)
	p := api.AddProject(model.Project{Name: "Reset me"})
	api.AddRating(model.Rating{UserID: 2, ProjectID: p.ID, Rating: 5})
	ctx := context.Background()

	err := newClient(t, api, "tok-user").ResetProjectRatings(ctx, p.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	require.NoError(t, newClient(t, api, "tok-admin").ResetProjectRatings(ctx, p.ID))
	assert.Equal(t, 0, api.RatingCount(p.ID))
}

func TestPhotos(t *testing.T) {
	api := newAdminAPI(t)
	p := api.AddProject(model.Project{Name: "Pics"})
	c := newClient(t, api, "tok-admin")
	ctx := context.Background()

	uploaded, err := c.UploadProjectPhoto(ctx, p.ID, "shot.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, uploaded.ProjectID)

	reqs := api.Requests()
	assert.True(t, strings.HasPrefix(reqs[len(reqs)-1].ContentType, "multipart/form-data"))

	saved, err := c.SavePhotoURL(ctx, model.PhotoInput{PhotoURL: "https://img.example.com/a.png", ProjectID: p.ID})
	require.NoError(t, err)
	stored, _ := api.Project(p.ID)
	assert.Equal(t, []string{"https://img.example.com/a.png"}, stored.PhotoURLs)

	profile, err := c.UploadProfilePhoto(ctx, "me.jpg", bytes.NewReader([]byte("jpg")))
	require.NoError(t, err)
	assert.Contains(t, profile.PhotoURL, "me.jpg")

	require.NoError(t, c.DeletePhoto(ctx, saved.ID))
	err = c.DeletePhoto(ctx, saved.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSubmitContact(t *testing.T) {
	api := newAdminAPI(t)
	c := newClient(t, api, "")

	resp, err := c.SubmitContact(context.Background(), model.ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "Hi"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Len(t, api.Contacts(), 1)
}

func TestLoginAndRegister(t *testing.T) {
	api := newAdminAPI(t)
	c := newClient(t, api, "")
	ctx := context.Background()

	resp, err := c.Login(ctx, model.LoginRequest{Email: "admin@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-admin", resp.Token)
	assert.Equal(t, int64(3600000), resp.ExpiresIn)
	assert.True(t, resp.User.IsAdmin())

	_, err = c.Login(ctx, model.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	assert.Equal(t, "Invalid email or password", apperror.MessageOr(err, "Login failed"))

	reg, err := c.Register(ctx, model.RegisterRequest{Email: "new@example.com", Password: "pw", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, reg.User.Role)

	_, err = c.Register(ctx, model.RegisterRequest{Email: "new@example.com", Password: "pw", Name: "New"})
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestWithMonitor_RecordsEveryCall(t *testing.T) {
	api := newAdminAPI(t)
	monitor := perf.NewMonitor(quietLogger)
	c := New(api.BaseURL(), nil, WithLogger(quietLogger), WithMonitor(monitor))

	_, err := c.ListProjects(context.Background())
	require.NoError(t, err)

	_, ok := monitor.Metrics()["GET /api/v1/projects"]
	assert.True(t, ok)
}
