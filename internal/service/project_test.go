package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
)

func seedProjects(f *fixture) (model.Project, model.Project, model.Project) {
	a := f.api.AddProject(model.Project{
		Name: "Hotel Reservation System", Description: "Spring Boot with Stripe payments",
		Technologies: []string{"Spring Boot", "Java"}, Featured: true, AverageRating: 4.5,
	})
	b := f.api.AddProject(model.Project{
		Name: "Pac-Man Clone", Description: "Game using SDL",
		Technologies: []string{"C", "SDL"}, AverageRating: 3.0,
	})
	c := f.api.AddProject(model.Project{
		Name: "Construction Tracking", Description: "Inventory with WebSocket updates",
		Technologies: []string{"Java", "WebSocket"}, Featured: true, AverageRating: 2.0,
	})
	return a, b, c
}

func names(ps []model.Project) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestProjectStore_RefreshAndDerivedViews(t *testing.T) {
	f := newFixture(t)
	seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())

	require.NoError(t, s.Refresh(context.Background()))

	assert.Len(t, s.Projects().Get(), 3)
	assert.Equal(t, []string{"C", "Java", "SDL", "Spring Boot", "WebSocket"}, s.Technologies().Get())
	assert.Equal(t, []string{"Hotel Reservation System", "Construction Tracking"}, names(s.Featured().Get()))
}

func TestProjectStore_FilteredIsExactlyTheMatchingSubset(t *testing.T) {
	f := newFixture(t)
	seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())
	require.NoError(t, s.Refresh(context.Background()))

	tests := []struct {
		name    string
		filters model.Filters
		want    []string
	}{
		{"no filters", model.Filters{}, []string{"Hotel Reservation System", "Pac-Man Clone", "Construction Tracking"}},
		{"search is case-insensitive on description", model.Filters{SearchTerm: "STRIPE"}, []string{"Hotel Reservation System"}},
		{"technology", model.Filters{Technology: "Java"}, []string{"Hotel Reservation System", "Construction Tracking"}},
		{"rating floor", model.Filters{MinRating: 3}, []string{"Hotel Reservation System", "Pac-Man Clone"}},
		{"featured only", model.Filters{FeaturedOnly: true}, []string{"Hotel Reservation System", "Construction Tracking"}},
		{"all four conjunctively", model.Filters{SearchTerm: "o", Technology: "Java", MinRating: 2, FeaturedOnly: true}, []string{"Hotel Reservation System", "Construction Tracking"}},
		{"nothing matches", model.Filters{Technology: "Rust"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.UpdateFilters(func(model.Filters) model.Filters { return tt.filters })
			if diff := cmp.Diff(tt.want, names(s.Filtered().Get())); diff != "" {
				t.Errorf("Filtered() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	s.ResetFilters()
	assert.Equal(t, model.Filters{}, s.Filters().Get())
}

func TestProjectStore_FilteredIsMemoised(t *testing.T) {
	f := newFixture(t)
	seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())
	require.NoError(t, s.Refresh(context.Background()))

	v1 := s.Filtered().Version()
	s.Filtered().Get()
	assert.Equal(t, v1, s.Filtered().Version(), "reading twice must not recompute")

	s.UpdateFilters(func(fl model.Filters) model.Filters { fl.SearchTerm = "pac"; return fl })
	assert.NotEqual(t, v1, s.Filtered().Version())
}

func TestProjectStore_ToggleExpandedSurvivesRefresh(t *testing.T) {
	f := newFixture(t)
	a, _, _ := seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	s.ToggleExpanded(a.ID)
	p, _ := s.Get(a.ID)
	assert.True(t, p.Expanded)

	require.NoError(t, s.Refresh(ctx))
	p, _ = s.Get(a.ID)
	assert.True(t, p.Expanded)

	s.ToggleExpanded(a.ID)
	p, _ = s.Get(a.ID)
	assert.False(t, p.Expanded)
}

func TestProjectStore_RefreshFailureKeepsCache(t *testing.T) {
	f := newFixture(t)
	seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	f.api.Fail("GET /projects", 503, "")
	err := s.Refresh(ctx)

	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Len(t, s.Projects().Get(), 3)
	assert.Equal(t, []string{"Service Unavailable"}, f.messages(model.NotificationError))
}

func TestProjectStore_AdminMutationsRefresh(t *testing.T) {
	f := newFixture(t)
	f.loginAs("tok-admin", adminUser)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())
	ctx := context.Background()

	created, err := s.Create(ctx, model.ProjectInput{Name: "New one", Description: "A brand new project", Technologies: []string{"Go"}})
	require.NoError(t, err)
	assert.Len(t, s.Projects().Get(), 1, "refreshed after create")

	_, err = s.Update(ctx, created.ID, model.ProjectInput{Name: "Renamed", Description: "A brand new project", Technologies: []string{"Go"}})
	require.NoError(t, err)
	p, _ := s.Get(created.ID)
	assert.Equal(t, "Renamed", p.Name)

	require.NoError(t, s.Delete(ctx, created.ID, false))
	assert.Len(t, s.Projects().Get(), 1, "unconfirmed delete is a no-op")

	require.NoError(t, s.Delete(ctx, created.ID, true))
	assert.Empty(t, s.Projects().Get())

	assert.Equal(t, []string{MsgProjectCreated, MsgProjectUpdated, MsgProjectDeleted}, f.messages(model.NotificationSuccess))
}

func TestProjectStore_NonAdminIsStoppedClientSide(t *testing.T) {
	f := newFixture(t)
	f.loginAs("tok-user", plainUser)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())

	_, err := s.Create(context.Background(), model.ProjectInput{Name: "x"})

	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Equal(t, 0, f.api.CountRequests("POST", "/projects"))
}

func TestProjectStore_ResetRatings(t *testing.T) {
	f := newFixture(t)
	a, _, _ := seedProjects(f)
	f.api.AddRating(model.Rating{UserID: 2, ProjectID: a.ID, Rating: 5})
	f.loginAs("tok-admin", adminUser)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())

	require.NoError(t, s.ResetRatings(context.Background(), a.ID, true))

	assert.Equal(t, 0, f.api.RatingCount(a.ID))
	p, _ := s.Get(a.ID)
	assert.Equal(t, 0, p.TotalRatings)
}

func TestProjectStore_NameOfAndLookup(t *testing.T) {
	f := newFixture(t)
	a, _, _ := seedProjects(f)
	s := NewProjectStore(f.client, f.session, f.notifier, testLogger())

	_, ok := s.NameOf("1")
	assert.False(t, ok, "nothing cached yet")

	p, err := s.Lookup(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, p.Name)

	require.NoError(t, s.Refresh(context.Background()))
	name, ok := s.NameOf(strconv.FormatInt(a.ID, 10))
	assert.True(t, ok)
	assert.Equal(t, a.Name, name)

	_, ok = s.NameOf("not-a-number")
	assert.False(t, ok)
}
