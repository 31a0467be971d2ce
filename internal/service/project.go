package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/signal"
)

// ProjectAPI is the part of the remote API the project store needs.
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, id int64, in model.ProjectInput) (*model.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ResetProjectRatings(ctx context.Context, projectID int64) error
}

// Viewer answers "who is asking". *SessionStore implements it.
type Viewer interface {
	IsAuthenticated() bool
	IsAdmin() bool
	User() *model.User
}

// Project store messages.
const (
	MsgProjectsLoadFailed = "Failed to load projects"
	MsgProjectCreated     = "Project created successfully"
	MsgProjectUpdated     = "Project updated successfully"
	MsgProjectDeleted     = "Project deleted successfully"
	MsgRatingsReset       = "Project ratings have been reset"
	MsgAdminOnly          = "Admin access required"
)

// ProjectStore caches the project list and derives the views the UI shows.
//
// DERIVED VIEWS (recomputed only after projects or filters change):
//
//	Filtered     - projects matching all four filter predicates
//	Technologies - every tag in use, sorted, no duplicates
//	Featured     - projects flagged for the home page
//
// MUTATIONS:
// Create/Update/Delete go to the server and are followed by a full Refresh.
// The list is never patched locally, so what you see is what the server has.
type ProjectStore struct {
	projects *signal.Signal[[]model.Project]
	filters  *signal.Signal[model.Filters]

	filtered     *signal.Computed[[]model.Project]
	technologies *signal.Computed[[]string]
	featured     *signal.Computed[[]model.Project]

	api      ProjectAPI
	viewer   Viewer
	notifier *NotificationService
	logger   *slog.Logger
}

func NewProjectStore(api ProjectAPI, viewer Viewer, notifier *NotificationService, logger *slog.Logger) *ProjectStore {
	s := &ProjectStore{
		projects: signal.New([]model.Project{}),
		filters:  signal.New(model.Filters{}),
		api:      api,
		viewer:   viewer,
		notifier: notifier,
		logger:   logger,
	}

	s.filtered = signal.Derive(func() []model.Project {
		f := s.filters.Get()
		out := []model.Project{}
		for _, p := range s.projects.Get() {
			if f.Matches(p) {
				out = append(out, p)
			}
		}
		return out
	}, s.projects, s.filters)

	s.technologies = signal.Derive(func() []string {
		seen := map[string]bool{}
		out := []string{}
		for _, p := range s.projects.Get() {
			for _, t := range p.Technologies {
				if t != "" && !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
		sort.Strings(out)
		return out
	}, s.projects)

	s.featured = signal.Derive(func() []model.Project {
		out := []model.Project{}
		for _, p := range s.projects.Get() {
			if p.Featured {
				out = append(out, p)
			}
		}
		return out
	}, s.projects)

	return s
}

func (s *ProjectStore) Projects() signal.Readable[[]model.Project] { return s.projects }
func (s *ProjectStore) Filters() signal.Readable[model.Filters] { return s.filters }
func (s *ProjectStore) Filtered() signal.Readable[[]model.Project] { return s.filtered }
func (s *ProjectStore) Technologies() signal.Readable[[]string] { return s.technologies }
func (s *ProjectStore) Featured() signal.Readable[[]model.Project] { return s.featured }

// Refresh replaces the cached list with the server's. Expanded flags survive
// for projects that are still there.
func (s *ProjectStore) Refresh(ctx context.Context) error {
	fresh, err := s.api.ListProjects(ctx)
	if err != nil {
		s.logger.Error("loading projects", slog.String("error", err.Error()))
		s.notifier.Error(apperror.MessageOr(err, MsgProjectsLoadFailed))
		return fmt.Errorf("refreshing projects: %w", err)
	}

	expanded := map[int64]bool{}
	for _, p := range s.projects.Get() {
		if p.Expanded {
			expanded[p.ID] = true
		}
	}
	for i := range fresh {
		fresh[i].Expanded = expanded[fresh[i].ID]
	}

	s.projects.Set(fresh)
	s.logger.Debug("projects refreshed", slog.Int("count", len(fresh)))
	return nil
}

// UpdateFilters applies a partial change: fn receives the current filters
// and returns the new ones.
//
//	store.UpdateFilters(func(f model.Filters) model.Filters { f.Technology = "Go"; return f })
func (s *ProjectStore) UpdateFilters(fn func(model.Filters) model.Filters) {
	s.filters.Update(fn)
}

func (s *ProjectStore) ResetFilters() {
	s.filters.Set(model.Filters{})
}

// Get returns a cached project by id.
func (s *ProjectStore) Get(id int64) (model.Project, bool) {
	for _, p := range s.projects.Get() {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// Lookup fetches a project from the cache, falling back to the server.
func (s *ProjectStore) Lookup(ctx context.Context, id int64) (*model.Project, error) {
	if p, ok := s.Get(id); ok {
		return &p, nil
	}
	p, err := s.api.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching project %d: %w", id, err)
	}
	return p, nil
}

// NameOf returns the display name of a cached project; used by breadcrumbs.
func (s *ProjectStore) NameOf(id string) (string, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", false
	}
	p, ok := s.Get(n)
	if !ok {
		return "", false
	}
	return p.Name, true
}

// ToggleExpanded flips the expanded flag of one project; unknown ids are ignored.
func (s *ProjectStore) ToggleExpanded(id int64) {
	s.projects.Update(func(list []model.Project) []model.Project {
		out := make([]model.Project, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID == id {
				out[i].Expanded = !out[i].Expanded
			}
		}
		return out
	})
}

// ---- admin ----

func (s *ProjectStore) requireAdmin() error {
	if !s.viewer.IsAdmin() {
		s.notifier.Error(MsgAdminOnly)
		return apperror.Forbidden(MsgAdminOnly)
	}
	return nil
}

func (s *ProjectStore) Create(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	p, err := s.api.CreateProject(ctx, in)
	if err != nil {
		return nil, s.adminFailure("creating project", "Failed to create project", err)
	}
	s.logger.Info("project created", slog.Int64("id", p.ID), slog.String("name", p.Name))
	s.notifier.Success(MsgProjectCreated)
	return p, s.Refresh(ctx)
}

func (s *ProjectStore) Update(ctx context.Context, id int64, in model.ProjectInput) (*model.Project, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	p, err := s.api.UpdateProject(ctx, id, in)
	if err != nil {
		return nil, s.adminFailure("updating project", "Failed to update project", err)
	}
	s.logger.Info("project updated", slog.Int64("id", id))
	s.notifier.Success(MsgProjectUpdated)
	return p, s.Refresh(ctx)
}

// Delete removes a project. confirm is the answer to "are you sure?"; false
// cancels without a request.
func (s *ProjectStore) Delete(ctx context.Context, id int64, confirm bool) error {
	if !confirm {
		return nil
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.api.DeleteProject(ctx, id); err != nil {
		return s.adminFailure("deleting project", "Failed to delete project", err)
	}
	s.logger.Info("project deleted", slog.Int64("id", id))
	s.notifier.Success(MsgProjectDeleted)
	return s.Refresh(ctx)
}

// ResetRatings deletes every rating of a project after confirmation.
func (s *ProjectStore) ResetRatings(ctx context.Context, id int64, confirm bool) error {
	if !confirm {
		return nil
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.api.ResetProjectRatings(ctx, id); err != nil {
		return s.adminFailure("resetting ratings", "Failed to reset ratings", err)
	}
	s.logger.Info("project ratings reset", slog.Int64("id", id))
	s.notifier.Success(MsgRatingsReset)
	return s.Refresh(ctx)
}

func (s *ProjectStore) adminFailure(action, fallback string, err error) error {
	s.logger.Error(action, slog.String("error", err.Error()))
	s.notifier.Error(apperror.MessageOr(err, fallback))
	return fmt.Errorf("%s: %w", action, err)
}
