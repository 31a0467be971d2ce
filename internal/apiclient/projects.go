package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sakif/portfolio/internal/model"
)

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

// ListProjects → GET /projects
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// GetProject → GET /projects/{id}
func (c *Client) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject → POST /projects (admin)
func (c *Client) CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodPost, "/projects", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject → PUT /projects/{id} (admin)
func (c *Client) UpdateProject(ctx context.Context, id int64, in model.ProjectInput) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodPut, projectPath(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject → DELETE /projects/{id} (admin)
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

// CreateProjectRaw posts body exactly as given. The bulk importer uses it so
// that fields it does not understand still reach the server.
func (c *Client) CreateProjectRaw(ctx context.Context, body json.RawMessage) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodPost, "/projects", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProjectRaw is the PUT counterpart of CreateProjectRaw.
func (c *Client) UpdateProjectRaw(ctx context.Context, id int64, body json.RawMessage) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodPut, projectPath(id), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
