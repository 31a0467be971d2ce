package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sakif/portfolio/internal/model"
)

// RATING ROUTES:
//   /ratings                          POST create
//   /ratings/{ratingId}               PUT update, DELETE remove
//   /ratings/my-ratings               GET current user's ratings
//   /ratings/project/{projectId}      GET list, DELETE reset (admin)
//   /ratings/project/{projectId}/...  average | count | distribution | has-rated

func ratingPath(id int64) string {
	return "/ratings/" + strconv.FormatInt(id, 10)
}

func projectRatingsPath(projectID int64, suffix string) string {
	p := "/ratings/project/" + strconv.FormatInt(projectID, 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) ProjectRatings(ctx context.Context, projectID int64) ([]model.Rating, error) {
	var ratings []model.Rating
	if err := c.doJSON(ctx, http.MethodGet, projectRatingsPath(projectID, ""), nil, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// MyRatings returns every rating the authenticated user has written.
func (c *Client) MyRatings(ctx context.Context) ([]model.Rating, error) {
	var ratings []model.Rating
	if err := c.doJSON(ctx, http.MethodGet, "/ratings/my-ratings", nil, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// RatingDistribution returns star → count. Stars with no votes may be absent.
func (c *Client) RatingDistribution(ctx context.Context, projectID int64) (model.RatingDistribution, error) {
	dist := model.RatingDistribution{}
	if err := c.doJSON(ctx, http.MethodGet, projectRatingsPath(projectID, "distribution"), nil, &dist); err != nil {
		return nil, err
	}
	return dist, nil
}

func (c *Client) AverageRating(ctx context.Context, projectID int64) (float64, error) {
	var body struct {
		AverageRating float64 `json:"averageRating"`
	}
	if err := c.doJSON(ctx, http.MethodGet, projectRatingsPath(projectID, "average"), nil, &body); err != nil {
		return 0, err
	}
	return body.AverageRating, nil
}

func (c *Client) RatingCount(ctx context.Context, projectID int64) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodGet, projectRatingsPath(projectID, "count"), nil, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

func (c *Client) HasRated(ctx context.Context, projectID int64) (bool, error) {
	var body struct {
		HasRated bool `json:"hasRated"`
	}
	if err := c.doJSON(ctx, http.MethodGet, projectRatingsPath(projectID, "has-rated"), nil, &body); err != nil {
		return false, err
	}
	return body.HasRated, nil
}

func (c *Client) CreateRating(ctx context.Context, in model.RatingCreate) (*model.Rating, error) {
	var r model.Rating
	if err := c.doJSON(ctx, http.MethodPost, "/ratings", in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) UpdateRating(ctx context.Context, ratingID int64, in model.RatingUpdate) (*model.Rating, error) {
	var r model.Rating
	if err := c.doJSON(ctx, http.MethodPut, ratingPath(ratingID), in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DeleteRating(ctx context.Context, ratingID int64) error {
	return c.doJSON(ctx, http.MethodDelete, ratingPath(ratingID), nil, nil)
}

// ResetProjectRatings deletes every rating of a project. Admin only.
func (c *Client) ResetProjectRatings(ctx context.Context, projectID int64) error {
	return c.doJSON(ctx, http.MethodDelete, projectRatingsPath(projectID, ""), nil, nil)
}
