package apiclient

import (
	"context"
	"net/http"

	"github.com/sakif/portfolio/internal/model"
)

// SubmitContact → POST /contact. The server reports business failures with
// success=false in a 200 body, so callers must check both the error and
// resp.Success.
func (c *Client) SubmitContact(ctx context.Context, in model.ContactRequest) (*model.ContactResponse, error) {
	var resp model.ContactResponse
	if err := c.doJSON(ctx, http.MethodPost, "/contact", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
