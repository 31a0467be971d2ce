package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/sakif/portfolio/internal/model"
)

// photoField is the multipart field name the server reads the file from.
const photoField = "photo"

// UploadProjectPhoto sends the file itself to the backend (PUT /photos/{projectId}).
func (c *Client) UploadProjectPhoto(ctx context.Context, projectID int64, filename string, content io.Reader) (*model.Photo, error) {
	return c.uploadPhoto(ctx, "/photos/"+strconv.FormatInt(projectID, 10), filename, content)
}

// UploadProfilePhoto → PUT /photos/profile
func (c *Client) UploadProfilePhoto(ctx context.Context, filename string, content io.Reader) (*model.Photo, error) {
	return c.uploadPhoto(ctx, "/photos/profile", filename, content)
}

// SavePhotoURL records a photo that already lives on the image host.
func (c *Client) SavePhotoURL(ctx context.Context, in model.PhotoInput) (*model.Photo, error) {
	var p model.Photo
	if err := c.doJSON(ctx, http.MethodPost, "/photos", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePhoto(ctx context.Context, photoID int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/photos/"+strconv.FormatInt(photoID, 10), nil, nil)
}

func (c *Client) uploadPhoto(ctx context.Context, path, filename string, content io.Reader) (*model.Photo, error) {
	body, contentType, err := multipartFile(photoField, filename, content, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building PUT %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var p model.Photo
	if err := c.send(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// multipartFile builds a multipart/form-data body holding one file part and
// the given plain fields. It returns the body and its Content-Type (which
// carries the boundary).
func multipartFile(field, filename string, content io.Reader, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("copying %s: %w", filename, err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
