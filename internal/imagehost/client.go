// Package imagehost uploads images to a Cloudinary-compatible host.
//
// UPLOAD FLOW:
// Photos never pass through the portfolio backend as bytes when this path is
// used. The file goes straight to the image host with an unsigned upload
// preset, the host answers with a secure_url, and only that URL is saved on
// the backend (POST /photos).
//
//	file ──multipart──▶ {base}/v1_1/{cloud}/image/upload ──▶ secure_url
//	                                                             │
//	                                     backend POST /photos ◀──┘
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/middleware"
	"github.com/sakif/portfolio/internal/perf"
)

// MsgUploadFailed is used when the host gives no reason of its own.
const MsgUploadFailed = "Upload failed"

// Folders photos are filed under on the host.
const (
	ProjectFolderPrefix = "portfolio/projects/"
	ProfileFolder       = "portfolio/profile"
)

// UploadResult is the part of the host's answer the client uses.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
}

// errorBody is the host's failure shape: {"error": {"message": "..."}}.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Config locates the account on the host.
type Config struct {
	// BaseURL is the upload API root, e.g. https://api.cloudinary.com.
	BaseURL string
	// DeliveryURL is the CDN root transformed URLs are built on.
	// Defaults to https://res.cloudinary.com.
	DeliveryURL  string
	CloudName    string
	UploadPreset string
}

// Client uploads files for one cloud account.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a Client. monitor may be nil.
func NewClient(cfg Config, logger *slog.Logger, monitor *perf.Monitor) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.DeliveryURL == "" {
		cfg.DeliveryURL = "https://res.cloudinary.com"
	}
	cfg.DeliveryURL = strings.TrimRight(cfg.DeliveryURL, "/")

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: middleware.Transport(http.DefaultTransport, logger, monitor)},
		logger: logger,
	}
}

// UploadProjectPhoto files the image under portfolio/projects/{projectID}.
func (c *Client) UploadProjectPhoto(ctx context.Context, projectID int64, filename string, content io.Reader) (*UploadResult, error) {
	return c.Upload(ctx, filename, content, ProjectFolderPrefix+strconv.FormatInt(projectID, 10))
}

// UploadProfilePhoto files the image under portfolio/profile.
func (c *Client) UploadProfilePhoto(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	return c.Upload(ctx, filename, content, ProfileFolder)
}

// Upload sends one file. folder may be empty.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, folder string) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	fields := [][2]string{{"upload_preset", c.cfg.UploadPreset}}
	if folder != "" {
		fields = append(fields, [2]string{"folder", folder})
	}
	fields = append(fields, [2]string{"cloud_name", c.cfg.CloudName})
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("image upload failed", slog.String("file", filename), slog.String("error", err.Error()))
		return nil, fmt.Errorf("uploading %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body errorBody
		msg := MsgUploadFailed
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		c.logger.Error("image host rejected upload",
			slog.String("file", filename),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return nil, &apperror.AppError{Err: apperror.ErrUpstream, Message: msg, Status: resp.StatusCode}
	}

	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperror.DecodeFailed("upload response", err)
	}

	c.logger.Info("image uploaded",
		slog.String("file", filename),
		slog.String("publicID", out.PublicID),
		slog.Int64("bytes", out.Bytes),
	)
	return &out, nil
}
