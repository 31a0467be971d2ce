package imagehost

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
)

type capturedUpload struct {
	fields   map[string]string
	filename string
	content  string
}

// fakeHost answers uploads for cloud "demo" and records what it received.
type fakeHost struct {
	*httptest.Server
	mu      sync.Mutex
	uploads []capturedUpload
	status  int
	body    string
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	h := &fakeHost{status: http.StatusOK}

	r := chi.NewRouter()
	r.Post("/v1_1/{cloud}/image/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		up := capturedUpload{fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			up.fields[k] = v[0]
		}
		file, header, err := r.FormFile("file")
		if err == nil {
			raw, _ := io.ReadAll(file)
			up.filename = header.Filename
			up.content = string(raw)
		}

		h.mu.Lock()
		h.uploads = append(h.uploads, up)
		status, body := h.status, h.body
		h.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			io.WriteString(w, body)
			return
		}
		json.NewEncoder(w).Encode(UploadResult{
			SecureURL: "https://res.cloudinary.com/" + chi.URLParam(r, "cloud") + "/image/upload/v1/" + up.fields["folder"] + "/" + header.Filename,
			PublicID:  up.fields["folder"] + "/img",
			Format:    "png",
			Width:     10,
			Height:    20,
			Bytes:     int64(len(up.content)),
		})
	})
	r.Head("/ok.png", func(w http.ResponseWriter, r *http.Request) {})

	h.Server = httptest.NewServer(r)
	t.Cleanup(h.Close)
	return h
}

func (h *fakeHost) recorded() []capturedUpload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capturedUpload(nil), h.uploads...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(h *fakeHost) *Client {
	return NewClient(Config{BaseURL: h.URL, CloudName: "demo", UploadPreset: "unsigned"}, quietLogger(), nil)
}

func TestUploadProjectPhoto(t *testing.T) {
	h := newFakeHost(t)
	c := newTestClient(h)

	res, err := c.UploadProjectPhoto(context.Background(), 7, "shot.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)

	assert.Equal(t, "portfolio/projects/7/img", res.PublicID)
	assert.Equal(t, int64(7), res.Bytes)
	assert.Contains(t, res.SecureURL, "https://res.cloudinary.com/demo/")

	uploads := h.recorded()
	require.Len(t, uploads, 1)
	up := uploads[0]
	assert.Equal(t, "shot.png", up.filename)
	assert.Equal(t, "PNGDATA", up.content)
	assert.Equal(t, map[string]string{
		"upload_preset": "unsigned",
		"folder":        "portfolio/projects/7",
		"cloud_name":    "demo",
	}, up.fields)
}

func TestUploadWithoutFolderOmitsField(t *testing.T) {
	h := newFakeHost(t)
	c := newTestClient(h)

	_, err := c.Upload(context.Background(), "a.png", strings.NewReader("x"), "")
	require.NoError(t, err)

	_, has := h.recorded()[0].fields["folder"]
	assert.False(t, has)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"host message surfaced", http.StatusBadRequest, `{"error":{"message":"Invalid image file"}}`, "Invalid image file"},
		{"no message falls back", http.StatusInternalServerError, `oops`, MsgUploadFailed},
		{"empty message falls back", http.StatusUnauthorized, `{"error":{}}`, MsgUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHost(t)
			h.status, h.body = tt.status, tt.body
			c := newTestClient(h)

			_, err := c.UploadProfilePhoto(context.Background(), "me.png", strings.NewReader("x"))

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrUpstream))
			assert.Equal(t, tt.wantMsg, apperror.MessageOr(err, ""))
			assert.Equal(t, "portfolio/profile", h.recorded()[0].fields["folder"])
		})
	}
}

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/portfolio/projects/7/a.jpg", "portfolio/projects/7/a"},
		{"https://res.cloudinary.com/demo/image/upload/v1/sample.png", "sample"},
		{"https://example.com/images/a.jpg", ""},
		{"https://res.cloudinary.com/demo/image/upload/v1712/noext", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractPublicID(tt.url), tt.url)
	}
}

func TestThumbnailURL(t *testing.T) {
	c := NewClient(Config{CloudName: "demo"}, quietLogger(), nil)

	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_300,h_200,c_fill,q_auto,f_auto/portfolio/a",
		c.ThumbnailURL("https://res.cloudinary.com/demo/image/upload/v9/portfolio/a.webp", 0, 0))
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_64,h_64,c_fill,q_auto,f_auto/a",
		c.ThumbnailURL("https://res.cloudinary.com/demo/image/upload/v9/a.png", 64, 64))

	foreign := "https://example.com/a.png"
	assert.Equal(t, foreign, c.ThumbnailURL(foreign, 64, 64))
}

func TestLazyImage(t *testing.T) {
	h := newFakeHost(t)
	c := newTestClient(h)
	ctx := context.Background()

	ok := NewLazyImage(h.URL+"/ok.png", "")
	assert.Equal(t, ImagePlaceholder, ok.State().Get())
	assert.Equal(t, DefaultPlaceholder, ok.Src())

	var seen []ImageState
	ok.State().Subscribe(func(s ImageState) { seen = append(seen, s) })
	ok.Reveal(ctx, c)
	ok.Reveal(ctx, c)

	assert.Equal(t, []ImageState{ImageLoading, ImageLoaded}, seen, "second reveal is a no-op")
	assert.Equal(t, h.URL+"/ok.png", ok.Src())

	missing := NewLazyImage(h.URL+"/missing.png", "thumb.png")
	missing.Reveal(ctx, c)
	assert.Equal(t, ImageError, missing.State().Get())
	assert.Equal(t, "thumb.png", missing.Src())
}
