package imagehost

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sakif/portfolio/internal/signal"
)

// ImageState is where a LazyImage is in its life.
//
//	Placeholder ──Reveal──▶ Loading ──ok──▶ Loaded
//	                           └────fail──▶ Error
type ImageState string

const (
	ImagePlaceholder ImageState = "placeholder"
	ImageLoading     ImageState = "loading"
	ImageLoaded      ImageState = "loaded"
	ImageError       ImageState = "error"
)

// DefaultPlaceholder is a 1x1 empty SVG.
const DefaultPlaceholder = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"%3E%3C/svg%3E`

// Prober checks that an image URL can be fetched.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// LazyImage defers fetching an image until it is revealed, showing a
// placeholder until then. Reveal only ever starts one load.
type LazyImage struct {
	src         string
	placeholder string
	state       *signal.Signal[ImageState]
	once        sync.Once
}

// NewLazyImage starts in ImagePlaceholder. An empty placeholder means
// DefaultPlaceholder.
func NewLazyImage(src, placeholder string) *LazyImage {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &LazyImage{src: src, placeholder: placeholder, state: signal.New(ImagePlaceholder)}
}

func (l *LazyImage) State() signal.Readable[ImageState] { return l.state }

// Src is what should be displayed right now: the real source once loaded,
// the placeholder otherwise.
func (l *LazyImage) Src() string {
	if l.state.Get() == ImageLoaded {
		return l.src
	}
	return l.placeholder
}

// Reveal loads the image through p and blocks until it is loaded or has
// failed. Later calls return immediately.
func (l *LazyImage) Reveal(ctx context.Context, p Prober) {
	l.once.Do(func() {
		l.state.Set(ImageLoading)
		if err := p.Probe(ctx, l.src); err != nil {
			l.state.Set(ImageError)
			return
		}
		l.state.Set(ImageLoaded)
	})
}

// Probe issues a HEAD request for url. Any non-2xx answer is a failure.
func (c *Client) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("building probe: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probing %s: status %d", url, resp.StatusCode)
	}
	return nil
}
