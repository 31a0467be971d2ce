package imagehost

import (
	"fmt"
	"regexp"
)

// publicIDPattern captures what follows the version segment of a delivery
// URL, minus the extension:
//
//	https://res.cloudinary.com/demo/image/upload/v1712/portfolio/projects/7/a.jpg
//	                                             ^^^^^ ^^^^^^^^^^^^^^^^^^^^ ^^^
//	                                            version      public id      ext
var publicIDPattern = regexp.MustCompile(`/v\d+/(.+)\.\w+$`)

// Default thumbnail size.
const (
	ThumbnailWidth  = 300
	ThumbnailHeight = 200
)

// ExtractPublicID returns the public id inside a delivery URL, or "" when
// url does not look like one.
func ExtractPublicID(url string) string {
	m := publicIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// TransformedURL builds a delivery URL applying transformations, e.g.
// "w_300,h_200,c_fill".
func (c *Client) TransformedURL(publicID, transformations string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s/%s", c.cfg.DeliveryURL, c.cfg.CloudName, transformations, publicID)
}

// ThumbnailURL returns a cropped, auto-quality version of a hosted image.
// URLs that are not from the host come back unchanged. Non-positive sizes
// fall back to the defaults.
func (c *Client) ThumbnailURL(url string, width, height int) string {
	id := ExtractPublicID(url)
	if id == "" {
		return url
	}
	if width <= 0 {
		width = ThumbnailWidth
	}
	if height <= 0 {
		height = ThumbnailHeight
	}
	return c.TransformedURL(id, fmt.Sprintf("w_%d,h_%d,c_fill,q_auto,f_auto", width, height))
}
