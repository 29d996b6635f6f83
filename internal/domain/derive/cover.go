package derive

import (
	"net/url"
	"strings"
)

// CoverURL builds the song info cover endpoint for an image name.
func CoverURL(base, imageName string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/api/cover/" + url.PathEscape(imageName)
}
