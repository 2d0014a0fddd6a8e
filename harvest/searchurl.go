package harvest

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/placeharvest/models"
)

// CheckSearchURL rejects anything but an absolute http(s) URL. A URL that is
// not a Google Maps page is accepted with a warning, since the default
// selectors target that layout.
func CheckSearchURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewHarvestError(models.ErrCodeInvalidInput, "search URL must be an absolute http(s) URL", err)
	}
	if !IsMapsURL(u) {
		slog.Warn("search URL does not look like a Google Maps page; selectors may not match", "url", raw)
	}
	return nil
}

// IsMapsURL reports whether u points at Google Maps.
func IsMapsURL(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if strings.HasPrefix(host, "maps.google.") {
		return true
	}
	isGoogle := host == "google.com" || strings.HasPrefix(host, "www.google.") || strings.HasPrefix(host, "google.")
	return isGoogle && strings.HasPrefix(u.Path, "/maps")
}
