package harvest

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/placeharvest/page"
)

// Harvester collects item URLs from a loaded listing page.
type Harvester struct {
	// LinkSelector matches the item anchors.
	LinkSelector string

	// Timeout bounds the wait for the first anchor to appear.
	Timeout time.Duration
}

// Harvest returns the distinct item URLs in the order the page yields them.
// Relative hrefs are resolved against baseURL and only http(s) links are
// kept. Every failure is soft: the result is then empty, never nil.
func (hv *Harvester) Harvest(ctx context.Context, h page.Handle, baseURL string) []string {
	urls := []string{}

	found, err := h.WaitForSelector(ctx, hv.LinkSelector, hv.Timeout)
	if err != nil {
		slog.Warn("waiting for place links failed", "selector", hv.LinkSelector, "error", err)
		return urls
	}
	if !found {
		slog.Warn("timeout waiting for place results", "selector", hv.LinkSelector, "timeout", hv.Timeout)
		return urls
	}

	els, err := h.QueryAll(ctx, hv.LinkSelector)
	if err != nil {
		slog.Warn("querying place links failed", "selector", hv.LinkSelector, "error", err)
		return urls
	}

	base, _ := url.Parse(baseURL)
	seen := make(map[string]struct{}, len(els))
	for _, el := range els {
		href, err := el.Attribute(ctx, "href")
		if err != nil {
			slog.Debug("reading link href failed", "error", err)
			continue
		}
		abs, ok := resolveLink(base, href)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
	}

	slog.Info("found unique places", "count", len(urls), "anchors", len(els))
	return urls
}

func resolveLink(base *url.URL, href string) (string, bool) {
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
