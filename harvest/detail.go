package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/placeharvest/models"
	"github.com/use-agent/placeharvest/page"
)

// DetailExtractor visits one item page and reads every field.
type DetailExtractor struct {
	Fields []Field

	// NavigationTimeout bounds the page load.
	NavigationTimeout time.Duration

	// Settle is the pause after load for client-side rendering.
	Settle time.Duration

	Sleep SleepFunc
}

// Extract navigates h to url and returns its record. A field whose elements
// are absent is left empty. Any navigation, query or evaluation error, and
// any panic, turns the whole result into an error record.
func (d *DetailExtractor) Extract(ctx context.Context, h page.Handle, url string) (rec models.PlaceRecord) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during detail extraction", "url", url, "panic", r)
			rec = models.ErrorRecord(url, fmt.Errorf("panic: %v", r))
		}
	}()

	slog.Info("extracting details", "url", url)

	if err := h.Navigate(ctx, url, page.WaitNetworkIdle, d.NavigationTimeout); err != nil {
		slog.Warn("error extracting details", "url", url, "error", err)
		return models.ErrorRecord(url, err)
	}

	sleep := d.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	if err := sleep(ctx, d.Settle); err != nil {
		return models.ErrorRecord(url, err)
	}

	rec = models.PlaceRecord{URL: url}
	for _, f := range d.Fields {
		v, err := f.Evaluate(ctx, h)
		if err != nil {
			slog.Warn("error extracting details", "url", url, "field", f.Key, "error", err)
			return models.ErrorRecord(url, err)
		}
		rec.Set(f.Key, v)
	}

	slog.Info("extracted place", "url", url, "name", rec.Name)
	return rec
}
