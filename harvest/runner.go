package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/placeharvest/config"
	"github.com/use-agent/placeharvest/models"
	"github.com/use-agent/placeharvest/page"
)

// ProgressFunc is called after each item with its 1-based index.
type ProgressFunc func(index, total int, rec models.PlaceRecord)

// Runner sequences a full listing run over a handle it opens and owns.
// A Runner keeps no per-run state and may be reused.
type Runner struct {
	opener    page.Opener
	scroller  *Scroller
	harvester *Harvester
	extractor *DetailExtractor

	navTimeout time.Duration
	warmUp     time.Duration
	itemDelay  time.Duration
	sleep      SleepFunc
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSleep replaces every pause of the run with fn.
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) { r.sleep = fn }
}

// WithFields replaces the extracted field set.
func WithFields(fields []Field) Option {
	return func(r *Runner) { r.extractor.Fields = fields }
}

// NewRunner builds a Runner from the harvest configuration.
func NewRunner(opener page.Opener, cfg config.HarvestConfig, opts ...Option) *Runner {
	r := &Runner{
		opener:     opener,
		harvester:  &Harvester{LinkSelector: cfg.LinkSelector, Timeout: cfg.ElementTimeout},
		extractor:  &DetailExtractor{Fields: DefaultFields(), NavigationTimeout: cfg.NavigationTimeout, Settle: cfg.Settle},
		navTimeout: cfg.NavigationTimeout,
		warmUp:     cfg.WarmUp,
		itemDelay:  cfg.ItemDelay,
		sleep:      Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.extractor.Sleep = r.sleep
	r.scroller = NewScroller(ScrollOptions{
		FeedSelector:  cfg.FeedSelector,
		LinkSelector:  cfg.LinkSelector,
		MaxIterations: cfg.ScrollMaxIterations,
		IdleRounds:    cfg.ScrollIdleRounds,
		Pause:         cfg.ScrollPause,
	}, r.sleep)
	return r
}

// Run harvests up to maxItems places from searchURL (all when maxItems <= 0)
// and returns one record per harvested URL in harvest order.
//
// The item delay is applied between items only: never before the first nor
// after the last, since no request follows it.
//
// Per-item failures become error records. Only failing to open the handle or
// to load the search page is fatal. If ctx ends mid-run the records gathered
// so far are returned with the error. The handle is closed exactly once on
// every path.
func (r *Runner) Run(ctx context.Context, searchURL string, maxItems int, progress ProgressFunc) ([]models.PlaceRecord, error) {
	h, err := r.opener.Open(ctx)
	if err != nil {
		var he *models.HarvestError
		if errors.As(err, &he) {
			return nil, err
		}
		return nil, models.NewHarvestError(models.ErrCodeBrowserUnavailable, "failed to open page", err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			slog.Warn("closing page handle failed", "error", err)
		}
	}()

	slog.Info("loading search results", "url", searchURL)
	if err := h.Navigate(ctx, searchURL, page.WaitNetworkIdle, r.navTimeout); err != nil {
		var he *models.HarvestError
		if errors.As(err, &he) {
			return nil, err
		}
		return nil, models.NewHarvestError(models.ErrCodeNavigation, "failed to load search page", err)
	}

	records := []models.PlaceRecord{}
	if err := r.sleep(ctx, r.warmUp); err != nil {
		return records, interrupted(err)
	}

	r.scroller.Scroll(ctx, h)

	urls := r.harvester.Harvest(ctx, h, searchURL)
	if len(urls) == 0 {
		slog.Info("no places found")
		if err := ctx.Err(); err != nil {
			return records, interrupted(err)
		}
		return records, nil
	}
	if maxItems > 0 && maxItems < len(urls) {
		urls = urls[:maxItems]
	}

	slog.Info("extracting places", "total", len(urls))
	for i, u := range urls {
		if i > 0 {
			if err := r.sleep(ctx, r.itemDelay); err != nil {
				return records, interrupted(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return records, interrupted(err)
		}

		rec := r.extractor.Extract(ctx, h, u)
		records = append(records, rec)
		slog.Info("place processed", "index", i+1, "total", len(urls), "failed", rec.Failed())
		if progress != nil {
			progress(i+1, len(urls), rec)
		}
	}

	return records, nil
}

func interrupted(err error) error {
	return models.NewHarvestError(models.ErrCodeTimeout, "run interrupted", err)
}
