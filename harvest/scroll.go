package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/placeharvest/page"
)

// scrollFeedJS scrolls the feed to its bottom and reports how many item links
// are loaded, or -1 when the feed is not on the page.
const scrollFeedJS = `(feed, link) => {
	const el = document.querySelector(feed);
	if (!el) return -1;
	el.scrollTo(0, el.scrollHeight);
	return document.querySelectorAll(link).length;
}`

// ScrollOptions configures a Scroller.
type ScrollOptions struct {
	FeedSelector string
	LinkSelector string

	// MaxIterations bounds the number of scroll attempts.
	MaxIterations int

	// IdleRounds stops scrolling after this many consecutive scrolls that load
	// no new items. Zero disables idle detection.
	IdleRounds int

	// Pause is the wait after each scroll for new items to load.
	Pause time.Duration
}

// ScrollReport summarizes one Scroll call.
type ScrollReport struct {
	Attempts int
	Scrolled int
	NoOps    int
	Items    int
	Idle     bool
}

// Scroller loads more listing items by repeatedly scrolling the results feed.
type Scroller struct {
	opts  ScrollOptions
	sleep SleepFunc
}

// NewScroller creates a Scroller. A nil sleep uses Sleep.
func NewScroller(opts ScrollOptions, sleep SleepFunc) *Scroller {
	if sleep == nil {
		sleep = Sleep
	}
	return &Scroller{opts: opts, sleep: sleep}
}

// Scroll never fails: a missing feed or a failed scroll is logged and counted
// as a no-op attempt. It returns early when the handle cannot run scripts,
// when ctx is done, or when the item count stops growing.
func (s *Scroller) Scroll(ctx context.Context, h page.Handle) ScrollReport {
	var rep ScrollReport
	idle := 0

	for i := 0; i < s.opts.MaxIterations; i++ {
		if ctx.Err() != nil {
			return rep
		}
		rep.Attempts++

		res, err := h.Evaluate(ctx, scrollFeedJS, s.opts.FeedSelector, s.opts.LinkSelector)
		switch {
		case errors.Is(err, page.ErrUnsupported):
			slog.Info("scrolling not supported by page handle, using loaded items")
			return rep
		case err != nil:
			rep.NoOps++
			slog.Warn("scroll attempt failed", "attempt", rep.Attempts, "error", err)
		case res.Int() < 0:
			rep.NoOps++
			slog.Warn("results feed not found, scroll skipped",
				"attempt", rep.Attempts, "selector", s.opts.FeedSelector)
		default:
			rep.Scrolled++
			if n := res.Int(); n > rep.Items {
				rep.Items = n
				idle = 0
			} else {
				idle++
			}
			slog.Debug("scrolled results feed", "attempt", rep.Attempts, "items", rep.Items)
		}

		if s.opts.IdleRounds > 0 && idle >= s.opts.IdleRounds {
			rep.Idle = true
			slog.Info("no new items after scrolling, stopping", "attempts", rep.Attempts, "items", rep.Items)
			return rep
		}

		if err := s.sleep(ctx, s.opts.Pause); err != nil {
			return rep
		}
	}

	slog.Info("scrolling complete", "attempts", rep.Attempts, "items", rep.Items, "no_ops", rep.NoOps)
	return rep
}
