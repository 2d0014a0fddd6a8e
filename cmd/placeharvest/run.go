package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/placeharvest/config"
	"github.com/use-agent/placeharvest/export"
	"github.com/use-agent/placeharvest/harvest"
	"github.com/use-agent/placeharvest/models"
	"github.com/use-agent/placeharvest/page"
)

type runOptions struct {
	url        string
	maxItems   int
	headless   bool
	engine     string
	outDir     string
	baseName   string
	sqlitePath string
	scrollMax  int
	idleRounds int
	itemDelay  time.Duration
	noSummary  bool
}

// apply overrides cfg with every flag the user set.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	// The browser is visible by default for one-off runs.
	cfg.Browser.Headless = o.headless
	if o.engine != "" {
		cfg.Browser.Engine = o.engine
	}
	if o.outDir != "" {
		cfg.Export.Dir = o.outDir
	}
	if o.baseName != "" {
		cfg.Export.BaseName = o.baseName
	}
	if o.sqlitePath != "" {
		cfg.Export.SQLitePath = o.sqlitePath
	}
	if flags.Changed("scroll-max") {
		cfg.Harvest.ScrollMaxIterations = o.scrollMax
	}
	if flags.Changed("idle-rounds") {
		cfg.Harvest.ScrollIdleRounds = o.idleRounds
	}
	if flags.Changed("item-delay") {
		cfg.Harvest.ItemDelay = o.itemDelay
	}
}

// newOpener picks the page engine.
func newOpener(cfg config.BrowserConfig) (page.Opener, error) {
	switch cfg.Engine {
	case "", "rod":
		return page.NewRodOpener(cfg), nil
	case "static":
		return page.NewStaticOpener(page.NewHTTPFetcher(cfg.Proxy, cfg.AcceptLanguage)), nil
	default:
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown engine %q", cfg.Engine), nil)
	}
}

func runHarvest(cmd *cobra.Command, g *globalFlags, o *runOptions, args []string) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)

	searchURL := o.url
	if len(args) == 1 {
		searchURL = args[0]
	}
	if searchURL == "" {
		return errors.New("a search URL is required, e.g. placeharvest run \"https://www.google.com/maps/search/coffee+shops+manila\"")
	}
	if err := harvest.CheckSearchURL(searchURL); err != nil {
		return err
	}
	if o.maxItems < 0 {
		return errors.New("--max must be zero or positive")
	}

	opener, err := newOpener(cfg.Browser)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	runner := harvest.NewRunner(opener, cfg.Harvest)
	records, runErr := runner.Run(ctx, searchURL, o.maxItems, func(i, total int, rec models.PlaceRecord) {
		if rec.Failed() {
			slog.Warn("place failed", "index", i, "total", total, "url", rec.URL, "error", rec.Error)
			return
		}
		slog.Info("place extracted", "index", i, "total", total, "name", rec.Name)
	})
	if runErr != nil && records == nil {
		return runErr
	}
	if runErr != nil {
		slog.Warn("run interrupted, saving partial results", "records", len(records), "error", runErr)
	}

	// Partial results are still written after an interrupt.
	paths, err := export.WriteFiles(ctx, export.Options{
		Dir:        cfg.Export.Dir,
		BaseName:   cfg.Export.BaseName,
		SQLitePath: cfg.Export.SQLitePath,
	}, records)
	if err != nil {
		return err
	}

	if !o.noSummary {
		printSummary(os.Stdout, records, paths, time.Since(start))
	}
	return runErr
}
