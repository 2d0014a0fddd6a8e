package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/use-agent/placeharvest/models"
)

// Paths lists the files written by WriteFiles. Skipped outputs are empty.
type Paths struct {
	JSON   string
	CSV    string
	Clean  string
	SQLite string
}

// Options controls WriteFiles.
type Options struct {
	Dir      string
	BaseName string

	// SQLitePath enables the SQLite sink when set.
	SQLitePath string
}

// WriteFiles writes <base>.json, <base>.csv and <base>_clean.csv to dir.
// The raw outputs are skipped when there are no records; the clean CSV is
// always written.
//
// Cancellation of ctx is ignored so that records gathered before an
// interrupt are still saved.
func WriteFiles(ctx context.Context, opts Options, records []models.PlaceRecord) (Paths, error) {
	ctx = context.WithoutCancel(ctx)
	var p Paths
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.BaseName == "" {
		opts.BaseName = "google_places"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return p, fmt.Errorf("export: create output dir: %w", err)
	}
	base := filepath.Join(opts.Dir, opts.BaseName)

	if len(records) == 0 {
		slog.Warn("no data to save, skipping raw outputs")
	} else {
		p.JSON = base + ".json"
		if err := writeFile(p.JSON, func(w io.Writer) error { return WriteJSON(w, records) }); err != nil {
			return p, err
		}
		slog.Info("data saved", "path", p.JSON)

		p.CSV = base + ".csv"
		if err := writeFile(p.CSV, func(w io.Writer) error { return WriteRawCSV(w, records) }); err != nil {
			return p, err
		}
		slog.Info("data saved", "path", p.CSV)
	}

	p.Clean = base + "_clean.csv"
	if err := writeFile(p.Clean, func(w io.Writer) error { return WriteCleanCSV(w, records) }); err != nil {
		return p, err
	}
	slog.Info("clean csv saved", "path", p.Clean, "places", len(records))

	if opts.SQLitePath != "" {
		if err := WriteSQLite(ctx, opts.SQLitePath, opts.BaseName, records); err != nil {
			return p, err
		}
		p.SQLite = opts.SQLitePath
		slog.Info("sqlite table written", "path", p.SQLite, "table", opts.BaseName)
	}
	return p, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
