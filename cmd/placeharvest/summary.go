package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/use-agent/placeharvest/export"
	"github.com/use-agent/placeharvest/models"
)

// summaryRows caps how many places the summary lists.
const summaryRows = 25

// printSummary renders the clean projection of records and where the
// exports were written.
func printSummary(w io.Writer, records []models.PlaceRecord, paths export.Paths, elapsed time.Duration) {
	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Category", "Rating", "Reviews", "Phone"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 24},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	rows := export.CleanRows(records)
	for i, r := range rows {
		if i == summaryRows {
			t.AppendRow(table.Row{"", "…", "", "", "", ""})
			break
		}
		t.AppendRow(table.Row{i + 1, r.Name, r.Category, r.Rating, r.Reviews, r.Phone})
	}
	t.AppendFooter(table.Row{"", "places", len(records), "failed", failed, elapsed.Round(time.Second).String()})
	t.Render()

	files := table.NewWriter()
	files.SetOutputMirror(w)
	files.SetStyle(table.StyleLight)
	files.AppendHeader(table.Row{"Output", "Path"})
	for _, f := range []struct{ name, path string }{
		{"raw json", paths.JSON},
		{"raw csv", paths.CSV},
		{"clean csv", paths.Clean},
		{"sqlite", paths.SQLite},
	} {
		if f.path == "" {
			continue
		}
		files.AppendRow(table.Row{f.name, f.path})
	}
	files.Render()
}
