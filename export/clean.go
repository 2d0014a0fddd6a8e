package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/use-agent/placeharvest/models"
)

// CleanHeader is the fixed column set of the clean export.
var CleanHeader = []string{"Name", "Address", "Category", "Rating", "Reviews", "Phone", "Website", "Google Maps URL"}

// CleanRow is one record projected onto CleanHeader.
type CleanRow struct {
	Name     string
	Address  string
	Category string
	Rating   string
	Reviews  string
	Phone    string
	Website  string
	URL      string
}

func (r CleanRow) values() []string {
	return []string{r.Name, r.Address, r.Category, r.Rating, r.Reviews, r.Phone, r.Website, r.URL}
}

// CleanText drops every byte outside printable ASCII, collapses whitespace
// runs to one space and trims the ends. CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\v' || r == '\f' || r == '\r':
			b.WriteByte(' ')
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanRows projects records onto the clean schema, sorted by name without
// regard to case. Ties keep harvest order.
func CleanRows(records []models.PlaceRecord) []CleanRow {
	rows := make([]CleanRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, CleanRow{
			Name:     CleanText(r.Name),
			Address:  CleanText(r.Address),
			Category: CleanText(r.Category),
			Rating:   r.Rating,
			Reviews:  strings.NewReplacer("(", "", ")", "").Replace(r.ReviewCount),
			Phone:    CleanText(r.Phone),
			Website:  r.Website,
			URL:      r.URL,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows
}

// WriteCleanCSV writes the clean projection of records. The header is
// written even when there are no records.
func WriteCleanCSV(w io.Writer, records []models.PlaceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CleanHeader); err != nil {
		return fmt.Errorf("export: write clean header: %w", err)
	}
	for _, row := range CleanRows(records) {
		if err := cw.Write(row.values()); err != nil {
			return fmt.Errorf("export: write clean row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
