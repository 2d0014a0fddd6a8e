// Package export writes harvested records in two projections: the raw form,
// whose schema is inferred from the records themselves, and the clean form
// with a fixed column set and normalized text.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/use-agent/placeharvest/models"
)

// WriteJSON writes records as an indented JSON array. Non-ASCII text is
// written as-is.
func WriteJSON(w io.Writer, records []models.PlaceRecord) error {
	if records == nil {
		records = []models.PlaceRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// ReadJSON reads records written by WriteJSON.
func ReadJSON(r io.Reader) ([]models.PlaceRecord, error) {
	var records []models.PlaceRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("export: decode json: %w", err)
	}
	if records == nil {
		records = []models.PlaceRecord{}
	}
	return records, nil
}

// RawHeader returns the sorted union of the keys carried by records.
func RawHeader(records []models.PlaceRecord) []string {
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r.Map() {
			keys[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)
	return header
}

// WriteRawCSV writes one row per record under RawHeader. A record lacking a
// key gets an empty cell.
func WriteRawCSV(w io.Writer, records []models.PlaceRecord) error {
	header := RawHeader(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	for _, r := range records {
		m := r.Map()
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = m[k]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
