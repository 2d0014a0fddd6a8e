package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/placeharvest/models"
)

func sampleRecords() []models.PlaceRecord {
	return []models.PlaceRecord{
		{URL: "https://x/place/b", Name: "bistro Été", Rating: "4.2", ReviewCount: "(87)", Address: "1 Rue\n  Haute"},
		{URL: "https://x/place/err", Error: "TIMEOUT: navigation failed: context deadline exceeded"},
		{URL: "https://x/place/a", Name: "Alpha Bar", Phone: " +1 555 0101 ", Website: "https://alpha.example"},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestJSON_RoundTrip(t *testing.T) {
	in := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))

	assert.Contains(t, buf.String(), "bistro Été", "non-ASCII must not be escaped")
	assert.Contains(t, buf.String(), "\n  {")

	out, err := ReadJSON(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestJSON_ErrorRecordShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []models.PlaceRecord{{URL: "u", Error: "boom"}}))
	assert.JSONEq(t, `[{"url":"u","error":"boom"}]`, buf.String())
}

func TestJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	out, err := ReadJSON(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRawHeader(t *testing.T) {
	t.Run("union of detail and error records", func(t *testing.T) {
		h := RawHeader(sampleRecords())
		assert.Equal(t, []string{
			"address", "attributes", "category", "description", "error", "hours",
			"name", "phone", "plus_code", "popular_times", "price_level", "rating",
			"review_count", "url", "website",
		}, h)
	})
	t.Run("only error records", func(t *testing.T) {
		h := RawHeader([]models.PlaceRecord{{URL: "u", Error: "e"}})
		assert.Equal(t, []string{"error", "url"}, h)
	})
	t.Run("no records", func(t *testing.T) {
		assert.Empty(t, RawHeader(nil))
	})
}

func TestWriteRawCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRawCSV(&buf, sampleRecords()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 4)
	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q missing", name)
		return -1
	}

	assert.Equal(t, "1 Rue\n  Haute", rows[1][col("address")], "raw export keeps text verbatim")
	assert.Equal(t, "(87)", rows[1][col("review_count")])
	assert.Equal(t, "", rows[1][col("error")])
	assert.Equal(t, "", rows[2][col("name")])
	assert.Equal(t, "https://x/place/err", rows[2][col("url")])
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Café Déjà-vu  \n Resto", "Caf Dj-vu Resto"},
		{"  plain  ", "plain"},
		{"tab\tand\r\nnewline", "tab and newline"},
		{"bell\x07char", "bellchar"},
		{"", ""},
		{"日本", ""},
		{"a   b", "a b"},
	}
	for _, tt := range tests {
		got := CleanText(tt.in)
		assert.Equal(t, tt.want, got, "CleanText(%q)", tt.in)
		assert.Equal(t, got, CleanText(got), "CleanText must be idempotent for %q", tt.in)
	}
}

func TestCleanRows(t *testing.T) {
	rows := CleanRows(sampleRecords())

	want := []CleanRow{
		{Name: "", URL: "https://x/place/err"},
		{Name: "Alpha Bar", Phone: "+1 555 0101", Website: "https://alpha.example", URL: "https://x/place/a"},
		{Name: "bistro t", Address: "1 Rue Haute", Rating: "4.2", Reviews: "87", URL: "https://x/place/b"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("clean rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanRows_StableForEqualNames(t *testing.T) {
	rows := CleanRows([]models.PlaceRecord{
		{URL: "1", Name: "Same"},
		{URL: "2", Name: "same"},
		{URL: "3", Name: "SAME"},
	})
	assert.Equal(t, "1", rows[0].URL)
	assert.Equal(t, "2", rows[1].URL)
	assert.Equal(t, "3", rows[2].URL)
}

func TestWriteCleanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCleanCSV(&buf, sampleRecords()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Address", "Category", "Rating", "Reviews", "Phone", "Website", "Google Maps URL"}, rows[0])
	assert.Equal(t, "Alpha Bar", rows[2][0])
}

func TestWriteCleanCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCleanCSV(&buf, nil))
	assert.Equal(t, "Name,Address,Category,Rating,Reviews,Phone,Website,Google Maps URL\n", buf.String())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "places.db")

	p, err := WriteFiles(context.Background(), Options{Dir: dir, BaseName: "cafes", SQLitePath: dbPath}, sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cafes.json"), p.JSON)
	assert.Equal(t, filepath.Join(dir, "cafes.csv"), p.CSV)
	assert.Equal(t, filepath.Join(dir, "cafes_clean.csv"), p.Clean)
	assert.Equal(t, dbPath, p.SQLite)
	for _, f := range []string{p.JSON, p.CSV, p.Clean, p.SQLite} {
		assert.FileExists(t, f)
	}
}

func TestWriteFiles_CancelledContextStillWritesSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "places.db")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := WriteFiles(ctx, Options{Dir: dir, BaseName: "cafes", SQLitePath: dbPath}, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, dbPath, p.SQLite)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cafes`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestWriteFiles_NoRecordsSkipsRawOutputs(t *testing.T) {
	dir := t.TempDir()

	p, err := WriteFiles(context.Background(), Options{Dir: dir}, nil)
	require.NoError(t, err)

	assert.Empty(t, p.JSON)
	assert.Empty(t, p.CSV)
	assert.NoFileExists(t, filepath.Join(dir, "google_places.json"))
	data, err := os.ReadFile(p.Clean)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), 1)
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	ctx := context.Background()

	require.NoError(t, WriteSQLite(ctx, path, "places", sampleRecords()))
	// Rewriting replaces the table instead of appending.
	require.NoError(t, WriteSQLite(ctx, path, "places", sampleRecords()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM places`).Scan(&n))
	assert.Equal(t, 3, n)

	var name sql.NullString
	require.NoError(t, db.QueryRow(`SELECT name FROM places WHERE url = ?`, "https://x/place/err").Scan(&name))
	assert.False(t, name.Valid, "keys absent from a record are stored as NULL")

	var errMsg sql.NullString
	require.NoError(t, db.QueryRow(`SELECT error FROM places WHERE url = ?`, "https://x/place/a").Scan(&errMsg))
	assert.False(t, errMsg.Valid)
}
