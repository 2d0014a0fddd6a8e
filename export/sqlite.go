package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/use-agent/placeharvest/models"
)

// WriteSQLite replaces table in the database at path with records, using
// the raw inferred schema: one TEXT column per RawHeader key.
func WriteSQLite(ctx context.Context, path, table string, records []models.PlaceRecord) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("export: open sqlite: %w", err)
	}
	defer db.Close()

	header := RawHeader(records)
	if len(header) == 0 {
		header = []string{models.KeyURL}
	}

	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, k := range header {
		cols[i] = quoteIdent(k) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("export: drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))); err != nil {
		return fmt.Errorf("export: create table: %w", err)
	}

	quoted := make([]string, len(header))
	for i, k := range header {
		quoted[i] = quoteIdent(k)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("export: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		m := r.Map()
		args := make([]any, len(header))
		for i, k := range header {
			if v, ok := m[k]; ok {
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("export: insert %s: %w", r.URL, err)
		}
	}
	return tx.Commit()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
