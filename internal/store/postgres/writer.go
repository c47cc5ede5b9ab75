package postgres

import (
	"context"
	"fmt"
	"strings"

	"townfeed/internal/model"
)

type Writer struct {
	db *DB
}

func NewWriter(db *DB) *Writer { return &Writer{db: db} }

// UpsertBatch writes the aggregated feed with a multi-row INSERT,
// overwriting the non-key columns on identity-key conflict so refresh
// cycles keep stored events current.
func (w *Writer) UpsertBatch(ctx context.Context, items []model.Event) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	cols := []string{"title", "start_time", "location", "description", "image_url", "source_url", "category", "is_free"}
	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(cols))

	argi := 1
	for _, ev := range items {
		ph := make([]string, 0, len(cols))
		for _, v := range []any{
			ev.Title,
			ev.Start,
			ev.Location,
			nullable(ev.Description),
			nullable(ev.ImageURL),
			ev.SourceURL,
			ev.Category,
			ev.IsFree,
		} {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d", argi))
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO events (" + strings.Join(cols, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		` ON CONFLICT (title, start_time, location) DO UPDATE SET
    description = EXCLUDED.description,
    image_url   = EXCLUDED.image_url,
    source_url  = EXCLUDED.source_url,
    category    = EXCLUDED.category,
    is_free     = EXCLUDED.is_free,
    updated_at  = now()`

	ct, err := w.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
