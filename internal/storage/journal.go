package storage

import (
	"context"
	"time"

	"locktrack/internal/loader"
)

// Append records an accepted lock in insertion order. The journal is
// an outer collaborator: the in-memory registry stays canonical and
// the journal exists only so a restart can replay the session.
func (d *DB) Append(ctx context.Context, resourceID string, start, end int64) error {
	_, err := d.ExecContext(ctx, `
INSERT INTO lock_records(resource_id, start_at, end_at, created_at_ns)
VALUES(?, ?, ?, ?);
`, resourceID, start, end, time.Now().UnixNano())
	return err
}

// LoadAll returns every journaled record in insertion order, shaped
// for Registry.LoadRecords.
func (d *DB) LoadAll(ctx context.Context) ([]loader.Record, error) {
	rows, err := d.QueryContext(ctx, `
SELECT resource_id, start_at, end_at
FROM lock_records
ORDER BY id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []loader.Record
	for rows.Next() {
		var rec loader.Record
		if err := rows.Scan(&rec.ResourceID, &rec.Start, &rec.End); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
