package database

import (
	"context"
)

const listCodeEntries = `-- name: ListCodeEntries :many
SELECT kind, code, name, updated_at FROM code_entries ORDER BY kind, code
`

func (q *Queries) ListCodeEntries(ctx context.Context) ([]CodeEntry, error) {
	rows, err := q.db.Query(ctx, listCodeEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CodeEntry
	for rows.Next() {
		var i CodeEntry
		if err := rows.Scan(
			&i.Kind,
			&i.Code,
			&i.Name,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCodeEntry = `-- name: UpsertCodeEntry :exec
INSERT INTO code_entries (kind, code, name)
VALUES ($1, $2, $3)
ON CONFLICT (kind, code) DO UPDATE SET
    name       = EXCLUDED.name,
    updated_at = now()
`

type UpsertCodeEntryParams struct {
	Kind string
	Code string
	Name string
}

func (q *Queries) UpsertCodeEntry(ctx context.Context, arg UpsertCodeEntryParams) error {
	_, err := q.db.Exec(ctx, upsertCodeEntry, arg.Kind, arg.Code, arg.Name)
	return err
}
