package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportBatch = `-- name: InsertImportBatch :exec
INSERT INTO import_batches (
    id, file_name, total_rows, imported, failed, skipped, ip_address, user_agent, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9
)
`

type InsertImportBatchParams struct {
	ID        pgtype.UUID
	FileName  pgtype.Text
	TotalRows int32
	Imported  int32
	Failed    int32
	Skipped   int32
	IpAddress pgtype.Text
	UserAgent pgtype.Text
	CreatedAt pgtype.Timestamptz
}

func (q *Queries) InsertImportBatch(ctx context.Context, arg InsertImportBatchParams) error {
	_, err := q.db.Exec(ctx, insertImportBatch,
		arg.ID,
		arg.FileName,
		arg.TotalRows,
		arg.Imported,
		arg.Failed,
		arg.Skipped,
		arg.IpAddress,
		arg.UserAgent,
		arg.CreatedAt,
	)
	return err
}

const listRecentImportBatches = `-- name: ListRecentImportBatches :many
SELECT id, file_name, total_rows, imported, failed, skipped, ip_address, user_agent, created_at
FROM import_batches
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListRecentImportBatches(ctx context.Context, limit int32) ([]ImportBatch, error) {
	rows, err := q.db.Query(ctx, listRecentImportBatches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportBatch
	for rows.Next() {
		var i ImportBatch
		if err := rows.Scan(
			&i.ID,
			&i.FileName,
			&i.TotalRows,
			&i.Imported,
			&i.Failed,
			&i.Skipped,
			&i.IpAddress,
			&i.UserAgent,
			&i.CreatedAt,
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
