package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertSheepEvent = `-- name: InsertSheepEvent :exec
INSERT INTO sheep_events (sheep_id, event_date, event_type, description, notes)
VALUES ($1, $2, $3, $4, $5)
`

type InsertSheepEventParams struct {
	SheepID     int64
	EventDate   pgtype.Date
	EventType   string
	Description pgtype.Text
	Notes       pgtype.Text
}

func (q *Queries) InsertSheepEvent(ctx context.Context, arg InsertSheepEventParams) error {
	_, err := q.db.Exec(ctx, insertSheepEvent,
		arg.SheepID,
		arg.EventDate,
		arg.EventType,
		arg.Description,
		arg.Notes,
	)
	return err
}

const insertSheepMeasurement = `-- name: InsertSheepMeasurement :exec
INSERT INTO sheep_measurements (sheep_id, record_date, record_type, value, notes)
VALUES ($1, $2, $3, $4, $5)
`

type InsertSheepMeasurementParams struct {
	SheepID    int64
	RecordDate pgtype.Date
	RecordType string
	Value      pgtype.Float8
	Notes      pgtype.Text
}

func (q *Queries) InsertSheepMeasurement(ctx context.Context, arg InsertSheepMeasurementParams) error {
	_, err := q.db.Exec(ctx, insertSheepMeasurement,
		arg.SheepID,
		arg.RecordDate,
		arg.RecordType,
		arg.Value,
		arg.Notes,
	)
	return err
}
