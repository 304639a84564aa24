package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listSheep = `-- name: ListSheep :many
SELECT id, ear_num, breed, sex, birth_date, sire, dam, birth_weight,
       sire_breed, dam_breed, move_cause, move_date, class,
       litter_size, lactation, management_class, farm_num, source_record_id,
       created_at, updated_at
FROM sheep
ORDER BY ear_num
`

func (q *Queries) ListSheep(ctx context.Context) ([]Sheep, error) {
	rows, err := q.db.Query(ctx, listSheep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sheep
	for rows.Next() {
		var i Sheep
		if err := rows.Scan(
			&i.ID,
			&i.EarNum,
			&i.Breed,
			&i.Sex,
			&i.BirthDate,
			&i.Sire,
			&i.Dam,
			&i.BirthWeight,
			&i.SireBreed,
			&i.DamBreed,
			&i.MoveCause,
			&i.MoveDate,
			&i.Class,
			&i.LitterSize,
			&i.Lactation,
			&i.ManagementClass,
			&i.FarmNum,
			&i.SourceRecordID,
			&i.CreatedAt,
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

const listSheepEvents = `-- name: ListSheepEvents :many
SELECT s.ear_num, e.event_date, e.event_type, e.description, e.notes
FROM sheep_events e
JOIN sheep s ON s.id = e.sheep_id
ORDER BY s.ear_num, e.event_date DESC
`

type ListSheepEventsRow struct {
	EarNum      string
	EventDate   pgtype.Date
	EventType   string
	Description pgtype.Text
	Notes       pgtype.Text
}

func (q *Queries) ListSheepEvents(ctx context.Context) ([]ListSheepEventsRow, error) {
	rows, err := q.db.Query(ctx, listSheepEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSheepEventsRow
	for rows.Next() {
		var i ListSheepEventsRow
		if err := rows.Scan(
			&i.EarNum,
			&i.EventDate,
			&i.EventType,
			&i.Description,
			&i.Notes,
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

const listSheepMeasurements = `-- name: ListSheepMeasurements :many
SELECT s.ear_num, m.record_date, m.record_type, m.value, m.notes
FROM sheep_measurements m
JOIN sheep s ON s.id = m.sheep_id
ORDER BY s.ear_num, m.record_date
`

type ListSheepMeasurementsRow struct {
	EarNum     string
	RecordDate pgtype.Date
	RecordType string
	Value      pgtype.Float8
	Notes      pgtype.Text
}

func (q *Queries) ListSheepMeasurements(ctx context.Context) ([]ListSheepMeasurementsRow, error) {
	rows, err := q.db.Query(ctx, listSheepMeasurements)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSheepMeasurementsRow
	for rows.Next() {
		var i ListSheepMeasurementsRow
		if err := rows.Scan(
			&i.EarNum,
			&i.RecordDate,
			&i.RecordType,
			&i.Value,
			&i.Notes,
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
