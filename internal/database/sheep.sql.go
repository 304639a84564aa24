package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSheepIDByEarNum = `-- name: GetSheepIDByEarNum :one
SELECT id FROM sheep WHERE ear_num = $1
`

func (q *Queries) GetSheepIDByEarNum(ctx context.Context, earNum string) (int64, error) {
	row := q.db.QueryRow(ctx, getSheepIDByEarNum, earNum)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listExistingEarNums = `-- name: ListExistingEarNums :many
SELECT ear_num FROM sheep WHERE ear_num = ANY($1::text[])
`

func (q *Queries) ListExistingEarNums(ctx context.Context, earNums []string) ([]string, error) {
	rows, err := q.db.Query(ctx, listExistingEarNums, earNums)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var ear_num string
		if err := rows.Scan(&ear_num); err != nil {
			return nil, err
		}
		items = append(items, ear_num)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSheep = `-- name: UpsertSheep :one
INSERT INTO sheep (
    ear_num, breed, sex, birth_date, sire, dam, birth_weight,
    sire_breed, dam_breed, move_cause, move_date, class,
    litter_size, lactation, management_class, farm_num, source_record_id
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
)
ON CONFLICT (ear_num) DO UPDATE SET
    breed            = COALESCE(EXCLUDED.breed, sheep.breed),
    sex              = COALESCE(EXCLUDED.sex, sheep.sex),
    birth_date       = COALESCE(EXCLUDED.birth_date, sheep.birth_date),
    sire             = COALESCE(EXCLUDED.sire, sheep.sire),
    dam              = COALESCE(EXCLUDED.dam, sheep.dam),
    birth_weight     = COALESCE(EXCLUDED.birth_weight, sheep.birth_weight),
    sire_breed       = COALESCE(EXCLUDED.sire_breed, sheep.sire_breed),
    dam_breed        = COALESCE(EXCLUDED.dam_breed, sheep.dam_breed),
    move_cause       = COALESCE(EXCLUDED.move_cause, sheep.move_cause),
    move_date        = COALESCE(EXCLUDED.move_date, sheep.move_date),
    class            = COALESCE(EXCLUDED.class, sheep.class),
    litter_size      = COALESCE(EXCLUDED.litter_size, sheep.litter_size),
    lactation        = COALESCE(EXCLUDED.lactation, sheep.lactation),
    management_class = COALESCE(EXCLUDED.management_class, sheep.management_class),
    farm_num         = COALESCE(EXCLUDED.farm_num, sheep.farm_num),
    source_record_id = COALESCE(EXCLUDED.source_record_id, sheep.source_record_id),
    updated_at       = now()
RETURNING id, (xmax = 0) AS inserted
`

type UpsertSheepParams struct {
	EarNum          string
	Breed           pgtype.Text
	Sex             pgtype.Text
	BirthDate       pgtype.Date
	Sire            pgtype.Text
	Dam             pgtype.Text
	BirthWeight     pgtype.Float8
	SireBreed       pgtype.Text
	DamBreed        pgtype.Text
	MoveCause       pgtype.Text
	MoveDate        pgtype.Date
	Class           pgtype.Text
	LitterSize      pgtype.Int4
	Lactation       pgtype.Int4
	ManagementClass pgtype.Text
	FarmNum         pgtype.Text
	SourceRecordID  pgtype.Text
}

type UpsertSheepRow struct {
	ID       int64
	Inserted bool
}

func (q *Queries) UpsertSheep(ctx context.Context, arg UpsertSheepParams) (UpsertSheepRow, error) {
	row := q.db.QueryRow(ctx, upsertSheep,
		arg.EarNum,
		arg.Breed,
		arg.Sex,
		arg.BirthDate,
		arg.Sire,
		arg.Dam,
		arg.BirthWeight,
		arg.SireBreed,
		arg.DamBreed,
		arg.MoveCause,
		arg.MoveDate,
		arg.Class,
		arg.LitterSize,
		arg.Lactation,
		arg.ManagementClass,
		arg.FarmNum,
		arg.SourceRecordID,
	)
	var i UpsertSheepRow
	err := row.Scan(&i.ID, &i.Inserted)
	return i, err
}
