package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type CodeEntry struct {
	Kind      string
	Code      string
	Name      string
	UpdatedAt pgtype.Timestamptz
}

type ImportBatch struct {
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

type Sheep struct {
	ID              int64
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
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type SheepEvent struct {
	ID          int64
	SheepID     int64
	EventDate   pgtype.Date
	EventType   string
	Description pgtype.Text
	Notes       pgtype.Text
	CreatedAt   pgtype.Timestamptz
}

type SheepMeasurement struct {
	ID         int64
	SheepID    int64
	RecordDate pgtype.Date
	RecordType string
	Value      pgtype.Float8
	Notes      pgtype.Text
	CreatedAt  pgtype.Timestamptz
}
