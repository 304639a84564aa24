package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// AnimalRecord is the master data row written for a basic_info row.
// Invalid pgtype values leave the stored column unchanged on update.
type AnimalRecord struct {
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

// EventRecord is a dated event of one animal.
type EventRecord struct {
	SheepID     int64
	EventDate   pgtype.Date
	EventType   string
	Description pgtype.Text
	Notes       pgtype.Text
}

// MeasurementRecord is a dated measurement of one animal.
type MeasurementRecord struct {
	SheepID    int64
	RecordDate pgtype.Date
	RecordType string
	Value      pgtype.Float8
	Notes      pgtype.Text
}

// Event and measurement type names shared with the storage layer.
const (
	EventKidding  = "產仔"
	EventMating   = "配種"
	EventLactate  = "泌乳開始"
	EventDryOff   = "乾乳"
	RecordWeight  = "Body_Weight_kg"
	RecordMilk    = "milk_yield_kg_day"
	RecordMilkFat = "milk_fat_percentage"
)

// ExportedEvent is a stored event addressed by ear number.
type ExportedEvent struct {
	EarNum      string
	Date        pgtype.Date
	Type        string
	Description pgtype.Text
	Notes       pgtype.Text
}

// ExportedMeasurement is a stored measurement addressed by ear number.
type ExportedMeasurement struct {
	EarNum string
	Date   pgtype.Date
	Type   string
	Value  pgtype.Float8
	Notes  pgtype.Text
}

// HerdExport holds every stored record, ordered by ear number.
type HerdExport struct {
	Animals      []AnimalRecord
	Events       []ExportedEvent
	Measurements []ExportedMeasurement
}

// Store is the persistence boundary of the commit service.
type Store interface {
	// Begin opens the transaction an import runs in.
	Begin(ctx context.Context) (Tx, error)
	// LoadCodes returns every stored code entry.
	LoadCodes(ctx context.Context) ([]CodeEntry, error)
	// ExistingEarNums returns the subset of earNums already stored.
	ExistingEarNums(ctx context.Context, earNums []string) (map[string]bool, error)
	// RecentBatches lists import batches, newest first.
	RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error)
	// ExportRecords reads every animal, event and measurement.
	ExportRecords(ctx context.Context) (*HerdExport, error)
}

// Tx is one import transaction. A failed statement aborts the whole
// transaction unless it ran inside a savepoint that is rolled back.
type Tx interface {
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error

	UpsertCode(ctx context.Context, entry CodeEntry) error
	// UpsertAnimal inserts or updates by ear number and reports whether a
	// new animal was created.
	UpsertAnimal(ctx context.Context, rec AnimalRecord) (created bool, err error)
	// AnimalID returns the id for earNum or ErrUnknownAnimal.
	AnimalID(ctx context.Context, earNum string) (int64, error)
	InsertEvent(ctx context.Context, rec EventRecord) error
	InsertMeasurement(ctx context.Context, rec MeasurementRecord) error
	InsertBatch(ctx context.Context, rec BatchRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
