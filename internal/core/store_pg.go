package core

import (
	"context"
	"errors"
	"fmt"

	db "github.com/JonMunkholm/herdimport/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on a PostgreSQL pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a Store backed by pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Begin opens an import transaction.
func (s *PgStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx, q: db.New(tx)}, nil
}

// LoadCodes returns every stored code entry.
func (s *PgStore) LoadCodes(ctx context.Context) ([]CodeEntry, error) {
	rows, err := db.New(s.pool).ListCodeEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CodeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, CodeEntry{Kind: CodeKind(r.Kind), Code: r.Code, Name: r.Name})
	}
	return out, nil
}

// ExistingEarNums returns the subset of earNums already stored.
func (s *PgStore) ExistingEarNums(ctx context.Context, earNums []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(earNums) == 0 {
		return found, nil
	}
	ears, err := db.New(s.pool).ListExistingEarNums(ctx, earNums)
	if err != nil {
		return nil, err
	}
	for _, e := range ears {
		found[e] = true
	}
	return found, nil
}

// RecentBatches lists import batches, newest first.
func (s *PgStore) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	rows, err := db.New(s.pool).ListRecentImportBatches(ctx, int32(limit))
	if err != nil {
		return nil, err
	}
	out := make([]BatchRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, BatchRecord{
			ID:        PgUUIDToString(r.ID),
			FileName:  r.FileName.String,
			TotalRows: int(r.TotalRows),
			Imported:  int(r.Imported),
			Failed:    int(r.Failed),
			Skipped:   int(r.Skipped),
			IPAddress: r.IpAddress.String,
			UserAgent: r.UserAgent.String,
			CreatedAt: r.CreatedAt.Time,
		})
	}
	return out, nil
}

// ExportRecords reads every stored record.
func (s *PgStore) ExportRecords(ctx context.Context) (*HerdExport, error) {
	q := db.New(s.pool)

	sheep, err := q.ListSheep(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sheep: %w", err)
	}
	events, err := q.ListSheepEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	measurements, err := q.ListSheepMeasurements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	out := &HerdExport{
		Animals:      make([]AnimalRecord, 0, len(sheep)),
		Events:       make([]ExportedEvent, 0, len(events)),
		Measurements: make([]ExportedMeasurement, 0, len(measurements)),
	}
	for _, r := range sheep {
		out.Animals = append(out.Animals, AnimalRecord{
			EarNum:          r.EarNum,
			Breed:           r.Breed,
			Sex:             r.Sex,
			BirthDate:       r.BirthDate,
			Sire:            r.Sire,
			Dam:             r.Dam,
			BirthWeight:     r.BirthWeight,
			SireBreed:       r.SireBreed,
			DamBreed:        r.DamBreed,
			MoveCause:       r.MoveCause,
			MoveDate:        r.MoveDate,
			Class:           r.Class,
			LitterSize:      r.LitterSize,
			Lactation:       r.Lactation,
			ManagementClass: r.ManagementClass,
			FarmNum:         r.FarmNum,
			SourceRecordID:  r.SourceRecordID,
		})
	}
	for _, r := range events {
		out.Events = append(out.Events, ExportedEvent{
			EarNum:      r.EarNum,
			Date:        r.EventDate,
			Type:        r.EventType,
			Description: r.Description,
			Notes:       r.Notes,
		})
	}
	for _, r := range measurements {
		out.Measurements = append(out.Measurements, ExportedMeasurement{
			EarNum: r.EarNum,
			Date:   r.RecordDate,
			Type:   r.RecordType,
			Value:  r.Value,
			Notes:  r.Notes,
		})
	}
	return out, nil
}

type pgTx struct {
	tx pgx.Tx
	q  *db.Queries
}

func (t *pgTx) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *pgTx) RollbackTo(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *pgTx) Release(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *pgTx) UpsertCode(ctx context.Context, e CodeEntry) error {
	return t.q.UpsertCodeEntry(ctx, db.UpsertCodeEntryParams{
		Kind: string(e.Kind),
		Code: e.Code,
		Name: e.Name,
	})
}

func (t *pgTx) UpsertAnimal(ctx context.Context, rec AnimalRecord) (bool, error) {
	row, err := t.q.UpsertSheep(ctx, db.UpsertSheepParams{
		EarNum:          rec.EarNum,
		Breed:           rec.Breed,
		Sex:             rec.Sex,
		BirthDate:       rec.BirthDate,
		Sire:            rec.Sire,
		Dam:             rec.Dam,
		BirthWeight:     rec.BirthWeight,
		SireBreed:       rec.SireBreed,
		DamBreed:        rec.DamBreed,
		MoveCause:       rec.MoveCause,
		MoveDate:        rec.MoveDate,
		Class:           rec.Class,
		LitterSize:      rec.LitterSize,
		Lactation:       rec.Lactation,
		ManagementClass: rec.ManagementClass,
		FarmNum:         rec.FarmNum,
		SourceRecordID:  rec.SourceRecordID,
	})
	if err != nil {
		return false, err
	}
	return row.Inserted, nil
}

func (t *pgTx) AnimalID(ctx context.Context, earNum string) (int64, error) {
	id, err := t.q.GetSheepIDByEarNum(ctx, earNum)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAnimal, earNum)
	}
	return id, err
}

func (t *pgTx) InsertEvent(ctx context.Context, rec EventRecord) error {
	return t.q.InsertSheepEvent(ctx, db.InsertSheepEventParams{
		SheepID:     rec.SheepID,
		EventDate:   rec.EventDate,
		EventType:   rec.EventType,
		Description: rec.Description,
		Notes:       rec.Notes,
	})
}

func (t *pgTx) InsertMeasurement(ctx context.Context, rec MeasurementRecord) error {
	return t.q.InsertSheepMeasurement(ctx, db.InsertSheepMeasurementParams{
		SheepID:    rec.SheepID,
		RecordDate: rec.RecordDate,
		RecordType: rec.RecordType,
		Value:      rec.Value,
		Notes:      rec.Notes,
	})
}

func (t *pgTx) InsertBatch(ctx context.Context, rec BatchRecord) error {
	return t.q.InsertImportBatch(ctx, db.InsertImportBatchParams{
		ID:        ToPgUUID(rec.ID),
		FileName:  ToPgText(rec.FileName),
		TotalRows: int32(rec.TotalRows),
		Imported:  int32(rec.Imported),
		Failed:    int32(rec.Failed),
		Skipped:   int32(rec.Skipped),
		IpAddress: ToPgText(rec.IPAddress),
		UserAgent: ToPgText(rec.UserAgent),
		CreatedAt: pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
	})
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
