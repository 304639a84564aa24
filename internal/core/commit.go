package core

// commit.go writes confirmed preview rows to storage.
//
// Rows are re-validated first; any invalid row rejects the whole request
// with a *ValidationFailure and nothing is written. Valid rows are written
// in one transaction, ordered in phases:
//
//  1. Code mappings (breed, sex), so later rows can translate codes
//  2. Basic info upserts, so events can reference new animals
//  3. Events and measurements
//
// Each row runs inside its own savepoint. A row that fails is rolled back to
// its savepoint and reported in ImportResult.Errors while the other rows
// still commit.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ContextCheckInterval is how often, in rows, an import checks for
// cancellation.
var ContextCheckInterval = 100

// ValidationFailure is returned by Import when submitted rows fail
// re-validation. Details address the offending values as
// ["body", "rows", index, field].
type ValidationFailure struct {
	Details []ErrorDetail
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed: %d invalid values", len(f.Details))
}

// Body returns the structured error document for the failure.
func (f *ValidationFailure) Body() ErrorBody {
	return ErrorBody{Error: "資料驗證失敗", Code: "VAL003", Details: f.Details}
}

// stagedRow is a re-validated row ready for writing.
type stagedRow struct {
	sheet   string
	purpose PurposeID
	line    int
	fields  map[string]string
}

// Import commits the rows of req.
func (s *Service) Import(ctx context.Context, req ConfirmRequest) (*ImportResult, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if len(req.Rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	staged, skipped, err := revalidate(req.Rows)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ImportTimeout)
	defer cancel()

	var result *ImportResult
	err = s.limiter.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.commit(ctx, req.FileName, staged, skipped)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// revalidate checks every submitted row against its schema. Blank rows are
// counted as skipped.
func revalidate(rows []PreviewRow) ([]stagedRow, int, error) {
	validators := make(map[PurposeID]*RowValidator)
	var (
		details []ErrorDetail
		staged  = make([]stagedRow, 0, len(rows))
		skipped int
	)

	for i, row := range rows {
		schema, err := GetSchema(row.Purpose)
		if err != nil {
			details = append(details, ErrorDetail{
				Loc: []any{"body", "rows", i, "purpose"},
				Msg: "unknown purpose",
			})
			continue
		}

		v, ok := validators[row.Purpose]
		if !ok {
			v = NewRowValidator(schema)
			validators[row.Purpose] = v
		}

		resolved := ResolvedRow{Line: row.Row, Fields: row.Fields}
		if IsEmptyRow(resolved) {
			skipped++
			continue
		}

		outcome, fields := v.ValidateRow(resolved)
		for _, is := range outcome.Errors {
			spec, _ := schema.Field(is.Field)
			details = append(details, ErrorDetail{
				Loc: []any{"body", "rows", i, is.Field},
				Msg: validatorMessage(spec, is.Code),
			})
		}
		staged = append(staged, stagedRow{sheet: row.Sheet, purpose: row.Purpose, line: row.Row, fields: fields})
	}

	if len(details) > 0 {
		return nil, 0, &ValidationFailure{Details: details}
	}
	return staged, skipped, nil
}

// validatorMessage returns the raw validator message for an issue, in the
// vocabulary TranslateMessage understands.
func validatorMessage(spec FieldSpec, code string) string {
	if code == "VAL003" {
		return "Field required"
	}
	switch spec.Type {
	case FieldDate:
		return "invalid datetime format"
	case FieldInteger:
		return "value is not a valid integer"
	default:
		return "value is not a valid float"
	}
}

func commitPhase(p PurposeID) int {
	switch {
	case p.IsCodeMapping():
		return 0
	case p == PurposeBasicInfo:
		return 1
	default:
		return 2
	}
}

func (s *Service) commit(ctx context.Context, fileName string, rows []stagedRow, skipped int) (*ImportResult, error) {
	start := time.Now()

	stored, err := s.store.LoadCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load codes: %w", err)
	}
	names := make(CodeSet)
	for _, e := range stored {
		names.Add(e.Kind, e.Code, e.Name)
	}

	ordered := slices.Clone(rows)
	slices.SortStableFunc(ordered, func(a, b stagedRow) int {
		return commitPhase(a.purpose) - commitPhase(b.purpose)
	})

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed

	result := &ImportResult{Skipped: skipped, Errors: make([]RowFailure, 0)}
	codesWritten := false

	for i, row := range ordered {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("import cancelled at %s row %d: %w", row.sheet, row.line, err)
			}
		}

		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.Savepoint(ctx, sp); err != nil {
			return nil, fmt.Errorf("savepoint at %s row %d: %w", row.sheet, row.line, err)
		}

		written, err := s.applyRow(ctx, tx, row, names)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("import cancelled at %s row %d: %w", row.sheet, row.line, err)
			}
			if rbErr := tx.RollbackTo(ctx, sp); rbErr != nil {
				return nil, fmt.Errorf("rollback savepoint at %s row %d: %w", row.sheet, row.line, rbErr)
			}
			msg := MapError(err)
			slog.Warn("import row failed",
				"sheet", row.sheet,
				"row", row.line,
				"purpose", row.purpose,
				"error", err,
			)
			result.Errors = append(result.Errors, RowFailure{
				Sheet:   row.sheet,
				Row:     row.line,
				Message: msg.Message,
				Code:    msg.Code,
			})
			continue
		}

		if err := tx.Release(ctx, sp); err != nil {
			return nil, fmt.Errorf("release savepoint at %s row %d: %w", row.sheet, row.line, err)
		}

		if !written {
			result.Skipped++
			continue
		}
		result.Imported++
		if row.purpose.IsCodeMapping() {
			codesWritten = true
		}
	}

	origin := OriginFrom(ctx)
	batch := BatchRecord{
		ID:        uuid.New().String(),
		FileName:  fileName,
		TotalRows: len(rows) + skipped,
		Imported:  result.Imported,
		Failed:    len(result.Errors),
		Skipped:   result.Skipped,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := tx.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("record import batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	if codesWritten && s.cfg.CodesChanged != nil {
		s.cfg.CodesChanged(ctx)
	}

	result.BatchID = batch.ID
	result.Success = result.Imported > 0 || len(result.Errors) == 0
	result.Duration = time.Since(start)

	slog.Info("import committed",
		"batch_id", batch.ID,
		"file", fileName,
		"imported", result.Imported,
		"failed", len(result.Errors),
		"skipped", result.Skipped,
		"duration", result.Duration,
	)

	return result, nil
}

// applyRow writes one row. It reports false when the row holds nothing to
// write, e.g. a milk analysis row without a fat value.
func (s *Service) applyRow(ctx context.Context, tx Tx, row stagedRow, names CodeSet) (bool, error) {
	f := row.fields

	switch row.purpose {
	case PurposeBreedMapping, PurposeSexMapping:
		kind, _ := codeKindOf(row.purpose)
		entry := CodeEntry{Kind: kind, Code: f["Code"], Name: f["Name"]}
		if err := tx.UpsertCode(ctx, entry); err != nil {
			return false, fmt.Errorf("upsert %s code %q: %w", kind, entry.Code, err)
		}
		names.Add(kind, entry.Code, entry.Name)
		return true, nil

	case PurposeBasicInfo:
		rec := s.animalRecord(f, names)
		if _, err := tx.UpsertAnimal(ctx, rec); err != nil {
			return false, fmt.Errorf("upsert animal %q: %w", rec.EarNum, err)
		}
		return true, nil
	}

	sheepID, err := tx.AnimalID(ctx, f["EarNum"])
	if err != nil {
		return false, err
	}

	switch row.purpose {
	case PurposeKiddingRecord:
		ev := EventRecord{SheepID: sheepID, EventDate: ToPgDate(f["YeanDate"]), EventType: EventKidding}
		if kid := f["KidNum"]; kid != "" {
			ev.Description = ToPgText("產下仔羊: " + kid)
		}
		if sex := s.codeName(names, CodeSex, f["KidSex"]); sex.Valid {
			ev.Notes = ToPgText("仔羊性別: " + sex.String)
		}
		return true, s.insertEvent(ctx, tx, ev)

	case PurposeMatingRecord:
		ev := EventRecord{SheepID: sheepID, EventDate: ToPgDate(f["Mat_date"]), EventType: EventMating}
		if sire := f["Mat_grouM_Sire"]; sire != "" {
			ev.Description = ToPgText("配種公羊: " + sire)
		}
		return true, s.insertEvent(ctx, tx, ev)

	case PurposeYeanRecord:
		start := EventRecord{SheepID: sheepID, EventDate: ToPgDate(f["YeanDate"]), EventType: EventLactate}
		if n := f["Lactation"]; n != "" {
			start.Description = ToPgText(fmt.Sprintf("第 %s 胎次", n))
		}
		if err := s.insertEvent(ctx, tx, start); err != nil {
			return false, err
		}
		if dry := f["DryOffDate"]; dry != "" {
			end := EventRecord{SheepID: sheepID, EventDate: ToPgDate(dry), EventType: EventDryOff}
			if n := f["Lactation"]; n != "" {
				end.Description = ToPgText(fmt.Sprintf("第 %s 胎次結束", n))
			}
			if err := s.insertEvent(ctx, tx, end); err != nil {
				return false, err
			}
		}
		return true, nil

	case PurposeWeightRecord:
		return true, s.insertMeasurement(ctx, tx, sheepID, f["MeaDate"], RecordWeight, f["Weight"])

	case PurposeMilkYieldRecord:
		return true, s.insertMeasurement(ctx, tx, sheepID, f["MeaDate"], RecordMilk, f["Milk"])

	case PurposeMilkAnalysisRecord:
		if f["AMFat"] == "" {
			return false, nil
		}
		return true, s.insertMeasurement(ctx, tx, sheepID, f["MeaDate"], RecordMilkFat, f["AMFat"])
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownPurpose, row.purpose)
}

func (s *Service) insertEvent(ctx context.Context, tx Tx, ev EventRecord) error {
	if err := tx.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

func (s *Service) insertMeasurement(ctx context.Context, tx Tx, sheepID int64, date, recordType, value string) error {
	rec := MeasurementRecord{
		SheepID:    sheepID,
		RecordDate: ToPgDate(date),
		RecordType: recordType,
		Value:      ToPgFloat8(value),
	}
	if err := tx.InsertMeasurement(ctx, rec); err != nil {
		return fmt.Errorf("insert %s measurement: %w", recordType, err)
	}
	return nil
}

// animalRecord converts a basic_info row. Breed and sex codes are stored as
// their names when a mapping is known.
func (s *Service) animalRecord(f map[string]string, names CodeSet) AnimalRecord {
	return AnimalRecord{
		EarNum:          f["EarNum"],
		Breed:           s.codeName(names, CodeBreed, f["Breed"]),
		Sex:             s.codeName(names, CodeSex, f["Sex"]),
		BirthDate:       ToPgDate(f["BirthDate"]),
		Sire:            ToPgText(f["Sire"]),
		Dam:             ToPgText(f["Dam"]),
		BirthWeight:     ToPgFloat8(f["BirWei"]),
		SireBreed:       ToPgText(f["SireBre"]),
		DamBreed:        ToPgText(f["DamBre"]),
		MoveCause:       ToPgText(f["MoveCau"]),
		MoveDate:        ToPgDate(f["MoveDate"]),
		Class:           ToPgText(f["Class"]),
		LitterSize:      ToPgInt4(f["LittleSize"]),
		Lactation:       ToPgInt4(f["Lactation"]),
		ManagementClass: ToPgText(f["ManaClas"]),
		FarmNum:         ToPgText(f["FarmNum"]),
		SourceRecordID:  ToPgText(f["RUni"]),
	}
}

// codeName translates code to its name, falling back to the code itself.
func (s *Service) codeName(names CodeSet, kind CodeKind, code string) pgtype.Text {
	if code == "" {
		return pgtype.Text{}
	}
	if name, ok := names.Lookup(kind, code); ok {
		return ToPgText(name)
	}
	if s.codes != nil {
		if name, ok := s.codes.Lookup(kind, code); ok {
			return ToPgText(name)
		}
	}
	return ToPgText(code)
}
