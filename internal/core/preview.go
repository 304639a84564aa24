package core

// preview.go performs the read-only analysis of an uploaded workbook.
//
// Analysis never writes. It assigns sheet purposes, resolves columns,
// validates every row and reports what a confirm would do. Storage, when
// configured, is only consulted to tell new animals from existing ones.

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// AnalyzeOptions selects the mapping mode of an analysis.
type AnalyzeOptions struct {
	Mode   MappingMode
	Config MappingConfig // explicit mode only
}

const maxStructurePreviewRows = 3

// Analyze validates wb and returns the staged preview.
func (s *Service) Analyze(ctx context.Context, wb *Workbook, opts AnalyzeOptions) (*AnalyzeResponse, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzeTimeout)
	defer cancel()

	var resp *AnalyzeResponse
	err := s.limiter.Run(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.analyze(ctx, wb, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (s *Service) analyze(ctx context.Context, wb *Workbook, opts AnalyzeOptions) (*AnalyzeResponse, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	// Purposes are assigned on a copy; the uploaded workbook stays untouched.
	staged := Workbook{FileName: wb.FileName, Sheets: slices.Clone(wb.Sheets)}
	AssignPurposes(&staged, opts.Mode, opts.Config)

	resp := &AnalyzeResponse{
		Data:     make([]PreviewRow, 0),
		Errors:   make([]RowIssue, 0),
		Warnings: make([]RowIssue, 0),
	}

	var (
		resolved  []ResolvedSheet
		totalRows int
	)
	for _, sh := range staged.Sheets {
		resp.Sheets = append(resp.Sheets, SheetSummary{
			Name:    sh.Name,
			Purpose: sh.Purpose,
			Rows:    len(sh.Rows),
			Columns: sh.Headers,
		})
		if !sh.Purpose.Active() {
			continue
		}

		schema, err := GetSchema(sh.Purpose)
		if err != nil {
			resp.Errors = append(resp.Errors, RowIssue{
				Sheet:   sh.Name,
				Field:   "purpose",
				Message: MapError(err).Message,
				Code:    MapError(err).Code,
			})
			continue
		}

		totalRows += len(sh.Rows)
		if s.cfg.MaxRows > 0 && totalRows > s.cfg.MaxRows {
			return nil, fmt.Errorf("file too large: more than %d rows", s.cfg.MaxRows)
		}

		var columns FieldMappingConfig
		if opts.Mode == ModeExplicit {
			columns = opts.Config.Sheets[sh.Name].Columns
		}
		resolved = append(resolved, ResolveSheet(sh, schema, opts.Mode, columns))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local := collectCodes(resolved)
	var lookups []CodeLookup
	if local.Len() > 0 {
		lookups = append(lookups, local)
	}
	if s.codes != nil {
		lookups = append(lookups, s.codes)
	}

	errorRows := make(map[string]map[int]bool)
	for _, rs := range resolved {
		sv := ValidateSheet(rs, lookups...)
		resp.Data = append(resp.Data, sv.Rows...)
		resp.Errors = append(resp.Errors, sv.Errors...)
		resp.Warnings = append(resp.Warnings, sv.Warnings...)
		resp.Summary.TotalRows += len(sv.Rows)
		resp.Summary.SkippedRows += sv.Skipped

		for _, is := range sv.Errors {
			if is.Row == 0 {
				continue
			}
			if errorRows[is.Sheet] == nil {
				errorRows[is.Sheet] = make(map[int]bool)
			}
			errorRows[is.Sheet][is.Row] = true
		}
	}
	for _, rows := range errorRows {
		resp.Summary.ErrorRows += len(rows)
	}

	if err := s.checkAnimals(ctx, resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 && len(resp.Errors) == 0 {
		return nil, ErrEmptyWorkbook
	}

	return resp, nil
}

// collectCodes gathers the breed and sex codes declared by the workbook's
// own mapping sheets.
func collectCodes(sheets []ResolvedSheet) CodeSet {
	set := make(CodeSet)
	for _, rs := range sheets {
		kind, ok := codeKindOf(rs.Purpose)
		if !ok {
			continue
		}
		for _, row := range rs.Rows {
			code, name := row.Fields["Code"], row.Fields["Name"]
			if code != "" && name != "" {
				set.Add(kind, code, name)
			}
		}
	}
	return set
}

func codeKindOf(p PurposeID) (CodeKind, bool) {
	switch p {
	case PurposeBreedMapping:
		return CodeBreed, true
	case PurposeSexMapping:
		return CodeSex, true
	}
	return "", false
}

// checkAnimals reports ear numbers repeated within basic_info sheets and,
// with storage, counts new animals and flags records of unknown animals.
func (s *Service) checkAnimals(ctx context.Context, resp *AnalyzeResponse) error {
	firstLine := make(map[string]int)
	var (
		basicEars []string
		otherEars []string
	)

	for _, row := range resp.Data {
		ear := row.Fields["EarNum"]
		if ear == "" || row.Purpose.IsCodeMapping() {
			continue
		}
		if row.Purpose != PurposeBasicInfo {
			otherEars = append(otherEars, ear)
			continue
		}
		if line, dup := firstLine[ear]; dup {
			resp.Summary.DuplicateInFile++
			resp.Warnings = append(resp.Warnings, RowIssue{
				Sheet:   row.Sheet,
				Row:     row.Row,
				Field:   "EarNum",
				Message: fmt.Sprintf("耳號「%s」在檔案中重複 (第 %d 列)，將以最後一筆為準", ear, line),
			})
			continue
		}
		firstLine[ear] = row.Row
		basicEars = append(basicEars, ear)
	}

	if s.store == nil {
		return nil
	}

	lookup := append(slices.Clone(basicEars), otherEars...)
	slices.Sort(lookup)
	lookup = slices.Compact(lookup)

	existing, err := s.store.ExistingEarNums(ctx, lookup)
	if err != nil {
		return fmt.Errorf("check existing animals: %w", err)
	}

	for _, ear := range basicEars {
		if existing[ear] {
			resp.Summary.ExistingAnimals++
		} else {
			resp.Summary.NewAnimals++
		}
	}

	for _, row := range resp.Data {
		ear := row.Fields["EarNum"]
		if ear == "" || row.Purpose == PurposeBasicInfo || row.Purpose.IsCodeMapping() {
			continue
		}
		if _, inFile := firstLine[ear]; inFile || existing[ear] {
			continue
		}
		resp.Warnings = append(resp.Warnings, RowIssue{
			Sheet:   row.Sheet,
			Row:     row.Row,
			Field:   "EarNum",
			Message: fmt.Sprintf("找不到耳號「%s」的羊隻，此列將無法匯入", ear),
			Code:    MapError(ErrUnknownAnimal).Code,
		})
	}

	return nil
}

// InspectWorkbook describes the structure of every sheet: its columns, row
// count, the first rows and the purpose it would get in default mode.
func InspectWorkbook(wb *Workbook) ([]SheetStructure, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	out := make([]SheetStructure, 0, len(wb.Sheets))
	for _, sh := range wb.Sheets {
		st := SheetStructure{
			Name:             sh.Name,
			Columns:          sh.Headers,
			Rows:             len(sh.Rows),
			Preview:          make([]map[string]string, 0, maxStructurePreviewRows),
			SuggestedPurpose: DefaultPurposeForSheet(sh.Name),
		}
		for i, row := range sh.Rows {
			if i == maxStructurePreviewRows {
				break
			}
			st.Preview = append(st.Preview, row.Values)
		}
		out = append(out, st)
	}
	return out, nil
}
