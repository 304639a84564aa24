package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AnalyzeTimeout is the default maximum duration of an analysis.
var AnalyzeTimeout = 2 * time.Minute

// ImportTimeout is the default maximum duration of an import.
var ImportTimeout = 10 * time.Minute

// ErrNoStore is returned by operations that need storage on a service
// created without one.
var ErrNoStore = errors.New("storage not configured")

// ServiceConfig tunes a Service. Zero values select the defaults.
type ServiceConfig struct {
	MaxConcurrent  int
	MaxWait        time.Duration
	AnalyzeTimeout time.Duration
	ImportTimeout  time.Duration
	MaxRows        int // per workbook, 0 = unlimited

	// CodesChanged is called after an import that wrote code entries.
	CodesChanged func(ctx context.Context)
}

// Service runs analysis and commit of workbook imports.
type Service struct {
	store   Store
	codes   CodeLookup
	limiter *OperationLimiter
	cfg     ServiceConfig
}

// NewService creates a Service. store may be nil for offline analysis;
// codes may be nil when no lookup cache is available.
func NewService(store Store, codes CodeLookup, cfg ServiceConfig) *Service {
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = AnalyzeTimeout
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = ImportTimeout
	}
	return &Service{
		store:   store,
		codes:   codes,
		limiter: NewOperationLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:     cfg,
	}
}

// Limiter returns the operation limiter, for health output and shutdown.
func (s *Service) Limiter() *OperationLimiter {
	return s.limiter
}

// ListPurposes returns the purpose picker options.
func (s *Service) ListPurposes() []PurposeOption {
	return ListPurposes()
}

// RecentBatches returns the newest import batches.
func (s *Service) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	batches, err := s.store.RecentBatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	return batches, nil
}
