// Package session drives one analyze, preview, confirm cycle against the
// import collaborators.
//
// A Session is a small state machine:
//
//	Idle -> Analyzing -> Previewed -> Confirming -> Completed | Failed
//
// Collaborator calls run in the background; Wait blocks until they settle.
// Selecting a new file while an analysis is in flight supersedes it: the
// earlier call is cancelled and its late response is dropped by comparing
// session tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/JonMunkholm/herdimport/internal/core"
)

var (
	// ErrBusy is returned when an operation is attempted while a confirm is
	// in flight.
	ErrBusy = errors.New("session busy: import in progress")

	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current stage.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrValidationBlocked is returned by Confirm while the preview still
	// holds row errors.
	ErrValidationBlocked = errors.New("import blocked: preview has validation errors")
)

// MsgValidationBlocked is reported when a confirm is blocked by row errors.
const MsgValidationBlocked = "資料仍有錯誤，請修正後再匯入"

// Stage is the session state.
type Stage int

const (
	StageIdle Stage = iota
	StageAnalyzing
	StagePreviewed
	StageConfirming
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAnalyzing:
		return "analyzing"
	case StagePreviewed:
		return "previewed"
	case StageConfirming:
		return "confirming"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Terminal reports whether the stage ends a cycle.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Upload is a selected workbook with its mapping choice.
type Upload struct {
	Name   string
	Data   []byte
	Mode   core.MappingMode
	Config core.MappingConfig
}

// Analyzer produces the preview of an upload.
type Analyzer interface {
	Analyze(ctx context.Context, up Upload) (*core.AnalyzeResponse, error)
}

// Confirmer commits preview rows.
type Confirmer interface {
	Confirm(ctx context.Context, req core.ConfirmRequest) (*core.ImportResult, error)
}

// State is a snapshot of a session.
type State struct {
	Stage   Stage
	Token   uint64
	File    string
	Preview *core.AnalyzeResponse
	Result  *core.ImportResult
	Failure *core.Translation
}

// Session is safe for concurrent use.
type Session struct {
	analyzer  Analyzer
	confirmer Confirmer
	reporter  core.Reporter

	mu      sync.Mutex
	stage   Stage
	token   uint64
	file    string
	preview *core.AnalyzeResponse
	result  *core.ImportResult
	failure *core.Translation
	cancel  context.CancelFunc

	inflight sync.WaitGroup
}

// New creates an idle session. reporter may be nil; it is called with the
// session locked and must not call back into it.
func New(analyzer Analyzer, confirmer Confirmer, reporter core.Reporter) *Session {
	return &Session{
		analyzer:  analyzer,
		confirmer: confirmer,
		reporter:  reporter,
	}
}

// SelectFile starts analysing up. It supersedes an analysis in flight and
// replaces a preview not yet confirmed.
func (s *Session) SelectFile(ctx context.Context, up Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stage == StageConfirming:
		return ErrBusy
	case s.stage.Terminal():
		return fmt.Errorf("%w: select file while %s", ErrInvalidTransition, s.stage)
	}

	s.discardLocked()
	s.stage = StageAnalyzing
	s.file = up.Name
	token := s.token

	callCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		resp, err := s.analyzer.Analyze(callCtx, up)
		s.finishAnalyze(token, resp, err)
	}()

	return nil
}

func (s *Session) finishAnalyze(token uint64, resp *core.AnalyzeResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token || s.stage != StageAnalyzing {
		slog.Debug("dropped stale analysis", "token", token, "current", s.token)
		return
	}
	s.cancel = nil

	if err != nil {
		s.failLocked(err)
		return
	}
	if resp == nil {
		resp = &core.AnalyzeResponse{}
	}
	s.preview = resp
	s.stage = StagePreviewed
}

// Confirm commits the previewed rows. A preview with row errors is not sent;
// the blocked message is reported and ErrValidationBlocked returned.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case StagePreviewed:
	case StageConfirming:
		return ErrBusy
	default:
		return fmt.Errorf("%w: confirm while %s", ErrInvalidTransition, s.stage)
	}

	if s.preview.HasErrors() {
		if s.reporter != nil {
			s.reporter.Report(MsgValidationBlocked)
		}
		return ErrValidationBlocked
	}

	req := core.ConfirmRequest{FileName: s.file, Rows: slices.Clone(s.preview.Data)}
	s.stage = StageConfirming
	token := s.token

	callCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		res, err := s.confirmer.Confirm(callCtx, req)
		s.finishConfirm(token, res, err)
	}()

	return nil
}

func (s *Session) finishConfirm(token uint64, res *core.ImportResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token || s.stage != StageConfirming {
		slog.Debug("dropped stale import result", "token", token, "current", s.token)
		return
	}
	s.cancel = nil

	if err != nil {
		s.failLocked(err)
		return
	}
	if res == nil {
		s.failLocked(&core.TransportError{Err: errors.New("empty import response")})
		return
	}

	// Rows that failed server-side are part of a completed import.
	s.result = res
	s.stage = StageCompleted

	if len(res.Errors) > 0 && s.reporter != nil {
		s.reporter.Report(fmt.Sprintf("已匯入 %d 筆，%d 筆失敗", res.Imported, len(res.Errors)))
	}
}

func (s *Session) failLocked(err error) {
	t := core.HandleAndReport(err, s.reporter)
	s.failure = &t
	s.stage = StageFailed
	slog.Warn("import session failed", "file", s.file, "error", err)
}

// Cancel abandons the current cycle from any non-terminal stage, discarding
// staged data. A request already sent may still complete on the server.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage.Terminal() {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, s.stage)
	}
	s.discardLocked()
	s.stage = StageIdle
	return nil
}

// Reset returns a finished session to Idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stage.Terminal() {
		return fmt.Errorf("%w: reset while %s", ErrInvalidTransition, s.stage)
	}
	s.discardLocked()
	s.stage = StageIdle
	return nil
}

// discardLocked cancels any call in flight, bumps the token so its response
// is dropped and clears staged data.
func (s *Session) discardLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
	s.file = ""
	s.preview = nil
	s.result = nil
	s.failure = nil
}

// Snapshot returns a copy of the current state. Row fields, sheet columns
// and failure fields are copied too, so the caller may modify any of it.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{Stage: s.stage, Token: s.token, File: s.file}
	if s.preview != nil {
		p := *s.preview
		p.Data = slices.Clone(p.Data)
		p.Errors = slices.Clone(p.Errors)
		p.Warnings = slices.Clone(p.Warnings)
		for i := range p.Data {
			p.Data[i].Fields = maps.Clone(p.Data[i].Fields)
		}
		p.Sheets = slices.Clone(p.Sheets)
		for i := range p.Sheets {
			p.Sheets[i].Columns = slices.Clone(p.Sheets[i].Columns)
		}
		st.Preview = &p
	}
	if s.result != nil {
		r := *s.result
		r.Errors = slices.Clone(r.Errors)
		st.Result = &r
	}
	if s.failure != nil {
		f := *s.failure
		f.Fields = maps.Clone(f.Fields)
		st.Failure = &f
	}
	return st
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Wait blocks until every collaborator call started so far has returned, or
// ctx is done. When ctx ends first, Wait returns but leaves a goroutine
// blocked on the in-flight calls until they drain.
func (s *Session) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
