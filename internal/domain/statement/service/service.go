// Package service orchestrates the statement import pipeline: format
// resolution, normalization, fingerprinting, duplicate resolution, the
// recognizer hook, and the final commit. Stages run strictly in order; the
// session returned by BeginImport is the caller-owned handle the interactive
// classification flow works on.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/solde-app/solde/internal/domain/statement/candidate"
	"github.com/solde-app/solde/internal/domain/statement/normalizer"
	"github.com/solde-app/solde/internal/domain/statement/repository"
	"github.com/solde-app/solde/internal/domain/statement/resolver"
	"github.com/solde-app/solde/internal/domain/statement/session"
	"github.com/solde-app/solde/internal/domain/statement/template"
	"github.com/solde-app/solde/pkg/observability"
)

// ErrIncompleteAssignment blocks a selected candidate at commit time when
// any of category, subcategory, or payment method is unset.
var ErrIncompleteAssignment = errors.New("candidate assignment is incomplete")

// Recognizer is the pluggable auto-match hook applied after duplicate
// resolution. A match moves a pending candidate to Recognized with the
// returned assignment pre-filled.
type Recognizer interface {
	Recognize(ctx context.Context, c *candidate.Candidate) (candidate.Assignment, bool, error)
}

// ImportService drives one import flow end to end.
type ImportService struct {
	registry   *template.Registry
	store      repository.LedgerStore
	directory  repository.CategoryDirectory
	recognizer Recognizer // may be nil
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewImportService creates a new import service. recognizer may be nil, in
// which case all non-duplicate candidates stay Pending until the user
// classifies them.
func NewImportService(registry *template.Registry, store repository.LedgerStore, directory repository.CategoryDirectory, recognizer Recognizer, logger *slog.Logger) *ImportService {
	return &ImportService{
		registry:   registry,
		store:      store,
		directory:  directory,
		recognizer: recognizer,
		logger:     logger,
		tracer:     otel.Tracer("solde/statement"),
	}
}

// BeginParams describes one import batch. Rows are the already-decoded
// raw rows; file decoding and transport are the caller's problem.
type BeginParams struct {
	AccountID   uuid.UUID
	AccountKind candidate.AccountKind
	TemplateID  string // empty means generic header heuristics
	Header      []string
	Rows        []normalizer.RawRow
}

// BeginImport runs the non-interactive stages of the pipeline and returns
// the session the classification flow operates on. Starting a new import
// for the same account simply replaces the previous session handle; there
// is no merging or queuing.
func (s *ImportService) BeginImport(ctx context.Context, p BeginParams) (*session.Session, error) {
	ctx, span := s.tracer.Start(ctx, "statement.begin_import")
	defer span.End()

	resolution, err := s.resolveFormat(ctx, p)
	if err != nil {
		return nil, err
	}

	result, err := s.normalize(ctx, p, resolution)
	if err != nil {
		return nil, err
	}

	for _, c := range result.Candidates {
		c.ComputeFingerprint()
	}

	sess := session.New(p.AccountID, p.AccountKind, result.Candidates, result.Diagnostics)
	if err := s.resolveDuplicates(ctx, sess); err != nil {
		return nil, err
	}

	s.recognize(ctx, sess)

	summary := sess.Summarize()
	s.logger.Info("import session started",
		"account_id", p.AccountID,
		"candidates", len(result.Candidates),
		"duplicates", summary.Duplicate,
		"recognized", summary.Recognized,
	)

	return sess, nil
}

func (s *ImportService) resolveFormat(ctx context.Context, p BeginParams) (*resolver.Resolution, error) {
	_, span := s.tracer.Start(ctx, "statement.resolve_format")
	defer span.End()
	defer observability.ObserveStage("resolve", time.Now())

	var tpl *template.Template
	if p.TemplateID != "" {
		t, err := s.registry.GetByID(p.TemplateID)
		if err != nil {
			return nil, err
		}
		tpl = &t
	}

	resolution, err := resolver.Resolve(s.registry, p.Header, tpl)
	if err != nil {
		return nil, err
	}
	return resolution, nil
}

func (s *ImportService) normalize(ctx context.Context, p BeginParams, resolution *resolver.Resolution) (*normalizer.Result, error) {
	_, span := s.tracer.Start(ctx, "statement.normalize")
	defer span.End()
	defer observability.ObserveStage("normalize", time.Now())

	result, err := normalizer.NormalizeBatch(normalizer.Batch{
		AccountID:   p.AccountID,
		AccountKind: p.AccountKind,
		Fields:      resolution.Fields,
		Locale:      resolution.Locale,
		Rows:        p.Rows,
	})

	failed := 0
	for _, d := range result.Diagnostics {
		if d.Severity == normalizer.SeverityError {
			failed++
		}
	}
	observability.RowsTotal.WithLabelValues(observability.OutcomeNormalized).Add(float64(len(result.Candidates)))
	observability.RowsTotal.WithLabelValues(observability.OutcomeFailed).Add(float64(failed))

	if err != nil {
		return nil, fmt.Errorf("normalizing %d rows (%d row errors): %w", len(p.Rows), failed, err)
	}
	return result, nil
}

// resolveDuplicates queries the ledger store for fingerprints across the
// batch's date range and partitions the session.
func (s *ImportService) resolveDuplicates(ctx context.Context, sess *session.Session) error {
	ctx, span := s.tracer.Start(ctx, "statement.resolve_duplicates")
	defer span.End()
	defer observability.ObserveStage("dedupe", time.Now())

	from, to, ok := sessionDateRange(sess)
	if !ok {
		return nil
	}

	existing, err := s.store.QueryFingerprints(ctx, sess.AccountID, from, to)
	if err != nil {
		return fmt.Errorf("querying existing fingerprints: %w", err)
	}

	before := sess.Summarize().Duplicate
	sess.ResolveDuplicates(existing)
	newDuplicates := sess.Summarize().Duplicate - before
	if newDuplicates > 0 {
		observability.DuplicatesTotal.Add(float64(newDuplicates))
	}

	return nil
}

// RefreshDuplicates re-runs duplicate resolution against the current store
// state. Call it before retrying a commit: fingerprinting is deterministic,
// so rows persisted by an earlier partial commit come back marked Duplicate
// instead of being inserted again.
func (s *ImportService) RefreshDuplicates(ctx context.Context, sess *session.Session) error {
	return s.resolveDuplicates(ctx, sess)
}

func (s *ImportService) recognize(ctx context.Context, sess *session.Session) {
	if s.recognizer == nil {
		return
	}
	ctx, span := s.tracer.Start(ctx, "statement.recognize")
	defer span.End()

	for _, c := range sess.Candidates() {
		if c.Status != candidate.StatusPending {
			continue
		}
		assignment, ok, err := s.recognizer.Recognize(ctx, c)
		if err != nil {
			// The hook is advisory; a failing recognizer never blocks the flow.
			s.logger.Warn("recognizer failed", "candidate_id", c.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := sess.MarkRecognized(c.ID, assignment); err != nil {
			s.logger.Warn("failed to mark candidate recognized", "candidate_id", c.ID, "error", err)
		}
	}
}

// CommitFailure details one candidate that could not be committed.
type CommitFailure struct {
	CandidateID uuid.UUID
	RowIndex    int
	Err         error
}

// CommitResult is always a tally plus per-failure details, never a single
// pass/fail.
type CommitResult struct {
	Committed int
	Failed    int
	Failures  []CommitFailure
}

// Commit persists every selected, non-duplicate candidate, row by row.
// There is no cross-row transaction: a failure does not roll back rows
// already committed, and the session state stays intact so the flow can be
// resumed or retried.
func (s *ImportService) Commit(ctx context.Context, sess *session.Session) (*CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "statement.commit")
	defer span.End()
	defer observability.ObserveStage("commit", time.Now())

	result := &CommitResult{}
	for _, c := range sess.SelectedForCommit() {
		if !c.Assignment.Complete() {
			result.Failed++
			result.Failures = append(result.Failures, CommitFailure{
				CandidateID: c.ID,
				RowIndex:    c.RowIndex,
				Err:         ErrIncompleteAssignment,
			})
			observability.CommitsTotal.WithLabelValues(observability.ResultFailed).Inc()
			continue
		}

		_, err := s.store.InsertTransaction(ctx, &repository.Transaction{
			AccountID:       c.AccountID,
			OccurredAt:      c.OccurredAt,
			Description:     c.Description,
			Amount:          c.Amount,
			Direction:       c.Direction,
			CategoryID:      c.Assignment.CategoryID,
			SubcategoryID:   c.Assignment.SubcategoryID,
			PaymentMethodID: c.Assignment.PaymentMethodID,
			Fingerprint:     c.Fingerprint,
		})
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, CommitFailure{
				CandidateID: c.ID,
				RowIndex:    c.RowIndex,
				Err:         fmt.Errorf("persisting candidate: %w", err),
			})
			observability.CommitsTotal.WithLabelValues(observability.ResultFailed).Inc()
			s.logger.Warn("failed to persist candidate", "candidate_id", c.ID, "row", c.RowIndex, "error", err)
			continue
		}

		result.Committed++
		observability.CommitsTotal.WithLabelValues(observability.ResultCommitted).Inc()
	}

	s.logger.Info("import committed",
		"account_id", sess.AccountID,
		"committed", result.Committed,
		"failed", result.Failed,
	)

	return result, nil
}

// CategoryOptions lists the categories selectable for a flow direction.
func (s *ImportService) CategoryOptions(ctx context.Context, flow candidate.FlowDirection) ([]*repository.Category, error) {
	return s.directory.ListCategories(ctx, flow)
}

// SubcategoryOptions lists the subcategories scoped to a category.
func (s *ImportService) SubcategoryOptions(ctx context.Context, categoryID uuid.UUID) ([]*repository.Subcategory, error) {
	return s.directory.ListSubcategories(ctx, categoryID)
}

// PaymentMethodOptions lists all payment methods.
func (s *ImportService) PaymentMethodOptions(ctx context.Context) ([]*repository.PaymentMethod, error) {
	return s.directory.ListPaymentMethods(ctx)
}

// sessionDateRange spans the candidates' calendar days, inclusive.
func sessionDateRange(sess *session.Session) (time.Time, time.Time, bool) {
	candidates := sess.Candidates()
	if len(candidates) == 0 {
		return time.Time{}, time.Time{}, false
	}

	min, max := candidates[0].OccurredAt, candidates[0].OccurredAt
	for _, c := range candidates[1:] {
		if c.OccurredAt.Before(min) {
			min = c.OccurredAt
		}
		if c.OccurredAt.After(max) {
			max = c.OccurredAt
		}
	}

	from := time.Date(min.Year(), min.Month(), min.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(max.Year(), max.Month(), max.Day(), 23, 59, 59, 0, time.UTC)
	return from, to, true
}
