package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"matchday/internal/identity"
	"matchday/internal/logging"
	"matchday/internal/store"
)

// OutcomeKind classifies how one input record was resolved.
type OutcomeKind string

const (
	// OutcomeAutoMerged means the record was attached to an existing
	// identity at or above the auto-merge threshold.
	OutcomeAutoMerged OutcomeKind = "auto_merged"
	// OutcomeFlagged means the record was mapped provisionally and queued
	// for manual review.
	OutcomeFlagged OutcomeKind = "flagged_for_review"
	// OutcomeNewIdentity means no candidate reached the review floor and a
	// fresh canonical identity was created.
	OutcomeNewIdentity OutcomeKind = "new_identity"
	// OutcomeAlreadyMapped means the record's source key was mapped by an
	// earlier run and was left untouched.
	OutcomeAlreadyMapped OutcomeKind = "already_mapped"
	// OutcomeSkipped means the record was unusable and never entered the
	// pipeline.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome reports the resolution of a single input record.
type Outcome struct {
	Record     string
	EntityType identity.EntityType
	Kind       OutcomeKind
	MasterID   int64
	Confidence float64
	Detail     string

	index int
}

// Result is the outcome of one reconciliation run.
type Result struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Outcomes []Outcome
}

// Summary tallies outcomes per kind.
func (r *Result) Summary() map[OutcomeKind]int {
	summary := make(map[OutcomeKind]int)
	for _, outcome := range r.Outcomes {
		summary[outcome.Kind]++
	}
	return summary
}

// Engine runs reconciliation batches against the identity store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an engine. A nil logger disables logging.
func New(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{store: st, logger: logging.NewComponentLogger(logger, "reconcile")}
}

// Reconcile resolves a batch of raw records. Entity types run concurrently;
// within a type, records are handled in input order so a record can match an
// identity created moments earlier in the same batch. Outcomes are returned
// in input order.
func (e *Engine) Reconcile(ctx context.Context, records []identity.RawRecord, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
	}
	logger := e.logger.With(logging.String(logging.FieldRunID, result.RunID))
	logger.Info("reconciliation run starting", logging.Int("records", len(records)))

	type indexedRecord struct {
		index int
		rec   identity.NormalizedRecord
	}
	byType := make(map[identity.EntityType][]indexedRecord)

	var mu sync.Mutex
	appendOutcome := func(o Outcome) {
		mu.Lock()
		result.Outcomes = append(result.Outcomes, o)
		mu.Unlock()
	}

	for i, raw := range records {
		normalized, err := identity.Normalize(raw, logger)
		if err != nil {
			logger.Warn("skipping unusable record",
				logging.String(logging.FieldRecord, raw.Key()),
				logging.Error(err))
			appendOutcome(Outcome{
				Record: raw.Key(),
				Kind:   OutcomeSkipped,
				Detail: err.Error(),
				index:  i,
			})
			continue
		}
		byType[normalized.EntityType] = append(byType[normalized.EntityType], indexedRecord{index: i, rec: normalized})
	}

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		runErrs []error
	)
	for entityType, typed := range byType {
		wg.Add(1)
		go func(entityType identity.EntityType, typed []indexedRecord) {
			defer wg.Done()
			typeLogger := logger.With(logging.String(logging.FieldEntityType, string(entityType)))

			live, err := e.store.LiveIdentitiesByType(ctx, entityType)
			if err != nil {
				errMu.Lock()
				runErrs = append(runErrs, fmt.Errorf("%s: load identities: %w", entityType, err))
				errMu.Unlock()
				return
			}
			block := newBlocker(live)

			for _, item := range typed {
				outcome, err := e.resolveRecord(ctx, typeLogger, block, item.rec, opts)
				if errors.Is(err, store.ErrDuplicateMapping) {
					outcome = skipDuplicate(typeLogger, item.rec, err)
				} else if err != nil {
					errMu.Lock()
					runErrs = append(runErrs, fmt.Errorf("%s: %w", item.rec.Key(), err))
					errMu.Unlock()
					return
				}
				outcome.index = item.index
				appendOutcome(outcome)
			}
		}(entityType, typed)
	}
	wg.Wait()

	if len(runErrs) > 0 {
		return nil, errors.Join(runErrs...)
	}

	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].index < result.Outcomes[j].index
	})
	result.Duration = time.Since(result.Started)

	summary := result.Summary()
	logger.Info("reconciliation run complete",
		logging.Duration("duration", result.Duration),
		logging.Int("auto_merged", summary[OutcomeAutoMerged]),
		logging.Int("flagged", summary[OutcomeFlagged]),
		logging.Int("new_identities", summary[OutcomeNewIdentity]),
		logging.Int("already_mapped", summary[OutcomeAlreadyMapped]),
		logging.Int("skipped", summary[OutcomeSkipped]))
	return result, nil
}

// skipDuplicate degrades a uniqueness violation to a skipped outcome. Another
// writer claimed the key mid-batch; the record is settled either way and the
// batch keeps going.
func skipDuplicate(logger *slog.Logger, rec identity.NormalizedRecord, err error) Outcome {
	logger.Error("record mapped concurrently, skipping",
		logging.String(logging.FieldRecord, rec.Key()),
		logging.Error(err))
	return Outcome{
		Record:     rec.Key(),
		EntityType: rec.EntityType,
		Kind:       OutcomeSkipped,
		Detail:     err.Error(),
	}
}

func (e *Engine) resolveRecord(ctx context.Context, logger *slog.Logger, block *blocker, rec identity.NormalizedRecord, opts Options) (Outcome, error) {
	existing, err := e.store.GetMapping(ctx, rec.EntityType, rec.SourceName, rec.SourceID)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		masterID, err := e.store.ResolveMasterID(ctx, existing.MasterID)
		if err != nil {
			return Outcome{}, err
		}
		logger.Debug("record already mapped",
			logging.String(logging.FieldRecord, rec.Key()),
			logging.Int64(logging.FieldMasterID, masterID))
		return Outcome{
			Record:     rec.Key(),
			EntityType: rec.EntityType,
			Kind:       OutcomeAlreadyMapped,
			MasterID:   masterID,
			Confidence: existing.Confidence,
		}, nil
	}

	candidates := block.candidatesFor(rec.ComparisonName, opts.MaxCandidates)
	best, confidence, tied := bestMatch(rec, candidates)

	if len(tied) > 0 && confidence >= opts.ReviewFloor {
		return e.flagRecord(ctx, logger, rec, best, confidence,
			fmt.Sprintf("tied with master ids %s", formatIDs(tied)))
	}

	switch decision := Decide(confidence, opts); decision {
	case DecideAutoMerge:
		return e.attachRecord(ctx, logger, block, rec, best, confidence)
	case DecideReview:
		return e.flagRecord(ctx, logger, rec, best, confidence, "")
	default:
		return e.createIdentity(ctx, logger, block, rec)
	}
}

func (e *Engine) attachRecord(ctx context.Context, logger *slog.Logger, block *blocker, rec identity.NormalizedRecord, best identity.MatchCandidate, confidence float64) (Outcome, error) {
	mapping := &identity.SourceMapping{
		EntityType: rec.EntityType,
		MasterID:   best.MasterID,
		SourceName: rec.SourceName,
		SourceID:   rec.SourceID,
		Confidence: confidence,
	}
	if err := e.store.AttachMapping(ctx, mapping, rec.BirthDate, rec.Position, rec.Nationality); err != nil {
		return Outcome{}, err
	}
	block.backfill(best.MasterID, rec.BirthDate, rec.Position)

	logger.Info("record matched",
		logging.String(logging.FieldRecord, rec.Key()),
		logging.Int64(logging.FieldMasterID, best.MasterID),
		logging.Float64(logging.FieldConfidence, confidence))
	return Outcome{
		Record:     rec.Key(),
		EntityType: rec.EntityType,
		Kind:       OutcomeAutoMerged,
		MasterID:   best.MasterID,
		Confidence: confidence,
	}, nil
}

func (e *Engine) flagRecord(ctx context.Context, logger *slog.Logger, rec identity.NormalizedRecord, best identity.MatchCandidate, confidence float64, detail string) (Outcome, error) {
	mapping := &identity.SourceMapping{
		EntityType: rec.EntityType,
		MasterID:   best.MasterID,
		SourceName: rec.SourceName,
		SourceID:   rec.SourceID,
		Confidence: confidence,
	}
	snap := store.ReviewSnapshot{
		FullName:        rec.FullName,
		BirthDate:       rec.BirthDate,
		Position:        rec.Position,
		Nationality:     rec.Nationality,
		NameScore:       best.NameScore,
		BirthDateAgrees: best.BirthDateAgrees,
		PositionAgrees:  best.PositionAgrees,
		Detail:          detail,
	}
	if err := e.store.FlagMapping(ctx, mapping, snap); err != nil {
		return Outcome{}, err
	}

	logger.Info("record flagged for review",
		logging.String(logging.FieldRecord, rec.Key()),
		logging.Int64(logging.FieldMasterID, best.MasterID),
		logging.Float64(logging.FieldConfidence, confidence))
	return Outcome{
		Record:     rec.Key(),
		EntityType: rec.EntityType,
		Kind:       OutcomeFlagged,
		MasterID:   best.MasterID,
		Confidence: confidence,
		Detail:     detail,
	}, nil
}

func (e *Engine) createIdentity(ctx context.Context, logger *slog.Logger, block *blocker, rec identity.NormalizedRecord) (Outcome, error) {
	ident := &identity.CanonicalIdentity{
		EntityType:  rec.EntityType,
		FullName:    rec.FullName,
		BirthDate:   rec.BirthDate,
		Position:    rec.Position,
		Nationality: rec.Nationality,
	}
	mapping := &identity.SourceMapping{
		EntityType: rec.EntityType,
		SourceName: rec.SourceName,
		SourceID:   rec.SourceID,
		Confidence: 1.0,
	}
	if err := e.store.CreateIdentityWithMapping(ctx, ident, mapping); err != nil {
		return Outcome{}, err
	}
	block.addIdentity(ident)

	logger.Info("new identity created",
		logging.String(logging.FieldRecord, rec.Key()),
		logging.Int64(logging.FieldMasterID, ident.MasterID))
	return Outcome{
		Record:     rec.Key(),
		EntityType: rec.EntityType,
		Kind:       OutcomeNewIdentity,
		MasterID:   ident.MasterID,
		Confidence: 1.0,
	}, nil
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
