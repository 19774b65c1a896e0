package reconcile

import (
	"context"
	"sort"

	"matchday/internal/identity"
	"matchday/internal/store"
)

// TypeCoverage summarizes reconciliation coverage for one entity type.
type TypeCoverage struct {
	EntityType   identity.EntityType
	Identities   int
	Mapped       int
	SingleSource int
	BySource     map[string]int
}

// Sources returns the source names of this type in stable order.
func (t TypeCoverage) Sources() []string {
	names := make([]string, 0, len(t.BySource))
	for name := range t.BySource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoverageReport is the audit view of the identity store: how many live
// identities exist per type, how many each source has claimed, how many are
// still single-source, and what awaits review.
type CoverageReport struct {
	Types          []TypeCoverage
	PendingReviews []*store.PendingReview
}

// TotalIdentities sums live identities across types.
func (r *CoverageReport) TotalIdentities() int {
	total := 0
	for _, t := range r.Types {
		total += t.Identities
	}
	return total
}

// Audit assembles a coverage report from the store.
func (e *Engine) Audit(ctx context.Context) (*CoverageReport, error) {
	totals, err := e.store.CountIdentities(ctx)
	if err != nil {
		return nil, err
	}
	mapped, err := e.store.CountMappedIdentities(ctx)
	if err != nil {
		return nil, err
	}
	bySource, err := e.store.CountBySource(ctx)
	if err != nil {
		return nil, err
	}
	singleSource, err := e.store.CountSingleSource(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := e.store.PendingReviews(ctx)
	if err != nil {
		return nil, err
	}

	report := &CoverageReport{PendingReviews: pending}
	for _, entityType := range identity.AllEntityTypes() {
		report.Types = append(report.Types, TypeCoverage{
			EntityType:   entityType,
			Identities:   totals[entityType],
			Mapped:       mapped[entityType],
			SingleSource: singleSource[entityType],
			BySource:     bySource[entityType],
		})
	}
	return report, nil
}
