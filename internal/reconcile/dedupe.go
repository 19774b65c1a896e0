package reconcile

import (
	"context"
	"log/slog"
	"sort"

	"matchday/internal/identity"
	"matchday/internal/logging"
	"matchday/internal/textutil"
)

// DuplicatePair is one suspected duplicate among the live identities of an
// entity type. The survivor is the member with more source mappings, falling
// back to the older (lower) master id.
type DuplicatePair struct {
	EntityType identity.EntityType
	SurvivorID int64
	LoserID    int64
	Survivor   string
	Loser      string
	NameScore  float64
}

// FindDuplicates scans live identities for pairs whose name similarity
// reaches threshold and whose known birth dates do not conflict. An empty
// entityType scans every type. Blocking keeps the scan near linear; pairs
// sharing no block key are never compared.
func (e *Engine) FindDuplicates(ctx context.Context, entityType identity.EntityType, threshold float64, maxCandidates int) ([]DuplicatePair, error) {
	types := identity.AllEntityTypes()
	if entityType != "" {
		types = []identity.EntityType{entityType}
	}

	var pairs []DuplicatePair
	for _, et := range types {
		typed, err := e.findDuplicatesForType(ctx, et, threshold, maxCandidates)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, typed...)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].NameScore != pairs[j].NameScore {
			return pairs[i].NameScore > pairs[j].NameScore
		}
		if pairs[i].SurvivorID != pairs[j].SurvivorID {
			return pairs[i].SurvivorID < pairs[j].SurvivorID
		}
		return pairs[i].LoserID < pairs[j].LoserID
	})
	return pairs, nil
}

func (e *Engine) findDuplicatesForType(ctx context.Context, entityType identity.EntityType, threshold float64, maxCandidates int) ([]DuplicatePair, error) {
	live, err := e.store.LiveIdentitiesByType(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if len(live) < 2 {
		return nil, nil
	}
	block := newBlocker(live)

	names := make(map[int64]string, len(live))
	for _, ident := range live {
		names[ident.MasterID] = ident.FullName
	}

	var pairs []DuplicatePair
	for _, ident := range live {
		rec := identityAsRecord(ident)
		for _, cand := range block.candidatesFor(rec.ComparisonName, maxCandidates) {
			// Each unordered pair is scored once, from its older member.
			if cand.masterID <= ident.MasterID {
				continue
			}
			match := scoreCandidate(rec, cand)
			if match.NameScore < threshold || match.BirthDateAgrees == identity.AgreeFalse {
				continue
			}
			survivorID, loserID, err := e.pickSurvivor(ctx, ident.MasterID, cand.masterID)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, DuplicatePair{
				EntityType: entityType,
				SurvivorID: survivorID,
				LoserID:    loserID,
				Survivor:   names[survivorID],
				Loser:      names[loserID],
				NameScore:  match.NameScore,
			})
		}
	}
	return pairs, nil
}

// pickSurvivor keeps the identity with more mappings; ties keep the older one.
func (e *Engine) pickSurvivor(ctx context.Context, a, b int64) (int64, int64, error) {
	countA, err := e.store.CountMappings(ctx, a)
	if err != nil {
		return 0, 0, err
	}
	countB, err := e.store.CountMappings(ctx, b)
	if err != nil {
		return 0, 0, err
	}
	if countB > countA || (countB == countA && b < a) {
		return b, a, nil
	}
	return a, b, nil
}

// MergeDuplicates applies a set of duplicate pairs, folding each loser into
// its survivor. Chains formed by earlier merges in the same pass resolve
// through redirects, so pair order does not matter.
func (e *Engine) MergeDuplicates(ctx context.Context, logger *slog.Logger, pairs []DuplicatePair) (int, error) {
	if logger == nil {
		logger = e.logger
	}
	merged := 0
	for _, pair := range pairs {
		survivorID, err := e.store.ResolveMasterID(ctx, pair.SurvivorID)
		if err != nil {
			return merged, err
		}
		loserID, err := e.store.ResolveMasterID(ctx, pair.LoserID)
		if err != nil {
			return merged, err
		}
		if survivorID == loserID {
			continue
		}
		if err := e.store.MergeIdentities(ctx, survivorID, loserID); err != nil {
			return merged, err
		}
		merged++
		logger.Info("identities merged",
			logging.Int64(logging.FieldMasterID, survivorID),
			logging.Int64("merged_master_id", loserID),
			logging.Float64("name_score", pair.NameScore))
	}
	return merged, nil
}

func identityAsRecord(ident *identity.CanonicalIdentity) identity.NormalizedRecord {
	return identity.NormalizedRecord{
		EntityType:     ident.EntityType,
		FullName:       ident.FullName,
		ComparisonName: textutil.ComparisonName(ident.FullName),
		BirthDate:      ident.BirthDate,
		Position:       ident.Position,
	}
}
