package reconcile

import (
	"sort"
	"time"

	"matchday/internal/identity"
	"matchday/internal/textutil"
)

// candidate is the in-memory view of one live canonical identity, with the
// comparison name precomputed once per run.
type candidate struct {
	masterID       int64
	comparisonName string
	birthDate      *time.Time
	position       string
}

// blocker indexes the live identities of one entity type by name-derived
// block keys so each incoming record is compared against a handful of
// plausible matches instead of the whole pool.
type blocker struct {
	byKey      map[string][]int64
	candidates map[int64]*candidate
}

func newBlocker(identities []*identity.CanonicalIdentity) *blocker {
	b := &blocker{
		byKey:      make(map[string][]int64),
		candidates: make(map[int64]*candidate),
	}
	for _, ident := range identities {
		b.addIdentity(ident)
	}
	return b
}

func (b *blocker) addIdentity(ident *identity.CanonicalIdentity) {
	b.add(&candidate{
		masterID:       ident.MasterID,
		comparisonName: textutil.ComparisonName(ident.FullName),
		birthDate:      ident.BirthDate,
		position:       ident.Position,
	})
}

func (b *blocker) add(c *candidate) {
	if c.comparisonName == "" {
		return
	}
	b.candidates[c.masterID] = c
	for _, key := range blockKeys(c.comparisonName) {
		b.byKey[key] = append(b.byKey[key], c.masterID)
	}
}

// backfill mirrors the store-side identity backfill so later records in the
// same batch score against the enriched identity.
func (b *blocker) backfill(masterID int64, birthDate *time.Time, position string) {
	c, ok := b.candidates[masterID]
	if !ok {
		return
	}
	if c.birthDate == nil && birthDate != nil {
		c.birthDate = birthDate
	}
	if c.position == "" && position != "" {
		c.position = position
	}
}

// candidatesFor returns the block-key union for a record's comparison name,
// ordered by ascending master id and capped at limit. Older identities are
// preferred when the cap bites.
func (b *blocker) candidatesFor(comparisonName string, limit int) []*candidate {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, key := range blockKeys(comparisonName) {
		for _, id := range b.byKey[key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.candidates[id])
	}
	return out
}

// blockKeys derives the index keys for a comparison name: the first and last
// tokens plus their phonetic codes. Tokens catch reordered names ("Son
// Heung-min" vs "Heung-min Son"), phonetic codes catch spelling variants
// ("Mohamed" vs "Mohammed").
func blockKeys(comparisonName string) []string {
	tokens := textutil.Tokens(comparisonName)
	if len(tokens) == 0 {
		return nil
	}
	keySet := make(map[string]struct{}, 4)
	for _, token := range []string{tokens[0], tokens[len(tokens)-1]} {
		keySet["t:"+token] = struct{}{}
		if code := textutil.PhoneticKey(token); code != "" {
			keySet["p:"+code] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
