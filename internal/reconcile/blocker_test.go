package reconcile

import (
	"testing"

	"matchday/internal/identity"
	"matchday/internal/textutil"
)

func liveIdentity(masterID int64, name string) *identity.CanonicalIdentity {
	return &identity.CanonicalIdentity{
		MasterID:   masterID,
		EntityType: identity.EntityPlayer,
		FullName:   name,
	}
}

func candidateIDs(cands []*candidate) []int64 {
	ids := make([]int64, len(cands))
	for i, c := range cands {
		ids[i] = c.masterID
	}
	return ids
}

func TestBlockerReorderedNamesShareBlock(t *testing.T) {
	b := newBlocker([]*identity.CanonicalIdentity{
		liveIdentity(1, "Son Heung-min"),
	})
	cands := b.candidatesFor(textutil.ComparisonName("Heung-min Son"), 64)
	if len(cands) != 1 || cands[0].masterID != 1 {
		t.Fatalf("reordered name missed its block: %v", candidateIDs(cands))
	}
}

func TestBlockerPhoneticVariantsShareBlock(t *testing.T) {
	b := newBlocker([]*identity.CanonicalIdentity{
		liveIdentity(1, "Mohamed Salah"),
	})
	cands := b.candidatesFor(textutil.ComparisonName("Mohammed Salah"), 64)
	if len(cands) != 1 {
		t.Fatalf("phonetic variant missed its block: %v", candidateIDs(cands))
	}
}

func TestBlockerUnrelatedNamesDoNotCollide(t *testing.T) {
	b := newBlocker([]*identity.CanonicalIdentity{
		liveIdentity(1, "Virgil van Dijk"),
	})
	cands := b.candidatesFor(textutil.ComparisonName("Erling Haaland"), 64)
	if len(cands) != 0 {
		t.Fatalf("unrelated names share a block: %v", candidateIDs(cands))
	}
}

func TestBlockerCapPrefersOlderIdentities(t *testing.T) {
	identities := []*identity.CanonicalIdentity{
		liveIdentity(5, "Alan Smith"),
		liveIdentity(2, "James Smith"),
		liveIdentity(9, "John Smith"),
	}
	b := newBlocker(identities)
	cands := b.candidatesFor(textutil.ComparisonName("Jamie Smith"), 2)
	ids := candidateIDs(cands)
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("cap did not keep lowest master ids: %v", ids)
	}
}

func TestBlockerBackfillEnrichesCandidate(t *testing.T) {
	b := newBlocker([]*identity.CanonicalIdentity{
		liveIdentity(1, "James Smith"),
	})
	birth, _ := identity.ParseBirthDate("1998-01-01")
	b.backfill(1, &birth, identity.PositionDefender)

	cands := b.candidatesFor(textutil.ComparisonName("James Smith"), 64)
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %d", len(cands))
	}
	if cands[0].birthDate == nil || cands[0].position != identity.PositionDefender {
		t.Fatalf("backfill not applied: %#v", cands[0])
	}

	// Known values are never overwritten.
	other, _ := identity.ParseBirthDate("2000-12-31")
	b.backfill(1, &other, identity.PositionForward)
	cands = b.candidatesFor(textutil.ComparisonName("James Smith"), 64)
	if !identity.SameDay(*cands[0].birthDate, birth) || cands[0].position != identity.PositionDefender {
		t.Fatalf("backfill overwrote known values: %#v", cands[0])
	}
}
