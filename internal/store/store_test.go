package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchday/internal/identity"
	"matchday/internal/store"
	"matchday/internal/testsupport"
)

func date(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	ident := &identity.CanonicalIdentity{
		EntityType: identity.EntityPlayer,
		FullName:   "Mohamed Salah",
		BirthDate:  date("1992-06-15"),
		Position:   identity.PositionForward,
	}
	if err := st.InsertIdentity(ctx, ident); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}
	if ident.MasterID == 0 {
		t.Fatal("expected master id to be assigned")
	}

	fetched, err := st.GetIdentity(ctx, ident.MasterID)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if fetched == nil || fetched.FullName != "Mohamed Salah" {
		t.Fatalf("unexpected fetched identity: %#v", fetched)
	}
	if fetched.BirthDate == nil || !identity.SameDay(*fetched.BirthDate, *ident.BirthDate) {
		t.Fatalf("birth date not round-tripped: %#v", fetched.BirthDate)
	}
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer st2.Close()
}

func TestInsertMappingEnforcesUniqueness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ident := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "James Smith"}
	if err := st.InsertIdentity(ctx, ident); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}

	first := &identity.SourceMapping{
		EntityType: identity.EntityPlayer,
		MasterID:   ident.MasterID,
		SourceName: "fbref",
		SourceID:   "js-1",
		Confidence: 1.0,
	}
	if err := st.InsertMapping(ctx, first); err != nil {
		t.Fatalf("InsertMapping failed: %v", err)
	}

	dup := &identity.SourceMapping{
		EntityType: identity.EntityPlayer,
		MasterID:   ident.MasterID,
		SourceName: "fbref",
		SourceID:   "js-1",
		Confidence: 0.9,
	}
	err := st.InsertMapping(ctx, dup)
	if !errors.Is(err, store.ErrDuplicateMapping) {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}

	// Original row untouched.
	kept, err := st.GetMapping(ctx, identity.EntityPlayer, "fbref", "js-1")
	if err != nil {
		t.Fatalf("GetMapping failed: %v", err)
	}
	if kept == nil || kept.Confidence != 1.0 {
		t.Fatalf("original mapping not retained: %#v", kept)
	}
}

func TestAttachMappingBackfillsOnlyNullAttributes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ident := &identity.CanonicalIdentity{
		EntityType: identity.EntityPlayer,
		FullName:   "Thomas Muller",
		Position:   identity.PositionForward,
	}
	if err := st.InsertIdentity(ctx, ident); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}

	mapping := &identity.SourceMapping{
		EntityType: identity.EntityPlayer,
		MasterID:   ident.MasterID,
		SourceName: "transfermarkt",
		SourceID:   "tm-9",
		Confidence: 0.97,
	}
	if err := st.AttachMapping(ctx, mapping, date("1989-09-13"), identity.PositionMidfielder, "Germany"); err != nil {
		t.Fatalf("AttachMapping failed: %v", err)
	}

	updated, err := st.GetIdentity(ctx, ident.MasterID)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if updated.BirthDate == nil || updated.Nationality != "Germany" {
		t.Fatalf("null attributes not backfilled: %#v", updated)
	}
	if updated.Position != identity.PositionForward {
		t.Fatalf("non-null position overwritten: %q", updated.Position)
	}
}

func TestMergeIdentitiesPreservesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	survivor := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "Son Heung-min"}
	loser := &identity.CanonicalIdentity{
		EntityType: identity.EntityPlayer,
		FullName:   "Heung-min Son",
		BirthDate:  date("1992-07-08"),
	}
	for _, ident := range []*identity.CanonicalIdentity{survivor, loser} {
		if err := st.InsertIdentity(ctx, ident); err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
	}
	for i, m := range []*identity.SourceMapping{
		{EntityType: identity.EntityPlayer, MasterID: survivor.MasterID, SourceName: "fbref", SourceID: "son-1", Confidence: 1},
		{EntityType: identity.EntityPlayer, MasterID: survivor.MasterID, SourceName: "understat", SourceID: "son-2", Confidence: 1},
		{EntityType: identity.EntityPlayer, MasterID: loser.MasterID, SourceName: "transfermarkt", SourceID: "son-3", Confidence: 1},
	} {
		if err := st.InsertMapping(ctx, m); err != nil {
			t.Fatalf("InsertMapping %d failed: %v", i, err)
		}
	}

	if err := st.MergeIdentities(ctx, survivor.MasterID, loser.MasterID); err != nil {
		t.Fatalf("MergeIdentities failed: %v", err)
	}

	mappings, err := st.MappingsByMaster(ctx, survivor.MasterID)
	if err != nil {
		t.Fatalf("MappingsByMaster failed: %v", err)
	}
	if len(mappings) != 3 {
		t.Fatalf("expected 3 mappings on survivor, got %d", len(mappings))
	}

	// Stale master id still resolves.
	resolved, err := st.ResolveMasterID(ctx, loser.MasterID)
	if err != nil {
		t.Fatalf("ResolveMasterID failed: %v", err)
	}
	if resolved != survivor.MasterID {
		t.Fatalf("redirect resolves to %d, want %d", resolved, survivor.MasterID)
	}

	// Survivor unions the loser's known birth date.
	merged, err := st.GetIdentity(ctx, survivor.MasterID)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if merged.BirthDate == nil {
		t.Fatal("expected birth date union from loser")
	}

	// Tombstoned identities drop out of the live set and counts.
	live, err := st.LiveIdentitiesByType(ctx, identity.EntityPlayer)
	if err != nil {
		t.Fatalf("LiveIdentitiesByType failed: %v", err)
	}
	if len(live) != 1 || live[0].MasterID != survivor.MasterID {
		t.Fatalf("unexpected live identities: %#v", live)
	}
	counts, err := st.CountIdentities(ctx)
	if err != nil {
		t.Fatalf("CountIdentities failed: %v", err)
	}
	if counts[identity.EntityPlayer] != 1 {
		t.Fatalf("expected 1 live player, got %d", counts[identity.EntityPlayer])
	}
}

func TestMergeIdentitiesCollapsesRedirectChains(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := &identity.CanonicalIdentity{EntityType: identity.EntityTeam, FullName: "Leeds United"}
	b := &identity.CanonicalIdentity{EntityType: identity.EntityTeam, FullName: "Leeds Utd"}
	c := &identity.CanonicalIdentity{EntityType: identity.EntityTeam, FullName: "Leeds"}
	for _, ident := range []*identity.CanonicalIdentity{a, b, c} {
		if err := st.InsertIdentity(ctx, ident); err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
	}

	if err := st.MergeIdentities(ctx, b.MasterID, c.MasterID); err != nil {
		t.Fatalf("merge c into b: %v", err)
	}
	if err := st.MergeIdentities(ctx, a.MasterID, b.MasterID); err != nil {
		t.Fatalf("merge b into a: %v", err)
	}

	for _, stale := range []int64{b.MasterID, c.MasterID} {
		resolved, err := st.ResolveMasterID(ctx, stale)
		if err != nil {
			t.Fatalf("ResolveMasterID(%d) failed: %v", stale, err)
		}
		if resolved != a.MasterID {
			t.Fatalf("ResolveMasterID(%d) = %d, want %d", stale, resolved, a.MasterID)
		}
	}
}

func TestReviewLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ident := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "J. Smith"}
	if err := st.InsertIdentity(ctx, ident); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}

	mapping := &identity.SourceMapping{
		EntityType: identity.EntityPlayer,
		MasterID:   ident.MasterID,
		SourceName: "understat",
		SourceID:   "us-5",
		Confidence: 0.85,
	}
	snap := store.ReviewSnapshot{
		FullName:        "James Smith",
		BirthDate:       date("1998-01-01"),
		NameScore:       0.85,
		BirthDateAgrees: identity.AgreeUnknown,
		PositionAgrees:  identity.AgreeUnknown,
	}
	if err := st.FlagMapping(ctx, mapping, snap); err != nil {
		t.Fatalf("FlagMapping failed: %v", err)
	}

	pending, err := st.PendingReviews(ctx)
	if err != nil {
		t.Fatalf("PendingReviews failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Mapping.ID != mapping.ID {
		t.Fatalf("unexpected pending reviews: %#v", pending)
	}
	if pending[0].Snapshot.FullName != "James Smith" {
		t.Fatalf("snapshot not persisted: %#v", pending[0].Snapshot)
	}

	if err := st.ConfirmReview(ctx, mapping.ID); err != nil {
		t.Fatalf("ConfirmReview failed: %v", err)
	}

	confirmed, err := st.GetMappingByID(ctx, mapping.ID)
	if err != nil {
		t.Fatalf("GetMappingByID failed: %v", err)
	}
	if confirmed.Status != identity.MappingConfirmed {
		t.Fatalf("expected confirmed status, got %q", confirmed.Status)
	}

	// Backfill from snapshot ran.
	updated, err := st.GetIdentity(ctx, ident.MasterID)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if updated.BirthDate == nil {
		t.Fatal("expected identity backfilled from review snapshot")
	}

	pending, err = st.PendingReviews(ctx)
	if err != nil {
		t.Fatalf("PendingReviews failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty review queue, got %d", len(pending))
	}

	// Review actions on settled mappings are rejected.
	if err := st.ConfirmReview(ctx, mapping.ID); !errors.Is(err, store.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestRejectReviewCreatesNewIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ident := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "James Smith"}
	if err := st.InsertIdentity(ctx, ident); err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}
	mapping := &identity.SourceMapping{
		EntityType: identity.EntityPlayer,
		MasterID:   ident.MasterID,
		SourceName: "fbref",
		SourceID:   "smith-2",
		Confidence: 0.82,
	}
	snap := store.ReviewSnapshot{FullName: "Jamie Smith", Position: identity.PositionDefender, NameScore: 0.82}
	if err := st.FlagMapping(ctx, mapping, snap); err != nil {
		t.Fatalf("FlagMapping failed: %v", err)
	}

	newMasterID, err := st.RejectReview(ctx, mapping.ID)
	if err != nil {
		t.Fatalf("RejectReview failed: %v", err)
	}
	if newMasterID == ident.MasterID {
		t.Fatal("expected a new master id")
	}

	repointed, err := st.GetMappingByID(ctx, mapping.ID)
	if err != nil {
		t.Fatalf("GetMappingByID failed: %v", err)
	}
	if repointed.MasterID != newMasterID || repointed.Confidence != 1.0 || repointed.Status != identity.MappingConfirmed {
		t.Fatalf("mapping not repointed as self-identity: %#v", repointed)
	}

	created, err := st.GetIdentity(ctx, newMasterID)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if created == nil || created.FullName != "Jamie Smith" || created.Position != identity.PositionDefender {
		t.Fatalf("new identity not built from snapshot: %#v", created)
	}
}

func TestAuditCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	salah := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "Mohamed Salah"}
	smith := &identity.CanonicalIdentity{EntityType: identity.EntityPlayer, FullName: "James Smith"}
	leeds := &identity.CanonicalIdentity{EntityType: identity.EntityTeam, FullName: "Leeds United"}
	for _, ident := range []*identity.CanonicalIdentity{salah, smith, leeds} {
		if err := st.InsertIdentity(ctx, ident); err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
	}
	for _, m := range []*identity.SourceMapping{
		{EntityType: identity.EntityPlayer, MasterID: salah.MasterID, SourceName: "fbref", SourceID: "ms-1", Confidence: 1},
		{EntityType: identity.EntityPlayer, MasterID: salah.MasterID, SourceName: "understat", SourceID: "ms-2", Confidence: 0.97},
		{EntityType: identity.EntityPlayer, MasterID: smith.MasterID, SourceName: "fbref", SourceID: "js-1", Confidence: 1},
	} {
		if err := st.InsertMapping(ctx, m); err != nil {
			t.Fatalf("InsertMapping failed: %v", err)
		}
	}

	totals, err := st.CountIdentities(ctx)
	if err != nil {
		t.Fatalf("CountIdentities failed: %v", err)
	}
	if totals[identity.EntityPlayer] != 2 || totals[identity.EntityTeam] != 1 {
		t.Fatalf("unexpected totals: %v", totals)
	}

	mapped, err := st.CountMappedIdentities(ctx)
	if err != nil {
		t.Fatalf("CountMappedIdentities failed: %v", err)
	}
	if mapped[identity.EntityPlayer] != 2 || mapped[identity.EntityTeam] != 0 {
		t.Fatalf("unexpected mapped counts: %v", mapped)
	}

	bySource, err := st.CountBySource(ctx)
	if err != nil {
		t.Fatalf("CountBySource failed: %v", err)
	}
	if bySource[identity.EntityPlayer]["fbref"] != 2 || bySource[identity.EntityPlayer]["understat"] != 1 {
		t.Fatalf("unexpected per-source counts: %v", bySource)
	}

	single, err := st.CountSingleSource(ctx)
	if err != nil {
		t.Fatalf("CountSingleSource failed: %v", err)
	}
	// smith has one source, leeds has none; salah has two.
	if single[identity.EntityPlayer] != 1 || single[identity.EntityTeam] != 1 {
		t.Fatalf("unexpected single-source counts: %v", single)
	}
}
