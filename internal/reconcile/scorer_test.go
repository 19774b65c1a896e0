package reconcile

import (
	"math"
	"testing"

	"matchday/internal/identity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConfidenceNameOnly(t *testing.T) {
	match := identity.MatchCandidate{NameScore: 0.9}
	if got := Confidence(match); !almostEqual(got, 0.9) {
		t.Fatalf("Confidence = %f, want 0.9", got)
	}
}

func TestConfidenceBirthDateBonusClampsAtOne(t *testing.T) {
	match := identity.MatchCandidate{NameScore: 1.0, BirthDateAgrees: identity.AgreeTrue}
	if got := Confidence(match); got != 1.0 {
		t.Fatalf("Confidence = %f, want 1.0", got)
	}
}

func TestConfidenceBirthDateConflictVetoes(t *testing.T) {
	// A perfect name match with a conflicting birth date lands below the
	// default review floor.
	match := identity.MatchCandidate{NameScore: 1.0, BirthDateAgrees: identity.AgreeFalse}
	got := Confidence(match)
	if !almostEqual(got, 0.60) {
		t.Fatalf("Confidence = %f, want 0.60", got)
	}
	if Decide(got, Options{AutoMergeThreshold: 0.95, ReviewFloor: 0.80, MaxCandidates: 64}) != DecideNewIdentity {
		t.Fatal("expected vetoed match to resolve as a new identity")
	}
}

func TestConfidencePositionPenalty(t *testing.T) {
	match := identity.MatchCandidate{NameScore: 0.9, PositionAgrees: identity.AgreeFalse}
	if got := Confidence(match); !almostEqual(got, 0.85) {
		t.Fatalf("Confidence = %f, want 0.85", got)
	}
}

func TestConfidenceUnknownSignalsLeaveScoreUntouched(t *testing.T) {
	match := identity.MatchCandidate{
		NameScore:       0.82,
		BirthDateAgrees: identity.AgreeUnknown,
		PositionAgrees:  identity.AgreeUnknown,
	}
	if got := Confidence(match); !almostEqual(got, 0.82) {
		t.Fatalf("Confidence = %f, want 0.82", got)
	}
}

func TestConfidenceMonotonicInNameScore(t *testing.T) {
	agreements := []identity.Agreement{identity.AgreeUnknown, identity.AgreeTrue, identity.AgreeFalse}
	for _, birthDate := range agreements {
		for _, position := range agreements {
			previous := -1.0
			for score := 0.0; score <= 1.0+1e-12; score += 0.01 {
				got := Confidence(identity.MatchCandidate{
					NameScore:       score,
					BirthDateAgrees: birthDate,
					PositionAgrees:  position,
				})
				if got < previous {
					t.Fatalf("Confidence decreased from %f to %f at name score %f (birth date %s, position %s)",
						previous, got, score, birthDate, position)
				}
				previous = got
			}
		}
	}
}

func TestConfidenceClampsAtZero(t *testing.T) {
	match := identity.MatchCandidate{NameScore: 0.2, BirthDateAgrees: identity.AgreeFalse, PositionAgrees: identity.AgreeFalse}
	if got := Confidence(match); got != 0 {
		t.Fatalf("Confidence = %f, want 0", got)
	}
}

func TestDecideThresholdsAreInclusive(t *testing.T) {
	opts := Options{AutoMergeThreshold: 0.95, ReviewFloor: 0.80, MaxCandidates: 64}
	cases := []struct {
		confidence float64
		want       Decision
	}{
		{1.0, DecideAutoMerge},
		{0.95, DecideAutoMerge},
		{0.9499999, DecideReview},
		{0.80, DecideReview},
		{0.7999999, DecideNewIdentity},
		{0.0, DecideNewIdentity},
	}
	for _, tc := range cases {
		if got := Decide(tc.confidence, opts); got != tc.want {
			t.Errorf("Decide(%f) = %d, want %d", tc.confidence, got, tc.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := Options{AutoMergeThreshold: 0.95, ReviewFloor: 0.80, MaxCandidates: 64}
	if err := valid.validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	invalid := []Options{
		{AutoMergeThreshold: 0, ReviewFloor: 0.80, MaxCandidates: 64},
		{AutoMergeThreshold: 1.2, ReviewFloor: 0.80, MaxCandidates: 64},
		{AutoMergeThreshold: 0.95, ReviewFloor: 0.96, MaxCandidates: 64},
		{AutoMergeThreshold: 0.95, ReviewFloor: 0, MaxCandidates: 64},
		{AutoMergeThreshold: 0.95, ReviewFloor: 0.80, MaxCandidates: 0},
	}
	for i, opts := range invalid {
		if err := opts.validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
