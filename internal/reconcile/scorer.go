package reconcile

import (
	"matchday/internal/identity"
	"matchday/internal/textutil"
)

// Secondary-signal adjustments applied on top of the name score. A birth-date
// conflict is close to a veto: it pushes a perfect name match below the
// review floor.
const (
	birthDateBonus   = 0.05
	birthDatePenalty = 0.40
	positionPenalty  = 0.05
)

// confidenceTolerance bounds float noise when checking for tied candidates.
const confidenceTolerance = 1e-9

func scoreCandidate(rec identity.NormalizedRecord, c *candidate) identity.MatchCandidate {
	match := identity.MatchCandidate{
		MasterID:  c.masterID,
		NameScore: textutil.Similarity(rec.ComparisonName, c.comparisonName),
	}
	if rec.BirthDate != nil && c.birthDate != nil {
		match.BirthDateAgrees = textutil.Ternary(identity.SameDay(*rec.BirthDate, *c.birthDate),
			identity.AgreeTrue, identity.AgreeFalse)
	}
	if rec.Position != "" && c.position != "" {
		match.PositionAgrees = textutil.Ternary(rec.Position == c.position,
			identity.AgreeTrue, identity.AgreeFalse)
	}
	return match
}

// Confidence folds the similarity breakdown into a single [0, 1] score.
// Unknown signals leave the score untouched.
func Confidence(match identity.MatchCandidate) float64 {
	score := match.NameScore
	switch match.BirthDateAgrees {
	case identity.AgreeTrue:
		score += birthDateBonus
	case identity.AgreeFalse:
		score -= birthDatePenalty
	}
	if match.PositionAgrees == identity.AgreeFalse {
		score -= positionPenalty
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Decision is the resolution policy outcome for one record.
type Decision int

const (
	DecideNewIdentity Decision = iota
	DecideReview
	DecideAutoMerge
)

// Decide applies the inclusive thresholds to a confidence score.
func Decide(confidence float64, opts Options) Decision {
	switch {
	case confidence >= opts.AutoMergeThreshold:
		return DecideAutoMerge
	case confidence >= opts.ReviewFloor:
		return DecideReview
	default:
		return DecideNewIdentity
	}
}

// bestMatch scores every candidate and returns the winner plus any candidates
// tied with it within confidenceTolerance. Ties are broken toward the lowest
// master id for a deterministic review target.
func bestMatch(rec identity.NormalizedRecord, candidates []*candidate) (identity.MatchCandidate, float64, []int64) {
	var (
		best     identity.MatchCandidate
		bestConf = -1.0
		tied     []int64
	)
	for _, c := range candidates {
		match := scoreCandidate(rec, c)
		conf := Confidence(match)
		switch {
		case conf > bestConf+confidenceTolerance:
			best = match
			bestConf = conf
			tied = tied[:0]
		case conf > bestConf-confidenceTolerance:
			// Candidates arrive in ascending master id order, so the
			// incumbent already has the lower id.
			tied = append(tied, match.MasterID)
		}
	}
	return best, bestConf, tied
}
