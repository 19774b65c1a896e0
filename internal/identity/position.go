package identity

import "strings"

// Canonical position vocabulary. Anything the table below cannot resolve
// normalizes to "" and is treated as unknown.
const (
	PositionGoalkeeper = "goalkeeper"
	PositionDefender   = "defender"
	PositionMidfielder = "midfielder"
	PositionForward    = "forward"
)

// positionAliases folds source-specific position notations (fbref role codes,
// transfermarkt labels) onto the canonical vocabulary.
var positionAliases = map[string]string{
	"goalkeeper": PositionGoalkeeper,
	"keeper":     PositionGoalkeeper,
	"gk":         PositionGoalkeeper,

	"defender":   PositionDefender,
	"defence":    PositionDefender,
	"def":        PositionDefender,
	"cb":         PositionDefender,
	"lb":         PositionDefender,
	"rb":         PositionDefender,
	"wb":         PositionDefender,
	"lwb":        PositionDefender,
	"rwb":        PositionDefender,
	"sw":         PositionDefender,
	"centreback": PositionDefender,
	"centerback": PositionDefender,
	"fullback":   PositionDefender,
	"wingback":   PositionDefender,

	"midfielder":          PositionMidfielder,
	"midfield":            PositionMidfielder,
	"mid":                 PositionMidfielder,
	"mf":                  PositionMidfielder,
	"cm":                  PositionMidfielder,
	"dm":                  PositionMidfielder,
	"am":                  PositionMidfielder,
	"cdm":                 PositionMidfielder,
	"cam":                 PositionMidfielder,
	"lm":                  PositionMidfielder,
	"rm":                  PositionMidfielder,
	"centralmidfielder":   PositionMidfielder,
	"defensivemidfielder": PositionMidfielder,
	"attackingmidfielder": PositionMidfielder,

	"forward":       PositionForward,
	"fw":            PositionForward,
	"st":            PositionForward,
	"cf":            PositionForward,
	"lw":            PositionForward,
	"rw":            PositionForward,
	"striker":       PositionForward,
	"winger":        PositionForward,
	"attacker":      PositionForward,
	"leftwing":      PositionForward,
	"rightwing":     PositionForward,
	"centreforward": PositionForward,
	"centerforward": PositionForward,
}

// NormalizePosition maps a free-text position onto the canonical vocabulary.
// Returns "" when the value is empty or unrecognized.
func NormalizePosition(value string) string {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		return ""
	}
	// Strip separators so "centre-back" and "Centre Back" share a key.
	key = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.', '/':
			return -1
		}
		return r
	}, key)
	return positionAliases[key]
}
