package identity

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"matchday/internal/logging"
	"matchday/internal/textutil"
)

// birthDateFormats is the fallback chain for source-supplied date strings.
// Sources disagree on formats; the spread below covers what fbref,
// transfermarkt, and understat emit.
var birthDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Normalize canonicalizes a raw identity record into comparison-ready form.
// Malformed dates and unrecognized positions degrade to their zero values and
// are logged as data-quality warnings; normalization never fails a record.
func Normalize(raw RawRecord, logger *slog.Logger) (NormalizedRecord, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	entityType, ok := ParseEntityType(raw.EntityType)
	if !ok {
		return NormalizedRecord{}, fmt.Errorf("unknown entity type %q", raw.EntityType)
	}
	sourceName := strings.TrimSpace(raw.SourceName)
	sourceID := strings.TrimSpace(raw.SourceID)
	if sourceName == "" || sourceID == "" {
		return NormalizedRecord{}, fmt.Errorf("record %q missing source name or source id", raw.FullName)
	}
	fullName := strings.TrimSpace(raw.FullName)
	comparison := textutil.ComparisonName(fullName)
	if comparison == "" {
		return NormalizedRecord{}, fmt.Errorf("record %s has no usable name", raw.Key())
	}

	rec := NormalizedRecord{
		EntityType:     entityType,
		SourceName:     sourceName,
		SourceID:       sourceID,
		FullName:       fullName,
		ComparisonName: comparison,
		Nationality:    strings.TrimSpace(raw.Nationality),
	}

	if trimmed := strings.TrimSpace(raw.BirthDate); trimmed != "" {
		if parsed, ok := ParseBirthDate(trimmed); ok {
			rec.BirthDate = &parsed
		} else {
			logger.Warn("unparseable birth date, treating as unknown",
				logging.String("record", raw.Key()),
				logging.String("birth_date", trimmed))
		}
	}

	if trimmed := strings.TrimSpace(raw.Position); trimmed != "" {
		if pos := NormalizePosition(trimmed); pos != "" {
			rec.Position = pos
		} else {
			logger.Warn("unrecognized position, treating as unknown",
				logging.String("record", raw.Key()),
				logging.String("position", trimmed))
		}
	}

	return rec, nil
}

// ParseBirthDate parses a source date string through the format fallback
// chain. The result is truncated to day precision in UTC.
func ParseBirthDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, format := range birthDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// SameDay reports day-level equality between two parsed birth dates.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
