package identity

import (
	"fmt"
	"strings"
	"time"
)

// EntityType distinguishes the independent reconciliation pools.
type EntityType string

const (
	EntityPlayer  EntityType = "player"
	EntityTeam    EntityType = "team"
	EntityManager EntityType = "manager"
	EntityReferee EntityType = "referee"
)

var allEntityTypes = []EntityType{
	EntityPlayer,
	EntityTeam,
	EntityManager,
	EntityReferee,
}

var entityTypeSet = func() map[EntityType]struct{} {
	set := make(map[EntityType]struct{}, len(allEntityTypes))
	for _, et := range allEntityTypes {
		set[et] = struct{}{}
	}
	return set
}()

// AllEntityTypes returns the ordered list of known entity types.
func AllEntityTypes() []EntityType {
	cp := make([]EntityType, len(allEntityTypes))
	copy(cp, allEntityTypes)
	return cp
}

// ParseEntityType converts a string into a known EntityType.
func ParseEntityType(value string) (EntityType, bool) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := entityTypeSet[normalized]
	return normalized, ok
}

// MappingStatus tracks whether a source mapping is settled or awaiting review.
type MappingStatus string

const (
	MappingConfirmed MappingStatus = "confirmed"
	MappingPending   MappingStatus = "pending"
)

// ParseMappingStatus converts a string into a known MappingStatus.
func ParseMappingStatus(value string) (MappingStatus, bool) {
	normalized := MappingStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case MappingConfirmed, MappingPending:
		return normalized, true
	default:
		return "", false
	}
}

// CanonicalIdentity is the master record for one real-world entity. Master IDs
// are assigned by the store and never reused; merges redirect rather than
// delete.
type CanonicalIdentity struct {
	MasterID    int64
	EntityType  EntityType
	FullName    string
	BirthDate   *time.Time
	Position    string
	Nationality string
	CreatedAt   time.Time
}

// SourceMapping links one source-specific record to a canonical identity.
// The triple (EntityType, SourceName, SourceID) is unique across the table.
type SourceMapping struct {
	ID         int64
	EntityType EntityType
	MasterID   int64
	SourceName string
	SourceID   string
	Confidence float64
	Status     MappingStatus
	MappedAt   time.Time
}

// RawRecord is an identity record as delivered by an ingestion collaborator.
type RawRecord struct {
	EntityType  string `json:"entity_type"`
	SourceName  string `json:"source_name"`
	SourceID    string `json:"source_id"`
	FullName    string `json:"full_name"`
	BirthDate   string `json:"birth_date,omitempty"`
	Position    string `json:"position,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Key returns the record's unique source key for logs and result reporting.
func (r RawRecord) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.EntityType, r.SourceName, r.SourceID)
}

// NormalizedRecord is a RawRecord in comparison-ready form.
type NormalizedRecord struct {
	EntityType     EntityType
	SourceName     string
	SourceID       string
	FullName       string
	ComparisonName string
	BirthDate      *time.Time
	Position       string
	Nationality    string
}

// Key returns the record's unique source key for logs and result reporting.
func (r NormalizedRecord) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.EntityType, r.SourceName, r.SourceID)
}

// Agreement is a three-valued comparison outcome for secondary signals.
type Agreement int

const (
	AgreeUnknown Agreement = iota
	AgreeTrue
	AgreeFalse
)

// String renders the agreement for logs and review output.
func (a Agreement) String() string {
	switch a {
	case AgreeTrue:
		return "true"
	case AgreeFalse:
		return "false"
	default:
		return "unknown"
	}
}

// MatchCandidate pairs a normalized record with one canonical identity and the
// similarity breakdown used to compute confidence. It is never persisted.
type MatchCandidate struct {
	MasterID        int64
	NameScore       float64
	BirthDateAgrees Agreement
	PositionAgrees  Agreement
}
