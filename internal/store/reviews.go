package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"matchday/internal/identity"
)

// ReviewSnapshot preserves the source record attributes and similarity
// breakdown behind a pending mapping, so review actions can backfill or
// create identities long after the batch that flagged them.
type ReviewSnapshot struct {
	FullName        string
	BirthDate       *time.Time
	Position        string
	Nationality     string
	NameScore       float64
	BirthDateAgrees identity.Agreement
	PositionAgrees  identity.Agreement
	Detail          string
}

// PendingReview pairs a pending mapping with its review snapshot.
type PendingReview struct {
	Mapping  identity.SourceMapping
	Snapshot ReviewSnapshot
}

// FlagMapping writes a pending mapping and its review snapshot in one
// transaction. A uniqueness violation returns ErrDuplicateMapping.
func (s *Store) FlagMapping(ctx context.Context, mapping *identity.SourceMapping, snap ReviewSnapshot) error {
	if mapping == nil {
		return errors.New("mapping is nil")
	}
	mapping.Status = identity.MappingPending
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertMappingTx(ctx, tx, mapping); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO review_queue (mapping_id, full_name, birth_date, position, nationality,
                                       name_score, birth_date_agrees, position_agrees, detail, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mapping.ID,
			snap.FullName,
			nullableDate(snap.BirthDate),
			nullableString(snap.Position),
			nullableString(snap.Nationality),
			snap.NameScore,
			snap.BirthDateAgrees.String(),
			snap.PositionAgrees.String(),
			nullableString(snap.Detail),
			timestamp(time.Now().UTC()),
		)
		if err != nil {
			return fmt.Errorf("insert review snapshot: %w", err)
		}
		return nil
	})
}

// PendingReviews lists flagged mappings ordered by confidence descending,
// then entity type, source name, and source id for deterministic output.
func (s *Store) PendingReviews(ctx context.Context) ([]*PendingReview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.entity_type, m.master_id, m.source_name, m.source_id, m.confidence, m.status, m.mapped_at,
                q.full_name, q.birth_date, q.position, q.nationality, q.name_score, q.birth_date_agrees, q.position_agrees, q.detail
         FROM source_mappings m
         JOIN review_queue q ON q.mapping_id = m.id
         WHERE m.status = ?
         ORDER BY m.confidence DESC, m.entity_type, m.source_name, m.source_id`,
		identity.MappingPending)
	if err != nil {
		return nil, fmt.Errorf("query pending reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*PendingReview
	for rows.Next() {
		var (
			m          identity.SourceMapping
			entityType string
			status     string
			mappedRaw  string
			birthDate  sql.NullString
			position   sql.NullString
			natl       sql.NullString
			bdAgrees   string
			posAgrees  string
			detail     sql.NullString
			snap       ReviewSnapshot
		)
		if err := rows.Scan(&m.ID, &entityType, &m.MasterID, &m.SourceName, &m.SourceID, &m.Confidence, &status, &mappedRaw,
			&snap.FullName, &birthDate, &position, &natl, &snap.NameScore, &bdAgrees, &posAgrees, &detail); err != nil {
			return nil, fmt.Errorf("scan pending review: %w", err)
		}
		m.EntityType = identity.EntityType(entityType)
		m.Status = identity.MappingStatus(status)
		if mapped, err := parseTimestamp(mappedRaw); err == nil {
			m.MappedAt = mapped
		}
		snap.BirthDate = parseDate(birthDate)
		snap.Position = position.String
		snap.Nationality = natl.String
		snap.BirthDateAgrees = parseAgreement(bdAgrees)
		snap.PositionAgrees = parseAgreement(posAgrees)
		snap.Detail = detail.String
		reviews = append(reviews, &PendingReview{Mapping: m, Snapshot: snap})
	}
	return reviews, rows.Err()
}

// ConfirmReview accepts a pending mapping: the mapping becomes confirmed, the
// matched identity is backfilled from the snapshot, and the queue row is
// removed.
func (s *Store) ConfirmReview(ctx context.Context, mappingID int64) error {
	review, err := s.pendingByID(ctx, mappingID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE source_mappings SET status = ? WHERE id = ?`,
			identity.MappingConfirmed, mappingID); err != nil {
			return fmt.Errorf("confirm mapping: %w", err)
		}
		if err := backfillIdentityTx(ctx, tx, review.Mapping.MasterID,
			review.Snapshot.BirthDate, review.Snapshot.Position, review.Snapshot.Nationality); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM review_queue WHERE mapping_id = ?`, mappingID); err != nil {
			return fmt.Errorf("clear review queue: %w", err)
		}
		return nil
	})
}

// RejectReview rejects a pending mapping: a new canonical identity is created
// from the snapshot, the mapping is repointed to it as a confirmed
// self-identity, and the queue row is removed. Returns the new master id.
func (s *Store) RejectReview(ctx context.Context, mappingID int64) (int64, error) {
	review, err := s.pendingByID(ctx, mappingID)
	if err != nil {
		return 0, err
	}
	var newMasterID int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO canonical_identities (entity_type, full_name, birth_date, position, nationality, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			review.Mapping.EntityType,
			review.Snapshot.FullName,
			nullableDate(review.Snapshot.BirthDate),
			nullableString(review.Snapshot.Position),
			nullableString(review.Snapshot.Nationality),
			timestamp(time.Now().UTC()),
		)
		if err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
		newMasterID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE source_mappings SET master_id = ?, confidence = 1.0, status = ? WHERE id = ?`,
			newMasterID, identity.MappingConfirmed, mappingID); err != nil {
			return fmt.Errorf("repoint mapping: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM review_queue WHERE mapping_id = ?`, mappingID); err != nil {
			return fmt.Errorf("clear review queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newMasterID, nil
}

func (s *Store) pendingByID(ctx context.Context, mappingID int64) (*PendingReview, error) {
	mapping, err := s.GetMappingByID(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMapping, mappingID)
	}
	if mapping.Status != identity.MappingPending {
		return nil, fmt.Errorf("%w: %d", ErrNotPending, mappingID)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT full_name, birth_date, position, nationality, name_score, birth_date_agrees, position_agrees, detail
         FROM review_queue WHERE mapping_id = ?`, mappingID)
	var (
		snap      ReviewSnapshot
		birthDate sql.NullString
		position  sql.NullString
		natl      sql.NullString
		bdAgrees  string
		posAgrees string
		detail    sql.NullString
	)
	if err := row.Scan(&snap.FullName, &birthDate, &position, &natl, &snap.NameScore, &bdAgrees, &posAgrees, &detail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d has no review snapshot", ErrUnknownMapping, mappingID)
		}
		return nil, fmt.Errorf("get review snapshot: %w", err)
	}
	snap.BirthDate = parseDate(birthDate)
	snap.Position = position.String
	snap.Nationality = natl.String
	snap.BirthDateAgrees = parseAgreement(bdAgrees)
	snap.PositionAgrees = parseAgreement(posAgrees)
	snap.Detail = detail.String
	return &PendingReview{Mapping: *mapping, Snapshot: snap}, nil
}

func parseAgreement(value string) identity.Agreement {
	switch value {
	case "true":
		return identity.AgreeTrue
	case "false":
		return identity.AgreeFalse
	default:
		return identity.AgreeUnknown
	}
}
