package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"matchday/internal/identity"
)

const mappingColumns = "id, entity_type, master_id, source_name, source_id, confidence, status, mapped_at"

// GetMapping fetches the mapping for one source record key. Returns nil when
// the record has never been mapped.
func (s *Store) GetMapping(ctx context.Context, entityType identity.EntityType, sourceName, sourceID string) (*identity.SourceMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM source_mappings
         WHERE entity_type = ? AND source_name = ? AND source_id = ?`,
		entityType, sourceName, sourceID)
	mapping, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return mapping, nil
}

// GetMappingByID fetches a mapping by its row id. Returns nil when missing.
func (s *Store) GetMappingByID(ctx context.Context, id int64) (*identity.SourceMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM source_mappings WHERE id = ?`, id)
	mapping, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping by id: %w", err)
	}
	return mapping, nil
}

// MappingsByMaster returns every mapping attached to a master id.
func (s *Store) MappingsByMaster(ctx context.Context, masterID int64) ([]*identity.SourceMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM source_mappings WHERE master_id = ? ORDER BY id`, masterID)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*identity.SourceMapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

// CountMappings returns the number of mappings attached to a master id.
func (s *Store) CountMappings(ctx context.Context, masterID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM source_mappings WHERE master_id = ?`, masterID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return count, nil
}

// InsertMapping persists a confirmed or pending mapping. A uniqueness
// violation on (entity_type, source_name, source_id) returns
// ErrDuplicateMapping and leaves the original row untouched.
func (s *Store) InsertMapping(ctx context.Context, mapping *identity.SourceMapping) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertMappingTx(ctx, tx, mapping)
	})
}

func insertMappingTx(ctx context.Context, tx *sql.Tx, mapping *identity.SourceMapping) error {
	if mapping == nil {
		return errors.New("mapping is nil")
	}
	if mapping.Status == "" {
		mapping.Status = identity.MappingConfirmed
	}
	if mapping.MappedAt.IsZero() {
		mapping.MappedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO source_mappings (entity_type, master_id, source_name, source_id, confidence, status, mapped_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mapping.EntityType,
		mapping.MasterID,
		mapping.SourceName,
		mapping.SourceID,
		mapping.Confidence,
		mapping.Status,
		timestamp(mapping.MappedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s/%s", ErrDuplicateMapping, mapping.EntityType, mapping.SourceName, mapping.SourceID)
		}
		return fmt.Errorf("insert mapping: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	mapping.ID = id
	return nil
}

// CreateIdentityWithMapping inserts a new canonical identity and its
// self-mapping in one transaction.
func (s *Store) CreateIdentityWithMapping(ctx context.Context, ident *identity.CanonicalIdentity, mapping *identity.SourceMapping) error {
	if ident == nil || mapping == nil {
		return errors.New("identity and mapping are required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if ident.CreatedAt.IsZero() {
			ident.CreatedAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO canonical_identities (entity_type, full_name, birth_date, position, nationality, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			ident.EntityType,
			ident.FullName,
			nullableDate(ident.BirthDate),
			nullableString(ident.Position),
			nullableString(ident.Nationality),
			timestamp(ident.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		ident.MasterID = id
		mapping.MasterID = id
		return insertMappingTx(ctx, tx, mapping)
	})
}

// AttachMapping inserts a mapping against an existing identity and backfills
// the identity's null attributes from the source record in one transaction.
func (s *Store) AttachMapping(ctx context.Context, mapping *identity.SourceMapping, birthDate *time.Time, position, nationality string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertMappingTx(ctx, tx, mapping); err != nil {
			return err
		}
		return backfillIdentityTx(ctx, tx, mapping.MasterID, birthDate, position, nationality)
	})
}

func scanMapping(scanner interface{ Scan(dest ...any) error }) (*identity.SourceMapping, error) {
	var (
		id         int64
		entityType string
		masterID   int64
		sourceName string
		sourceID   string
		confidence float64
		status     string
		mappedRaw  string
	)
	if err := scanner.Scan(&id, &entityType, &masterID, &sourceName, &sourceID, &confidence, &status, &mappedRaw); err != nil {
		return nil, err
	}

	mapping := &identity.SourceMapping{
		ID:         id,
		EntityType: identity.EntityType(entityType),
		MasterID:   masterID,
		SourceName: sourceName,
		SourceID:   sourceID,
		Confidence: confidence,
		Status:     identity.MappingStatus(status),
	}
	if mapped, err := parseTimestamp(mappedRaw); err == nil {
		mapping.MappedAt = mapped
	}
	return mapping, nil
}
