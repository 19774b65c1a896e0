package store

import (
	"context"
	"fmt"

	"matchday/internal/identity"
)

// liveIdentityFilter excludes identities tombstoned by a merge redirect.
const liveIdentityFilter = `NOT EXISTS (SELECT 1 FROM identity_redirects r WHERE r.old_master_id = ci.master_id)`

// CountIdentities returns the number of live canonical identities per type.
func (s *Store) CountIdentities(ctx context.Context) (map[identity.EntityType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.entity_type, COUNT(1) FROM canonical_identities ci
         WHERE `+liveIdentityFilter+` GROUP BY ci.entity_type`)
	if err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}
	defer rows.Close()

	counts := make(map[identity.EntityType]int)
	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, err
		}
		counts[identity.EntityType(entityType)] = count
	}
	return counts, rows.Err()
}

// CountMappedIdentities returns, per type, the number of distinct master ids
// holding at least one mapping.
func (s *Store) CountMappedIdentities(ctx context.Context) (map[identity.EntityType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, COUNT(DISTINCT master_id) FROM source_mappings GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("count mapped identities: %w", err)
	}
	defer rows.Close()

	counts := make(map[identity.EntityType]int)
	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, err
		}
		counts[identity.EntityType(entityType)] = count
	}
	return counts, rows.Err()
}

// CountBySource returns, per type and source, the number of distinct master
// ids that source has mapped.
func (s *Store) CountBySource(ctx context.Context) (map[identity.EntityType]map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, source_name, COUNT(DISTINCT master_id)
         FROM source_mappings GROUP BY entity_type, source_name`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[identity.EntityType]map[string]int)
	for rows.Next() {
		var entityType string
		var sourceName string
		var count int
		if err := rows.Scan(&entityType, &sourceName, &count); err != nil {
			return nil, err
		}
		et := identity.EntityType(entityType)
		if counts[et] == nil {
			counts[et] = make(map[string]int)
		}
		counts[et][sourceName] = count
	}
	return counts, rows.Err()
}

// CountSingleSource returns, per type, the number of live identities mapped
// by fewer than two distinct sources. These are the unreconciled records a
// future source may still claim.
func (s *Store) CountSingleSource(ctx context.Context) (map[identity.EntityType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.entity_type, COUNT(1)
         FROM canonical_identities ci
         WHERE `+liveIdentityFilter+`
           AND (SELECT COUNT(DISTINCT m.source_name) FROM source_mappings m
                WHERE m.master_id = ci.master_id) < 2
         GROUP BY ci.entity_type`)
	if err != nil {
		return nil, fmt.Errorf("count single-source identities: %w", err)
	}
	defer rows.Close()

	counts := make(map[identity.EntityType]int)
	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, err
		}
		counts[identity.EntityType(entityType)] = count
	}
	return counts, rows.Err()
}
