package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"matchday/internal/identity"
)

const identityColumns = "master_id, entity_type, full_name, birth_date, position, nationality, created_at"

// InsertIdentity persists a new canonical identity and assigns its master id.
func (s *Store) InsertIdentity(ctx context.Context, ident *identity.CanonicalIdentity) error {
	if ident == nil {
		return errors.New("identity is nil")
	}
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
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
	return nil
}

// GetIdentity fetches a canonical identity by its master id without following
// redirects. Returns nil when the id does not exist.
func (s *Store) GetIdentity(ctx context.Context, masterID int64) (*identity.CanonicalIdentity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM canonical_identities WHERE master_id = ?`, masterID)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return ident, nil
}

// ResolveIdentity fetches a canonical identity, following merge redirects so
// stale master ids still resolve to the surviving record.
func (s *Store) ResolveIdentity(ctx context.Context, masterID int64) (*identity.CanonicalIdentity, error) {
	resolved, err := s.ResolveMasterID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	ident, err := s.GetIdentity(ctx, resolved)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIdentity, masterID)
	}
	return ident, nil
}

// ResolveMasterID follows the redirect chain for a master id. Ids without a
// redirect row resolve to themselves when the identity exists.
func (s *Store) ResolveMasterID(ctx context.Context, masterID int64) (int64, error) {
	current := masterID
	// Redirect chains stay short (each merge points at a live survivor), but
	// guard against a corrupt cycle anyway.
	for hop := 0; hop < 16; hop++ {
		var next int64
		err := s.db.QueryRowContext(ctx,
			`SELECT master_id FROM identity_redirects WHERE old_master_id = ?`, current).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			var exists int
			if err := s.db.QueryRowContext(ctx,
				`SELECT COUNT(1) FROM canonical_identities WHERE master_id = ?`, current).Scan(&exists); err != nil {
				return 0, fmt.Errorf("check identity: %w", err)
			}
			if exists == 0 {
				return 0, fmt.Errorf("%w: %d", ErrUnknownIdentity, masterID)
			}
			return current, nil
		}
		if err != nil {
			return 0, fmt.Errorf("resolve redirect: %w", err)
		}
		current = next
	}
	return 0, fmt.Errorf("redirect chain too long for master id %d", masterID)
}

// LiveIdentitiesByType returns identities of one type that have not been
// merged away, ordered by master id for deterministic candidate generation.
func (s *Store) LiveIdentitiesByType(ctx context.Context, entityType identity.EntityType) ([]*identity.CanonicalIdentity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM canonical_identities ci
         WHERE ci.entity_type = ?
           AND NOT EXISTS (SELECT 1 FROM identity_redirects r WHERE r.old_master_id = ci.master_id)
         ORDER BY ci.master_id`,
		entityType)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []*identity.CanonicalIdentity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, ident)
	}
	return identities, rows.Err()
}

func scanIdentity(scanner interface{ Scan(dest ...any) error }) (*identity.CanonicalIdentity, error) {
	var (
		masterID    int64
		entityType  string
		fullName    string
		birthDate   sql.NullString
		position    sql.NullString
		nationality sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(&masterID, &entityType, &fullName, &birthDate, &position, &nationality, &createdRaw); err != nil {
		return nil, err
	}

	ident := &identity.CanonicalIdentity{
		MasterID:    masterID,
		EntityType:  identity.EntityType(entityType),
		FullName:    fullName,
		BirthDate:   parseDate(birthDate),
		Position:    position.String,
		Nationality: nationality.String,
	}
	if created, err := parseTimestamp(createdRaw); err == nil {
		ident.CreatedAt = created
	}
	return ident, nil
}

// backfillIdentityTx fills null attributes of an identity from the provided
// values inside an existing transaction. Non-null attributes are never
// overwritten.
func backfillIdentityTx(ctx context.Context, tx *sql.Tx, masterID int64, birthDate *time.Time, position, nationality string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE canonical_identities
         SET birth_date = COALESCE(birth_date, ?),
             position = COALESCE(position, ?),
             nationality = COALESCE(nationality, ?)
         WHERE master_id = ?`,
		nullableDate(birthDate),
		nullableString(position),
		nullableString(nationality),
		masterID,
	)
	if err != nil {
		return fmt.Errorf("backfill identity %d: %w", masterID, err)
	}
	return nil
}
