package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MergeIdentities merges the loser identity into the survivor: every mapping
// of the loser is repointed at the survivor, the survivor's null attributes
// are unioned from the loser (survivor wins conflicts), and a redirect row
// tombstones the loser so stale master ids keep resolving. The loser's row is
// retained; master ids are never reused or deleted.
func (s *Store) MergeIdentities(ctx context.Context, survivorID, loserID int64) error {
	if survivorID == loserID {
		return fmt.Errorf("cannot merge identity %d into itself", survivorID)
	}
	survivor, err := s.GetIdentity(ctx, survivorID)
	if err != nil {
		return err
	}
	if survivor == nil {
		return fmt.Errorf("%w: survivor %d", ErrUnknownIdentity, survivorID)
	}
	loser, err := s.GetIdentity(ctx, loserID)
	if err != nil {
		return err
	}
	if loser == nil {
		return fmt.Errorf("%w: loser %d", ErrUnknownIdentity, loserID)
	}
	if survivor.EntityType != loser.EntityType {
		return fmt.Errorf("cannot merge %s identity %d into %s identity %d",
			loser.EntityType, loserID, survivor.EntityType, survivorID)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// The uniqueness key excludes master_id, so repointing cannot collide.
		if _, err := tx.ExecContext(ctx,
			`UPDATE source_mappings SET master_id = ? WHERE master_id = ?`,
			survivorID, loserID); err != nil {
			return fmt.Errorf("repoint mappings: %w", err)
		}
		if err := backfillIdentityTx(ctx, tx, survivorID,
			loser.BirthDate, loser.Position, loser.Nationality); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identity_redirects (old_master_id, master_id, entity_type, redirected_at)
             VALUES (?, ?, ?, ?)`,
			loserID, survivorID, survivor.EntityType, timestamp(time.Now().UTC())); err != nil {
			return fmt.Errorf("record redirect: %w", err)
		}
		// Collapse any chain pointing at the loser so lookups stay O(1).
		if _, err := tx.ExecContext(ctx,
			`UPDATE identity_redirects SET master_id = ? WHERE master_id = ?`,
			survivorID, loserID); err != nil {
			return fmt.Errorf("collapse redirects: %w", err)
		}
		return nil
	})
}
