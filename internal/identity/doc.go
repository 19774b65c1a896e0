// Package identity defines the domain model for cross-source identity
// resolution: canonical identities, source mappings, raw and normalized
// records, and the normalizer that prepares records for comparison.
//
// A canonical identity is the single deduplicated representation of a
// real-world entity (player, team, manager, referee). A source mapping links
// one external source's record identifier to a canonical identity with a
// confidence score. Records arrive as free text from ingestion collaborators
// and are normalized here before any matching runs.
//
// Treat this package as the single source of truth for identity semantics;
// when you add entity types or mapping statuses, update schema.sql in the
// store package and bump its schema version.
package identity
