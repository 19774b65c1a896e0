// Package store persists canonical identities, source mappings, and merge
// redirects in SQLite.
//
// The Store manages database connections, schema initialization, the
// uniqueness guarantee on (entity_type, source_name, source_id), and the
// transactional write paths the merge resolver depends on: creating an
// identity together with its self-mapping, attaching a mapping with attribute
// backfill, flagging a mapping for review, resolving reviews, and merging two
// identities with a redirect row.
//
// Identities are never deleted. The loser of an identity merge keeps its row
// and gains an entry in identity_redirects; lookups by a stale master_id
// resolve through that table. Schema changes bump schemaVersion in schema.go;
// users recreate the database to adopt the new schema.
package store
