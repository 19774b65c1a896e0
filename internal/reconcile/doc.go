// Package reconcile implements the identity resolution pipeline: normalized
// source records are blocked against the live canonical identities of their
// entity type, scored for similarity, and resolved into an auto-merge, a
// review flag, or a fresh identity. Entity types reconcile independently and
// concurrently; within a type records are processed in input order so earlier
// batch records can seed matches for later ones.
package reconcile
