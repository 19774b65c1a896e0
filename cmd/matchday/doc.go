// Command matchday is the CLI for the identity reconciliation store. It
// ingests batches of source records, reports coverage, walks the review
// queue, and deduplicates canonical identities.
package main
