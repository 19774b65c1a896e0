// Package textutil provides text processing utilities for name comparison,
// similarity scoring, and blocking-key generation.
//
// The primary use cases are:
//   - Normalizing free-text names into a lowercase, diacritic-free comparison form
//   - Computing a normalized edit-distance similarity between two strings
//   - Deriving phonetic keys used to restrict candidate search
//
// Comparison names lowercase the input, strip combining marks, replace
// punctuation with spaces, and collapse whitespace. Similarity is symmetric,
// ranges over [0,1], and returns 1.0 only for strings that are equal after
// normalization.
package textutil
