// Package storage defines persistence records and interfaces for matches and
// their command journals. Implementations (e.g., SQLite) live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrMatchExists: a match id was created twice
//   - ErrSequenceConflict: an append raced another writer for the same seq
package storage
