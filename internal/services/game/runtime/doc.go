// Package runtime hosts live matches.
//
// A Session owns one match lineage: it derives each command's random source
// from the match seed, runs the pipeline, journals accepted commands with the
// resulting state hash, and commits the new state. Submit is serialized, so a
// session may be shared by the goroutines serving its players.
package runtime
