// Package match defines the state threaded through the command pipeline.
//
// A match state has two halves: Core, owned by the game, and Sys, owned by the
// engine with one sub-state per System. Systems only ever write their own
// sub-state; the undo system restores all of them at once.
package match
