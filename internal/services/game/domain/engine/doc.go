// Package engine runs commands through the System hooks and the game domain.
//
// The pipeline is the seam between game rules and engine concerns: Systems see
// every command before the domain and every event batch after it, and may
// halt, rewrite state, or append events. ProcessCommand is total: rejections
// come back as error codes in the Result, never as Go errors or panics.
package engine
