// Package integrity links journaled commands into a signed hash chain.
//
// Each stored command carries the chain hash of its predecessor, so a
// reordered, dropped, or edited row breaks verification before replay.
package integrity
