// Package sqlite stores matches and their command journals in SQLite.
//
// Every appended command is chained to its predecessor by hash and, when a
// keyring is configured, signed, so VerifyChain can detect edited or missing
// rows before a replay trusts them.
package sqlite
