// Package command defines the command envelope, the command-type registry, and
// the allowlist used by Systems that opt in per command type.
//
// Commands express a player's intent. They are normalized before any System
// or domain logic sees them, so replaying a journal always feeds the pipeline
// byte-identical inputs.
package command
