// Package event defines the game event envelope.
//
// Events are immutable facts emitted by a game's domain reducer or by engine
// Systems while processing one command. Within a batch, slice order is causal
// order; across batches the event stream assigns ids.
package event
