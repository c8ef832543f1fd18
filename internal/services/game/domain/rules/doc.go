// Package rules groups the game-agnostic primitives games compose their
// mechanics from: tags, modifiers, attributes, conditions, expressions,
// effects, abilities, targets, zones, dice, resources, mulligans, and grids.
//
// Every primitive is a pure function over plain values. Registries are built
// per game instance and are read-only once registration completes.
package rules
