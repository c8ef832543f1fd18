// Package tally is a small card game used to exercise the engine end to end.
//
// Players take turns drawing and playing cards to score points. Number cards
// score their value, hex cards hurt an opponent and open a response window in
// which the target may play a shield, and wild cards ask their player to pick
// a bonus. The first player to reach the target score wins.
package tally
