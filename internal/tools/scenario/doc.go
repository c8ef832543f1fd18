// Package scenario runs Lua scenario scripts against an in-process tally
// match.
//
// A script builds a Scenario with scenario.new and chains steps on it:
//
//	local s = scenario.new{players = {"p1", "p2"}, seed = 7}
//	s:command("DRAW_CARD", "p1"):expect_ok()
//	s:command("DRAW_CARD", "p2"):expect_error("TALLY_NOT_YOUR_TURN")
//	s:expect_core("round", 1)
//	return s
package scenario
