package scenario

import (
	"fmt"
	"log"
)

// AssertionMode selects how failed expectations are reported.
type AssertionMode int

const (
	// AssertionStrict fails the scenario on the first failed expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and keeps running.
	AssertionLogOnly
)

// Assertions reports expectation failures according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
	failed int
}

// Failf reports a failed expectation. It returns an error only in strict mode.
func (a *Assertions) Failf(format string, args ...any) error {
	a.failed++
	msg := fmt.Sprintf(format, args...)
	if a.Mode == AssertionStrict {
		return fmt.Errorf("expectation failed: %s", msg)
	}
	if a.Logger != nil {
		a.Logger.Printf("expectation failed: %s", msg)
	}
	return nil
}

// Failed returns how many expectations failed so far.
func (a *Assertions) Failed() int {
	return a.failed
}
