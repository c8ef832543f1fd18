package command

import "github.com/louisbranch/tabletop.run/internal/services/game/domain/event"

// NewEvent builds an event stamped with the command's timestamp, so a reducer
// never needs to read a clock.
func NewEvent(cmd Command, eventType event.Type, payload any) (event.Event, error) {
	return event.New(eventType, payload, cmd.Timestamp)
}

// MustEvent is NewEvent for payloads that always encode.
func MustEvent(cmd Command, eventType event.Type, payload any) event.Event {
	return event.Must(eventType, payload, cmd.Timestamp)
}
