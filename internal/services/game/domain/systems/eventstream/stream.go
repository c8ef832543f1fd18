package eventstream

import (
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/core/filter"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
)

// Append stamps events with consecutive ids and drops the oldest entries
// beyond the bound. The input state is not modified.
func Append(stream match.EventStreamState, fallbackMax int, events ...event.Event) match.EventStreamState {
	limit := stream.MaxEntries
	if limit <= 0 {
		limit = fallbackMax
	}
	nextID := stream.NextID
	if nextID < 1 {
		nextID = 1
	}
	entries := make([]match.StreamEntry, 0, len(stream.Entries)+len(events))
	entries = append(entries, stream.Entries...)
	for _, evt := range events {
		evt = evt.Normalize()
		entries = append(entries, match.StreamEntry{ID: nextID, Event: evt, Timestamp: evt.Timestamp})
		nextID++
	}
	if over := len(entries) - limit; limit > 0 && over > 0 {
		entries = append([]match.StreamEntry(nil), entries[over:]...)
	}
	return match.EventStreamState{Entries: entries, MaxEntries: limit, NextID: nextID}
}

// Since returns the entries with an id above afterID.
func Since(stream match.EventStreamState, afterID int64) []match.StreamEntry {
	return entriesAfter(stream.Entries, afterID)
}

// Latest returns the id of the newest entry, or 0 when the stream is empty.
func Latest(stream match.EventStreamState) int64 {
	if len(stream.Entries) == 0 {
		return 0
	}
	return stream.Entries[len(stream.Entries)-1].ID
}

// FilterFields are the fields a stream filter can reference.
var FilterFields = filter.Fields{
	"id":        filter.FieldInt,
	"type":      filter.FieldString,
	"timestamp": filter.FieldInt,
}

// Record exposes an entry to filter matching.
func Record(entry match.StreamEntry) filter.Record {
	return filter.Record{
		"id":        entry.ID,
		"type":      string(entry.Event.Type),
		"timestamp": entry.Timestamp,
	}
}

// Filter selects stream entries matching an AIP-160 expression such as
// `type = "CARD_PLAYED" AND id > 10`.
func Filter(stream match.EventStreamState, expression string) ([]match.StreamEntry, error) {
	f, err := filter.Parse(expression, FilterFields)
	if err != nil {
		return nil, err
	}
	var out []match.StreamEntry
	for _, entry := range stream.Entries {
		ok, err := f.Match(Record(entry))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func entriesAfter(entries []match.StreamEntry, afterID int64) []match.StreamEntry {
	var out []match.StreamEntry
	for _, entry := range entries {
		if entry.ID > afterID {
			out = append(out, entry)
		}
	}
	return out
}
