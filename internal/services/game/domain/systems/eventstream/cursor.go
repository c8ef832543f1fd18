package eventstream

import "github.com/louisbranch/tabletop.run/internal/services/game/domain/match"

// View is what a consumer observes at one point in time: the stream entries
// plus the transport signals that can move the cursor.
type View struct {
	Entries []match.StreamEntry
	// ReconnectToken changes whenever the consumer reconnects.
	ReconnectToken int64
	// RollbackSeq changes whenever an optimistic prediction is rolled back;
	// Watermark is the last confirmed id at that point.
	RollbackSeq int64
	Watermark   *int64
}

// ConsumeResult carries the new entries and whether the consumer must drop
// state derived from entries that no longer exist.
type ConsumeResult struct {
	Entries  []match.StreamEntry
	DidReset bool
}

// Cursor tracks what one consumer has already seen. It is not safe for
// concurrent use.
type Cursor struct {
	lastSeen       int64
	firstCall      bool
	reconnectToken int64
	rollbackSeq    int64
}

// NewCursor builds a cursor that treats whatever view shows on the first
// Consume as history.
func NewCursor(view View) *Cursor {
	return &Cursor{
		lastSeen:       -1,
		firstCall:      true,
		reconnectToken: view.ReconnectToken,
		rollbackSeq:    view.RollbackSeq,
	}
}

// Position returns the id of the last consumed entry, -1 before any.
func (c *Cursor) Position() int64 {
	return c.lastSeen
}

// ResetToLatest skips every entry currently visible.
func (c *Cursor) ResetToLatest(entries []match.StreamEntry) {
	if len(entries) > 0 {
		c.lastSeen = entries[len(entries)-1].ID
	}
}

// Consume returns the entries added since the previous call.
func (c *Cursor) Consume(view View) ConsumeResult {
	entries := view.Entries

	if view.ReconnectToken != c.reconnectToken {
		c.reconnectToken = view.ReconnectToken
		c.ResetToLatest(entries)
		return ConsumeResult{}
	}

	if view.RollbackSeq != c.rollbackSeq {
		c.rollbackSeq = view.RollbackSeq
		if view.Watermark != nil {
			c.lastSeen = *view.Watermark
			fresh := entriesAfter(entries, c.lastSeen)
			c.ResetToLatest(fresh)
			return ConsumeResult{Entries: fresh}
		}
	}

	if c.firstCall {
		c.firstCall = false
		c.ResetToLatest(entries)
		return ConsumeResult{}
	}

	// An empty view is transient (for example a stripped optimistic state),
	// not a rollback.
	if len(entries) == 0 {
		return ConsumeResult{}
	}

	maxID := entries[len(entries)-1].ID
	if maxID < c.lastSeen {
		c.lastSeen = maxID
		return ConsumeResult{DidReset: true}
	}

	fresh := entriesAfter(entries, c.lastSeen)
	c.ResetToLatest(fresh)
	return ConsumeResult{Entries: fresh}
}
