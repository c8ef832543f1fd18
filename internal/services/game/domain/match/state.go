package match

import (
	"encoding/json"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
)

// SchemaVersion is stamped on every new EngineState.
const SchemaVersion = 1

// State is the full match state for a game whose own state is C.
type State[C any] struct {
	Sys  EngineState `json:"sys"`
	Core C           `json:"core"`
}

// EngineState holds every System sub-state.
type EngineState struct {
	SchemaVersion  int                 `json:"schemaVersion"`
	Undo           UndoState           `json:"undo"`
	EventStream    EventStreamState    `json:"eventStream"`
	ActionLog      ActionLogState      `json:"actionLog"`
	Log            LogState            `json:"log"`
	Tutorial       TutorialState       `json:"tutorial"`
	ResponseWindow ResponseWindowState `json:"responseWindow"`
	Rematch        RematchState        `json:"rematch"`
	Interaction    InteractionState    `json:"interaction"`
}

// UndoRequest is a pending multiplayer undo awaiting approval.
type UndoRequest struct {
	RequestedBy string `json:"requestedBy"`
	Timestamp   int64  `json:"timestamp"`
}

// UndoState is the snapshot stack. Snapshots are encoded match states, oldest
// first, never including the undo sub-state itself.
type UndoState struct {
	Snapshots      [][]byte     `json:"snapshots"`
	MaxSnapshots   int          `json:"maxSnapshots"`
	PendingRequest *UndoRequest `json:"pendingRequest"`
}

// StreamEntry is one event in the consumable event stream.
type StreamEntry struct {
	ID        int64       `json:"id"`
	Event     event.Event `json:"event"`
	Timestamp int64       `json:"timestamp"`
}

// EventStreamState is the bounded, id-stamped event stream.
type EventStreamState struct {
	Entries    []StreamEntry `json:"entries"`
	MaxEntries int           `json:"maxEntries"`
	NextID     int64         `json:"nextId"`
}

// ActionLogEntry is one player-facing action line.
type ActionLogEntry struct {
	ID          string       `json:"id"`
	CommandType command.Type `json:"commandType"`
	PlayerID    string       `json:"playerId"`
	Timestamp   int64        `json:"timestamp"`
	EventTypes  []event.Type `json:"eventTypes"`
	Text        string       `json:"text"`
}

// ActionLogState is the bounded action log.
type ActionLogState struct {
	Entries    []ActionLogEntry `json:"entries"`
	MaxEntries int              `json:"maxEntries"`
}

// LogEntryKind distinguishes command entries from event entries.
type LogEntryKind string

const (
	LogEntryCommand LogEntryKind = "command"
	LogEntryEvent   LogEntryKind = "event"
)

// LogEntry is one line of the full command and event log.
type LogEntry struct {
	Kind      LogEntryKind    `json:"kind"`
	Type      string          `json:"type"`
	PlayerID  string          `json:"playerId"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// LogState is the bounded command and event log.
type LogState struct {
	Entries    []LogEntry `json:"entries"`
	MaxEntries int        `json:"maxEntries"`
}

// RandomPolicyMode selects how a tutorial step scripts random draws.
type RandomPolicyMode string

const (
	RandomPolicyFixed    RandomPolicyMode = "fixed"
	RandomPolicySequence RandomPolicyMode = "sequence"
)

// RandomPolicy scripts the dice for a tutorial step.
type RandomPolicy struct {
	Mode   RandomPolicyMode `json:"mode" yaml:"mode"`
	Values []int            `json:"values" yaml:"values"`
}

// TutorialStep is one step of a tutorial manifest.
type TutorialStep struct {
	ID              string         `json:"id" yaml:"id"`
	Content         string         `json:"content" yaml:"content"`
	AllowedCommands []command.Type `json:"allowedCommands" yaml:"allowedCommands"`
	AdvanceOnEvents []event.Type   `json:"advanceOnEvents" yaml:"advanceOnEvents"`
	Random          *RandomPolicy  `json:"random" yaml:"random"`
}

// TutorialState tracks an active tutorial. RandomCursor counts scripted draws
// consumed on the current step.
type TutorialState struct {
	Active       bool           `json:"active"`
	ManifestID   string         `json:"manifestId"`
	StepIndex    int            `json:"stepIndex"`
	Steps        []TutorialStep `json:"steps"`
	RandomCursor int            `json:"randomCursor"`
}

// CurrentStep returns the active step, if any.
func (t TutorialState) CurrentStep() (TutorialStep, bool) {
	if !t.Active || t.StepIndex < 0 || t.StepIndex >= len(t.Steps) {
		return TutorialStep{}, false
	}
	return t.Steps[t.StepIndex], true
}

// ResponseWindow is an open window in which one player may respond.
type ResponseWindow struct {
	ID          string `json:"id"`
	ResponderID string `json:"responderId"`
	SourceID    string `json:"sourceId"`
	WindowType  string `json:"windowType"`
	OpenedAt    int64  `json:"openedAt"`
}

// ResponseWindowState holds the current response window.
type ResponseWindowState struct {
	Current *ResponseWindow `json:"current"`
}

// RematchState tracks end-of-match rematch votes.
type RematchState struct {
	Votes map[string]bool `json:"votes"`
	Ready bool            `json:"ready"`
}

// InteractionKindSimpleChoice is the built-in choice interaction.
const InteractionKindSimpleChoice = "simple-choice"

// Interaction is a pending player prompt. DataJSON carries kind-specific data.
type Interaction struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	PlayerID  string          `json:"playerId"`
	DataJSON  json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// InteractionState is the current interaction and its FIFO queue.
type InteractionState struct {
	Current *Interaction  `json:"current"`
	Queue   []Interaction `json:"queue"`
}
