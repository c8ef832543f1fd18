package tally

import (
	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/event"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/systems/responsewindow"
)

// Namespace is the catalog namespace for tally messages.
const Namespace = "tally"

const (
	CommandDraw     command.Type = "DRAW_CARD"
	CommandPlay     command.Type = "PLAY_CARD"
	CommandRoll     command.Type = "ROLL_BONUS"
	CommandEndTurn  command.Type = "END_TURN"
	CommandMulligan command.Type = "MULLIGAN"
)

const (
	EventCardDrawn      event.Type = "CARD_DRAWN"
	EventCardPlayed     event.Type = "CARD_PLAYED"
	EventPointsChanged  event.Type = "POINTS_CHANGED"
	EventStatusGranted  event.Type = "STATUS_GRANTED"
	EventStatusRemoved  event.Type = "STATUS_REMOVED"
	EventStatusExpired  event.Type = "STATUS_EXPIRED"
	EventBonusRolled    event.Type = "BONUS_ROLLED"
	EventTurnEnded      event.Type = "TURN_ENDED"
	EventHandMulliganed event.Type = "HAND_MULLIGANED"
	EventWildPending    event.Type = "WILD_PENDING"
	EventGameOver       event.Type = "GAME_OVER"
)

const (
	CodeNotYourTurn     apperrors.Code = "TALLY_NOT_YOUR_TURN"
	CodeCardNotInHand   apperrors.Code = "TALLY_CARD_NOT_IN_HAND"
	CodeDeckEmpty       apperrors.Code = "TALLY_DECK_EMPTY"
	CodeGameOver        apperrors.Code = "TALLY_GAME_OVER"
	CodeNoRollsLeft     apperrors.Code = "TALLY_NO_ROLLS_LEFT"
	CodeCardBlocked     apperrors.Code = "TALLY_CARD_BLOCKED"
	CodeMulliganRefused apperrors.Code = "TALLY_MULLIGAN_REFUSED"
)

const emptySchema = `{"type":"object","additionalProperties":false}`

// PlayPayload is the PLAY_CARD payload.
type PlayPayload struct {
	CardID   string `json:"cardId"`
	TargetID string `json:"targetId,omitempty"`
}

// Definitions lists every command tally accepts, including the system-owned
// response pass.
func Definitions() []command.Definition {
	defs := []command.Definition{
		{Type: CommandDraw, Schema: emptySchema},
		{Type: CommandPlay, Schema: `{
			"type": "object",
			"required": ["cardId"],
			"properties": {
				"cardId": {"type": "string", "minLength": 1},
				"targetId": {"type": "string"}
			},
			"additionalProperties": false
		}`},
		{Type: CommandRoll, Schema: emptySchema},
		{Type: CommandEndTurn, Schema: emptySchema},
		{Type: CommandMulligan, Schema: emptySchema},
	}
	return append(defs, responsewindow.Definitions()...)
}

// Registry builds the tally command registry.
func Registry() *command.Registry {
	return command.NewRegistry().MustRegister(Definitions()...)
}

// UndoAllowlist lists the commands that push undo snapshots.
func UndoAllowlist() command.Allowlist {
	return command.NewAllowlist(CommandDraw, CommandPlay, CommandMulligan)
}

type cardDrawnPayload struct {
	PlayerID   string `json:"playerId"`
	CardID     string `json:"cardId"`
	Reshuffled bool   `json:"reshuffled,omitempty"`
}

type cardPlayedPayload struct {
	PlayerID string   `json:"playerId"`
	CardID   string   `json:"cardId"`
	Kind     CardKind `json:"kind"`
	TargetID string   `json:"targetId,omitempty"`
}

type pointsPayload struct {
	PlayerID string `json:"playerId"`
	Delta    int    `json:"delta"`
	Total    int    `json:"total"`
}

type statusPayload struct {
	PlayerID string `json:"playerId"`
	Status   string `json:"status"`
}

type bonusPayload struct {
	PlayerID string `json:"playerId"`
	Values   []int  `json:"values"`
	Points   int    `json:"points"`
}

type turnPayload struct {
	PlayerID string `json:"playerId"`
	NextID   string `json:"nextPlayerId"`
	Round    int    `json:"round"`
}

type mulliganPayload struct {
	PlayerID string `json:"playerId"`
	HandSize int    `json:"handSize"`
}

type wildPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

type gameOverPayload struct {
	WinnerID string `json:"winnerId"`
	Points   int    `json:"points"`
}
