package command

import (
	"testing"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

func TestNewNormalizesPayload(t *testing.T) {
	cmd, err := New(" PLAY_CARD ", " p1 ", nil, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cmd.Type != "PLAY_CARD" || cmd.PlayerID != "p1" {
		t.Fatalf("command = %+v", cmd)
	}
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("payload = %s, want {}", cmd.PayloadJSON)
	}
}

func TestNormalizeNullPayload(t *testing.T) {
	cmd := Command{Type: "X", PayloadJSON: []byte(" null ")}.Normalize()
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("payload = %s, want {}", cmd.PayloadJSON)
	}
}

func TestDecodePayload(t *testing.T) {
	cmd, err := New("PLAY_CARD", "p1", map[string]any{"cardId": "c1"}, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var payload struct {
		CardID string `json:"cardId"`
	}
	if err := cmd.Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.CardID != "c1" {
		t.Fatalf("card id = %q", payload.CardID)
	}
}

func TestTypeIsSystem(t *testing.T) {
	if !Type("SYS_UNDO_REQUEST").IsSystem() {
		t.Fatal("expected SYS_ prefix to be system")
	}
	if Type("PLAY_CARD").IsSystem() {
		t.Fatal("expected PLAY_CARD to be non-system")
	}
}

func TestAllowlistExcludesReservedPrefixes(t *testing.T) {
	list := NewAllowlist("PLAY_CARD", " PLAY_CARD ", "SYS_UNDO_REQUEST", "CHEAT_SET", "UI_HOVER", "DEV_DUMP", "")
	if list.Len() != 1 {
		t.Fatalf("len = %d, want 1 (%v)", list.Len(), list.Types())
	}
	cases := []struct {
		cmdType Type
		want    bool
	}{
		{"PLAY_CARD", true},
		{"DRAW_CARD", false},
		{"SYS_UNDO_REQUEST", false},
		{"CHEAT_SET", false},
		{"UI_HOVER", false},
		{"DEV_DUMP", false},
	}
	for _, tc := range cases {
		if got := list.Allows(tc.cmdType); got != tc.want {
			t.Fatalf("Allows(%s) = %v, want %v", tc.cmdType, got, tc.want)
		}
	}
}

func TestRejectDefaultsCode(t *testing.T) {
	err := Reject("", "nope")
	if got := apperrors.GetCode(err); got != apperrors.CodeCommandRejected {
		t.Fatalf("code = %s", got)
	}
	err = Reject("TALLY_NOT_YOUR_TURN", "wait")
	if got := apperrors.GetCode(err); got != "TALLY_NOT_YOUR_TURN" {
		t.Fatalf("code = %s", got)
	}
}

func TestNewEventUsesCommandTimestamp(t *testing.T) {
	cmd := Command{Type: "PLAY_CARD", PlayerID: "p1", Timestamp: 77}
	evt, err := NewEvent(cmd, "CARD_PLAYED", map[string]string{"cardId": "c1"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if evt.Timestamp != 77 {
		t.Fatalf("timestamp = %d, want 77", evt.Timestamp)
	}
}
