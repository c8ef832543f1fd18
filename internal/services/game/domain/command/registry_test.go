package command

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

const playCardSchema = `{
	"type": "object",
	"required": ["cardId"],
	"properties": {"cardId": {"type": "string", "minLength": 1}}
}`

func TestRegisterRejectsBadDefinitions(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("blank type err = %v", err)
	}
	if err := r.Register(Definition{Type: "SYS_X", Owner: OwnerCore}); err == nil {
		t.Fatal("expected error for core-owned SYS_ type")
	}
	if err := r.Register(Definition{Type: "X", Owner: "other"}); err == nil {
		t.Fatal("expected error for unknown owner")
	}
	if err := r.Register(Definition{Type: "X", Schema: "{"}); err == nil {
		t.Fatal("expected schema compile error")
	}
	if err := r.Register(Definition{Type: "X"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(Definition{Type: "X"}); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestRegisterInfersOwner(t *testing.T) {
	r := NewRegistry().MustRegister(
		Definition{Type: "PLAY_CARD"},
		Definition{Type: "SYS_PING"},
		Definition{Type: "PASS", Owner: OwnerSystem},
	)
	if def, _ := r.Definition("PLAY_CARD"); def.Owner != OwnerCore {
		t.Fatalf("PLAY_CARD owner = %s", def.Owner)
	}
	if !r.IsSystemOwned("SYS_PING") || !r.IsSystemOwned("PASS") {
		t.Fatal("expected system ownership")
	}
	if r.IsSystemOwned("PLAY_CARD") {
		t.Fatal("PLAY_CARD should be core-owned")
	}
	if !r.IsSystemOwned("SYS_UNREGISTERED") {
		t.Fatal("SYS_ prefix should be system-owned without registration")
	}
}

func TestValidateUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Validate(Command{Type: "NOPE"})
	if got := apperrors.GetCode(err); got != apperrors.CodeCommandTypeUnknown {
		t.Fatalf("code = %s", got)
	}
	if meta := apperrors.GetMetadata(err); meta["Type"] != "NOPE" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestValidateSchema(t *testing.T) {
	r := NewRegistry().MustRegister(Definition{Type: "PLAY_CARD", Schema: playCardSchema})

	cases := []struct {
		name    string
		payload string
		code    apperrors.Code
	}{
		{name: "valid", payload: `{"cardId":"c1"}`},
		{name: "missing field", payload: `{}`, code: apperrors.CodeCommandPayloadInvalid},
		{name: "wrong type", payload: `{"cardId":3}`, code: apperrors.CodeCommandPayloadInvalid},
		{name: "malformed", payload: `{"cardId":`, code: apperrors.CodeCommandPayloadInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Validate(Command{Type: "PLAY_CARD", PayloadJSON: json.RawMessage(tc.payload)})
			if got := apperrors.GetCode(err); got != tc.code {
				t.Fatalf("code = %q, want %q (err %v)", got, tc.code, err)
			}
		})
	}
}

func TestValidateCanonicalizesPayload(t *testing.T) {
	r := NewRegistry().MustRegister(Definition{Type: "MOVE"})
	cmd, err := r.Validate(Command{Type: "MOVE", PayloadJSON: json.RawMessage(`{ "y": 2, "x": 1 }`)})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(cmd.PayloadJSON) != `{"x":1,"y":2}` {
		t.Fatalf("payload = %s", cmd.PayloadJSON)
	}
}

func TestValidateCustomValidator(t *testing.T) {
	r := NewRegistry().MustRegister(Definition{
		Type: "MOVE",
		ValidatePayload: func(raw json.RawMessage) error {
			return errors.New("never")
		},
	})
	_, err := r.Validate(Command{Type: "MOVE"})
	if got := apperrors.GetCode(err); got != apperrors.CodeCommandPayloadInvalid {
		t.Fatalf("code = %s", got)
	}
}

func TestListDefinitionsSorted(t *testing.T) {
	r := NewRegistry().MustRegister(Definition{Type: "B"}, Definition{Type: "A"})
	defs := r.ListDefinitions()
	if len(defs) != 2 || defs[0].Type != "A" || defs[1].Type != "B" {
		t.Fatalf("definitions = %+v", defs)
	}
	var nilRegistry *Registry
	if nilRegistry.ListDefinitions() != nil {
		t.Fatal("nil registry should list nothing")
	}
}
