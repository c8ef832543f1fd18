package action

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestRegisterOverwriteWarns(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry[int, int]("cards", log.New(&buf, "", 0))
	reg.Register("double", func(n int) int { return n * 2 }, Meta{})
	reg.Register("double", func(n int) int { return n * 3 }, Meta{})

	h, ok := reg.Get("double")
	if !ok || h(2) != 6 {
		t.Fatal("expected second handler to win")
	}
	if !strings.Contains(buf.String(), `cards: action "double" already registered`) {
		t.Fatalf("log = %q", buf.String())
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d", reg.Len())
	}
}

func TestByCategory(t *testing.T) {
	reg := NewRegistry[int, int]("cards", nil)
	reg.Register("b", func(n int) int { return n }, Meta{Categories: []string{"attack"}})
	reg.Register("a", func(n int) int { return n }, Meta{Categories: []string{"attack", "fast"}, RequiresInteraction: true})
	reg.Register("c", func(n int) int { return n }, Meta{Categories: []string{"defense"}})

	got := reg.ByCategory("attack")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("by category = %+v", got)
	}
	if meta, _ := reg.Meta("a"); !meta.RequiresInteraction {
		t.Fatal("meta lost")
	}
	if reg.Has("z") {
		t.Fatal("unexpected id")
	}
	if ids := reg.IDs(); strings.Join(ids, ",") != "a,b,c" {
		t.Fatalf("ids = %v", ids)
	}
}
