package ability

import (
	"bytes"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/rules/condition"
)

func phaseIs(phase string) *condition.Node {
	return &condition.Node{Type: condition.Compare, Op: condition.Eq, Left: condition.Var("phase"), Right: condition.Var("want_" + phase)}
}

func newRegistry() *Registry {
	reg := NewRegistry("test", nil)
	reg.RegisterAll(
		Def{ID: "strike", Tags: []string{"attack"}, Trigger: phaseIs("main")},
		Def{ID: "parry", Tags: []string{"response"}},
		Def{
			ID:      "surge",
			Trigger: phaseIs("main"),
			Variants: []Variant{
				{ID: "surge-low", Trigger: &condition.Node{Type: condition.Compare, Op: condition.Lt, Left: condition.Var("hp"), Right: condition.Num(5)}},
				{ID: "surge-high", Priority: 1, Trigger: &condition.Node{Type: condition.Compare, Op: condition.Lt, Left: condition.Var("hp"), Right: condition.Num(3)}},
			},
		},
	)
	return reg
}

func TestAvailable(t *testing.T) {
	reg := newRegistry()
	ids := []string{"strike", "parry", "surge", "missing"}
	vars := condition.Context{"want_main": "main", "hp": 10}

	got, err := reg.Available(ids, Context{Phase: "main", Vars: vars})
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if want := []string{"strike", "parry", "surge"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	vars["hp"] = 2
	got, _ = reg.Available(ids, Context{Phase: "main", Vars: vars, BlockedTags: []string{"response"}})
	if want := []string{"strike", "surge-high", "surge-low"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	vars["hp"] = 10
	got, _ = reg.Available(ids, Context{Phase: "end", Vars: vars})
	if want := []string{"parry"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRegistryQueries(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry("cards", log.New(&buf, "", 0))
	reg.Register(Def{ID: "a", Tags: []string{"x"}})
	reg.Register(Def{ID: "a", Tags: []string{"y"}})
	if !strings.Contains(buf.String(), `ability "a" already registered`) {
		t.Fatalf("log = %q", buf.String())
	}
	if len(reg.ByTag("x")) != 0 || len(reg.ByTag("y")) != 1 {
		t.Fatal("overwrite did not replace tags")
	}
	byTrigger, err := newRegistry().ByTrigger(Context{Phase: "main", Vars: condition.Context{"want_main": "main"}})
	if err != nil || len(byTrigger) != 3 {
		t.Fatalf("by trigger = %v, %v", byTrigger, err)
	}
}

func TestCostsAndFilters(t *testing.T) {
	cost := map[string]float64{"mana": 2, "gold": 1}
	if !CanAfford(cost, map[string]float64{"mana": 2, "gold": 3}) {
		t.Fatal("expected affordable")
	}
	if CanAfford(cost, map[string]float64{"mana": 2}) {
		t.Fatal("missing resource is zero")
	}
	defs := newRegistry().All()
	if got := FilterByTags(defs, []string{"attack"}); len(got) != 2 {
		t.Fatalf("filtered = %d", len(got))
	}
}
