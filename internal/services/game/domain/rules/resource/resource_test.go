package resource

import (
	"reflect"
	"testing"
)

func TestSetClamps(t *testing.T) {
	p := Pool{"mana": 3}
	b := Bounds{Min: Int(0), Max: Int(10)}

	ch := p.Modify("mana", 20, b)
	if ch.Value != 10 || !ch.Capped || ch.Floored || ch.Delta != 7 {
		t.Fatalf("change = %+v", ch)
	}
	ch = p.Modify("mana", -5, b)
	if ch.Value != 0 || !ch.Floored || ch.Delta != -3 {
		t.Fatalf("change = %+v", ch)
	}
	if p["mana"] != 3 {
		t.Fatal("input mutated")
	}
	if got := p.Set("gold", -2, Bounds{}).Value; got != -2 {
		t.Fatalf("unbounded set = %d", got)
	}
}

func TestCanAffordAndPay(t *testing.T) {
	p := Pool{"mana": 2, "gold": 5}
	res := p.CanAfford(map[string]int{"mana": 3, "gold": 1, "wood": 1})
	want := []Shortage{
		{ResourceID: "mana", Required: 3, Available: 2},
		{ResourceID: "wood", Required: 1, Available: 0},
	}
	if res.OK || !reflect.DeepEqual(res.Shortages, want) {
		t.Fatalf("afford = %+v", res)
	}
	if !p.CanAfford(map[string]int{"gold": 5}).OK {
		t.Fatal("expected affordable")
	}

	paid := p.Pay(map[string]int{"mana": 3, "gold": 1}, nil)
	if paid["mana"] != 0 || paid["gold"] != 4 {
		t.Fatalf("paid = %v", paid)
	}
	debt := p.Pay(map[string]int{"mana": 3}, map[string]Bounds{"mana": {}})
	if debt["mana"] != -1 {
		t.Fatalf("unbounded pay = %v", debt)
	}
	if got := p.ModifyAll(map[string]int{"mana": 1, "gold": -1}, nil); !reflect.DeepEqual(got, Pool{"mana": 3, "gold": 4}) {
		t.Fatalf("modify all = %v", got)
	}
}
