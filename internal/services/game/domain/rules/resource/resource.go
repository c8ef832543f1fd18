// Package resource manages bounded resource pools such as mana or gold.
package resource

import "sort"

// Pool maps resource ids to amounts. Missing ids read as zero.
type Pool map[string]int

// Bounds limits a resource. Nil bounds are open.
type Bounds struct {
	Min *int
	Max *int
}

// Change is the outcome of Set or Modify.
type Change struct {
	Pool    Pool
	Delta   int
	Value   int
	Capped  bool
	Floored bool
}

// Shortage is one unmet cost.
type Shortage struct {
	ResourceID string
	Required   int
	Available  int
}

// Affordability is the outcome of CanAfford.
type Affordability struct {
	OK        bool
	Shortages []Shortage
}

func (p Pool) clone() Pool {
	out := make(Pool, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns the amount of id.
func (p Pool) Get(id string) int { return p[id] }

// Set stores value clamped to bounds.
func (p Pool) Set(id string, value int, b Bounds) Change {
	current := p[id]
	next := value
	ch := Change{}
	if b.Min != nil && next < *b.Min {
		next = *b.Min
		ch.Floored = true
	}
	if b.Max != nil && next > *b.Max {
		next = *b.Max
		ch.Capped = true
	}
	ch.Pool = p.clone()
	ch.Pool[id] = next
	ch.Value = next
	ch.Delta = next - current
	return ch
}

// Modify adds delta to id within bounds.
func (p Pool) Modify(id string, delta int, b Bounds) Change {
	return p.Set(id, p[id]+delta, b)
}

// ModifyAll applies every change in id order.
func (p Pool) ModifyAll(changes map[string]int, bounds map[string]Bounds) Pool {
	out := p
	for _, id := range sortedKeys(changes) {
		out = out.Modify(id, changes[id], bounds[id]).Pool
	}
	return out
}

// CanAfford reports whether p covers costs, listing shortages by id.
func (p Pool) CanAfford(costs map[string]int) Affordability {
	res := Affordability{OK: true}
	for _, id := range sortedKeys(costs) {
		if have := p[id]; have < costs[id] {
			res.OK = false
			res.Shortages = append(res.Shortages, Shortage{ResourceID: id, Required: costs[id], Available: have})
		}
	}
	return res
}

// Pay subtracts costs. Resources without bounds floor at zero.
func (p Pool) Pay(costs map[string]int, bounds map[string]Bounds) Pool {
	out := p
	zero := 0
	for _, id := range sortedKeys(costs) {
		b, ok := bounds[id]
		if !ok {
			b = Bounds{Min: &zero}
		}
		out = out.Modify(id, -costs[id], b).Pool
	}
	return out
}

// Int returns a pointer to v, for bounds.
func Int(v int) *int { return &v }

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
