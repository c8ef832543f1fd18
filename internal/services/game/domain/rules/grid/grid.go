// Package grid provides helpers for rectangular boards.
package grid

// Position is a row and column on a grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Match is a cell found on a grid.
type Match[T any] struct {
	Cell     T
	Position Position
}

var directions = []Position{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// InBounds reports whether p lies on a rows by cols grid.
func InBounds(p Position, rows, cols int) bool {
	return p.Row >= 0 && p.Row < rows && p.Col >= 0 && p.Col < cols
}

// Manhattan returns the taxicab distance between a and b.
func Manhattan(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Position) bool {
	return Manhattan(a, b) == 1
}

// AdjacentPositions returns the in-bounds orthogonal neighbours of p.
func AdjacentPositions(p Position, rows, cols int) []Position {
	var out []Position
	for _, d := range directions {
		n := Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
		if InBounds(n, rows, cols) {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the first occupied cell, in row-major order, matching pred.
func Find[T any](g [][]*T, pred func(cell *T, p Position) bool) (Match[*T], bool) {
	for r, row := range g {
		for c, cell := range row {
			p := Position{Row: r, Col: c}
			if cell != nil && pred(cell, p) {
				return Match[*T]{Cell: cell, Position: p}, true
			}
		}
	}
	return Match[*T]{}, false
}

// Collect returns every occupied cell matching pred in row-major order.
func Collect[T any](g [][]*T, pred func(cell *T, p Position) bool) []Match[*T] {
	var out []Match[*T]
	for r, row := range g {
		for c, cell := range row {
			p := Position{Row: r, Col: c}
			if cell != nil && pred(cell, p) {
				out = append(out, Match[*T]{Cell: cell, Position: p})
			}
		}
	}
	return out
}

// ForEachAdjacent calls fn for each occupied neighbour of p.
func ForEachAdjacent[T any](g [][]*T, p Position, fn func(cell *T, p Position)) {
	cols := 0
	if len(g) > 0 {
		cols = len(g[0])
	}
	for _, n := range AdjacentPositions(p, len(g), cols) {
		if n.Col >= len(g[n.Row]) {
			continue
		}
		if cell := g[n.Row][n.Col]; cell != nil {
			fn(cell, n)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
