// Package expression evaluates numeric expression trees over named variables.
package expression

import (
	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

// Type names a node kind.
type Type string

const (
	Literal     Type = "literal"
	Variable    Type = "var"
	Add         Type = "add"
	Sub         Type = "sub"
	Mul         Type = "mul"
	Div         Type = "div"
	Min         Type = "min"
	Max         Type = "max"
	Negate      Type = "negate"
	Conditional Type = "conditional"
)

// Node is one expression tree node.
type Node struct {
	Type  Type    `json:"type"`
	Value float64 `json:"value,omitempty"`
	Name  string  `json:"name,omitempty"`
	Left  *Node   `json:"left,omitempty"`
	Right *Node   `json:"right,omitempty"`
	// Operand is the negated node.
	Operand *Node `json:"operand,omitempty"`
	// Condition selects Then when it evaluates above zero.
	Condition *Node `json:"condition,omitempty"`
	Then      *Node `json:"then,omitempty"`
	Otherwise *Node `json:"otherwise,omitempty"`
}

// Context maps variable names to values.
type Context map[string]float64

// Evaluate computes node. Division by zero yields zero.
func Evaluate(node *Node, ctx Context) (float64, error) {
	if node == nil {
		return 0, apperrors.New(apperrors.CodeRuleInvalid, "expression node is missing")
	}
	switch node.Type {
	case Literal:
		return node.Value, nil
	case Variable:
		v, ok := ctx[node.Name]
		if !ok {
			return 0, apperrors.WithMetadata(apperrors.CodeRuleInvalid, "expression variable is undefined", map[string]string{"Name": node.Name})
		}
		return v, nil
	case Negate:
		v, err := Evaluate(node.Operand, ctx)
		return -v, err
	case Conditional:
		cond, err := Evaluate(node.Condition, ctx)
		if err != nil {
			return 0, err
		}
		if cond > 0 {
			return Evaluate(node.Then, ctx)
		}
		return Evaluate(node.Otherwise, ctx)
	case Add, Sub, Mul, Div, Min, Max:
		l, err := Evaluate(node.Left, ctx)
		if err != nil {
			return 0, err
		}
		r, err := Evaluate(node.Right, ctx)
		if err != nil {
			return 0, err
		}
		return binary(node.Type, l, r), nil
	default:
		return 0, apperrors.WithMetadata(apperrors.CodeRuleInvalid, "unknown expression type", map[string]string{"Type": string(node.Type)})
	}
}

func binary(t Type, l, r float64) float64 {
	switch t {
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	case Div:
		if r == 0 {
			return 0
		}
		return l / r
	case Min:
		return min(l, r)
	default:
		return max(l, r)
	}
}

// Lit builds a literal node.
func Lit(v float64) *Node { return &Node{Type: Literal, Value: v} }

// Ref builds a variable node.
func Ref(name string) *Node { return &Node{Type: Variable, Name: name} }

func Plus(l, r *Node) *Node    { return &Node{Type: Add, Left: l, Right: r} }
func Minus(l, r *Node) *Node   { return &Node{Type: Sub, Left: l, Right: r} }
func Times(l, r *Node) *Node   { return &Node{Type: Mul, Left: l, Right: r} }
func DivBy(l, r *Node) *Node   { return &Node{Type: Div, Left: l, Right: r} }
func Least(l, r *Node) *Node   { return &Node{Type: Min, Left: l, Right: r} }
func Largest(l, r *Node) *Node { return &Node{Type: Max, Left: l, Right: r} }
func Neg(n *Node) *Node        { return &Node{Type: Negate, Operand: n} }

// If builds a conditional node.
func If(cond, then, otherwise *Node) *Node {
	return &Node{Type: Conditional, Condition: cond, Then: then, Otherwise: otherwise}
}
