// Package condition evaluates declarative boolean condition trees.
package condition

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

// Type names a node kind.
type Type string

const (
	Always  Type = "always"
	Compare Type = "compare"
	And     Type = "and"
	Or      Type = "or"
	Not     Type = "not"
	Custom  Type = "custom"
)

// Op is a comparison operator.
type Op string

const (
	Eq  Op = "eq"
	Neq Op = "neq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
)

// Operand is a variable name or a numeric literal.
type Operand struct {
	Var string
	Num *float64
}

// Var references a context variable.
func Var(name string) Operand { return Operand{Var: name} }

// Num is a numeric literal.
func Num(v float64) Operand { return Operand{Num: &v} }

// MarshalJSON encodes the operand as a string or a number.
func (o Operand) MarshalJSON() ([]byte, error) {
	if o.Num != nil {
		return json.Marshal(*o.Num)
	}
	return json.Marshal(o.Var)
}

// UnmarshalJSON accepts a string or a number.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*o = Num(num)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("operand must be a string or number: %w", err)
	}
	*o = Var(name)
	return nil
}

// Node is one condition tree node.
type Node struct {
	Type       Type           `json:"type"`
	Op         Op             `json:"op,omitempty"`
	Left       Operand        `json:"left,omitempty"`
	Right      Operand        `json:"right,omitempty"`
	Conditions []Node         `json:"conditions,omitempty"`
	Condition  *Node          `json:"condition,omitempty"`
	Handler    string         `json:"handler,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

// Context maps variable names to values.
type Context map[string]any

// Handler evaluates a custom node.
type Handler func(params map[string]any, ctx Context) bool

// Registry holds a game's custom condition handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds or replaces a handler.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Evaluate evaluates node against ctx. A nil registry has no custom handlers.
func Evaluate(node Node, ctx Context, reg *Registry) (bool, error) {
	switch node.Type {
	case Always:
		return true, nil
	case Compare:
		return compare(node.Op, resolve(node.Left, ctx), resolve(node.Right, ctx)), nil
	case And:
		for _, c := range node.Conditions {
			ok, err := Evaluate(c, ctx, reg)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, c := range node.Conditions {
			ok, err := Evaluate(c, ctx, reg)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case Not:
		if node.Condition == nil {
			return false, apperrors.New(apperrors.CodeRuleInvalid, "not condition requires an operand")
		}
		ok, err := Evaluate(*node.Condition, ctx, reg)
		return !ok, err
	case Custom:
		var h Handler
		if reg != nil {
			h = reg.handlers[node.Handler]
		}
		if h == nil {
			return false, apperrors.WithMetadata(apperrors.CodeRuleInvalid, "condition handler is not registered", map[string]string{"Handler": node.Handler})
		}
		return h(node.Params, ctx), nil
	default:
		return false, apperrors.WithMetadata(apperrors.CodeRuleInvalid, "unknown condition type", map[string]string{"Type": string(node.Type)})
	}
}

func resolve(o Operand, ctx Context) any {
	if o.Num != nil {
		return *o.Num
	}
	return ctx[o.Var]
}

func compare(op Op, left, right any) bool {
	l, lok := number(left)
	r, rok := number(right)
	if !lok || !rok {
		switch op {
		case Eq:
			return reflect.DeepEqual(left, right)
		case Neq:
			return !reflect.DeepEqual(left, right)
		}
		return false
	}
	switch op {
	case Eq:
		return l == r
	case Neq:
		return l != r
	case Gt:
		return l > r
	case Gte:
		return l >= r
	case Lt:
		return l < r
	case Lte:
		return l <= r
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
