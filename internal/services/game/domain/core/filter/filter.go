// Package filter parses AIP-160 filter expressions and evaluates them against
// in-memory records or translates them into SQL conditions.
package filter

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// FieldType describes a supported filter field type.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
)

// Fields defines filterable fields and their types.
type Fields map[string]FieldType

// Record holds field values for in-memory matching. String fields hold
// strings and int fields hold int64.
type Record map[string]any

// Filter is a parsed, type-checked expression. The zero value matches
// everything.
type Filter struct {
	expr   *expr.Expr
	fields Fields
}

// Parse parses an AIP-160 filter expression for the provided fields.
func Parse(filterStr string, fields Fields) (Filter, error) {
	if strings.TrimSpace(filterStr) == "" {
		return Filter{fields: fields}, nil
	}

	decls, err := declarations(fields)
	if err != nil {
		return Filter{}, err
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Filter{}, fmt.Errorf("parse filter: %w", err)
	}
	return Filter{expr: parsed.CheckedExpr.Expr, fields: fields}, nil
}

func declarations(fields Fields) (*filtering.Declarations, error) {
	decls := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, kind := range fields {
		switch kind {
		case FieldString:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeString))
		case FieldInt:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeInt))
		default:
			return nil, fmt.Errorf("unsupported field type for %s", name)
		}
	}

	return filtering.NewDeclarations(decls...)
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.expr == nil
}

// Match evaluates the filter against record.
func (f Filter) Match(record Record) (bool, error) {
	if f.expr == nil {
		return true, nil
	}
	return f.eval(f.expr, record)
}

func (f Filter) eval(e *expr.Expr, record Record) (bool, error) {
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return false, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.GetArgs()
	switch call.CallExpr.GetFunction() {
	case "_&&_", "AND":
		if len(args) != 2 {
			return false, fmt.Errorf("AND requires 2 arguments")
		}
		left, err := f.eval(args[0], record)
		if err != nil || !left {
			return false, err
		}
		return f.eval(args[1], record)
	case "_||_", "OR":
		if len(args) != 2 {
			return false, fmt.Errorf("OR requires 2 arguments")
		}
		left, err := f.eval(args[0], record)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return f.eval(args[1], record)
	case "NOT", "!_":
		if len(args) != 1 {
			return false, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := f.eval(args[0], record)
		return !inner, err
	}

	op, ok := comparisonOps[call.CallExpr.GetFunction()]
	if !ok {
		return false, fmt.Errorf("unsupported function: %s", call.CallExpr.GetFunction())
	}
	field, value, err := comparisonOperands(args)
	if err != nil {
		return false, err
	}
	actual, ok := record[field]
	if !ok {
		return false, fmt.Errorf("unknown field: %s", field)
	}
	return compare(actual, value, op)
}

var comparisonOps = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

func compare(actual, value any, op string) (bool, error) {
	switch a := actual.(type) {
	case string:
		v, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", value)
		}
		c := strings.Compare(a, v)
		return applyOrder(c, op), nil
	case int64:
		v, ok := value.(int64)
		if !ok {
			return false, fmt.Errorf("cannot compare int with %T", value)
		}
		c := 0
		if a < v {
			c = -1
		} else if a > v {
			c = 1
		}
		return applyOrder(c, op), nil
	default:
		return false, fmt.Errorf("unsupported record value type %T", actual)
	}
}

func applyOrder(c int, op string) bool {
	switch op {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

func comparisonOperands(args []*expr.Expr) (string, any, error) {
	if len(args) != 2 {
		return "", nil, fmt.Errorf("comparison requires 2 arguments")
	}
	field, err := extractFieldName(args[0])
	if err != nil {
		return "", nil, err
	}
	value, err := extractValue(args[1])
	if err != nil {
		return "", nil, err
	}
	return field, value, nil
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "command_type = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// SQL translates the filter into a WHERE fragment, mapping field names to
// columns. An empty filter yields an empty condition.
func (f Filter) SQL(columns map[string]string) (SQLCondition, error) {
	if f.expr == nil {
		return SQLCondition{}, nil
	}
	return translateExpr(f.expr, columns)
}

func translateExpr(e *expr.Expr, columns map[string]string) (SQLCondition, error) {
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.GetArgs()
	switch call.CallExpr.GetFunction() {
	case "_&&_", "AND":
		return translateJoin(args, "AND", columns)
	case "_||_", "OR":
		return translateJoin(args, "OR", columns)
	case "NOT", "!_":
		if len(args) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(args[0], columns)
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}

	op, ok := comparisonOps[call.CallExpr.GetFunction()]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.CallExpr.GetFunction())
	}
	field, value, err := comparisonOperands(args)
	if err != nil {
		return SQLCondition{}, err
	}
	column, ok := columns[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func translateJoin(args []*expr.Expr, joiner string, columns map[string]string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", joiner)
	}

	left, err := translateExpr(args[0], columns)
	if err != nil {
		return SQLCondition{}, err
	}

	right, err := translateExpr(args[1], columns)
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, joiner, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch c := kind.ConstExpr.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return c.StringValue, nil
	case *expr.Constant_Int64Value:
		return c.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", c)
	}
}
