package expression

import (
	"testing"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
)

func TestEvaluate(t *testing.T) {
	ctx := Context{"atk": 6, "def": 2, "zero": 0}
	cases := []struct {
		name string
		node *Node
		want float64
	}{
		{"damage", Largest(Minus(Ref("atk"), Ref("def")), Lit(0)), 4},
		{"scaled", Times(Plus(Ref("atk"), Lit(1)), Lit(2)), 14},
		{"div by zero", DivBy(Ref("atk"), Ref("zero")), 0},
		{"div", DivBy(Ref("atk"), Ref("def")), 3},
		{"min", Least(Ref("atk"), Ref("def")), 2},
		{"negate", Neg(Ref("def")), -2},
		{"conditional then", If(Ref("def"), Lit(1), Lit(2)), 1},
		{"conditional otherwise", If(Ref("zero"), Lit(1), Lit(2)), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.node, ctx)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateUnknownVariable(t *testing.T) {
	_, err := Evaluate(Plus(Ref("missing"), Lit(1)), Context{})
	if apperrors.GetCode(err) != apperrors.CodeRuleInvalid {
		t.Fatalf("code = %s", apperrors.GetCode(err))
	}
	if got := apperrors.GetMetadata(err)["Name"]; got != "missing" {
		t.Fatalf("metadata name = %q", got)
	}
}
