package loss

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
)

// CEL compiles a per-sample loss written in the Common Expression Language.
// The expression sees doubles p (prediction), y (target) and w (weight) and
// must return a double, e.g. "(p - y) * (p - y)". When appliesWeight is
// true the expression is trusted to use w itself; otherwise each term is
// multiplied by w in weighted mode.
//
// The compiled program is safe for concurrent use.
func CEL(expr string, appliesWeight bool) (*Scalar, error) {
	env, err := cel.NewEnv(
		cel.Variable("p", cel.DoubleType),
		cel.Variable("y", cel.DoubleType),
		cel.Variable("w", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.DoubleType) {
		return nil, fmt.Errorf("loss expression must return double, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}

	eval := func(p, y, w float64) float64 {
		out, _, err := prg.Eval(map[string]any{"p": p, "y": y, "w": w})
		if err != nil {
			return math.NaN()
		}
		v, ok := out.Value().(float64)
		if !ok {
			return math.NaN()
		}
		return v
	}

	name := "cel:" + expr
	unweighted := func(p, y float64) float64 { return eval(p, y, 1) }
	if appliesWeight {
		return NewWeightedScalar(name, unweighted, eval), nil
	}
	return NewScalar(name, unweighted), nil
}
