package expr

import (
	"math"

	"github.com/snow-ghost/symreg/core"
)

// Eval evaluates the tree over X (features × samples), taking the sample
// count from the first feature. It stops at the first node whose output
// contains a non-finite value and reports ok=false.
func (n *Node) Eval(X [][]float64) ([]float64, bool) {
	rows := 0
	if len(X) > 0 {
		rows = len(X[0])
	}
	return n.eval(X, rows)
}

// EvalRows is Eval with an explicit sample count, so constant trees still
// produce rows predictions when X has no features.
func (n *Node) EvalRows(X [][]float64, rows int) ([]float64, bool) {
	return n.eval(X, rows)
}

func (n *Node) eval(X [][]float64, rows int) ([]float64, bool) {
	switch n.Op {
	case OpConst:
		if !finite(n.Value) {
			return nil, false
		}
		out := make([]float64, rows)
		for i := range out {
			out[i] = n.Value
		}
		return out, true
	case OpFeature:
		if n.Feature < 0 || n.Feature >= len(X) {
			return nil, false
		}
		out := make([]float64, rows)
		copy(out, X[n.Feature])
		return out, true
	}

	switch n.Op.Arity() {
	case 1:
		if len(n.Children) != 1 {
			return nil, false
		}
		x, ok := n.Children[0].eval(X, rows)
		if !ok {
			return nil, false
		}
		f := unaryFunc(n.Op)
		for i, v := range x {
			x[i] = f(v)
		}
		return x, allFinite(x)
	case 2:
		if len(n.Children) != 2 {
			return nil, false
		}
		l, ok := n.Children[0].eval(X, rows)
		if !ok {
			return nil, false
		}
		r, ok := n.Children[1].eval(X, rows)
		if !ok {
			return nil, false
		}
		f := binaryFunc(n.Op)
		for i := range l {
			l[i] = f(l[i], r[i])
		}
		return l, allFinite(l)
	}
	return nil, false
}

func unaryFunc(op Op) func(float64) float64 {
	switch op {
	case OpNeg:
		return func(x float64) float64 { return -x }
	case OpAbs:
		return math.Abs
	case OpSquare:
		return func(x float64) float64 { return x * x }
	case OpSqrt:
		return math.Sqrt
	case OpSin:
		return math.Sin
	case OpCos:
		return math.Cos
	case OpExp:
		return math.Exp
	case OpLog:
		return math.Log
	}
	return func(float64) float64 { return math.NaN() }
}

func binaryFunc(op Op) func(a, b float64) float64 {
	switch op {
	case OpAdd:
		return func(a, b float64) float64 { return a + b }
	case OpSub:
		return func(a, b float64) float64 { return a - b }
	case OpMul:
		return func(a, b float64) float64 { return a * b }
	case OpDiv:
		return func(a, b float64) float64 { return a / b }
	}
	return func(float64, float64) float64 { return math.NaN() }
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}

// Evaluator implements core.TreeEvaluator for *Node trees.
type Evaluator struct{}

func (Evaluator) Eval(tree core.Tree, X [][]float64, rows int, _ *core.Options) ([]float64, bool) {
	n, ok := tree.(*Node)
	if !ok || n == nil {
		return nil, false
	}
	return n.EvalRows(X, rows)
}

// Complexity implements core.ComplexityMeasure as the node count.
type Complexity struct{}

func (Complexity) Complexity(c core.Candidate, _ *core.Options) int {
	n, ok := c.Expression().(*Node)
	if !ok || n == nil {
		return 0
	}
	return n.Size()
}

// Constants implements core.ExpressionBuilder.
type Constants struct{}

func (Constants) Constant(value float64, _ *core.Options, _ *core.Dataset) core.Tree {
	return Const(value)
}
