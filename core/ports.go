package core

// TreeEvaluator runs a tree over a feature matrix (features × samples) and
// returns one prediction per sample. n is the number of selected samples,
// which X cannot carry when the dataset has no features. ok is false when
// the evaluation hit a domain error or produced a non-finite value.
type TreeEvaluator interface {
	Eval(tree Tree, X [][]float64, n int, opts *Options) (predictions []float64, ok bool)
}

// ComplexityMeasure returns a non-negative structural size for a candidate.
type ComplexityMeasure interface {
	Complexity(c Candidate, opts *Options) int
}

// DimensionalChecker reports whether a tree violates the units declared on
// the dataset.
type DimensionalChecker interface {
	Violates(tree Tree, ds *Dataset, opts *Options) bool
}

// ExpressionBuilder makes a constant expression compatible with the
// evaluator. Used for baseline calibration.
type ExpressionBuilder interface {
	Constant(value float64, opts *Options, ds *Dataset) Tree
}
