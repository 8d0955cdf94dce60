package fitness

import "github.com/snow-ghost/symreg/core"

// DefaultDimensionalPenalty is added to the loss of a candidate with
// inconsistent units when the options carry no override. It is a flat
// amount and does not scale with the data.
const DefaultDimensionalPenalty = 1000.0

// Penalty returns the dimensional-regularization term for tree.
func (s *Scorer) Penalty(tree core.Tree, ds *core.Dataset, opts *core.Options) float64 {
	if s.dimensions == nil || !s.dimensions.Violates(tree, ds, opts) {
		return 0
	}
	s.metrics.RecordViolation()
	if opts.DimensionalConstraintPenalty != nil {
		return *opts.DimensionalConstraintPenalty
	}
	return DefaultDimensionalPenalty
}
