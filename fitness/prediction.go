package fitness

import (
	"math"

	"github.com/snow-ghost/symreg/core"
)

// Predict evaluates tree on the samples chosen by idx. ok is false when the
// evaluator fails, returns the wrong number of predictions, or returns a
// non-finite value.
func (s *Scorer) Predict(tree core.Tree, ds *core.Dataset, opts *core.Options, idx core.IndexSelector) ([]float64, bool) {
	rows := idx.Len(ds.N)
	pred, ok := s.evaluator.Eval(tree, ds.Features(idx), rows, opts)
	if !ok || len(pred) != rows {
		return nil, false
	}
	for _, v := range pred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return pred, true
}
