package fitness

import (
	"fmt"

	"github.com/snow-ghost/symreg/core"
)

// dispatchCustom calls a user loss according to its declared capability.
// A full-dataset function is never called while batching is enabled.
func dispatchCustom(f *core.CustomLoss, tree core.Tree, ds *core.Dataset, opts *core.Options, idx core.IndexSelector) (float64, error) {
	switch f.Kind() {
	case core.CustomLossBatched:
		return f.Batched()(tree, ds, opts, idx), nil
	default:
		if opts.Batching {
			return 0, fmt.Errorf("%w: batching is enabled, so the custom loss function must accept an index selector (use core.NewBatchedLoss)", core.ErrInvalidConfig)
		}
		return f.Full()(tree, ds, opts), nil
	}
}
