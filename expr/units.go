package expr

import "github.com/snow-ghost/symreg/core"

// quantity is the inferred dimension of a subtree. Constants are wildcards:
// they may carry whatever units make the expression consistent.
type quantity struct {
	dims     core.Dimensions
	wildcard bool
	violated bool
}

func dimensionless() quantity { return quantity{dims: core.Dimensions{}} }

func combine(a, b core.Dimensions, sign float64) core.Dimensions {
	out := core.Dimensions{}
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += sign * v
	}
	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

func scale(a core.Dimensions, f float64) core.Dimensions {
	out := core.Dimensions{}
	for k, v := range a {
		if v*f != 0 {
			out[k] = v * f
		}
	}
	return out
}

func (n *Node) units(ds *core.Dataset) quantity {
	switch n.Op {
	case OpConst:
		return quantity{dims: core.Dimensions{}, wildcard: true}
	case OpFeature:
		if ds.XUnits == nil || n.Feature < 0 || n.Feature >= len(ds.XUnits) {
			return dimensionless()
		}
		return quantity{dims: ds.XUnits[n.Feature]}
	}

	kids := make([]quantity, len(n.Children))
	for i, c := range n.Children {
		kids[i] = c.units(ds)
		if kids[i].violated {
			return quantity{violated: true}
		}
	}
	if len(kids) != n.Op.Arity() {
		return quantity{violated: true}
	}

	switch n.Op {
	case OpAdd, OpSub:
		l, r := kids[0], kids[1]
		switch {
		case l.wildcard && r.wildcard:
			return quantity{dims: core.Dimensions{}, wildcard: true}
		case l.wildcard:
			return quantity{dims: r.dims}
		case r.wildcard:
			return quantity{dims: l.dims}
		case !l.dims.Equal(r.dims):
			return quantity{violated: true}
		default:
			return quantity{dims: l.dims}
		}
	case OpMul:
		return quantity{dims: combine(kids[0].dims, kids[1].dims, 1), wildcard: kids[0].wildcard || kids[1].wildcard}
	case OpDiv:
		return quantity{dims: combine(kids[0].dims, kids[1].dims, -1), wildcard: kids[0].wildcard || kids[1].wildcard}
	case OpNeg, OpAbs:
		return kids[0]
	case OpSquare:
		return quantity{dims: scale(kids[0].dims, 2), wildcard: kids[0].wildcard}
	case OpSqrt:
		return quantity{dims: scale(kids[0].dims, 0.5), wildcard: kids[0].wildcard}
	case OpSin, OpCos, OpExp, OpLog:
		x := kids[0]
		if !x.wildcard && len(x.dims) > 0 {
			return quantity{violated: true}
		}
		return dimensionless()
	}
	return quantity{violated: true}
}

// UnitChecker implements core.DimensionalChecker by propagating the
// dataset's feature units through the tree and comparing the result with
// the target units. Datasets without units never violate.
type UnitChecker struct{}

func (UnitChecker) Violates(tree core.Tree, ds *core.Dataset, _ *core.Options) bool {
	if !ds.HasUnits() {
		return false
	}
	n, ok := tree.(*Node)
	if !ok || n == nil {
		return false
	}
	q := n.units(ds)
	if q.violated {
		return true
	}
	if q.wildcard || ds.YUnits == nil {
		return false
	}
	return !q.dims.Equal(ds.YUnits)
}
