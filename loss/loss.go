// Package loss provides the two elementwise loss variants used by the
// fitness scorer: Bulk losses that fill a per-sample buffer in one pass and
// Scalar losses called once per sample.
package loss

import (
	"fmt"
	"math"

	"github.com/snow-ghost/symreg/core"
)

// BulkFunc writes the per-sample loss of predictions against targets into out.
type BulkFunc func(predictions, targets, out []float64)

// Bulk is a vectorized supervised loss.
type Bulk struct {
	name string
	fn   BulkFunc
}

func NewBulk(name string, fn BulkFunc) *Bulk { return &Bulk{name: name, fn: fn} }

func (b *Bulk) Name() string        { return b.name }
func (b *Bulk) Kind() core.LossKind { return core.LossKindBulk }

// Reduce returns the mean loss, or sum(w·l)/sum(w) when weights are given.
func (b *Bulk) Reduce(predictions, targets, weights []float64) float64 {
	out := make([]float64, len(predictions))
	b.fn(predictions, targets, out)
	if weights == nil {
		return mean(out)
	}
	var num, den float64
	for i, l := range out {
		num += weights[i] * l
		den += weights[i]
	}
	return num / den
}

// Scalar is a per-sample loss function.
type Scalar struct {
	name     string
	fn       func(p, y float64) float64
	weighted func(p, y, w float64) float64
}

// NewScalar wraps an unweighted per-sample function. In weighted mode each
// term is multiplied by its weight.
func NewScalar(name string, fn func(p, y float64) float64) *Scalar {
	return &Scalar{name: name, fn: fn}
}

// NewWeightedScalar wraps a function that receives the sample weight and is
// responsible for applying it. fn is used when the dataset is unweighted.
func NewWeightedScalar(name string, fn func(p, y float64) float64, weighted func(p, y, w float64) float64) *Scalar {
	return &Scalar{name: name, fn: fn, weighted: weighted}
}

func (s *Scalar) Name() string        { return s.name }
func (s *Scalar) Kind() core.LossKind { return core.LossKindScalar }

func (s *Scalar) Reduce(predictions, targets, weights []float64) float64 {
	var sum float64
	if weights == nil {
		for i := range predictions {
			sum += s.fn(predictions[i], targets[i])
		}
		return sum / float64(len(predictions))
	}
	var wsum float64
	for i := range predictions {
		if s.weighted != nil {
			sum += s.weighted(predictions[i], targets[i], weights[i])
		} else {
			sum += weights[i] * s.fn(predictions[i], targets[i])
		}
		wsum += weights[i]
	}
	return sum / wsum
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// L2 is squared error, the default loss.
func L2() *Bulk {
	return NewBulk("l2", func(p, y, out []float64) {
		for i := range out {
			d := p[i] - y[i]
			out[i] = d * d
		}
	})
}

// L1 is absolute error.
func L1() *Bulk {
	return NewBulk("l1", func(p, y, out []float64) {
		for i := range out {
			out[i] = math.Abs(p[i] - y[i])
		}
	})
}

// LP is |p - y|^power.
func LP(power float64) *Bulk {
	return NewBulk(fmt.Sprintf("lp(%g)", power), func(p, y, out []float64) {
		for i := range out {
			out[i] = math.Pow(math.Abs(p[i]-y[i]), power)
		}
	})
}

// Huber is quadratic within delta of the target and linear outside.
func Huber(delta float64) *Bulk {
	return NewBulk(fmt.Sprintf("huber(%g)", delta), func(p, y, out []float64) {
		for i := range out {
			a := math.Abs(p[i] - y[i])
			if a <= delta {
				out[i] = 0.5 * a * a
			} else {
				out[i] = delta * (a - 0.5*delta)
			}
		}
	})
}

// LogCosh is log(cosh(p - y)), computed without overflow for large residuals.
func LogCosh() *Bulk {
	return NewBulk("logcosh", func(p, y, out []float64) {
		for i := range out {
			a := math.Abs(p[i] - y[i])
			out[i] = a + math.Log1p(math.Exp(-2*a)) - math.Ln2
		}
	})
}

// ByName resolves a built-in bulk loss. delta is used by huber, power by lp.
func ByName(name string, delta, power float64) (*Bulk, bool) {
	switch name {
	case "", "l2", "mse":
		return L2(), true
	case "l1", "mae":
		return L1(), true
	case "lp":
		return LP(power), true
	case "huber":
		return Huber(delta), true
	case "logcosh":
		return LogCosh(), true
	default:
		return nil, false
	}
}
