package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Dimensions maps a base unit (e.g. "m", "s", "kg") to its exponent.
// A nil or empty map is dimensionless.
type Dimensions map[string]float64

// Equal reports whether both maps describe the same physical dimension.
// Zero exponents are ignored.
func (d Dimensions) Equal(other Dimensions) bool {
	for k, v := range d {
		if v != other[k] {
			return false
		}
	}
	for k, v := range other {
		if v != d[k] {
			return false
		}
	}
	return true
}

// Calibration is the baseline record written once per dataset before
// concurrent scoring starts.
type Calibration struct {
	BaselineLoss float64
	UseBaseline  bool
}

// DefaultCalibration disables baseline normalization.
func DefaultCalibration() Calibration {
	return Calibration{BaselineLoss: 1, UseBaseline: false}
}

type Dataset struct {
	ID      string
	X       [][]float64 // features × samples
	Y       []float64
	Weights []float64 // nil when unweighted
	N       int

	XUnits []Dimensions // optional, one per feature
	YUnits Dimensions   // optional

	Calibration Calibration
}

// NewDataset validates the shape invariants once and returns a dataset with
// a fresh ID and default calibration. weights may be nil.
func NewDataset(X [][]float64, y []float64, weights []float64) (*Dataset, error) {
	n := len(y)
	for f, col := range X {
		if len(col) != n {
			return nil, fmt.Errorf("%w: feature %d has %d samples, want %d", ErrDimensionMismatch, f, len(col), n)
		}
	}
	if weights != nil && len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d samples", ErrDimensionMismatch, len(weights), n)
	}
	return &Dataset{
		ID:          uuid.NewString(),
		X:           X,
		Y:           y,
		Weights:     weights,
		N:           n,
		Calibration: DefaultCalibration(),
	}, nil
}

// WithUnits attaches physical units used by dimensional analysis.
func (d *Dataset) WithUnits(xUnits []Dimensions, yUnits Dimensions) (*Dataset, error) {
	if xUnits != nil && len(xUnits) != len(d.X) {
		return nil, fmt.Errorf("%w: %d feature units for %d features", ErrDimensionMismatch, len(xUnits), len(d.X))
	}
	d.XUnits = xUnits
	d.YUnits = yUnits
	return d, nil
}

// HasUnits reports whether any unit information is attached.
func (d *Dataset) HasUnits() bool {
	return d.XUnits != nil || d.YUnits != nil
}

// Weighted reports whether the dataset carries per-sample weights.
func (d *Dataset) Weighted() bool { return d.Weights != nil }

// SetCalibration is the single write of the calibration record. It must
// happen before the dataset is shared with concurrent scorers.
func (d *Dataset) SetCalibration(c Calibration) { d.Calibration = c }

// Features returns the feature matrix restricted to idx, columns gathered
// in index order.
func (d *Dataset) Features(idx IndexSelector) [][]float64 {
	if idx.IsFull() {
		return d.X
	}
	rows := idx.Indices()
	out := make([][]float64, len(d.X))
	for f, col := range d.X {
		sub := make([]float64, len(rows))
		for j, i := range rows {
			sub[j] = col[i]
		}
		out[f] = sub
	}
	return out
}

// Targets returns y restricted to idx.
func (d *Dataset) Targets(idx IndexSelector) []float64 {
	return gather(d.Y, idx)
}

// WeightsAt returns the weights restricted to idx, or nil when unweighted.
func (d *Dataset) WeightsAt(idx IndexSelector) []float64 {
	if d.Weights == nil {
		return nil
	}
	return gather(d.Weights, idx)
}

func gather(v []float64, idx IndexSelector) []float64 {
	if idx.IsFull() {
		return v
	}
	rows := idx.Indices()
	out := make([]float64, len(rows))
	for j, i := range rows {
		out[j] = v[i]
	}
	return out
}

// IndexSelector picks either the whole dataset or an ordered subset of
// sample indices (repeats allowed). The zero value selects everything.
type IndexSelector struct {
	indices []int
	subset  bool
}

func Full() IndexSelector { return IndexSelector{} }

// Subset selects the given indices in order. Every index must lie in
// [0, N) of the dataset it is used with; gathering panics otherwise.
func Subset(indices []int) IndexSelector {
	return IndexSelector{indices: indices, subset: true}
}

func (s IndexSelector) IsFull() bool { return !s.subset }

// Indices returns the subset indices, nil for Full.
func (s IndexSelector) Indices() []int { return s.indices }

// Len is the number of selected samples out of n.
func (s IndexSelector) Len(n int) int {
	if s.IsFull() {
		return n
	}
	return len(s.indices)
}

func (s IndexSelector) String() string {
	if s.IsFull() {
		return "full"
	}
	return fmt.Sprintf("subset(%d)", len(s.indices))
}

// Tree is an opaque candidate expression.
type Tree interface {
	fmt.Stringer
}

// Candidate is anything that can be scored: a bare tree or a Member.
type Candidate interface {
	Expression() Tree
}

// Member pairs a tree with its cached complexity.
type Member struct {
	Tree          Tree
	complexity    int
	hasComplexity bool
}

func NewMember(t Tree) *Member { return &Member{Tree: t} }

// NewMemberWithComplexity caches a precomputed complexity.
func NewMemberWithComplexity(t Tree, complexity int) *Member {
	return &Member{Tree: t, complexity: complexity, hasComplexity: true}
}

func (m *Member) Expression() Tree { return m.Tree }

// CachedComplexity returns the cached complexity, if any.
func (m *Member) CachedComplexity() (int, bool) { return m.complexity, m.hasComplexity }

// SetComplexity caches a complexity value on the member.
func (m *Member) SetComplexity(c int) {
	m.complexity = c
	m.hasComplexity = true
}

// ScoreResult is the rank score together with the raw loss it came from.
// Both are +Inf when the candidate failed to evaluate.
type ScoreResult struct {
	Score float64
	Loss  float64
}
