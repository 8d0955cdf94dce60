package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// LossKind declares which reduction protocol an elementwise loss follows.
type LossKind int

const (
	// LossKindBulk losses compute every per-sample loss in one vectorized pass.
	LossKindBulk LossKind = iota
	// LossKindScalar losses are invoked once per sample.
	LossKindScalar
)

func (k LossKind) String() string {
	switch k {
	case LossKindBulk:
		return "bulk"
	case LossKindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("LossKind(%d)", int(k))
	}
}

// ElementwiseLoss reduces predictions and targets to one scalar. weights is
// nil in unweighted mode; otherwise the result is normalized by sum(weights).
// Name must include any parameters: losses with equal names are assumed to
// compute equal values.
type ElementwiseLoss interface {
	Name() string
	Kind() LossKind
	Reduce(predictions, targets, weights []float64) float64
}

// CustomLossKind is the capability a custom loss function declares.
type CustomLossKind int

const (
	// CustomLossFull functions see the whole dataset and cannot batch.
	CustomLossFull CustomLossKind = iota
	// CustomLossBatched functions receive the active index selector.
	CustomLossBatched
)

func (k CustomLossKind) String() string {
	if k == CustomLossBatched {
		return "batched"
	}
	return "full"
}

type FullLossFunc func(tree Tree, ds *Dataset, opts *Options) float64

type BatchedLossFunc func(tree Tree, ds *Dataset, opts *Options, idx IndexSelector) float64

// CustomLoss replaces the elementwise loss entirely. The caller declares
// whether it understands index selectors by choosing the constructor.
type CustomLoss struct {
	kind    CustomLossKind
	full    FullLossFunc
	batched BatchedLossFunc
}

func NewFullLoss(f FullLossFunc) *CustomLoss {
	return &CustomLoss{kind: CustomLossFull, full: f}
}

func NewBatchedLoss(f BatchedLossFunc) *CustomLoss {
	return &CustomLoss{kind: CustomLossBatched, batched: f}
}

func (c *CustomLoss) Kind() CustomLossKind { return c.kind }

// Full returns the three-argument function, nil for batched losses.
func (c *CustomLoss) Full() FullLossFunc { return c.full }

// Batched returns the four-argument function, nil for full losses.
func (c *CustomLoss) Batched() BatchedLossFunc { return c.batched }

// Options is the scoring configuration shared read-only by all scorers in
// a run.
type Options struct {
	// Loss is the elementwise policy. Nil means squared error, resolved by
	// the scorer.
	Loss ElementwiseLoss

	// LossFunction, when set, overrides Loss entirely.
	LossFunction *CustomLoss

	Batching  bool
	BatchSize int     `validate:"required_if=Batching true,gte=0"`
	Parsimony float64 `validate:"gte=0"`

	// DimensionalConstraintPenalty overrides the default flat penalty for
	// unit violations.
	DimensionalConstraintPenalty *float64 `validate:"omitempty,gte=0"`
}

var optionsValidate = validator.New()

// Validate checks the numeric fields of the options.
func (o *Options) Validate() error {
	if err := optionsValidate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if o.LossFunction != nil {
		switch o.LossFunction.kind {
		case CustomLossFull:
			if o.LossFunction.full == nil {
				return fmt.Errorf("%w: full custom loss has no function", ErrInvalidConfig)
			}
		case CustomLossBatched:
			if o.LossFunction.batched == nil {
				return fmt.Errorf("%w: batched custom loss has no function", ErrInvalidConfig)
			}
		}
	}
	return nil
}
