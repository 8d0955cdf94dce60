package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/snow-ghost/symreg/core"
	"github.com/snow-ghost/symreg/data"
	"github.com/snow-ghost/symreg/expr"
	"github.com/snow-ghost/symreg/loss"
	"gopkg.in/yaml.v3"
)

// Run is a scoring run read from a YAML file.
type Run struct {
	Options    OptionsConfig     `yaml:"options"`
	Dataset    DatasetConfig     `yaml:"dataset"`
	Candidates []CandidateConfig `yaml:"candidates" validate:"required,min=1,dive"`

	// Calibrate runs baseline calibration before scoring.
	Calibrate bool `yaml:"calibrate"`

	baseDir string
}

type LossConfig struct {
	Name          string  `yaml:"name" validate:"omitempty,oneof=l2 mse l1 mae lp huber logcosh cel"`
	Delta         float64 `yaml:"delta" validate:"gte=0"`
	Power         float64 `yaml:"power" validate:"gte=0"`
	Expr          string  `yaml:"expr" validate:"required_if=Name cel"`
	AppliesWeight bool    `yaml:"applies_weight"`
}

type OptionsConfig struct {
	Loss                         LossConfig `yaml:"loss"`
	Parsimony                    float64    `yaml:"parsimony" validate:"gte=0"`
	Batching                     bool       `yaml:"batching"`
	BatchSize                    int        `yaml:"batch_size" validate:"required_if=Batching true,gte=0"`
	DimensionalConstraintPenalty *float64   `yaml:"dimensional_constraint_penalty" validate:"omitempty,gte=0"`
}

// DatasetConfig is either a CSV file or inline columns.
type DatasetConfig struct {
	CSV      string   `yaml:"csv" validate:"required_without=Y"`
	Target   string   `yaml:"target" validate:"required_with=CSV"`
	Weight   string   `yaml:"weight"`
	Features []string `yaml:"features"`

	X       [][]float64 `yaml:"x"`
	Y       []float64   `yaml:"y" validate:"required_without=CSV"`
	Weights []float64   `yaml:"weights"`

	XUnits []core.Dimensions `yaml:"x_units"`
	YUnits core.Dimensions   `yaml:"y_units"`
}

type CandidateConfig struct {
	Name       string     `yaml:"name"`
	Tree       *expr.Node `yaml:"tree" validate:"required"`
	Complexity *int       `yaml:"complexity" validate:"omitempty,gte=0"`
}

// Load reads and validates a run file. Relative CSV paths resolve against
// the directory of the run file.
func Load(path string) (*Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	run, err := LoadFromBytes(raw)
	if err != nil {
		return nil, err
	}
	run.baseDir = filepath.Dir(path)
	return run, nil
}

// LoadFromBytes parses and validates a run from YAML bytes.
func LoadFromBytes(raw []byte) (*Run, error) {
	var run Run
	if err := yaml.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return &run, nil
}

var validate = validator.New()

func (r *Run) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
	}
	return nil
}

// BuildOptions resolves the configured loss and returns scoring options.
func (r *Run) BuildOptions() (*core.Options, error) {
	oc := r.Options
	opts := &core.Options{
		Parsimony:                    oc.Parsimony,
		Batching:                     oc.Batching,
		BatchSize:                    oc.BatchSize,
		DimensionalConstraintPenalty: oc.DimensionalConstraintPenalty,
	}

	if oc.Loss.Name == "cel" {
		l, err := loss.CEL(oc.Loss.Expr, oc.Loss.AppliesWeight)
		if err != nil {
			return nil, fmt.Errorf("%w: loss: %v", core.ErrInvalidConfig, err)
		}
		opts.Loss = l
	} else {
		delta, power := oc.Loss.Delta, oc.Loss.Power
		if delta == 0 {
			delta = 1
		}
		if power == 0 {
			power = 2
		}
		l, ok := loss.ByName(oc.Loss.Name, delta, power)
		if !ok {
			return nil, fmt.Errorf("%w: unknown loss %q", core.ErrInvalidConfig, oc.Loss.Name)
		}
		opts.Loss = l
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// BuildDataset loads the dataset and attaches units when configured.
func (r *Run) BuildDataset() (*core.Dataset, error) {
	dc := r.Dataset

	var (
		ds  *core.Dataset
		err error
	)
	if dc.CSV != "" {
		path := dc.CSV
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		ds, err = data.LoadCSVFile(path, data.Columns{
			Target:   dc.Target,
			Weight:   dc.Weight,
			Features: dc.Features,
		})
	} else {
		ds, err = core.NewDataset(dc.X, dc.Y, dc.Weights)
	}
	if err != nil {
		return nil, err
	}

	if dc.XUnits != nil || dc.YUnits != nil {
		return ds.WithUnits(dc.XUnits, dc.YUnits)
	}
	return ds, nil
}

// BuildCandidates checks every tree against the feature count and wraps
// it as a population member.
func (r *Run) BuildCandidates(nFeatures int) ([]core.Candidate, error) {
	out := make([]core.Candidate, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		if err := c.Tree.Validate(nFeatures); err != nil {
			return nil, fmt.Errorf("candidate %d (%s): %w", i, c.Label(i), err)
		}
		if c.Complexity != nil {
			out = append(out, core.NewMemberWithComplexity(c.Tree, *c.Complexity))
		} else {
			out = append(out, core.NewMember(c.Tree))
		}
	}
	return out, nil
}

// Label is the display name of a candidate, its expression when unnamed.
func (c CandidateConfig) Label(i int) string {
	if c.Name != "" {
		return c.Name
	}
	if c.Tree == nil {
		return fmt.Sprintf("#%d", i)
	}
	return c.Tree.String()
}
