// Package expr is a small expression-tree implementation used to drive the
// fitness scorer: vectorized evaluation, node-count complexity, dimensional
// analysis and YAML decoding of trees.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snow-ghost/symreg/core"
)

type Op string

const (
	OpConst   Op = "const"
	OpFeature Op = "feature"

	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"

	OpNeg    Op = "neg"
	OpAbs    Op = "abs"
	OpSquare Op = "square"
	OpSqrt   Op = "sqrt"
	OpSin    Op = "sin"
	OpCos    Op = "cos"
	OpExp    Op = "exp"
	OpLog    Op = "log"
)

// Arity returns the number of children an operator takes, or -1 if unknown.
func (o Op) Arity() int {
	switch o {
	case OpConst, OpFeature:
		return 0
	case OpNeg, OpAbs, OpSquare, OpSqrt, OpSin, OpCos, OpExp, OpLog:
		return 1
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2
	default:
		return -1
	}
}

// Node is an expression tree node. Leaves are constants (Value) or feature
// references (Feature, zero-based).
type Node struct {
	Op       Op      `yaml:"op"`
	Value    float64 `yaml:"value,omitempty"`
	Feature  int     `yaml:"feature,omitempty"`
	Children []*Node `yaml:"children,omitempty"`
}

func Const(v float64) *Node { return &Node{Op: OpConst, Value: v} }

func Feature(i int) *Node { return &Node{Op: OpFeature, Feature: i} }

func Unary(op Op, x *Node) *Node { return &Node{Op: op, Children: []*Node{x}} }

func Binary(op Op, l, r *Node) *Node { return &Node{Op: op, Children: []*Node{l, r}} }

func Add(l, r *Node) *Node { return Binary(OpAdd, l, r) }
func Sub(l, r *Node) *Node { return Binary(OpSub, l, r) }
func Mul(l, r *Node) *Node { return Binary(OpMul, l, r) }
func Div(l, r *Node) *Node { return Binary(OpDiv, l, r) }

// Expression lets a bare tree be scored directly.
func (n *Node) Expression() core.Tree { return n }

// Size is the number of nodes in the tree.
func (n *Node) Size() int {
	s := 1
	for _, c := range n.Children {
		s += c.Size()
	}
	return s
}

// Validate checks operator arity and feature indices against nFeatures.
// A negative nFeatures skips the feature bound check.
func (n *Node) Validate(nFeatures int) error {
	arity := n.Op.Arity()
	if arity < 0 {
		return fmt.Errorf("unknown operator %q", n.Op)
	}
	if len(n.Children) != arity {
		return fmt.Errorf("operator %q takes %d children, got %d", n.Op, arity, len(n.Children))
	}
	if n.Op == OpFeature && (n.Feature < 0 || (nFeatures >= 0 && n.Feature >= nFeatures)) {
		return fmt.Errorf("feature index %d out of range", n.Feature)
	}
	for _, c := range n.Children {
		if err := c.Validate(nFeatures); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	arity := n.Op.Arity()
	if arity < 0 || len(n.Children) != arity {
		fmt.Fprintf(b, "<%s>", n.Op)
		return
	}
	switch arity {
	case 0:
		if n.Op == OpFeature {
			fmt.Fprintf(b, "x%d", n.Feature)
		} else {
			b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
		}
	case 1:
		b.WriteString(string(n.Op))
		b.WriteByte('(')
		n.Children[0].write(b)
		b.WriteByte(')')
	case 2:
		b.WriteByte('(')
		n.Children[0].write(b)
		b.WriteString(" " + string(n.Op) + " ")
		n.Children[1].write(b)
		b.WriteByte(')')
	}
}
