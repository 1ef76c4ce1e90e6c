// Package model implements the model tree described in spec.md
// §3.6/§4.6/§4.7: a tree of reference-counted nodes built during
// evaluation, then post-processed to deduce output types, compose
// world matrices, and render geometry.
//
// Grounded on original_source/lang/model_tree/model_node/mod.rs
// (ModelNode/append/detach/make_deep_copy) and
// original_source/lang/model_tree/render.rs (the render walk), adapted
// from the original's Rc<RefCell<...>> shape to plain Go pointers:
// internal/eval owns a single-threaded evaluation per Context (spec.md
// §5), so the original's interior mutability has no Go equivalent to
// borrow from beyond a plain struct.
package model

import (
	"fmt"

	"github.com/microcad/ucad/internal/unit"
)

// ElementKind discriminates the Element union of spec.md §3.6.
type ElementKind int

const (
	ElementGroup ElementKind = iota
	ElementWorkpiece
	ElementChildrenPlaceholder
	ElementPrimitive2D
	ElementPrimitive3D
	ElementTransform
	ElementOperation
)

func (k ElementKind) String() string {
	switch k {
	case ElementGroup:
		return "Group"
	case ElementWorkpiece:
		return "Workpiece"
	case ElementChildrenPlaceholder:
		return "ChildrenPlaceholder"
	case ElementPrimitive2D:
		return "Primitive2D"
	case ElementPrimitive3D:
		return "Primitive3D"
	case ElementTransform:
		return "Transform"
	case ElementOperation:
		return "Operation"
	default:
		return "?"
	}
}

// OutputType is the result of deduce_output_type() (spec.md §3.6): the
// smallest supertype over a node's own element and its children.
type OutputType int

const (
	OutputNotDetermined OutputType = iota
	OutputNone
	OutputGeometry2D
	OutputGeometry3D
	OutputInvalidMixed
)

func (o OutputType) String() string {
	switch o {
	case OutputNotDetermined:
		return "NotDetermined"
	case OutputNone:
		return "None"
	case OutputGeometry2D:
		return "Geometry2D"
	case OutputGeometry3D:
		return "Geometry3D"
	case OutputInvalidMixed:
		return "InvalidMixed"
	default:
		return "?"
	}
}

// combine implements the "smallest supertype" merge deduce_output_type
// folds over a node's own kind-derived type and its children's types.
func combine(a, b OutputType) OutputType {
	switch {
	case a == OutputNotDetermined:
		return b
	case b == OutputNotDetermined:
		return a
	case a == OutputNone:
		return b
	case b == OutputNone:
		return a
	case a == b:
		return a
	default:
		return OutputInvalidMixed
	}
}

// OperationKind names the boolean/operation functions §4.7 dispatches
// over children of compatible dimensionality.
type OperationKind int

const (
	OpUnion OperationKind = iota
	OpIntersection
	OpDifference
)

func (k OperationKind) String() string {
	switch k {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpDifference:
		return "difference"
	default:
		return "?"
	}
}

// AffineTransform is a 3D affine transform (4x4, row-major), composed
// by Transform nodes and the world-matrix pass.
type AffineTransform [16]float64

// Identity returns the identity transform.
func Identity() AffineTransform {
	var m AffineTransform
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Compose returns parent-then-self: the matrix to apply self's local
// transform within parent's already-composed world space.
func (m AffineTransform) Compose(parent AffineTransform) AffineTransform {
	var out AffineTransform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += parent[r*4+k] * m[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Geometry is an opaque render artifact; the concrete 2D/3D kernel is
// an external collaborator (spec.md §1's scope cut), so this is left a
// marker type the renderer's cache keys on by pointer identity.
type Geometry struct {
	Dim  int // 2 or 3
	Name string
}

func (g Geometry) String() string { return fmt.Sprintf("%s(%dD)", g.Name, g.Dim) }

// Resolution records the §4.6 "nearest enclosing resolution attribute"
// a node renders with: Value is a linear length in mm when Kind is
// unit.Length, or a relative fraction when Kind is unit.Scalar.
type Resolution struct {
	Value float64
	Kind  unit.Quantity
	IsSet bool
}
