package model

import (
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
)

// Builder builds a Node by accumulating children/properties before a
// single Build() call, mirroring
// original_source/lang/model_tree/model_node/model_node_builder.rs's
// ModelNodeBuilder: a fresh node is cheap to mutate while an evaluator
// is assembling it, but once Built should only be read.
type Builder struct {
	node     *Node
	children []*Node
}

// NewBuilder starts building a node of the given kind, created by the
// call at origin.
func NewBuilder(kind ElementKind, origin Origin) *Builder {
	return &Builder{node: New(kind, origin)}
}

// Workpiece starts building the node a workbench call produces for one
// multiplicity combination (spec.md §4.5 "Workbench calls" step 5).
func Workpiece(id *ident.Identifier, origin Origin) *Builder {
	b := NewBuilder(ElementWorkpiece, origin)
	b.node.Id = id
	return b
}

// Primitive2D/Primitive3D start building a leaf geometry node.
func Primitive2D(geom *Geometry, ref srcref.SrcRef, origin Origin) *Builder {
	b := NewBuilder(ElementPrimitive2D, origin)
	b.node.Geometry = geom
	return b
}

func Primitive3D(geom *Geometry, ref srcref.SrcRef, origin Origin) *Builder {
	b := NewBuilder(ElementPrimitive3D, origin)
	b.node.Geometry = geom
	return b
}

// Transform starts building a transform node.
func Transform(t AffineTransform, origin Origin) *Builder {
	b := NewBuilder(ElementTransform, origin)
	b.node.Transform = t
	b.node.Output.LocalMatrix = t
	return b
}

// Operation starts building a boolean-operation node over children of
// compatible dimensionality (spec.md §4.7).
func Operation(op OperationKind, origin Origin) *Builder {
	b := NewBuilder(ElementOperation, origin)
	b.node.OpKind = op
	return b
}

// ChildrenPlaceholder starts building a `@children` expansion point.
func ChildrenPlaceholder(origin Origin) *Builder {
	return NewBuilder(ElementChildrenPlaceholder, origin)
}

// Node returns the builder's underlying node before Build staged its
// children, so a caller assembling children incrementally (e.g. a
// workbench body evaluated statement by statement) can set properties
// and read them back mid-build.
func (b *Builder) Node() *Node { return b.node }

// AddChildren queues children to be appended on Build.
func (b *Builder) AddChildren(children ...*Node) *Builder {
	b.children = append(b.children, children...)
	return b
}

// Build appends the staged children, deduces the output type bottom-up
// (spec.md §4.6), and returns the finished node. The node remains
// mutable afterward (a plain struct, unlike the original's frozen
// builder output) since internal/eval still needs to set properties
// discovered by init-block evaluation after the plan's initial shape
// is built.
func (b *Builder) Build() (*Node, error) {
	for _, c := range b.children {
		if err := b.node.Append(c); err != nil {
			return nil, err
		}
	}
	b.node.DeduceOutputType()
	return b.node, nil
}
