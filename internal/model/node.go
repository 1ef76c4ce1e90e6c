package model

import (
	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/value"
)

// Attribute is one ordered (id, Value) annotation (spec.md §3.6/§4.5
// "Attribute handling": color, resolution, export, exporter-specific).
type Attribute struct {
	Id    string
	Value value.Value
}

// Origin records who created a node: the call site that produced it,
// for signature()-style diagnostics and provenance queries.
type Origin struct {
	Creator ident.QualifiedName
	CallRef srcref.SrcRef
}

// Output is the node's §3.6 ModelOutput: its deduced type and the
// transforms/resolution the render passes compute.
type Output struct {
	Type        OutputType
	WorldMatrix AffineTransform
	LocalMatrix AffineTransform
	Resolution  Resolution
	Geometry    *Geometry
}

// Node is one model tree node (spec.md §3.6's ModelInner, renamed
// since nothing else in this package needs the "Inner" qualifier Go's
// lack of a public/private newtype wrapper would otherwise require).
type Node struct {
	Id       *ident.Identifier // user-given handle, nil if anonymous
	Kind     ElementKind
	Transform AffineTransform // valid when Kind == ElementTransform
	OpKind   OperationKind    // valid when Kind == ElementOperation
	Geometry *Geometry        // valid when Kind == ElementPrimitive2D/3D

	Children   []*Node
	Parent     *Node
	Properties map[string]value.Value
	Attributes []Attribute
	Origin     Origin
	Output     Output
}

// ValueModelMarker satisfies value.ModelRef, closing the dependency
// inversion described in internal/value's doc comment: value cannot
// import model (model imports value for Properties/Attributes), so
// value declares the minimal interface and model implements it.
func (*Node) ValueModelMarker() {}

// New creates a detached node with no children, per spec.md §4.6's
// ModelBuilder.new.
func New(kind ElementKind, origin Origin) *Node {
	return &Node{
		Kind:       kind,
		Properties: map[string]value.Value{},
		Origin:     origin,
		Output:     Output{LocalMatrix: Identity()},
	}
}

// Group creates an anonymous grouping node: a parent that collects
// child models without geometry of its own. A workbench call's
// combinations are not grouped under one; they are returned as an
// Array value.
func Group(origin Origin) *Node { return New(ElementGroup, origin) }

// Append pushes child onto n's children, setting child's parent.
// Re-parenting a child that is still attached elsewhere is an error
// (spec.md §3.6's "at most one parent" invariant); callers that
// genuinely mean to move a node must Detach it first.
func (n *Node) Append(child *Node) error {
	if child.Parent != nil {
		return &Error{Kind: ErrAlreadyParented, Id: child.Id}
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	return nil
}

// AppendChildren appends each of children in order; stops at the
// first re-parenting error.
func (n *Node) AppendChildren(children []*Node) error {
	for _, c := range children {
		if err := n.Append(c); err != nil {
			return err
		}
	}
	return nil
}

// Detach removes n from its parent's children and clears n.Parent.
// n's own children are unaffected. A no-op if n has no parent.
func (n *Node) Detach() {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	for i, c := range siblings {
		if c == n {
			n.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// MakeDeepCopy clones n and its entire subtree, detached from any
// parent. Property/attribute maps and slices are copied so mutating
// the copy never affects the original (spec.md's TODO in the original
// asks whether this should just be Clone; Go's reference semantics for
// maps/slices make an explicit deep copy the only safe choice here).
func (n *Node) MakeDeepCopy() *Node {
	cp := &Node{
		Id:         n.Id,
		Kind:       n.Kind,
		Transform:  n.Transform,
		OpKind:     n.OpKind,
		Geometry:   n.Geometry,
		Properties: make(map[string]value.Value, len(n.Properties)),
		Attributes: append([]Attribute(nil), n.Attributes...),
		Origin:     n.Origin,
		Output:     n.Output,
	}
	for k, v := range n.Properties {
		cp.Properties[k] = v
	}
	for _, child := range n.Children {
		copyChild := child.MakeDeepCopy()
		_ = cp.Append(copyChild)
	}
	return cp
}

// SetProperty sets (or overwrites) a named property.
func (n *Node) SetProperty(id string, v value.Value) { n.Properties[id] = v }

// Property reads a named property.
func (n *Node) Property(id string) (value.Value, bool) {
	v, ok := n.Properties[id]
	return v, ok
}

// AddAttribute appends an attribute in declaration order.
func (n *Node) AddAttribute(id string, v value.Value) {
	n.Attributes = append(n.Attributes, Attribute{Id: id, Value: v})
}

// Attribute returns the last-declared attribute with the given id
// (later inner-attribute/outer-attribute declarations override
// earlier ones, matching how the evaluator applies them in source
// order).
func (n *Node) Attribute(id string) (value.Value, bool) {
	for i := len(n.Attributes) - 1; i >= 0; i-- {
		if n.Attributes[i].Id == id {
			return n.Attributes[i].Value, true
		}
	}
	return value.Value{}, false
}

// Descendants walks n and every descendant, in pre-order (n first).
func (n *Node) Descendants() []*Node {
	out := []*Node{n}
	for _, c := range n.Children {
		out = append(out, c.Descendants()...)
	}
	return out
}

// FindChildrenPlaceholder returns the first ElementChildrenPlaceholder
// node among n's descendants, used by workbench bodies whose geometry
// is the caller-supplied `@children` marker's expansion point.
func (n *Node) FindChildrenPlaceholder() *Node {
	for _, d := range n.Descendants() {
		if d.Kind == ElementChildrenPlaceholder {
			return d
		}
	}
	return nil
}

// DeduceOutputType computes the node's output type bottom-up (spec.md
// §4.6): own-kind contribution combined with the smallest supertype
// over every child, writing the result to Output.Type and returning
// it. Call on the root after evaluation completes, or per-node as
// children finalize.
func (n *Node) DeduceOutputType() OutputType {
	own := ownOutputType(n.Kind, n.Geometry)
	result := own
	for _, c := range n.Children {
		result = combine(result, c.DeduceOutputType())
	}
	n.Output.Type = result
	return result
}

func ownOutputType(kind ElementKind, geom *Geometry) OutputType {
	switch kind {
	case ElementPrimitive2D:
		return OutputGeometry2D
	case ElementPrimitive3D:
		return OutputGeometry3D
	case ElementGroup, ElementWorkpiece, ElementChildrenPlaceholder, ElementTransform, ElementOperation:
		if geom != nil {
			if geom.Dim == 2 {
				return OutputGeometry2D
			}
			return OutputGeometry3D
		}
		return OutputNotDetermined
	default:
		return OutputNotDetermined
	}
}

// ComposeWorldMatrices is the second §4.6 tree pass: sets each node's
// Output.WorldMatrix by composing the parent's already-composed world
// matrix with the node's own local transform (identity unless the node
// is itself an ElementTransform).
func (n *Node) ComposeWorldMatrices(parentWorld AffineTransform) {
	n.Output.WorldMatrix = n.Output.LocalMatrix.Compose(parentWorld)
	for _, c := range n.Children {
		c.ComposeWorldMatrices(n.Output.WorldMatrix)
	}
}

// ApplyResolution is the third §4.6 tree pass: propagates the nearest
// enclosing `resolution` attribute down to every descendant that
// doesn't declare its own.
func (n *Node) ApplyResolution(inherited Resolution) {
	res := inherited
	if v, ok := n.Attribute("resolution"); ok {
		if r, ok := resolutionFromValue(v); ok {
			res = r
		}
	}
	n.Output.Resolution = res
	for _, c := range n.Children {
		c.ApplyResolution(res)
	}
}

func resolutionFromValue(v value.Value) (Resolution, bool) {
	if v.IsInvalid() || v.IsNone() {
		return Resolution{}, false
	}
	return Resolution{Value: v.Num(), Kind: v.QuantityKind(), IsSet: true}, true
}
