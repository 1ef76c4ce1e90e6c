package model

import "fmt"

// CacheKey identifies one rendered geometry by the element that
// produced it and the effective resolution it was rendered at (spec.md
// §4.7: "retrieve from cache keyed by (element_identity, effective
// resolution)").
type CacheKey struct {
	Node       *Node
	Resolution float64
}

// RenderCache memoizes rendered Geometry across render() calls, so a
// re-render after an unrelated edit does not redo untouched subtrees
// (spec.md §3.6's "render() is idempotent given a stable RenderCache").
type RenderCache struct {
	entries map[CacheKey]*Geometry
}

// NewRenderCache creates an empty cache.
func NewRenderCache() *RenderCache { return &RenderCache{entries: map[CacheKey]*Geometry{}} }

func (c *RenderCache) get(key CacheKey) (*Geometry, bool) {
	g, ok := c.entries[key]
	return g, ok
}

func (c *RenderCache) put(key CacheKey, g *Geometry) { c.entries[key] = g }

// GeometryFunc computes the geometry for a primitive node; supplied by
// the external geometry kernel collaborator (spec.md §1's scope cut —
// the kernel itself is out of scope, but render() needs a hook to call
// into it).
type GeometryFunc func(n *Node) (*Geometry, error)

// OperationFunc computes the geometry an Operation node produces from
// its already-rendered children, for a single dimensionality.
type OperationFunc func(op OperationKind, children []*Geometry) (*Geometry, error)

// Renderer walks the model tree computing and caching geometry, per
// spec.md §4.7.
type Renderer struct {
	Primitive GeometryFunc
	Combine   OperationFunc
	Cache     *RenderCache
}

// NewRenderer creates a renderer backed by the given cache (or a fresh
// one if cache is nil) and primitive/operation hooks.
func NewRenderer(primitive GeometryFunc, combine OperationFunc, cache *RenderCache) *Renderer {
	if cache == nil {
		cache = NewRenderCache()
	}
	return &Renderer{Primitive: primitive, Combine: combine, Cache: cache}
}

// Render walks n top-down, producing geometry for every Primitive2D/3D
// node (via the cache) and folding Operation nodes over their
// children's geometry, per spec.md §4.7. It returns the geometry at n
// itself; any other node renders each child in turn and records and
// returns its last child's geometry (nil when it has no children).
func (r *Renderer) Render(n *Node) (*Geometry, error) {
	switch n.Kind {
	case ElementPrimitive2D, ElementPrimitive3D:
		return r.renderPrimitive(n)
	case ElementOperation:
		return r.renderOperation(n)
	default:
		var last *Geometry
		for _, c := range n.Children {
			g, err := r.Render(c)
			if err != nil {
				return nil, err
			}
			last = g
		}
		n.Output.Geometry = last
		return last, nil
	}
}

func (r *Renderer) renderPrimitive(n *Node) (*Geometry, error) {
	key := CacheKey{Node: n, Resolution: n.Output.Resolution.Value}
	if g, ok := r.Cache.get(key); ok {
		n.Output.Geometry = g
		return g, nil
	}
	if r.Primitive == nil {
		return nil, fmt.Errorf("model: no geometry kernel configured for %s", n.Kind)
	}
	g, err := r.Primitive(n)
	if err != nil {
		return nil, err
	}
	r.Cache.put(key, g)
	n.Output.Geometry = g
	return g, nil
}

func (r *Renderer) renderOperation(n *Node) (*Geometry, error) {
	children := make([]*Geometry, 0, len(n.Children))
	for _, c := range n.Children {
		g, err := r.Render(c)
		if err != nil {
			return nil, err
		}
		if g != nil {
			children = append(children, g)
		}
	}
	if r.Combine == nil {
		return nil, fmt.Errorf("model: no operation kernel configured for %s", n.OpKind)
	}
	g, err := r.Combine(n.OpKind, children)
	if err != nil {
		return nil, err
	}
	n.Output.Geometry = g
	return g, nil
}

// FetchBounds2D/3D collect the rendered geometry of n and of every
// descendant whose geometry has the given dimensionality (spec.md
// §4.7). No extent math and no world-matrix transform is applied here;
// the external geometry kernel owns both.
func (n *Node) FetchBounds2D() []*Geometry { return n.fetchBoundsDim(2) }
func (n *Node) FetchBounds3D() []*Geometry { return n.fetchBoundsDim(3) }

func (n *Node) fetchBoundsDim(dim int) []*Geometry {
	var out []*Geometry
	for _, d := range n.Descendants() {
		if d.Output.Geometry != nil && d.Output.Geometry.Dim == dim {
			out = append(out, d.Output.Geometry)
		}
	}
	return out
}
