package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcad/ucad/internal/model"
)

func TestAppendSetsParentAndRejectsReparenting(t *testing.T) {
	parent := model.Group(model.Origin{})
	child := model.Group(model.Origin{})

	require.NoError(t, parent.Append(child))
	assert.Same(t, parent, child.Parent)

	other := model.Group(model.Origin{})
	err := other.Append(child)
	require.Error(t, err)
	merr, ok := err.(*model.Error)
	require.True(t, ok)
	assert.Equal(t, model.ErrAlreadyParented, merr.Kind)
}

func TestDetachClearsParentAndRemovesFromChildren(t *testing.T) {
	parent := model.Group(model.Origin{})
	child := model.Group(model.Origin{})
	require.NoError(t, parent.Append(child))

	child.Detach()
	assert.Nil(t, child.Parent)
	assert.Empty(t, parent.Children)
}

func TestMakeDeepCopyIsIndependent(t *testing.T) {
	parent := model.Group(model.Origin{})
	child := model.Group(model.Origin{})
	require.NoError(t, parent.Append(child))

	cp := parent.MakeDeepCopy()
	require.Len(t, cp.Children, 1)
	assert.NotSame(t, parent.Children[0], cp.Children[0])

	cp.Children[0].Detach()
	assert.Len(t, parent.Children, 1, "detaching the copy's child must not affect the original")
}

func TestDeduceOutputTypeCombinesChildren(t *testing.T) {
	root := model.Group(model.Origin{})
	prim := model.NewBuilder(model.ElementPrimitive2D, model.Origin{})
	child, err := prim.Build()
	require.NoError(t, err)
	child.Geometry = &model.Geometry{Dim: 2, Name: "circle"}

	require.NoError(t, root.Append(child))
	assert.Equal(t, model.OutputGeometry2D, root.DeduceOutputType())
}

func TestDeduceOutputTypeMixedDimensionalityIsInvalid(t *testing.T) {
	root := model.Group(model.Origin{})
	two := model.New(model.ElementPrimitive2D, model.Origin{})
	two.Geometry = &model.Geometry{Dim: 2, Name: "circle"}
	three := model.New(model.ElementPrimitive3D, model.Origin{})
	three.Geometry = &model.Geometry{Dim: 3, Name: "sphere"}

	require.NoError(t, root.Append(two))
	require.NoError(t, root.Append(three))
	assert.Equal(t, model.OutputInvalidMixed, root.DeduceOutputType())
}

func TestFindChildrenPlaceholder(t *testing.T) {
	root := model.Group(model.Origin{})
	placeholder := model.New(model.ElementChildrenPlaceholder, model.Origin{})
	require.NoError(t, root.Append(placeholder))

	assert.Same(t, placeholder, root.FindChildrenPlaceholder())
}

func TestRendererCachesPrimitiveByKey(t *testing.T) {
	calls := 0
	r := model.NewRenderer(func(n *model.Node) (*model.Geometry, error) {
		calls++
		return &model.Geometry{Dim: 2, Name: "box"}, nil
	}, nil, nil)

	n := model.New(model.ElementPrimitive2D, model.Origin{})
	_, err := r.Render(n)
	require.NoError(t, err)
	_, err = r.Render(n)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second render of the same node+resolution should hit the cache")
}
