package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/srcref"
	"github.com/microcad/ucad/internal/syntax"
)

func TestAssignmentStatementIsStatement(t *testing.T) {
	var s syntax.Statement = &syntax.AssignmentStatement{
		Qualifier: syntax.QualValue,
		Name:      syntax.Identifier{Text: "x"},
		Expr:      &syntax.LiteralExpression{Kind: syntax.LitInteger, Integer: 1},
	}
	as, ok := s.(*syntax.AssignmentStatement)
	assert.True(t, ok)
	assert.Equal(t, "x", as.Name.Text)
}

func TestUseStatementVariants(t *testing.T) {
	name := ident.Parse("a::b::c")

	single := &syntax.UseStatement{Decl: syntax.UseSingle{Name: name}}
	all := &syntax.UseStatement{Decl: syntax.UseAll{Name: name}}
	alias := &syntax.UseStatement{Decl: syntax.UseAliasDecl{Name: name, As: syntax.Identifier{Text: "x"}}}

	_, okSingle := single.Decl.(syntax.UseSingle)
	_, okAll := all.Decl.(syntax.UseAll)
	_, okAlias := alias.Decl.(syntax.UseAliasDecl)
	assert.True(t, okSingle)
	assert.True(t, okAll)
	assert.True(t, okAlias)
}

func TestBinaryOpExpressionCarriesModelShapedFlag(t *testing.T) {
	expr := &syntax.BinaryOpExpression{
		Op:          syntax.OpDifference,
		Left:        &syntax.CallExpression{Name: ident.Parse("box")},
		Right:       &syntax.CallExpression{Name: ident.Parse("sphere")},
		ModelShaped: true,
	}
	assert.True(t, expr.ModelShaped)
	assert.Equal(t, syntax.OpDifference, expr.Op)
}

func TestSourceFileSrcRef(t *testing.T) {
	ref := srcref.None()
	f := &syntax.SourceFile{Name: ident.Parse("main"), Ref: ref}
	assert.Equal(t, ref, f.SrcRef())
}
