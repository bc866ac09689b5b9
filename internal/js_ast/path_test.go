package js_ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call builds import("x", extra...) the way the scanner lifts it.
func call(args ...Expr) *AST {
	return &AST{Parts: []Part{
		{Raw: "before"},
		{Expr: &Expr{Data: &ECall{
			Target: Expr{Data: &EIdentifier{Name: "import"}},
			Args:   args,
		}}},
	}}
}

func TestNodeAt(t *testing.T) {
	ast := call(
		Expr{Data: &EString{Value: "x"}},
		Expr{Data: &ESpread{Value: Expr{Data: &EIdentifier{Name: "rest"}}}},
	)

	node, err := ast.NodeAt(Path{1})
	require.NoError(t, err)
	assert.IsType(t, &ECall{}, node.Data)

	node, err = ast.NodeAt(Path{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "import", node.Data.(*EIdentifier).Name)

	node, err = ast.NodeAt(Path{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "x", node.Data.(*EString).Value)

	// Descend through the spread to its value
	node, err = ast.NodeAt(Path{1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, "rest", node.Data.(*EIdentifier).Name)
}

func TestNodeAtErrors(t *testing.T) {
	ast := call(Expr{Data: &EString{Value: "x"}})

	_, err := ast.NodeAt(Path{})
	assert.Error(t, err)

	_, err = ast.NodeAt(Path{5})
	assert.Error(t, err)

	// Part 0 is a raw segment, not an expression
	_, err = ast.NodeAt(Path{0})
	assert.Error(t, err)

	_, err = ast.NodeAt(Path{1, 9})
	assert.Error(t, err)
}

func TestApplyVisitorsMutatesAddressedCall(t *testing.T) {
	ast := call(Expr{Data: &EString{Value: "x"}})

	err := ast.ApplyVisitors([]Visitor{{
		Path: Path{1},
		Visit: func(c *ECall) {
			c.Target = Expr{Data: &EIdentifier{Name: "loader"}}
		},
	}})
	require.NoError(t, err)

	node, err := ast.NodeAt(Path{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "loader", node.Data.(*EIdentifier).Name)
}

func TestApplyVisitorsRejectsNonCallTarget(t *testing.T) {
	ast := call(Expr{Data: &EString{Value: "x"}})

	err := ast.ApplyVisitors([]Visitor{{
		Path:  Path{1, 1},
		Visit: func(*ECall) {},
	}})
	assert.ErrorContains(t, err, "does not address a call expression")
}
