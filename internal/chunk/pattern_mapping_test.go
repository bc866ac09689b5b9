package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/js_printer"
	"github.com/bundlekit/bundlekit/internal/resolver"
)

func TestResolveRequestIsTotal(t *testing.T) {
	chunkingContext := &MapChunkingContext{
		Placements: map[string]Placement{
			"/in/same.js":  PlacementSameChunk,
			"/in/split.js": PlacementSeparateChunk,
		},
		ModuleIDs: map[string]string{
			"/in/same.js":  "same",
			"/in/split.js": "split",
		},
	}

	unresolved := resolver.ResolveResult{Status: resolver.ResolveUnresolvable}
	single := func(path string) resolver.ResolveResult {
		return resolver.ResolveResult{Status: resolver.ResolveSingle, Paths: []string{path}}
	}
	alternatives := resolver.ResolveResult{
		Status: resolver.ResolveAlternatives,
		Paths:  []string{"/in/same.js", "/in/split.js"},
	}

	for _, resolveType := range []ResolveType{Esm, EsmAsync} {
		assert.True(t, ResolveRequest(chunkingContext, unresolved, resolveType).IsInvalid())

		pm := ResolveRequest(chunkingContext, single("/in/same.js"), resolveType)
		assert.True(t, pm.IsInternalImport())

		pm = ResolveRequest(chunkingContext, single("/in/split.js"), resolveType)
		assert.True(t, pm.IsInternalImport())

		pm = ResolveRequest(chunkingContext, single("/outside.js"), resolveType)
		assert.False(t, pm.IsInvalid())
		assert.False(t, pm.IsInternalImport())

		// Alternatives map through their primary candidate
		pm = ResolveRequest(chunkingContext, alternatives, resolveType)
		assert.True(t, pm.IsInternalImport())
	}
}

func TestApplyAndCreate(t *testing.T) {
	chunkingContext := &MapChunkingContext{
		Placements: map[string]Placement{"/in/a.js": PlacementSameChunk},
		ModuleIDs:  map[string]string{"/in/a.js": "a"},
	}
	single := resolver.ResolveResult{Status: resolver.ResolveSingle, Paths: []string{"/in/a.js"}}

	internal := ResolveRequest(chunkingContext, single, EsmAsync)
	arg := js_ast.Expr{Data: &js_ast.EString{Value: "./a.js"}}
	assert.Equal(t, `"a"`, string(js_printer.PrintExpr(internal.Apply(arg))))
	assert.Equal(t, `"a"`, string(js_printer.PrintExpr(internal.Create())))

	external := ResolveRequest(chunkingContext, resolver.ResolveResult{
		Status: resolver.ResolveSingle,
		Paths:  []string{"/cdn/b.js"},
	}, EsmAsync)
	assert.Equal(t, `"./a.js"`, string(js_printer.PrintExpr(external.Apply(arg))))
}
