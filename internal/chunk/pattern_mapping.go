package chunk

import (
	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/resolver"
)

// A PatternMapping is the code-generation-ready description of how to
// rewrite a specifier expression at one call site. It is the single seam
// where "how was it resolved" and "where did chunking put it" combine into
// "what code do we emit".
type PatternMapping struct {
	// The module id for internal rewrites
	moduleID string

	kind patternKind
}

type patternKind uint8

const (
	// The target is unresolvable; the call site becomes a runtime error
	patternInvalid patternKind = iota

	// The target is inside the bundle; the specifier becomes a module id
	// passed to the internal loader
	patternInternal

	// The target stays outside the bundle; the specifier passes through
	// largely unchanged
	patternExternal
)

// ResolveType is the reference kind requesting the mapping.
type ResolveType uint8

const (
	// A static ESM import
	Esm ResolveType = iota

	// A dynamic import() that needs async loading
	EsmAsync
)

// ResolveRequest combines a resolve outcome with the chunking context's
// placement decision. It is total: every (result, type) combination produces
// exactly one variant, defaulting unresolved to invalid.
func ResolveRequest(chunkingContext ChunkingContext, result resolver.ResolveResult, _ ResolveType) PatternMapping {
	primary, ok := result.Primary()
	if !ok {
		return PatternMapping{kind: patternInvalid}
	}

	switch chunkingContext.PlacementOf(primary) {
	case PlacementSameChunk, PlacementSeparateChunk:
		return PatternMapping{kind: patternInternal, moduleID: chunkingContext.ModuleID(primary)}
	default:
		return PatternMapping{kind: patternExternal}
	}
}

func (pm PatternMapping) IsInvalid() bool {
	return pm.kind == patternInvalid
}

func (pm PatternMapping) IsInternalImport() bool {
	return pm.kind == patternInternal
}

// Apply rewrites an existing specifier expression. An internal mapping
// replaces the expression with the target's module id; an external mapping
// leaves the expression untouched.
func (pm PatternMapping) Apply(expr js_ast.Expr) js_ast.Expr {
	if pm.kind == patternInternal {
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EString{Value: pm.moduleID}}
	}
	return expr
}

// Create constructs the mapping's own specifier expression, used when the
// call site supplied no usable expression to apply the mapping to.
func (pm PatternMapping) Create() js_ast.Expr {
	return js_ast.Expr{Data: &js_ast.EString{Value: pm.moduleID}}
}
