package ecmascript

import (
	"context"
	"fmt"

	"github.com/bundlekit/bundlekit/internal/resolver"
)

// EsmAssetReference is a static "import"/"export ... from" edge. Its target
// may be chunked separately, but reaching it never requires a runtime
// asynchronous load.
type EsmAssetReference struct {
	graph       *ModuleGraph
	request     resolver.Request
	importerDir string
}

func (r *EsmAssetReference) ResolveReference(ctx context.Context) (resolver.ResolveResult, error) {
	return r.graph.resolver.EsmResolve(ctx, r.request, r.importerDir)
}

func (r *EsmAssetReference) IsChunkable() bool {
	return true
}

func (r *EsmAssetReference) Description() string {
	return fmt.Sprintf("import %s", r.request.Specifier)
}

func (r *EsmAssetReference) Request() resolver.Request {
	return r.request
}
