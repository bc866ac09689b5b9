package ecmascript

import (
	"context"

	"github.com/bundlekit/bundlekit/internal/chunk"
	"github.com/bundlekit/bundlekit/internal/js_ast"
)

// A CodeGeneration is the result of one reference's code-generation step: a
// list of visitors, each addressing the exact AST coordinate recorded when
// the reference was created. The visitors mutate disjoint nodes, so their
// relative order across references is not significant; the caller fixes the
// output order by how it pushes rendered fragments into a code builder.
type CodeGeneration struct {
	Visitors []js_ast.Visitor
}

// CodeGenerateable is implemented by reference kinds that rewrite their call
// sites once the chunking policy has placed their targets.
type CodeGenerateable interface {
	CodeGeneration(ctx context.Context, chunkingContext chunk.ChunkingContext) (*CodeGeneration, error)
}
