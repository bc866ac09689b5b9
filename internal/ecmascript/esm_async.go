package ecmascript

import (
	"context"
	"fmt"

	"github.com/bundlekit/bundlekit/internal/chunk"
	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/resolver"
	"github.com/bundlekit/bundlekit/internal/runtime"
)

// EsmAsyncAssetReference is a dynamic import() edge. It is chunkable and
// async-loadable, and its code generation rewrites the call site depending
// on how the request resolved and where chunking placed the target:
//
//   - unresolvable: the call becomes a rejected promise carrying a
//     synthesized error, so a broken dynamic import fails at runtime without
//     failing the build
//   - internal: the call becomes loader(moduleID)(importBinding)
//   - external: the call keeps its callee and gets the rewritten specifier
type EsmAsyncAssetReference struct {
	graph       *ModuleGraph
	request     resolver.Request
	importerDir string
	path        js_ast.Path
}

func (r *EsmAsyncAssetReference) ResolveReference(ctx context.Context) (resolver.ResolveResult, error) {
	return r.graph.resolver.EsmResolve(ctx, r.request, r.importerDir)
}

func (r *EsmAsyncAssetReference) IsChunkable() bool {
	return true
}

func (r *EsmAsyncAssetReference) IsLoadedAsync() bool {
	return true
}

func (r *EsmAsyncAssetReference) Description() string {
	if r.request.Kind == resolver.RequestDynamic {
		return "dynamic import <expression>"
	}
	return fmt.Sprintf("dynamic import %s", r.request.Specifier)
}

func (r *EsmAsyncAssetReference) Request() resolver.Request {
	return r.request
}

func (r *EsmAsyncAssetReference) CodeGeneration(ctx context.Context, chunkingContext chunk.ChunkingContext) (*CodeGeneration, error) {
	result, err := r.ResolveReference(ctx)
	if err != nil {
		return nil, err
	}
	pm := chunk.ResolveRequest(chunkingContext, result, chunk.EsmAsync)

	var visit func(*js_ast.ECall)
	if pm.IsInvalid() {
		visit = func(call *js_ast.ECall) {
			oldArgs := call.Args
			call.Args = nil

			// The message depends on the shape of the original argument list
			var message js_ast.Expr
			switch {
			case len(oldArgs) == 0:
				message = str("import() expressions require at least 1 argument")

			case isSpread(oldArgs[0]):
				// Kept for parity with parsers that cannot report the spread
				// argument's expression
				message = str("spread operator is illegal in import() expressions.")

			default:
				message = concat(concat(str(`could not resolve "`), oldArgs[0]), str(`" into a module`))
			}

			call.Target = js_ast.Expr{Data: &js_ast.EDot{
				Target: js_ast.Expr{Data: &js_ast.EIdentifier{Name: "Promise"}},
				Name:   "reject",
			}}
			call.Args = []js_ast.Expr{{Data: &js_ast.ENew{
				Target: js_ast.Expr{Data: &js_ast.EIdentifier{Name: "Error"}},
				Args:   []js_ast.Expr{message},
			}}}
		}
	} else {
		visit = func(call *js_ast.ECall) {
			oldArgs := call.Args
			call.Args = nil

			var specifier js_ast.Expr
			if len(oldArgs) > 0 && !isSpread(oldArgs[0]) {
				specifier = pm.Apply(oldArgs[0])
			} else {
				specifier = pm.Create()
			}

			if pm.IsInternalImport() {
				call.Target = js_ast.Expr{Data: &js_ast.ECall{
					Target: js_ast.Expr{Data: &js_ast.EIdentifier{Name: runtime.RequireRef}},
					Args:   []js_ast.Expr{specifier},
				}}
				call.Args = []js_ast.Expr{{Data: &js_ast.EIdentifier{Name: runtime.ImportRef}}}
			} else {
				call.Args = []js_ast.Expr{specifier}
			}
		}
	}

	return &CodeGeneration{
		Visitors: []js_ast.Visitor{{Path: r.path, Visit: visit}},
	}, nil
}

func isSpread(expr js_ast.Expr) bool {
	_, ok := expr.Data.(*js_ast.ESpread)
	return ok
}

func str(value string) js_ast.Expr {
	return js_ast.Expr{Data: &js_ast.EString{Value: value}}
}

func concat(left js_ast.Expr, right js_ast.Expr) js_ast.Expr {
	return js_ast.Expr{Data: &js_ast.EBinary{Op: js_ast.BinOpAdd, Left: left, Right: right}}
}
