package ecmascript

import (
	"context"
	"fmt"
	"path"

	"github.com/bundlekit/bundlekit/internal/chunk"
	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/js_printer"
	"github.com/bundlekit/bundlekit/internal/js_scanner"
	"github.com/bundlekit/bundlekit/internal/logger"
	"github.com/bundlekit/bundlekit/internal/resolver"
	"github.com/bundlekit/bundlekit/internal/runtime"
)

// RewriteStaticImports replaces the static import and re-export statements in
// a scanned snapshot. The output wraps each module body in a function, and an
// import declaration inside a function body is a syntax error, so the
// statements cannot pass through verbatim.
//
// An internal target becomes a synchronous loader call on its module id,
// which preserves evaluation order and side effects. External and
// unresolvable targets are stripped: there is no registered id to load.
// Named bindings are not reproduced either way; binding rewrites belong to
// the transform pipeline, not this core.
func (m *ModuleAsset) RewriteStaticImports(ctx context.Context, scan *js_scanner.ScanResult, chunkingContext chunk.ChunkingContext) error {
	importerDir := path.Dir(m.Path())

	// Back to front, so the raw text before each statement is still at its
	// original offsets when the statement is spliced
	for i := len(scan.Records) - 1; i >= 0; i-- {
		record := scan.Records[i]
		if record.Kind == js_scanner.ImportDynamic {
			continue
		}

		result, err := m.graph.resolver.EsmResolve(ctx, resolver.ParseRequest(record.Specifier), importerDir)
		if err != nil {
			return err
		}
		pm := chunk.ResolveRequest(chunkingContext, result, chunk.Esm)

		replacement := ""
		if pm.IsInternalImport() {
			replacement = fmt.Sprintf("%s(%s)();", runtime.RequireRef, js_printer.PrintExpr(pm.Create()))
		}
		if err := spliceStatement(&scan.AST, record.StatementRange, replacement); err != nil {
			return err
		}
	}
	return nil
}

// spliceStatement replaces a byte range of the original source inside the raw
// part that contains it. The replacement never spans a newline, so generated
// line numbers stay aligned with the original.
func spliceStatement(ast *js_ast.AST, r logger.Range, replacement string) error {
	for i := range ast.Parts {
		part := &ast.Parts[i]
		if part.Expr != nil || r.Loc.Start < part.Range.Loc.Start || r.End() > part.Range.End() {
			continue
		}
		rel := int(r.Loc.Start - part.Range.Loc.Start)
		part.Raw = part.Raw[:rel] + replacement + part.Raw[rel+int(r.Len):]
		return nil
	}
	return fmt.Errorf("statement at offset %d does not fall inside a raw segment", r.Loc.Start)
}
