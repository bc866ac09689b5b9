package bundler

// The bundler walks the asset graph from the entry points, partitions the
// discovered modules into chunks, and renders each chunk through a code
// builder into bytes plus a sectioned source map.
//
// Chunking here is the default policy: each entry point roots a chunk, each
// dynamic-import target roots its own chunk, and a chunk contains its root
// plus the root's static closure. The code-generation contract does not
// depend on this policy; any other partitioning can be expressed through the
// same chunking context.
//
// Static import statements cannot survive inside the function wrapper the
// output uses, so rendering rewrites internal ones to synchronous loader
// calls and strips the rest. That preserves evaluation order and side
// effects; reproducing the named bindings themselves is the transform
// pipeline's concern, not this core's.

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/chunk"
	"github.com/bundlekit/bundlekit/internal/code"
	"github.com/bundlekit/bundlekit/internal/ecmascript"
	"github.com/bundlekit/bundlekit/internal/fs"
	"github.com/bundlekit/bundlekit/internal/graph"
	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/js_printer"
	"github.com/bundlekit/bundlekit/internal/logger"
	"github.com/bundlekit/bundlekit/internal/resolver"
	"github.com/bundlekit/bundlekit/internal/runtime"
	"github.com/bundlekit/bundlekit/internal/sourcemap"
)

type Options struct {
	// Absolute paths of the entry points, in output order
	Entries []string

	// Directory output paths are joined against
	AbsOutputDir string

	// Extension probe order for the resolver; empty means the default
	Extensions []string

	SourceMap bool

	Log zerolog.Logger
}

type OutputFile struct {
	AbsPath  string
	Contents []byte
}

type Bundle struct {
	graph   *ecmascript.ModuleGraph
	log     logger.Log
	options Options

	// Entry modules in options order, then every discovered module
	entries []*ecmascript.ModuleAsset
	modules []*ecmascript.ModuleAsset
}

// ScanBundle discovers the transitive asset graph of the entry points. The
// walk is concurrent; memoization in the task cache guarantees each asset's
// references are computed once no matter how many importers reach it.
func ScanBundle(ctx context.Context, log logger.Log, fsys fs.FS, taskCache *cache.TaskCache, options Options) (*Bundle, error) {
	buildID := uuid.NewString()
	options.Log.Info().Str("build_id", buildID).Strs("entries", options.Entries).Msg("scan started")

	moduleGraph := ecmascript.NewModuleGraph(fsys, taskCache,
		resolver.NewResolver(fsys, taskCache, options.Extensions))

	var mutex sync.Mutex
	visited := make(map[string]bool)

	group, groupCtx := errgroup.WithContext(ctx)
	var visit func(asset graph.Asset)
	visit = func(asset graph.Asset) {
		mutex.Lock()
		if visited[asset.Path()] {
			mutex.Unlock()
			return
		}
		visited[asset.Path()] = true
		mutex.Unlock()

		group.Go(func() error {
			references, err := asset.References(groupCtx)
			if err != nil {
				log.AddMsg(logger.Msg{
					Kind: logger.Error,
					Text: fmt.Sprintf("could not process %q: %s", asset.Path(), err),
				})
				return fmt.Errorf("%s: %w", asset.Path(), err)
			}
			for _, reference := range references {
				visit(reference)
			}
			return nil
		})
	}

	bundle := &Bundle{graph: moduleGraph, log: log, options: options}
	for _, entry := range options.Entries {
		module := moduleGraph.ModuleAssetForPath(entry)
		bundle.entries = append(bundle.entries, module)
		visit(module)
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Fix a deterministic module order: entries first, then the rest of the
	// discovered graph sorted by path
	isEntry := make(map[string]bool, len(options.Entries))
	for _, entry := range options.Entries {
		isEntry[entry] = true
	}
	var rest []string
	for assetPath := range visited {
		if !isEntry[assetPath] {
			rest = append(rest, assetPath)
		}
	}
	sort.Strings(rest)

	bundle.modules = append(bundle.modules, bundle.entries...)
	for _, assetPath := range rest {
		bundle.modules = append(bundle.modules, moduleGraph.ModuleAssetForPath(assetPath))
	}

	options.Log.Info().Str("build_id", buildID).Int("modules", len(bundle.modules)).Msg("scan finished")
	return bundle, nil
}

// A plannedChunk is one delivery unit: a root module plus the root's static
// closure.
type plannedChunk struct {
	root    *ecmascript.ModuleAsset
	members []*ecmascript.ModuleAsset
	isEntry bool
}

// moduleID is the stable id the runtime loader addresses a module by.
func moduleID(assetPath string) string {
	return strings.TrimPrefix(assetPath, "/")
}

func chunkFileName(c plannedChunk) string {
	if c.isEntry {
		return path.Base(c.root.Path())
	}
	return strings.ReplaceAll(moduleID(c.root.Path()), "/", "_")
}

// planChunks partitions the graph: entries root entry chunks, dynamic-import
// targets root async chunks.
func (b *Bundle) planChunks(ctx context.Context) ([]plannedChunk, error) {
	asyncRoots := make(map[string]*ecmascript.ModuleAsset)

	for _, module := range b.modules {
		references, err := module.ModuleReferences(ctx)
		if err != nil {
			return nil, err
		}
		for _, reference := range references {
			async, ok := reference.(graph.AsyncLoadableReference)
			if !ok || !async.IsLoadedAsync() {
				continue
			}
			result, err := reference.ResolveReference(ctx)
			if err != nil {
				return nil, err
			}
			if primary, ok := result.Primary(); ok {
				asyncRoots[primary] = b.graph.ModuleAssetForPath(primary)
			}
		}
	}

	var chunks []plannedChunk
	for _, entry := range b.entries {
		members, err := b.staticClosure(ctx, entry, asyncRoots)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, plannedChunk{root: entry, members: members, isEntry: true})
	}

	var rootPaths []string
	for rootPath := range asyncRoots {
		rootPaths = append(rootPaths, rootPath)
	}
	sort.Strings(rootPaths)
	for _, rootPath := range rootPaths {
		root := asyncRoots[rootPath]
		members, err := b.staticClosure(ctx, root, asyncRoots)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, plannedChunk{root: root, members: members})
	}

	return chunks, nil
}

// staticClosure collects the root and every module reachable from it through
// non-async references, in deterministic order (root first, the rest sorted
// by path). Traversal stops at other chunks' roots.
func (b *Bundle) staticClosure(ctx context.Context, root *ecmascript.ModuleAsset, asyncRoots map[string]*ecmascript.ModuleAsset) ([]*ecmascript.ModuleAsset, error) {
	seen := map[string]bool{root.Path(): true}
	queue := []*ecmascript.ModuleAsset{root}
	var memberPaths []string

	for len(queue) > 0 {
		module := queue[0]
		queue = queue[1:]

		references, err := module.ModuleReferences(ctx)
		if err != nil {
			return nil, err
		}
		for _, reference := range references {
			if async, ok := reference.(graph.AsyncLoadableReference); ok && async.IsLoadedAsync() {
				continue
			}
			result, err := reference.ResolveReference(ctx)
			if err != nil {
				return nil, err
			}
			primary, ok := result.Primary()
			if !ok || seen[primary] {
				continue
			}
			seen[primary] = true
			if _, isRoot := asyncRoots[primary]; isRoot {
				continue
			}
			memberPaths = append(memberPaths, primary)
			queue = append(queue, b.graph.ModuleAssetForPath(primary))
		}
	}

	sort.Strings(memberPaths)
	members := make([]*ecmascript.ModuleAsset, 0, len(memberPaths)+1)
	members = append(members, root)
	for _, memberPath := range memberPaths {
		members = append(members, b.graph.ModuleAssetForPath(memberPath))
	}
	return members, nil
}

// chunkingContextFor builds the placement view one chunk's code generation
// sees: members are in the same unit, other bundled modules are in separate
// units, and everything else is external.
func chunkingContextFor(current plannedChunk, chunks []plannedChunk) chunk.ChunkingContext {
	placements := make(map[string]chunk.Placement)
	moduleIDs := make(map[string]string)

	for _, other := range chunks {
		for _, member := range other.members {
			if _, ok := placements[member.Path()]; !ok {
				placements[member.Path()] = chunk.PlacementSeparateChunk
			}
			moduleIDs[member.Path()] = moduleID(member.Path())
		}
	}
	for _, member := range current.members {
		placements[member.Path()] = chunk.PlacementSameChunk
	}

	return &chunk.MapChunkingContext{Placements: placements, ModuleIDs: moduleIDs}
}

// Compile renders every chunk. The push order into each code builder is
// fixed by the chunk's deterministic member order; the builder itself
// imposes no ordering policy.
func (b *Bundle) Compile(ctx context.Context) ([]OutputFile, error) {
	chunks, err := b.planChunks(ctx)
	if err != nil {
		return nil, err
	}

	var outputs []OutputFile
	for _, planned := range chunks {
		chunkingContext := chunkingContextFor(planned, chunks)

		buffer := &code.Code{}
		if planned.isEntry {
			buffer.PushString(runtime.Code)
		}

		for _, module := range planned.members {
			rendered, moduleMap, err := b.renderModule(ctx, module, chunkingContext)
			if err != nil {
				b.log.AddMsg(logger.Msg{
					Kind: logger.Error,
					Text: fmt.Sprintf("could not compile %q: %s", module.Path(), err),
				})
				return nil, err
			}

			buffer.PushString(fmt.Sprintf("%s(%q, function (module, exports, require) {\n",
				runtime.RegisterRef, moduleID(module.Path())))
			buffer.PushSource(rendered, moduleMap)
			buffer.PushString("\n});\n")
		}

		if planned.isEntry {
			buffer.PushString(fmt.Sprintf("%s(%q)();\n", runtime.RequireRef, moduleID(planned.root.Path())))
		}

		fileName := chunkFileName(planned)
		absPath := path.Join(b.options.AbsOutputDir, fileName)

		if b.options.SourceMap && buffer.HasSourceMap() {
			buffer.PushString(fmt.Sprintf("//# sourceMappingURL=%s.map\n", fileName))
			outputs = append(outputs, OutputFile{
				AbsPath:  absPath + ".map",
				Contents: []byte(buffer.GenerateSourceMap().String()),
			})
		}

		outputs = append(outputs, OutputFile{AbsPath: absPath, Contents: buffer.Bytes()})
		b.options.Log.Debug().Str("chunk", fileName).Int("modules", len(planned.members)).Msg("chunk rendered")
	}

	return outputs, nil
}

// renderModule applies the module's code generation to a fresh AST snapshot
// and prints the result, along with a line-identity source map when source
// maps are enabled. Unresolvable references get a warning pointing at the
// specifier in the original source; the build continues either way.
func (b *Bundle) renderModule(ctx context.Context, module *ecmascript.ModuleAsset, chunkingContext chunk.ChunkingContext) ([]byte, *sourcemap.SourceMap, error) {
	scan, err := module.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	contents, err := module.Content(ctx)
	if err != nil {
		return nil, nil, err
	}
	references, err := module.ModuleReferences(ctx)
	if err != nil {
		return nil, nil, err
	}

	// References are in record order, so each reference's resolution can be
	// paired with the source range its record captured
	source := &logger.Source{PrettyPath: module.Path(), Contents: contents}
	var visitors []js_ast.Visitor
	for i, reference := range references {
		record := scan.Records[i]
		if result, err := reference.ResolveReference(ctx); err != nil {
			return nil, nil, err
		} else if result.IsUnresolvable() && record.IsConstant {
			b.log.AddRangeWarning(source, record.Range,
				fmt.Sprintf("could not resolve %q", record.Specifier))
		}

		generateable, ok := reference.(ecmascript.CodeGenerateable)
		if !ok {
			continue
		}
		generation, err := generateable.CodeGeneration(ctx, chunkingContext)
		if err != nil {
			return nil, nil, err
		}
		visitors = append(visitors, generation.Visitors...)
	}
	if err := scan.AST.ApplyVisitors(visitors); err != nil {
		return nil, nil, err
	}
	if err := module.RewriteStaticImports(ctx, &scan, chunkingContext); err != nil {
		return nil, nil, err
	}

	rendered := js_printer.Print(&scan.AST)

	var moduleMap *sourcemap.SourceMap
	if b.options.SourceMap {
		moduleMap = lineIdentityMap(module.Path(), contents, rendered)
	}
	return rendered, moduleMap, nil
}

// lineIdentityMap maps each generated line to the same line of the original
// source. The rewrites this core performs never add or remove lines, so
// line-level identity holds; column fidelity within rewritten expressions is
// deliberately not promised.
func lineIdentityMap(sourcePath string, original string, rendered []byte) *sourcemap.SourceMap {
	lines := int32(1)
	for _, c := range rendered {
		if c == '\n' {
			lines++
		}
	}

	mappings := make([]sourcemap.Mapping, lines)
	for i := int32(0); i < lines; i++ {
		mappings[i] = sourcemap.Mapping{GeneratedLine: i, OriginalLine: i}
	}

	return &sourcemap.SourceMap{
		Sources:        []string{sourcePath},
		SourcesContent: []string{original},
		Mappings:       mappings,
	}
}
