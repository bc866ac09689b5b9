package ecmascript

import (
	"context"
	"path"
	"sync"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/fs"
	"github.com/bundlekit/bundlekit/internal/graph"
	"github.com/bundlekit/bundlekit/internal/js_scanner"
	"github.com/bundlekit/bundlekit/internal/resolver"
)

// A ModuleGraph owns the module assets of one build and the shared
// infrastructure they resolve against. Requesting the same path twice
// returns the same instance, so an asset referenced from many modules is
// shared, not duplicated.
type ModuleGraph struct {
	fs       fs.FS
	cache    *cache.TaskCache
	resolver *resolver.Resolver

	mutex   sync.Mutex
	modules map[string]*ModuleAsset
}

func NewModuleGraph(fsys fs.FS, taskCache *cache.TaskCache, r *resolver.Resolver) *ModuleGraph {
	return &ModuleGraph{
		fs:       fsys,
		cache:    taskCache,
		resolver: r,
		modules:  make(map[string]*ModuleAsset),
	}
}

func (g *ModuleGraph) Cache() *cache.TaskCache {
	return g.cache
}

// ModuleAssetForPath returns the module asset for an absolute path,
// creating it on first use.
func (g *ModuleGraph) ModuleAssetForPath(assetPath string) *ModuleAsset {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if module, ok := g.modules[assetPath]; ok {
		return module
	}
	module := &ModuleAsset{
		graph:  g,
		source: graph.NewSourceAsset(g.fs, g.cache, assetPath),
	}
	g.modules[assetPath] = module
	return module
}

// A ModuleAsset wraps a source asset with ECMAScript module semantics: its
// references are extracted from its content and bridged through resolution
// into graph edges.
type ModuleAsset struct {
	graph  *ModuleGraph
	source graph.Asset
}

func (m *ModuleAsset) Path() string {
	return m.source.Path()
}

func (m *ModuleAsset) Content(ctx context.Context) (string, error) {
	return m.source.Content(ctx)
}

func referencesKey(path string) cache.Key {
	return cache.Key{Op: "references", Arg: path}
}

// Scan extracts the module's import constructs. The result is not memoized:
// each caller gets its own AST snapshot, because code generation mutates the
// tree it is applied to. The scanner is deterministic, so the AST paths
// recorded by ModuleReferences address the same coordinates in any snapshot
// taken from the same content.
func (m *ModuleAsset) Scan(ctx context.Context) (js_scanner.ScanResult, error) {
	contents, err := m.Content(ctx)
	if err != nil {
		return js_scanner.ScanResult{}, err
	}
	return js_scanner.Scan(contents), nil
}

// ModuleReferences returns the module's outgoing references, memoized per
// asset identity.
func (m *ModuleAsset) ModuleReferences(ctx context.Context) ([]graph.AssetReference, error) {
	return cache.Get(ctx, m.graph.cache, referencesKey(m.Path()),
		func(ctx context.Context) ([]graph.AssetReference, []string, error) {
			deps := []string{graph.ContentKey(m.Path()).String()}

			result, err := m.Scan(ctx)
			if err != nil {
				return nil, deps, err
			}

			importerDir := path.Dir(m.Path())
			references := make([]graph.AssetReference, 0, len(result.Records))
			for _, record := range result.Records {
				request := resolver.DynamicRequest()
				if record.IsConstant {
					request = resolver.ParseRequest(record.Specifier)
				}

				if record.Kind == js_scanner.ImportDynamic {
					references = append(references, &EsmAsyncAssetReference{
						graph:       m.graph,
						request:     request,
						importerDir: importerDir,
						path:        record.Path,
					})
				} else {
					references = append(references, &EsmAssetReference{
						graph:       m.graph,
						request:     request,
						importerDir: importerDir,
					})
				}
			}
			return references, deps, nil
		})
}

// References resolves every extracted reference in this module's context and
// returns the assets the resolutions name. An unresolvable reference
// contributes no edge; that is an expected outcome, not a build error.
func (m *ModuleAsset) References(ctx context.Context) ([]graph.Asset, error) {
	assets, err := cache.Get(ctx, m.graph.cache, cache.Key{Op: "edges", Arg: m.Path()},
		func(ctx context.Context) ([]*ModuleAsset, []string, error) {
			deps := []string{referencesKey(m.Path()).String()}

			references, err := m.ModuleReferences(ctx)
			if err != nil {
				return nil, deps, err
			}

			importerDir := path.Dir(m.Path())
			var modules []*ModuleAsset
			for _, reference := range references {
				result, err := reference.ResolveReference(ctx)
				if err != nil {
					return nil, deps, err
				}
				if request, ok := reference.(requestCarrier); ok {
					deps = append(deps, resolver.ResolveKey(request.Request(), importerDir).String())
				}
				if primary, ok := result.Primary(); ok {
					modules = append(modules, m.graph.ModuleAssetForPath(primary))
				}
			}
			return modules, deps, nil
		})
	if err != nil {
		return nil, err
	}

	out := make([]graph.Asset, len(assets))
	for i, asset := range assets {
		out[i] = asset
	}
	return out, nil
}

// requestCarrier lets the edge computation declare its resolution inputs
// without knowing the concrete reference kind.
type requestCarrier interface {
	Request() resolver.Request
}
