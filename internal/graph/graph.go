package graph

// The asset graph is built by side effect of resolution: an asset's
// references are extracted from its content, each reference is resolved in
// the asset's context, and every resolution that names a concrete module
// contributes an edge. Edges are therefore inherently asynchronous, and a
// reference that fails to resolve contributes no edge without failing the
// build.

import (
	"context"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/fs"
	"github.com/bundlekit/bundlekit/internal/resolver"
)

// An Asset is a named, content-bearing unit in the build graph. All three
// operations are side-effect-free and memoized per asset identity; multiple
// modules holding the same asset share one instance.
type Asset interface {
	// Path is the asset's immutable identity
	Path() string

	// Content returns the asset's bytes
	Content(ctx context.Context) (string, error)

	// References returns the assets this asset's references resolve to
	References(ctx context.Context) ([]Asset, error)
}

// An AssetReference is an edge from an asset to whatever a request resolves
// to. Concrete reference kinds additionally implement the capability
// interfaces below; the two capabilities are independent axes.
type AssetReference interface {
	// ResolveReference is a pure function of the reference's stored request
	// and context. It must be stable so the memoized outcome can be shared.
	ResolveReference(ctx context.Context) (resolver.ResolveResult, error)

	// Description identifies the reference for diagnostics. It must not
	// affect graph semantics.
	Description() string
}

// A ChunkableReference's target may be placed in a different delivery unit
// than the referrer.
type ChunkableReference interface {
	AssetReference
	IsChunkable() bool
}

// An AsyncLoadableReference's target requires a runtime-asynchronous load
// path, e.g. a dynamic import.
type AsyncLoadableReference interface {
	AssetReference
	IsLoadedAsync() bool
}

// ContentKey is the memoization key for an asset's content.
func ContentKey(path string) cache.Key {
	return cache.Key{Op: "content", Arg: path}
}

// A SourceAsset is a leaf asset backed by a file. It has content but no
// references of its own; wrapping it in a module asset is what gives it
// reference semantics.
type SourceAsset struct {
	fs    fs.FS
	cache *cache.TaskCache
	path  string
}

func NewSourceAsset(fsys fs.FS, taskCache *cache.TaskCache, path string) *SourceAsset {
	return &SourceAsset{fs: fsys, cache: taskCache, path: path}
}

func (a *SourceAsset) Path() string {
	return a.path
}

func (a *SourceAsset) Content(ctx context.Context) (string, error) {
	return cache.Get(ctx, a.cache, ContentKey(a.path),
		func(ctx context.Context) (string, []string, error) {
			contents, err := a.fs.ReadFile(a.path)
			return contents, []string{a.path}, err
		})
}

func (a *SourceAsset) References(context.Context) ([]Asset, error) {
	return nil, nil
}
