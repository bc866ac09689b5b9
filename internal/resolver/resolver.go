package resolver

// This implements the subset of ESM resolution the bundler core depends on:
// relative and absolute path resolution with extension and index probing,
// and bare specifier lookup through node_modules directories, honoring the
// "main" field of a package.json when one is present.
//
// Resolution is memoized by (request, importer directory). The result for an
// identical pair is computed at most once per build generation, no matter
// how many references request it concurrently. Every probed path is declared
// as an input of the cached entry, so creating a previously-missing file
// invalidates exactly the resolutions that probed for it.

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/fs"
)

type ResolveStatus uint8

const (
	// The request did not resolve to anything
	ResolveUnresolvable ResolveStatus = iota

	// The request resolved to exactly one module
	ResolveSingle

	// The request matched several candidates (e.g. multiple extensions);
	// the first one is the primary
	ResolveAlternatives
)

// A ResolveResult is immutable once computed; it is shared between all
// callers that resolved the same (request, context) pair.
type ResolveResult struct {
	Paths  []string
	Status ResolveStatus
}

func unresolvable() ResolveResult {
	return ResolveResult{Status: ResolveUnresolvable}
}

func (r ResolveResult) IsUnresolvable() bool {
	return r.Status == ResolveUnresolvable
}

// Primary returns the resolved module path, or false for the unresolvable
// outcome. For an alternatives outcome this is the first candidate.
func (r ResolveResult) Primary() (string, bool) {
	if r.Status == ResolveUnresolvable {
		return "", false
	}
	return r.Paths[0], true
}

var defaultExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".json"}

type Resolver struct {
	fs         fs.FS
	cache      *cache.TaskCache
	extensions []string
}

func NewResolver(fsys fs.FS, taskCache *cache.TaskCache, extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	return &Resolver{fs: fsys, cache: taskCache, extensions: extensions}
}

// ResolveKey returns the memoization key for a (request, context) pair. The
// graph layer declares it as a dependency of reference computations.
func ResolveKey(request Request, importerDir string) cache.Key {
	return cache.Key{
		Op:  "resolve",
		Arg: fmt.Sprintf("%d\x00%s\x00%s", request.Kind, request.Specifier, importerDir),
	}
}

// EsmResolve resolves a request in the context of the importing module's
// directory. The outcome is a typed result, never an error: an unresolvable
// request is an expected outcome. Errors are reserved for infrastructure
// failures such as an unreadable package.json.
func (r *Resolver) EsmResolve(ctx context.Context, request Request, importerDir string) (ResolveResult, error) {
	return cache.Get(ctx, r.cache, ResolveKey(request, importerDir),
		func(ctx context.Context) (ResolveResult, []string, error) {
			probe := probeFS{fs: r.fs}
			result, err := r.resolve(&probe, request, importerDir)
			return result, probe.probed, err
		})
}

func (r *Resolver) resolve(probe *probeFS, request Request, importerDir string) (ResolveResult, error) {
	switch request.Kind {
	case RequestRelative:
		return r.loadAsFileOrDirectory(probe, path.Join(importerDir, request.Specifier))

	case RequestAbsolute:
		return r.loadAsFileOrDirectory(probe, path.Clean(request.Specifier))

	case RequestModule:
		return r.loadNodeModules(probe, request.Specifier, importerDir)

	default:
		// URI, empty, and dynamic requests are never resolvable here
		return unresolvable(), nil
	}
}

func (r *Resolver) loadAsFileOrDirectory(probe *probeFS, base string) (ResolveResult, error) {
	if result, err := r.loadAsFile(probe, base); err != nil || !result.IsUnresolvable() {
		return result, err
	}
	if probe.dirExists(base) {
		return r.loadAsDirectory(probe, base)
	}
	return unresolvable(), nil
}

func (r *Resolver) loadAsFile(probe *probeFS, base string) (ResolveResult, error) {
	// An exact match wins outright
	if probe.fileExists(base) {
		return ResolveResult{Status: ResolveSingle, Paths: []string{base}}, nil
	}

	var candidates []string
	for _, ext := range r.extensions {
		if probe.fileExists(base + ext) {
			candidates = append(candidates, base+ext)
		}
	}

	switch len(candidates) {
	case 0:
		return unresolvable(), nil
	case 1:
		return ResolveResult{Status: ResolveSingle, Paths: candidates}, nil
	default:
		return ResolveResult{Status: ResolveAlternatives, Paths: candidates}, nil
	}
}

func (r *Resolver) loadAsDirectory(probe *probeFS, dir string) (ResolveResult, error) {
	// "main" field of package.json, if present
	packageJSON := path.Join(dir, "package.json")
	if probe.fileExists(packageJSON) {
		contents, err := probe.readFile(packageJSON)
		if err != nil {
			return unresolvable(), err
		}
		var fields struct {
			Main string `json:"main"`
		}
		if err := json.Unmarshal([]byte(contents), &fields); err != nil {
			return unresolvable(), fmt.Errorf("%s: %w", packageJSON, err)
		}
		if fields.Main != "" {
			main := path.Join(dir, fields.Main)
			if result, err := r.loadAsFile(probe, main); err != nil || !result.IsUnresolvable() {
				return result, err
			}
			if result, err := r.loadIndex(probe, main); err != nil || !result.IsUnresolvable() {
				return result, err
			}
		}
	}

	return r.loadIndex(probe, dir)
}

func (r *Resolver) loadIndex(probe *probeFS, dir string) (ResolveResult, error) {
	return r.loadAsFile(probe, path.Join(dir, "index"))
}

func (r *Resolver) loadNodeModules(probe *probeFS, specifier string, importerDir string) (ResolveResult, error) {
	for dir := importerDir; ; dir = path.Dir(dir) {
		if path.Base(dir) != "node_modules" {
			base := path.Join(dir, "node_modules", specifier)
			if result, err := r.loadAsFileOrDirectory(probe, base); err != nil || !result.IsUnresolvable() {
				return result, err
			}
		}
		if dir == path.Dir(dir) {
			return unresolvable(), nil
		}
	}
}

// probeFS records every path whose existence or contents influenced a
// resolution, so the memoized entry can declare them as inputs.
type probeFS struct {
	fs     fs.FS
	mutex  sync.Mutex
	probed []string
}

func (p *probeFS) record(path string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.probed = append(p.probed, path)
}

func (p *probeFS) fileExists(path string) bool {
	p.record(path)
	return p.fs.FileExists(path)
}

func (p *probeFS) dirExists(path string) bool {
	p.record(path)
	return p.fs.DirExists(path)
}

func (p *probeFS) readFile(path string) (string, error) {
	p.record(path)
	return p.fs.ReadFile(path)
}
