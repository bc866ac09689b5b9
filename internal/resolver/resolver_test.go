package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/fs"
)

func TestParseRequest(t *testing.T) {
	assert.Equal(t, RequestRelative, ParseRequest("./foo").Kind)
	assert.Equal(t, RequestRelative, ParseRequest("../foo/bar.js").Kind)
	assert.Equal(t, RequestRelative, ParseRequest(".").Kind)
	assert.Equal(t, RequestRelative, ParseRequest("..").Kind)
	assert.Equal(t, RequestAbsolute, ParseRequest("/abs/path.js").Kind)
	assert.Equal(t, RequestModule, ParseRequest("react").Kind)
	assert.Equal(t, RequestModule, ParseRequest("@scope/pkg/sub").Kind)
	assert.Equal(t, RequestModule, ParseRequest(".hidden").Kind)
	assert.Equal(t, RequestURI, ParseRequest("https://cdn.example/mod.js").Kind)
	assert.Equal(t, RequestURI, ParseRequest("data:text/javascript,export{}").Kind)
	assert.Equal(t, RequestEmpty, ParseRequest("").Kind)
	assert.Equal(t, RequestDynamic, DynamicRequest().Kind)
}

func testResolver(files map[string]string) *Resolver {
	return NewResolver(fs.MockFS(files), cache.New(), nil)
}

func TestResolveRelative(t *testing.T) {
	r := testResolver(map[string]string{
		"/src/entry.js":     "",
		"/src/exact.js":     "",
		"/src/dir/index.js": "",
	})
	ctx := context.Background()

	result, err := r.EsmResolve(ctx, ParseRequest("./exact.js"), "/src")
	require.NoError(t, err)
	primary, ok := result.Primary()
	require.True(t, ok)
	assert.Equal(t, "/src/exact.js", primary)

	// Extension probing
	result, err = r.EsmResolve(ctx, ParseRequest("./exact"), "/src")
	require.NoError(t, err)
	primary, _ = result.Primary()
	assert.Equal(t, "/src/exact.js", primary)

	// Index resolution
	result, err = r.EsmResolve(ctx, ParseRequest("./dir"), "/src")
	require.NoError(t, err)
	primary, _ = result.Primary()
	assert.Equal(t, "/src/dir/index.js", primary)

	// Unresolvable is an outcome, not an error
	result, err = r.EsmResolve(ctx, ParseRequest("./missing"), "/src")
	require.NoError(t, err)
	assert.True(t, result.IsUnresolvable())
}

func TestResolveAlternatives(t *testing.T) {
	r := testResolver(map[string]string{
		"/src/dual.js":   "",
		"/src/dual.json": "",
	})

	result, err := r.EsmResolve(context.Background(), ParseRequest("./dual"), "/src")
	require.NoError(t, err)
	assert.Equal(t, ResolveAlternatives, result.Status)
	assert.Equal(t, []string{"/src/dual.js", "/src/dual.json"}, result.Paths)

	primary, ok := result.Primary()
	require.True(t, ok)
	assert.Equal(t, "/src/dual.js", primary)
}

func TestResolveNodeModules(t *testing.T) {
	r := testResolver(map[string]string{
		"/proj/src/deep/a.js":                     "",
		"/proj/node_modules/pkg/package.json":     `{"main": "lib/main.js"}`,
		"/proj/node_modules/pkg/lib/main.js":      "",
		"/proj/node_modules/plain/index.js":       "",
		"/node_modules/outer/index.js":            "",
		"/proj/node_modules/@scope/pkg/index.mjs": "",
	})
	ctx := context.Background()

	// package.json "main"
	result, err := r.EsmResolve(ctx, ParseRequest("pkg"), "/proj/src/deep")
	require.NoError(t, err)
	primary, _ := result.Primary()
	assert.Equal(t, "/proj/node_modules/pkg/lib/main.js", primary)

	// index fallback
	result, err = r.EsmResolve(ctx, ParseRequest("plain"), "/proj/src/deep")
	require.NoError(t, err)
	primary, _ = result.Primary()
	assert.Equal(t, "/proj/node_modules/plain/index.js", primary)

	// scoped package
	result, err = r.EsmResolve(ctx, ParseRequest("@scope/pkg"), "/proj/src/deep")
	require.NoError(t, err)
	primary, _ = result.Primary()
	assert.Equal(t, "/proj/node_modules/@scope/pkg/index.mjs", primary)

	// walking past the project root
	result, err = r.EsmResolve(ctx, ParseRequest("outer"), "/proj/src/deep")
	require.NoError(t, err)
	primary, _ = result.Primary()
	assert.Equal(t, "/node_modules/outer/index.js", primary)

	result, err = r.EsmResolve(ctx, ParseRequest("nonexistent"), "/proj/src/deep")
	require.NoError(t, err)
	assert.True(t, result.IsUnresolvable())
}

func TestResolveNeverResolvableKinds(t *testing.T) {
	r := testResolver(map[string]string{})
	ctx := context.Background()

	for _, request := range []Request{
		ParseRequest("https://cdn.example/mod.js"),
		ParseRequest(""),
		DynamicRequest(),
	} {
		result, err := r.EsmResolve(ctx, request, "/src")
		require.NoError(t, err)
		assert.True(t, result.IsUnresolvable(), "kind %v", request.Kind)
	}
}

func TestResolveIsMemoized(t *testing.T) {
	files := map[string]string{"/src/a.js": ""}
	taskCache := cache.New()
	r := NewResolver(fs.MockFS(files), taskCache, nil)
	ctx := context.Background()

	first, err := r.EsmResolve(ctx, ParseRequest("./a"), "/src")
	require.NoError(t, err)
	entries := taskCache.Len()

	second, err := r.EsmResolve(ctx, ParseRequest("./a"), "/src")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, entries, taskCache.Len())
}

func TestResolveInvalidationOnFileCreation(t *testing.T) {
	fsys := fs.MockFS(map[string]string{"/src/entry.js": ""}).(fs.WritableFS)
	taskCache := cache.New()
	r := NewResolver(fsys, taskCache, nil)
	ctx := context.Background()

	result, err := r.EsmResolve(ctx, ParseRequest("./new"), "/src")
	require.NoError(t, err)
	assert.True(t, result.IsUnresolvable())

	// Creating the file and invalidating its path retriggers resolution
	// because the miss was declared as a probed input
	fsys.WriteFile("/src/new.js", "")
	taskCache.Invalidate("/src/new.js")

	result, err = r.EsmResolve(ctx, ParseRequest("./new"), "/src")
	require.NoError(t, err)
	primary, ok := result.Primary()
	require.True(t, ok)
	assert.Equal(t, "/src/new.js", primary)
}
