package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFS(t *testing.T) {
	fsys := MockFS(map[string]string{
		"/src/entry.js":                "import './dep.js'",
		"/src/nested/dep.js":           "export {}",
		"/node_modules/pkg/index.js":   "module.exports = {}",
		"/node_modules/pkg/package.json": `{"main": "index.js"}`,
	})

	contents, err := fsys.ReadFile("/src/entry.js")
	require.NoError(t, err)
	assert.Equal(t, "import './dep.js'", contents)

	_, err = fsys.ReadFile("/src/missing.js")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, fsys.FileExists("/src/nested/dep.js"))
	assert.False(t, fsys.FileExists("/src/nested"))
	assert.True(t, fsys.DirExists("/src/nested"))
	assert.True(t, fsys.DirExists("/node_modules/pkg"))
	assert.False(t, fsys.DirExists("/elsewhere"))
}

func TestMockFSWrite(t *testing.T) {
	fsys := MockFS(map[string]string{"/a.js": "old"}).(WritableFS)
	fsys.WriteFile("/a.js", "new")

	contents, err := fsys.ReadFile("/a.js")
	require.NoError(t, err)
	assert.Equal(t, "new", contents)
}
