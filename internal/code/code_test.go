package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlekit/bundlekit/internal/sourcemap"
)

func mapForTest(source string) *sourcemap.SourceMap {
	return &sourcemap.SourceMap{
		Sources:  []string{source},
		Mappings: []sourcemap.Mapping{{}},
	}
}

func TestBytesAreConcatenatedInCallOrder(t *testing.T) {
	c := Code{}
	c.PushBytes([]byte("a"))
	c.PushSource([]byte("bb"), mapForTest("bb.js"))
	c.PushString("ccc")
	c.PushSource([]byte("d"), nil)

	assert.Equal(t, "abbcccd", string(c.Bytes()))
}

func TestHasSourceMap(t *testing.T) {
	onlyBytes := Code{}
	onlyBytes.PushBytes([]byte("foo"))
	onlyBytes.PushBytes([]byte("bar"))
	assert.False(t, onlyBytes.HasSourceMap())

	onlyNilSource := Code{}
	onlyNilSource.PushSource([]byte("foo"), nil)
	onlyNilSource.PushSource([]byte("bar"), nil)
	assert.False(t, onlyNilSource.HasSourceMap())

	withMap := Code{}
	withMap.PushBytes([]byte("foo"))
	withMap.PushSource([]byte("bar"), mapForTest("bar.js"))
	assert.True(t, withMap.HasSourceMap())
}

func TestNoAdjacentSyntheticMappings(t *testing.T) {
	c := Code{}
	c.PushSource([]byte("a"), mapForTest("a.js"))
	c.PushBytes([]byte("b"))
	c.PushBytes([]byte("c"))
	c.PushSource([]byte("d"), nil)
	c.PushString("e")

	// Only the section break after "a" is recorded; the rest is suppressed
	require.Len(t, c.mappings, 2)
	assert.Nil(t, c.mappings[1].sourceMap)

	for i := 1; i < len(c.mappings); i++ {
		if c.mappings[i].sourceMap == nil {
			assert.NotNil(t, c.mappings[i-1].sourceMap, "mapping %d", i)
		}
	}
}

func TestPushCodeSplicesMappings(t *testing.T) {
	m1 := mapForTest("m1.js")
	m2 := mapForTest("m2.js")

	a := Code{}
	a.PushSource([]byte("x"), m1)
	a.PushBytes([]byte("y"))

	b := Code{}
	b.PushSource([]byte("z"), m2)

	a.PushCode(&b)

	assert.Equal(t, "xyz", string(a.Bytes()))
	require.Len(t, a.mappings, 3)
	assert.Equal(t, uint32(0), a.mappings[0].byteOffset)
	assert.Same(t, m1, a.mappings[0].sourceMap)
	assert.Equal(t, uint32(1), a.mappings[1].byteOffset)
	assert.Nil(t, a.mappings[1].sourceMap)
	assert.Equal(t, uint32(2), a.mappings[2].byteOffset)
	assert.Same(t, m2, a.mappings[2].sourceMap)
}

func TestPushCodeStartingSyntheticEndsOpenSection(t *testing.T) {
	a := Code{}
	a.PushSource([]byte("x"), mapForTest("x.js"))

	b := Code{}
	b.PushBytes([]byte("glue"))
	b.PushSource([]byte("z"), mapForTest("z.js"))

	a.PushCode(&b)

	assert.Equal(t, "xgluez", string(a.Bytes()))
	require.Len(t, a.mappings, 3)
	assert.Equal(t, uint32(1), a.mappings[1].byteOffset)
	assert.Nil(t, a.mappings[1].sourceMap)
	assert.Equal(t, uint32(5), a.mappings[2].byteOffset)
}

func TestGenerateSourceMapSectionPositions(t *testing.T) {
	c := Code{}
	c.PushSource([]byte("a\n"), mapForTest("a.js"))
	c.PushSource([]byte("b"), mapForTest("b.js"))
	c.PushBytes([]byte(";\nend();\n"))

	sm := c.GenerateSourceMap()
	require.Len(t, sm.Sections, 3)

	assert.Equal(t, sourcemap.SourcePos{Line: 0, Column: 0}, sm.Sections[0].Offset)
	assert.Equal(t, sourcemap.SourcePos{Line: 1, Column: 0}, sm.Sections[1].Offset)
	assert.Equal(t, sourcemap.SourcePos{Line: 1, Column: 1}, sm.Sections[2].Offset)

	// The synthetic section is terminated by the canonical empty map
	assert.True(t, sm.Sections[2].Map.IsEmpty())

	// Section offsets never move backwards
	last := sourcemap.SourcePos{}
	for _, section := range sm.Sections {
		ok := section.Offset.Line > last.Line ||
			(section.Offset.Line == last.Line && section.Offset.Column >= last.Column)
		assert.True(t, ok)
		last = section.Offset
	}
}

func TestGenerateSourceMapOneSectionPerMarker(t *testing.T) {
	c := Code{}
	c.PushSource([]byte("a\n"), mapForTest("a.js"))
	c.PushBytes([]byte("b"))

	sm := c.GenerateSourceMap()
	require.Len(t, sm.Sections, 2)

	// The marker at byte offset 2 of "a\nb" lands on line 1, column 0
	assert.Equal(t, sourcemap.SourcePos{Line: 1, Column: 0}, sm.Sections[1].Offset)
}

func TestSectionedSourceMapSerialization(t *testing.T) {
	c := Code{}
	c.PushSource([]byte("a"), &sourcemap.SourceMap{
		Sources:  []string{"a.js"},
		Mappings: []sourcemap.Mapping{{}},
	})
	c.PushBytes([]byte("b"))

	expected := `{"version":3,"sections":[` +
		`{"offset":{"line":0,"column":0},"map":{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}},` +
		`{"offset":{"line":0,"column":1},"map":{"version":3,"sources":[],"names":[],"mappings":"AAAA"}}]}`
	assert.Equal(t, expected, c.GenerateSourceMap().String())
}
