package code

import (
	"github.com/bundlekit/bundlekit/internal/helpers"
	"github.com/bundlekit/bundlekit/internal/sourcemap"
)

// Code accumulates the output of one rendering pass: ordered byte fragments,
// some original (carrying a source map) and some synthetic glue, plus the
// byte offsets where attribution changes. A Code instance is exclusively
// owned by the single pass building it; it is never shared across writers.
type Code struct {
	joiner helpers.Joiner

	// A mapping of byte offset in the output to the source map that applies
	// from that offset on. A nil map means the bytes are synthetic.
	mappings []mapping
}

type mapping struct {
	byteOffset uint32
	sourceMap  *sourcemap.SourceMap
}

// Setting breakpoints on synthetic code can cause weird behaviors because
// debuggers will treat the location as belonging to the previous original
// code section. By inserting an empty source map when reaching a synthetic
// section directly after an original section, we tell the debugger that the
// previous map ended at this point.
func (c *Code) pushMap(sm *sourcemap.SourceMap) {
	if sm == nil && (len(c.mappings) == 0 || c.mappings[len(c.mappings)-1].sourceMap == nil) {
		// No reason to push an empty map directly after an empty map
		return
	}

	if sm == nil && len(c.mappings) == 0 {
		panic("internal error: the first mapping is never synthetic")
	}

	c.mappings = append(c.mappings, mapping{byteOffset: c.joiner.Length(), sourceMap: sm})
}

// PushBytes appends synthetic runtime code without an associated source map.
func (c *Code) PushBytes(data []byte) {
	c.pushMap(nil)
	c.joiner.AddBytes(data)
}

// PushString is PushBytes for string data.
func (c *Code) PushString(data string) {
	c.pushMap(nil)
	c.joiner.AddString(data)
}

// PushSource appends original user code with an optional source map. Passing
// a nil map is no different from pushing synthetic code.
func (c *Code) PushSource(data []byte, sm *sourcemap.SourceMap) {
	c.pushMap(sm)
	c.joiner.AddBytes(data)
}

// PushCode splices an already-built Code, both its bytes and its mappings,
// into this one.
func (c *Code) PushCode(prebuilt *Code) {
	if len(prebuilt.mappings) > 0 {
		if prebuilt.mappings[0].byteOffset > 0 {
			// The prebuilt code starts with a synthetic section, so the
			// current section's mappings may need to be ended first
			c.pushMap(nil)
		}

		offset := c.joiner.Length()
		for _, m := range prebuilt.mappings {
			c.mappings = append(c.mappings, mapping{byteOffset: m.byteOffset + offset, sourceMap: m.sourceMap})
		}
	} else {
		c.pushMap(nil)
	}

	c.joiner.AddBytes(prebuilt.Bytes())
}

// HasSourceMap reports whether any pushed code recorded a mapping.
func (c *Code) HasSourceMap() bool {
	return len(c.mappings) > 0
}

func (c *Code) Len() uint32 {
	return c.joiner.Length()
}

func (c *Code) Bytes() []byte {
	return c.joiner.Done()
}

// GenerateSourceMap combines the maps of all pushed original code into one
// sectioned source map: one section per recorded mapping, positioned by
// advancing a line/column tracker over the bytes between consecutive
// mappings. Synthetic sections get the canonical empty map so that consumers
// don't attribute their bytes to the preceding original file.
func (c *Code) GenerateSourceMap() *sourcemap.SectionedSourceMap {
	buf := c.Bytes()
	pos := sourcemap.SourcePos{}
	lastBytePos := uint32(0)

	sections := make([]sourcemap.Section, 0, len(c.mappings))
	for _, m := range c.mappings {
		pos.Update(buf[lastBytePos:m.byteOffset])
		lastBytePos = m.byteOffset

		sm := m.sourceMap
		if sm == nil {
			sm = sourcemap.Empty()
		}

		sections = append(sections, sourcemap.Section{Offset: pos, Map: sm})
	}

	return &sourcemap.SectionedSourceMap{Sections: sections}
}
