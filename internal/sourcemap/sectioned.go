package sourcemap

import (
	"fmt"
	"strings"
)

// The SourceMap v3 spec has a "sectioned" source map specifically designed
// for concatenation in post-processing steps. The format is a "sections"
// array where each item carries an "offset" object and a "map" object. A
// section's map applies from its offset until the start of the next section.
// This is by far the simplest way to combine the source maps of many chunk
// items into a single map file.

type Section struct {
	Offset SourcePos
	Map    *SourceMap
}

type SectionedSourceMap struct {
	Sections []Section
}

func (sm *SectionedSourceMap) String() string {
	sb := strings.Builder{}
	sb.WriteString("{\"version\":3,\"sections\":[")
	for i, section := range sm.Sections {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "{\"offset\":{\"line\":%d,\"column\":%d},\"map\":%s}",
			section.Offset.Line, section.Offset.Column, section.Map.String())
	}
	sb.WriteString("]}")
	return sb.String()
}
