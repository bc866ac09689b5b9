package sourcemap

import (
	"bytes"

	"github.com/bundlekit/bundlekit/internal/helpers"
)

type Mapping struct {
	GeneratedLine   int32 // 0-based
	GeneratedColumn int32 // 0-based count of UTF-16 code units

	SourceIndex    int32 // 0-based
	OriginalLine   int32 // 0-based
	OriginalColumn int32 // 0-based count of UTF-16 code units
}

// A SourceMap is a standard (non-sectioned) source map: the "map" half of a
// section in the v3 "sections" format, or a whole map file on its own.
type SourceMap struct {
	Sources        []string
	SourcesContent []string
	Names          []string
	Mappings       []Mapping
}

// Find returns the last mapping at or before the given generated position, or
// nil if the position precedes every mapping on its line.
func (sm *SourceMap) Find(line int32, column int32) *Mapping {
	mappings := sm.Mappings

	// Binary search
	count := len(mappings)
	index := 0
	for count > 0 {
		step := count / 2
		i := index + step
		mapping := mappings[i]
		if mapping.GeneratedLine < line || (mapping.GeneratedLine == line && mapping.GeneratedColumn <= column) {
			index = i + 1
			count -= step + 1
		} else {
			count = step
		}
	}

	if index > 0 {
		mapping := &mappings[index-1]

		// Match the behavior of the popular "source-map" library from Mozilla
		if mapping.GeneratedLine == line {
			return mapping
		}
	}
	return nil
}

// Empty returns the canonical map with no source attribution: no sources and
// a single degenerate mapping. Emitting it after an original section tells a
// consumer that the previous section's attribution ends there. It never
// conveys a real position.
func Empty() *SourceMap {
	return &SourceMap{Mappings: []Mapping{{}}}
}

// IsEmpty reports whether the map carries no source attribution at all.
func (sm *SourceMap) IsEmpty() bool {
	return len(sm.Sources) == 0
}

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

// A single base 64 digit can contain 6 bits of data. For the base 64 variable
// length quantities we use in the source map spec, the first bit is the sign,
// the next four bits are the actual value, and the 6th bit is the continuation
// bit. The continuation bit tells us whether there are more digits in this
// value following this digit.
//
//	Continuation
//	|    Sign
//	|    |
//	V    V
//	101011
func encodeVLQ(encoded []byte, value int32) []byte {
	var vlq int32
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}

	// Handle the common case
	if (vlq >> 5) == 0 {
		return append(encoded, base64[vlq&31])
	}

	for {
		digit := vlq & 31
		vlq >>= 5

		// If there are still more digits in this value, we must make sure the
		// continuation bit is marked
		if vlq != 0 {
			digit |= 32
		}

		encoded = append(encoded, base64[digit])

		if vlq == 0 {
			break
		}
	}

	return encoded
}

func DecodeVLQ(encoded []byte, start int) (int32, int) {
	shift := 0
	var vlq int32

	for start < len(encoded) {
		index := int32(bytes.IndexByte(base64, encoded[start]))
		if index < 0 {
			break
		}

		vlq |= (index & 31) << shift
		start++
		shift += 5

		// Stop if there's no continuation bit
		if (index & 32) == 0 {
			break
		}
	}

	value := vlq >> 1
	if (vlq & 1) != 0 {
		value = -value
	}
	return value, start
}

// EncodeMappings serializes mappings into the semicolon/comma VLQ delta
// format from the source map specification.
func EncodeMappings(mappings []Mapping) []byte {
	encoded := []byte{}
	var lastLine, lastColumn, lastSourceIndex, lastOriginalLine, lastOriginalColumn int32
	needsComma := false

	for _, mapping := range mappings {
		for lastLine < mapping.GeneratedLine {
			encoded = append(encoded, ';')
			lastLine++
			lastColumn = 0
			needsComma = false
		}

		if needsComma {
			encoded = append(encoded, ',')
		}
		needsComma = true

		encoded = encodeVLQ(encoded, mapping.GeneratedColumn-lastColumn)
		lastColumn = mapping.GeneratedColumn

		encoded = encodeVLQ(encoded, mapping.SourceIndex-lastSourceIndex)
		lastSourceIndex = mapping.SourceIndex

		encoded = encodeVLQ(encoded, mapping.OriginalLine-lastOriginalLine)
		lastOriginalLine = mapping.OriginalLine

		encoded = encodeVLQ(encoded, mapping.OriginalColumn-lastOriginalColumn)
		lastOriginalColumn = mapping.OriginalColumn
	}

	return encoded
}

// String serializes the map as JSON. Quoting goes through the same helper as
// generated JavaScript so the output is stable across both uses.
func (sm *SourceMap) String() string {
	buffer := []byte("{\"version\":3,\"sources\":[")
	for i, source := range sm.Sources {
		if i > 0 {
			buffer = append(buffer, ',')
		}
		buffer = append(buffer, helpers.QuoteForJS(source)...)
	}

	if sm.SourcesContent != nil {
		buffer = append(buffer, "],\"sourcesContent\":["...)
		for i, content := range sm.SourcesContent {
			if i > 0 {
				buffer = append(buffer, ',')
			}
			buffer = append(buffer, helpers.QuoteForJS(content)...)
		}
	}

	buffer = append(buffer, "],\"names\":["...)
	for i, name := range sm.Names {
		if i > 0 {
			buffer = append(buffer, ',')
		}
		buffer = append(buffer, helpers.QuoteForJS(name)...)
	}

	buffer = append(buffer, "],\"mappings\":\""...)
	buffer = append(buffer, EncodeMappings(sm.Mappings)...)
	buffer = append(buffer, "\"}"...)
	return string(buffer)
}
