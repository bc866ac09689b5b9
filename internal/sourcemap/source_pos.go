package sourcemap

import "unicode/utf8"

// SourcePos is a line/column position inside a generated file. It advances
// incrementally over successive byte slices so that walking a large buffer
// marker by marker never has to rescan from the start.
type SourcePos struct {
	Line   int32 // 0-based
	Column int32 // 0-based count of UTF-16 code units
}

func (pos *SourcePos) Update(buf []byte) {
	column := pos.Column
	for len(buf) > 0 {
		c, width := utf8.DecodeRune(buf)
		buf = buf[width:]
		switch c {
		case '\r', '\n', '\u2028', '\u2029':
			// Handle Windows-specific "\r\n" newlines
			if c == '\r' && len(buf) > 0 && buf[0] == '\n' {
				column++
				continue
			}

			pos.Line++
			column = 0

		default:
			// Mozilla's "source-map" library counts columns using UTF-16 code units
			if c <= 0xFFFF {
				column++
			} else {
				column += 2
			}
		}
	}
	pos.Column = column
}
