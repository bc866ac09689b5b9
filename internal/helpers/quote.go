package helpers

import "unicode/utf8"

const hexChars = "0123456789ABCDEF"

func canPrintWithoutEscape(c rune, quoteChar byte) bool {
	if c < 0x20 || c == '\\' || c == rune(quoteChar) {
		return false
	}
	return c != '\u2028' && c != '\u2029' && c != '\uFEFF'
}

// QuoteForJS returns the text as a double-quoted JavaScript string literal.
// The result is also valid JSON, which matters because the same quoting is
// used for source map serialization.
func QuoteForJS(text string) []byte {
	return quote(text, '"')
}

func quote(text string, quoteChar byte) []byte {
	bytes := make([]byte, 0, len(text)+2)
	bytes = append(bytes, quoteChar)

	i := 0
	n := len(text)
	for i < n {
		c, width := utf8.DecodeRuneInString(text[i:])

		// Fast path: a run of characters that don't need escaping
		if canPrintWithoutEscape(c, quoteChar) {
			start := i
			i += width
			for i < n {
				c, width = utf8.DecodeRuneInString(text[i:])
				if !canPrintWithoutEscape(c, quoteChar) {
					break
				}
				i += width
			}
			bytes = append(bytes, text[start:i]...)
			continue
		}

		switch c {
		case '\b':
			bytes = append(bytes, "\\b"...)
		case '\f':
			bytes = append(bytes, "\\f"...)
		case '\n':
			bytes = append(bytes, "\\n"...)
		case '\r':
			bytes = append(bytes, "\\r"...)
		case '\t':
			bytes = append(bytes, "\\t"...)
		case '\\':
			bytes = append(bytes, "\\\\"...)
		case rune(quoteChar):
			bytes = append(bytes, '\\', quoteChar)
		default:
			if c <= 0xFFFF {
				bytes = append(bytes,
					'\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
			} else {
				c -= 0x10000
				lo := rune(0xD800 + ((c >> 10) & 0x3FF))
				hi := rune(0xDC00 + (c & 0x3FF))
				bytes = append(bytes,
					'\\', 'u', hexChars[lo>>12], hexChars[(lo>>8)&15], hexChars[(lo>>4)&15], hexChars[lo&15],
					'\\', 'u', hexChars[hi>>12], hexChars[(hi>>8)&15], hexChars[(hi>>4)&15], hexChars[hi&15])
			}
		}
		i += width
	}

	return append(bytes, quoteChar)
}
