package js_scanner

// This is not a JavaScript parser. Full parsing is an external concern; the
// bundler core only needs to know where a module's import references are and
// what shape their call sites have. So this scanner walks the source once,
// skips comments and string literals, and recognizes exactly three
// constructs: static "import" statements, "export ... from" clauses, and
// dynamic "import(...)" calls. Dynamic import call sites are lifted into
// expression parts so code generation can rewrite them; static statements
// stay in their raw parts but record the byte range rendering rewrites;
// everything else round-trips as raw text.
//
// Known limitation: regular expression literals are not recognized, so an
// import-like token inside one would be misread. The same class of tradeoff
// exists in any scanner that stops short of a full grammar.

import (
	"strings"

	"github.com/bundlekit/bundlekit/internal/js_ast"
	"github.com/bundlekit/bundlekit/internal/logger"
)

type ImportKind uint8

const (
	// A static "import" statement
	ImportStmt ImportKind = iota

	// An "export ... from" clause
	ExportFrom

	// A dynamic "import(...)" call
	ImportDynamic
)

type ImportRecord struct {
	Kind ImportKind

	// The string literal value of the specifier. Empty when the specifier is
	// not a constant string (only possible for dynamic imports).
	Specifier string

	// Whether the specifier was a plain string literal
	IsConstant bool

	// For dynamic imports, the AST path of the lifted call expression
	Path js_ast.Path

	// For static records the specifier literal, for dynamic records the whole
	// call expression
	Range logger.Range

	// For static records, the byte range of the whole statement including a
	// trailing semicolon. Rendering rewrites this range so the statement never
	// reaches a context where an import declaration is illegal.
	StatementRange logger.Range
}

type ScanResult struct {
	AST     js_ast.AST
	Records []ImportRecord
}

type scanner struct {
	source   string
	i        int
	rawStart int
	result   ScanResult
}

// Scan extracts the import references of one module and builds the segment
// AST used by code generation and printing.
func Scan(contents string) ScanResult {
	s := scanner{source: contents}
	s.scan()
	s.flushRaw(len(contents))
	return s.result
}

func (s *scanner) scan() {
	n := len(s.source)
	for s.i < n {
		c := s.source[s.i]
		switch c {
		case '/':
			s.skipCommentOrSlash()

		case '\'', '"', '`':
			s.skipString(c)

		case 'i':
			if s.atKeyword("import") {
				s.scanImport()
			} else {
				s.i++
			}

		case 'e':
			if s.atKeyword("export") {
				s.scanExportFrom()
			} else {
				s.i++
			}

		default:
			s.i++
		}
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// atKeyword reports whether the scanner is positioned at the given word with
// identifier boundaries on both sides and no leading "." (so "foo.import" is
// not a keyword).
func (s *scanner) atKeyword(word string) bool {
	if !strings.HasPrefix(s.source[s.i:], word) {
		return false
	}
	if s.i > 0 {
		prev := s.source[s.i-1]
		if isIdentChar(prev) || prev == '.' {
			return false
		}
	}
	end := s.i + len(word)
	return end >= len(s.source) || !isIdentChar(s.source[end])
}

func (s *scanner) skipCommentOrSlash() {
	if s.i+1 < len(s.source) {
		switch s.source[s.i+1] {
		case '/':
			if end := strings.IndexByte(s.source[s.i:], '\n'); end != -1 {
				s.i += end
			} else {
				s.i = len(s.source)
			}
			return
		case '*':
			if end := strings.Index(s.source[s.i+2:], "*/"); end != -1 {
				s.i += 2 + end + 2
			} else {
				s.i = len(s.source)
			}
			return
		}
	}
	s.i++
}

// skipString advances past a string or template literal, including template
// substitutions, which are skipped by brace counting.
func (s *scanner) skipString(quote byte) {
	s.i++
	n := len(s.source)
	for s.i < n {
		c := s.source[s.i]
		if c == '\\' {
			s.i += 2
			continue
		}
		if c == quote {
			s.i++
			return
		}
		if quote == '`' && c == '$' && s.i+1 < n && s.source[s.i+1] == '{' {
			s.i += 2
			depth := 1
			for s.i < n && depth > 0 {
				switch s.source[s.i] {
				case '{':
					depth++
					s.i++
				case '}':
					depth--
					s.i++
				case '\'', '"', '`':
					s.skipString(s.source[s.i])
				case '/':
					s.skipCommentOrSlash()
				default:
					s.i++
				}
			}
			continue
		}
		if quote != '`' && (c == '\n' || c == '\r') {
			// Unterminated string; bail out of it
			return
		}
		s.i++
	}
}

func (s *scanner) skipSpaceAndComments() {
	for s.i < len(s.source) {
		c := s.source[s.i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			s.i++
			continue
		}
		if c == '/' && s.i+1 < len(s.source) && (s.source[s.i+1] == '/' || s.source[s.i+1] == '*') {
			s.skipCommentOrSlash()
			continue
		}
		return
	}
}

func (s *scanner) flushRaw(end int) {
	if end > s.rawStart {
		s.result.AST.Parts = append(s.result.AST.Parts, js_ast.Part{
			Raw: s.source[s.rawStart:end],
			Range: logger.Range{
				Loc: logger.Loc{Start: int32(s.rawStart)},
				Len: int32(end - s.rawStart),
			},
		})
	}
	s.rawStart = end
}

func (s *scanner) scanImport() {
	start := s.i
	s.i += len("import")
	s.skipSpaceAndComments()

	if s.i < len(s.source) && s.source[s.i] == '(' {
		s.scanDynamicImport(start)
		return
	}
	if s.i < len(s.source) && s.source[s.i] == '.' {
		// "import.meta" is not a reference
		return
	}

	// A static import statement. The statement text is left in its raw part;
	// rendering rewrites it through the recorded statement range.
	if specifier, r, ok := s.scanStaticSpecifier(); ok {
		s.result.Records = append(s.result.Records, ImportRecord{
			Kind:           ImportStmt,
			Specifier:      specifier,
			IsConstant:     true,
			Range:          r,
			StatementRange: s.statementRange(start),
		})
	}
}

func (s *scanner) scanExportFrom() {
	start := s.i
	s.i += len("export")

	// Only "export ... from" clauses produce a reference. Scan the statement
	// for a "from" keyword followed by a string literal.
	for s.i < len(s.source) {
		s.skipSpaceAndComments()
		if s.i >= len(s.source) {
			return
		}
		c := s.source[s.i]
		if c == ';' || c == ')' {
			return
		}
		if c == '\'' || c == '"' || c == '`' {
			s.skipString(c)
			continue
		}
		if s.atKeyword("from") {
			s.i += len("from")
			if specifier, r, ok := s.scanStaticSpecifier(); ok {
				s.result.Records = append(s.result.Records, ImportRecord{
					Kind:           ExportFrom,
					Specifier:      specifier,
					IsConstant:     true,
					Range:          r,
					StatementRange: s.statementRange(start),
				})
			}
			return
		}
		if isIdentChar(c) {
			for s.i < len(s.source) && isIdentChar(s.source[s.i]) {
				s.i++
			}
			continue
		}
		if c == '{' || c == '}' || c == ',' || c == '*' {
			s.i++
			continue
		}
		// Anything else means this is not an "export ... from" form
		return
	}
}

// statementRange closes a static statement that began at start: a semicolon
// directly after the specifier (spaces and tabs allowed) belongs to the
// statement and is consumed with it.
func (s *scanner) statementRange(start int) logger.Range {
	j := s.i
	for j < len(s.source) && (s.source[j] == ' ' || s.source[j] == '\t') {
		j++
	}
	if j < len(s.source) && s.source[j] == ';' {
		s.i = j + 1
	}
	return logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(s.i - start)}
}

// scanStaticSpecifier scans forward to the next string literal within the
// current statement and returns its value.
func (s *scanner) scanStaticSpecifier() (string, logger.Range, bool) {
	for s.i < len(s.source) {
		s.skipSpaceAndComments()
		if s.i >= len(s.source) {
			break
		}
		c := s.source[s.i]
		if c == '\'' || c == '"' {
			start := s.i
			s.skipString(c)
			raw := s.source[start:s.i]
			r := logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(s.i - start)}
			return unquote(raw), r, true
		}
		if c == ';' || c == '\n' {
			break
		}
		if isIdentChar(c) {
			for s.i < len(s.source) && isIdentChar(s.source[s.i]) {
				s.i++
			}
			continue
		}
		s.i++
	}
	return "", logger.Range{}, false
}

func (s *scanner) scanDynamicImport(start int) {
	importLoc := logger.Loc{Start: int32(start)}
	openParen := s.i
	argText, closeParen, ok := s.scanBalancedParens(openParen)
	if !ok {
		return
	}

	s.flushRaw(start)
	s.rawStart = closeParen + 1
	s.i = closeParen + 1

	callRange := logger.Range{Loc: importLoc, Len: int32(s.i - start)}
	args, firstArg := parseArgs(argText, int32(openParen+1))

	partIndex := uint32(len(s.result.AST.Parts))
	call := js_ast.Expr{
		Loc: importLoc,
		Data: &js_ast.ECall{
			Target: js_ast.Expr{Loc: importLoc, Data: &js_ast.EIdentifier{Name: "import"}},
			Args:   args,
		},
	}
	s.result.AST.Parts = append(s.result.AST.Parts, js_ast.Part{Expr: &call, Range: callRange})

	record := ImportRecord{
		Kind:  ImportDynamic,
		Path:  js_ast.Path{partIndex},
		Range: callRange,
	}
	if str, ok := firstArg.(*js_ast.EString); ok {
		record.Specifier = str.Value
		record.IsConstant = true
	}
	s.result.Records = append(s.result.Records, record)
}

// scanBalancedParens returns the argument text between the parenthesis at
// openParen and its matching close, respecting nested brackets, strings, and
// comments.
func (s *scanner) scanBalancedParens(openParen int) (string, int, bool) {
	j := scanner{source: s.source, i: openParen + 1}
	depth := 1
	for j.i < len(j.source) {
		switch c := j.source[j.i]; c {
		case '(', '[', '{':
			depth++
			j.i++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return s.source[openParen+1 : j.i], j.i, true
			}
			j.i++
		case '\'', '"', '`':
			j.skipString(c)
		case '/':
			j.skipCommentOrSlash()
		default:
			j.i++
		}
	}
	return "", 0, false
}

// parseArgs splits the argument text at top-level commas and converts each
// argument to an expression: string literals become EString, spread elements
// become ESpread, and anything else is preserved verbatim as ERaw.
func parseArgs(argText string, locStart int32) ([]js_ast.Expr, js_ast.E) {
	var args []js_ast.Expr
	var firstArg js_ast.E

	for _, piece := range splitTopLevel(argText) {
		trimmed := strings.TrimSpace(piece.text)
		if trimmed == "" {
			continue
		}
		loc := logger.Loc{Start: locStart + piece.start}
		expr := js_ast.Expr{Loc: loc, Data: argData(trimmed, loc)}
		if firstArg == nil {
			firstArg = expr.Data
		}
		args = append(args, expr)
	}
	return args, firstArg
}

func argData(trimmed string, loc logger.Loc) js_ast.E {
	if rest, ok := strings.CutPrefix(trimmed, "..."); ok {
		rest = strings.TrimSpace(rest)
		return &js_ast.ESpread{Value: js_ast.Expr{Loc: loc, Data: argData(rest, loc)}}
	}
	if len(trimmed) >= 2 {
		if quote := trimmed[0]; (quote == '\'' || quote == '"') && trimmed[len(trimmed)-1] == quote {
			inner := scanner{source: trimmed}
			inner.skipString(quote)
			if inner.i == len(trimmed) {
				return &js_ast.EString{Value: unquote(trimmed)}
			}
		}
	}
	return &js_ast.ERaw{Text: trimmed}
}

type argPiece struct {
	text  string
	start int32
	end   int32
}

func splitTopLevel(text string) []argPiece {
	var pieces []argPiece
	start := 0
	j := scanner{source: text}
	for j.i < len(text) {
		switch c := text[j.i]; c {
		case '(', '[', '{':
			depth := 1
			j.i++
			for j.i < len(text) && depth > 0 {
				switch text[j.i] {
				case '(', '[', '{':
					depth++
					j.i++
				case ')', ']', '}':
					depth--
					j.i++
				case '\'', '"', '`':
					j.skipString(text[j.i])
				default:
					j.i++
				}
			}
		case '\'', '"', '`':
			j.skipString(c)
		case '/':
			j.skipCommentOrSlash()
		case ',':
			pieces = append(pieces, argPiece{text: text[start:j.i], start: int32(start), end: int32(j.i)})
			j.i++
			start = j.i
		default:
			j.i++
		}
	}
	if start < len(text) || len(pieces) > 0 {
		pieces = append(pieces, argPiece{text: text[start:], start: int32(start), end: int32(len(text))})
	}
	return pieces
}

// unquote removes the surrounding quotes of a string literal and decodes the
// escape sequences a module specifier can reasonably contain.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	raw = raw[1 : len(raw)-1]
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	sb := strings.Builder{}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case 'u':
			if i+4 < len(raw) {
				if r, ok := hex4(raw[i+1 : i+5]); ok {
					sb.WriteRune(r)
					i += 4
					continue
				}
			}
			sb.WriteByte('u')
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

func hex4(text string) (rune, bool) {
	var r rune
	for i := 0; i < 4; i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			r = r<<4 | rune(c-'0')
		case c >= 'a' && c <= 'f':
			r = r<<4 | rune(c-'a'+10)
		case c >= 'A' && c <= 'F':
			r = r<<4 | rune(c-'A'+10)
		default:
			return 0, false
		}
	}
	return r, true
}
