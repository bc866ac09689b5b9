package js_ast

import "github.com/bundlekit/bundlekit/internal/logger"

// This AST is deliberately small. Full statement-level parsing is the job of
// an external parser; the bundler core only ever needs to represent the
// expressions it rewrites (dynamic import call sites) and the expressions its
// code generation synthesizes. Everything else in a module round-trips as
// raw text segments.

type E interface{ isExpr() }

type Expr struct {
	Data E
	Loc  logger.Loc
}

type EString struct {
	Value string
}

type EIdentifier struct {
	Name string
}

type EDot struct {
	Target Expr
	Name   string
}

type ECall struct {
	Target Expr
	Args   []Expr
}

type ENew struct {
	Target Expr
	Args   []Expr
}

// ESpread wraps a spread element in an argument list
type ESpread struct {
	Value Expr
}

type BinOp uint8

const (
	BinOpAdd BinOp = iota
)

type EBinary struct {
	Left  Expr
	Right Expr
	Op    BinOp
}

// ERaw is an expression preserved verbatim from the reference extractor.
// Printing it emits the original source text unchanged. It exists because
// the extractor does not parse arbitrary expressions, but an import()
// argument can be one.
type ERaw struct {
	Text string
}

func (*EString) isExpr()     {}
func (*EIdentifier) isExpr() {}
func (*EDot) isExpr()        {}
func (*ECall) isExpr()       {}
func (*ENew) isExpr()        {}
func (*ESpread) isExpr()     {}
func (*EBinary) isExpr()     {}
func (*ERaw) isExpr()        {}

// A module is an ordered list of parts. Each part is either a raw slice of
// the original source or a single expression the extractor lifted out for
// rewriting.
type Part struct {
	Raw  string
	Expr *Expr

	// Byte range of the part in the original source
	Range logger.Range
}

type AST struct {
	Parts []Part
}
