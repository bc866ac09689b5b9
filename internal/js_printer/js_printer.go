package js_printer

import (
	"github.com/bundlekit/bundlekit/internal/helpers"
	"github.com/bundlekit/bundlekit/internal/js_ast"
)

type printer struct {
	js []byte
}

func (p *printer) print(text string) {
	p.js = append(p.js, text...)
}

// Print renders a module AST back to bytes: raw parts verbatim, expression
// parts through the expression printer.
func Print(ast *js_ast.AST) []byte {
	p := printer{}
	for _, part := range ast.Parts {
		if part.Expr != nil {
			p.printExpr(*part.Expr)
		} else {
			p.print(part.Raw)
		}
	}
	return p.js
}

// PrintExpr renders a single expression
func PrintExpr(expr js_ast.Expr) []byte {
	p := printer{}
	p.printExpr(expr)
	return p.js
}

func (p *printer) printExpr(expr js_ast.Expr) {
	switch e := expr.Data.(type) {
	case *js_ast.EString:
		p.js = append(p.js, helpers.QuoteForJS(e.Value)...)

	case *js_ast.EIdentifier:
		p.print(e.Name)

	case *js_ast.ERaw:
		p.print(e.Text)

	case *js_ast.EDot:
		p.printExpr(e.Target)
		p.print(".")
		p.print(e.Name)

	case *js_ast.ECall:
		p.printExpr(e.Target)
		p.printArgs(e.Args)

	case *js_ast.ENew:
		p.print("new ")
		p.printExpr(e.Target)
		p.printArgs(e.Args)

	case *js_ast.ESpread:
		p.print("...")
		p.printExpr(e.Value)

	case *js_ast.EBinary:
		// The only operator code generation produces is string concatenation
		p.printBinaryOperand(e.Left)
		p.print(" + ")
		p.printBinaryOperand(e.Right)

	default:
		panic("internal error: unexpected expression kind")
	}
}

// printBinaryOperand groups operands whose precedence is unknown. Verbatim
// extractor text can be any expression, including forms that bind looser than
// "+" (ternaries, assignments), so it is always parenthesized. A nested
// concatenation on the left needs no parentheses because "+" is
// left-associative.
func (p *printer) printBinaryOperand(operand js_ast.Expr) {
	if _, ok := operand.Data.(*js_ast.ERaw); ok {
		p.print("(")
		p.printExpr(operand)
		p.print(")")
		return
	}
	p.printExpr(operand)
}

func (p *printer) printArgs(args []js_ast.Expr) {
	p.print("(")
	for i, arg := range args {
		if i > 0 {
			p.print(", ")
		}
		p.printExpr(arg)
	}
	p.print(")")
}
