package js_ast

import "fmt"

// A Path is a stable coordinate into a module's AST: the first index selects
// a part, each following index selects a child of the current expression.
// Paths are only valid against the AST snapshot they were computed from, so a
// code-generation pass must apply its visitors to that same snapshot.
type Path []uint32

// A Visitor pairs a path with a mutation of the call expression at that
// path. The mutation must not touch any other node.
type Visitor struct {
	Visit func(*ECall)
	Path  Path
}

// NodeAt returns the expression at the given path, or an error if the path
// does not address a node in this tree.
func (ast *AST) NodeAt(path Path) (*Expr, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty AST path")
	}

	index := path[0]
	if index >= uint32(len(ast.Parts)) {
		return nil, fmt.Errorf("AST path part index %d out of range", index)
	}
	expr := ast.Parts[index].Expr
	if expr == nil {
		return nil, fmt.Errorf("AST path part index %d addresses a raw segment", index)
	}

	for _, childIndex := range path[1:] {
		child, err := childAt(expr, childIndex)
		if err != nil {
			return nil, err
		}
		expr = child
	}
	return expr, nil
}

func childAt(expr *Expr, index uint32) (*Expr, error) {
	switch e := expr.Data.(type) {
	case *ECall:
		if index == 0 {
			return &e.Target, nil
		}
		if int(index) <= len(e.Args) {
			return &e.Args[index-1], nil
		}

	case *ENew:
		if index == 0 {
			return &e.Target, nil
		}
		if int(index) <= len(e.Args) {
			return &e.Args[index-1], nil
		}

	case *EDot:
		if index == 0 {
			return &e.Target, nil
		}

	case *EBinary:
		if index == 0 {
			return &e.Left, nil
		}
		if index == 1 {
			return &e.Right, nil
		}

	case *ESpread:
		if index == 0 {
			return &e.Value, nil
		}
	}

	return nil, fmt.Errorf("AST path child index %d out of range", index)
}

// ApplyVisitors runs each visitor against the node at its recorded path. The
// tree must be the same snapshot the paths were computed from; no structural
// edits may happen in between. Visitors mutate disjoint nodes, so their
// relative order is not significant.
func (ast *AST) ApplyVisitors(visitors []Visitor) error {
	for _, visitor := range visitors {
		expr, err := ast.NodeAt(visitor.Path)
		if err != nil {
			return err
		}
		call, ok := expr.Data.(*ECall)
		if !ok {
			return fmt.Errorf("AST path %v does not address a call expression", visitor.Path)
		}
		visitor.Visit(call)
	}
	return nil
}
