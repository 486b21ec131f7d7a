package relift

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// DefaultRules returns the built-in rewrite rules in application order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "any",
			Doc:   "rewrite the empty interface literal interface{} to any",
			Apply: applyAnyRule,
		},
		{
			Name:  "errorf",
			Doc:   "rewrite errors.New(fmt.Sprintf(...)) to fmt.Errorf(...)",
			Apply: applyErrorfRule,
		},
	}
}

// applyAnyRule replaces every empty interface type literal with the any
// alias. Non-empty interfaces are left alone.
func applyAnyRule(fset *token.FileSet, file *ast.File) error {
	astutil.Apply(file, func(c *astutil.Cursor) bool {
		it, ok := c.Node().(*ast.InterfaceType)
		if !ok {
			return true
		}
		if it.Methods != nil && len(it.Methods.List) > 0 {
			return true
		}
		c.Replace(ast.NewIdent("any"))
		return true
	}, nil)
	return nil
}

// applyErrorfRule collapses errors.New(fmt.Sprintf(format, args...)) into
// fmt.Errorf(format, args...). If the rewrite removes the last use of the
// errors import, the import is dropped so the output still compiles.
func applyErrorfRule(fset *token.FileSet, file *ast.File) error {
	rewrote := false

	astutil.Apply(file, func(c *astutil.Cursor) bool {
		call, ok := c.Node().(*ast.CallExpr)
		if !ok || !isPkgCall(call, "errors", "New") || len(call.Args) != 1 {
			return true
		}
		inner, ok := call.Args[0].(*ast.CallExpr)
		if !ok || !isPkgCall(inner, "fmt", "Sprintf") {
			return true
		}
		c.Replace(&ast.CallExpr{
			Fun: &ast.SelectorExpr{
				X:   ast.NewIdent("fmt"),
				Sel: ast.NewIdent("Errorf"),
			},
			Args:     inner.Args,
			Ellipsis: inner.Ellipsis,
		})
		rewrote = true
		return true
	}, nil)

	if rewrote && !astutil.UsesImport(file, "errors") {
		astutil.DeleteImport(fset, file, "errors")
	}
	return nil
}

// isPkgCall reports whether call is pkg.fn(...) for a plain package
// selector.
func isPkgCall(call *ast.CallExpr, pkg, fn string) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != fn {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	return ok && ident.Name == pkg && ident.Obj == nil
}
