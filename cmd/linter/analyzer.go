// Package main implements exitcheck, a static analysis tool that reports:
//  1. calls of the built-in panic anywhere in the code
//  2. calls of os.Exit, log.Fatal* and the Fatal* methods of zap loggers
//     outside of the main function of a main package
//
// Long-running agent code must return errors to main instead of ending the
// process on its own.
package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports process termination outside of main.main.
var Analyzer = &analysis.Analyzer{
	Name: "exitcheck",
	Doc:  "reports usage of panic, and of os.Exit, log.Fatal or zap Fatal outside of main function in main package",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

const zapPath = "go.uber.org/zap"

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.WithStack(nodeFilter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		call := n.(*ast.CallExpr)

		switch fn := typeutil.Callee(pass.TypesInfo, call).(type) {
		case *types.Builtin:
			if fn.Name() == "panic" {
				pass.Reportf(call.Pos(), "found usage of panic")
			}
		case *types.Func:
			name, ok := terminating(fn)
			if ok && !inMainFunc(pass, stack) {
				pass.Reportf(call.Pos(), "found usage of %s outside of main function", name)
			}
		}
		return true
	})

	return nil, nil
}

// terminating reports whether fn ends the process, and its display name.
func terminating(fn *types.Func) (string, bool) {
	pkg := fn.Pkg()
	if pkg == nil {
		return "", false
	}

	sig, _ := fn.Type().(*types.Signature)
	if sig == nil || sig.Recv() == nil {
		switch {
		case pkg.Path() == "os" && fn.Name() == "Exit",
			pkg.Path() == "log" && strings.HasPrefix(fn.Name(), "Fatal"):
			return pkg.Name() + "." + fn.Name(), true
		}
		return "", false
	}

	if pkg.Path() == zapPath && strings.HasPrefix(fn.Name(), "Fatal") {
		return "zap " + fn.Name(), true
	}
	if pkg.Path() == "log" && strings.HasPrefix(fn.Name(), "Fatal") {
		return "log.Logger." + fn.Name(), true
	}
	return "", false
}

// inMainFunc reports whether the innermost function declaration on the stack
// is main.main. Function literals inside main count as main.
func inMainFunc(pass *analysis.Pass, stack []ast.Node) bool {
	if pass.Pkg.Name() != "main" {
		return false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if decl, ok := stack[i].(*ast.FuncDecl); ok {
			return decl.Recv == nil && decl.Name.Name == "main"
		}
	}
	return false
}
