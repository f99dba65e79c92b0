// Package rules evaluates validation expressions with expr-lang/expr (the
// default engine), cel-go, or goja when built with the js_eval tag, and turns
// them into formstate validator factories.
//
// Every engine sees the same environment:
//
//	value     the value being validated
//	state     the owning store's flags plus kind, type and title
//	args      caller supplied arguments
//	metadata  caller supplied metadata
//	now       evaluation time
package rules
