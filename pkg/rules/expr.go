package rules

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator executes rule expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := applyEvaluatorOptions(opts)
	return &exprEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *exprEvaluator) Engine() string { return EngineExpr }

// Evaluate compiles (or loads) expression and runs it against ctx.
func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

// Compile returns a reusable program for expression.
func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{program: program, expression: expression}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	key := cacheKey(EngineExpr, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(RuleContext{}.withDefaults().binding()),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		registry := e.registry
		options = append(options, exprlang.Function("call", func(params ...any) (any, error) {
			if len(params) == 0 {
				return nil, fmt.Errorf("call requires a function name")
			}
			name, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("call name must be a string, got %T", params[0])
			}
			return registry.Call(name, params[1:]...)
		}))
		for _, name := range registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(params ...any) (any, error) {
				return registry.Call(fn, params...)
			}))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

type exprCompiledRule struct {
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, ctx.binding())
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, r.expression, "", err)
	}
	return result, nil
}
