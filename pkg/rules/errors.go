package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyExpression reports a rule without an expression.
	ErrEmptyExpression = errors.New("rules: expression must not be empty")
	// ErrUnknownEngine reports an engine name New does not know.
	ErrUnknownEngine = errors.New("rules: unknown engine")
	// ErrEngineUnavailable reports an engine compiled out of this binary.
	ErrEngineUnavailable = errors.New("rules: engine unavailable")
	// ErrNonBoolResult reports a rule that evaluated to something other than
	// a bool.
	ErrNonBoolResult = errors.New("rules: rule must evaluate to a bool")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Rule   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	rule := e.Rule
	if rule == "" {
		rule = "<anonymous>"
	}
	return fmt.Sprintf("rules: %s evaluator %s rule=%s: %v", e.Engine, describeExpression(e.Expr), rule, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "rules:") {
		return err
	}
	return fmt.Errorf("rules: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, rule string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Rule == "" {
			evalErr.Rule = rule
		}
		return evalErr
	}
	return &EvaluationError{Engine: engine, Expr: expr, Rule: rule, Err: err}
}
