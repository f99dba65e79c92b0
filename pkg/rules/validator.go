package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formstate"
)

// Rule is one validation expression. The expression must evaluate to a bool;
// false fails the rule with Message.
type Rule struct {
	Name    string
	Expr    string
	Message string
}

// ValidatorOption configures validators built by this package.
type ValidatorOption func(*validatorConfig)

type validatorConfig struct {
	logger   EvaluatorLogger
	args     map[string]any
	metadata map[string]any
	clock    func() time.Time
}

// WithEvaluatorLogger reports every evaluation to logger.
func WithEvaluatorLogger(logger EvaluatorLogger) ValidatorOption {
	return func(cfg *validatorConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithArgs exposes args to expressions.
func WithArgs(args map[string]any) ValidatorOption {
	return func(cfg *validatorConfig) {
		cfg.args = args
	}
}

// WithMetadata exposes metadata to expressions.
func WithMetadata(metadata map[string]any) ValidatorOption {
	return func(cfg *validatorConfig) {
		cfg.metadata = metadata
	}
}

// WithClock replaces time.Now for the now variable.
func WithClock(clock func() time.Time) ValidatorOption {
	return func(cfg *validatorConfig) {
		cfg.clock = clock
	}
}

func applyValidatorOptions(opts []ValidatorOption) validatorConfig {
	cfg := validatorConfig{logger: noopEvaluatorLogger{}, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// compiledRule pairs a rule with its program.
type compiledRule struct {
	rule    Rule
	engine  string
	program CompiledRule
}

func compileRules(evaluator Evaluator, rules []Rule) ([]compiledRule, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("rules: evaluator is nil")
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		program, err := evaluator.Compile(strings.TrimSpace(rule.Expr))
		if err != nil {
			return nil, wrapEvaluationError(evaluator.Engine(), rule.Expr, rule.Name, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, engine: evaluator.Engine(), program: program})
	}
	return compiled, nil
}

// FieldValidator compiles rules eagerly and returns a factory binding them to
// a field store.
func FieldValidator(evaluator Evaluator, rules []Rule, opts ...ValidatorOption) (formstate.FieldValidatorFactory, error) {
	compiled, err := compileRules(evaluator, rules)
	if err != nil {
		return nil, err
	}
	cfg := applyValidatorOptions(opts)
	return func(*formstate.FieldState) formstate.Validator {
		return validator(compiled, cfg)
	}, nil
}

// GroupValidator compiles rules eagerly and returns a factory binding them to
// a group store.
func GroupValidator(evaluator Evaluator, rules []Rule, opts ...ValidatorOption) (formstate.GroupValidatorFactory, error) {
	compiled, err := compileRules(evaluator, rules)
	if err != nil {
		return nil, err
	}
	cfg := applyValidatorOptions(opts)
	return func(*formstate.GroupState) formstate.Validator {
		return validator(compiled, cfg)
	}, nil
}

// Validator compiles rules into a plain validator.
func Validator(evaluator Evaluator, rules []Rule, opts ...ValidatorOption) (formstate.Validator, error) {
	compiled, err := compileRules(evaluator, rules)
	if err != nil {
		return nil, err
	}
	return validator(compiled, applyValidatorOptions(opts)), nil
}

func validator(compiled []compiledRule, cfg validatorConfig) formstate.Validator {
	return func(value any, state formstate.State) formstate.ValidationResult {
		now := cfg.clock()
		ctx := RuleContext{
			Value:    value,
			State:    StateBinding(state),
			Args:     cfg.args,
			Metadata: cfg.metadata,
			Now:      &now,
		}
		var result formstate.ValidationResult
		for _, entry := range compiled {
			start := time.Now()
			out, err := entry.program.Evaluate(ctx)
			if err == nil {
				if _, ok := out.(bool); !ok {
					err = fmt.Errorf("%w, got %T", ErrNonBoolResult, out)
				}
			}
			err = wrapEvaluationError(entry.engine, entry.rule.Expr, entry.rule.Name, err)
			cfg.logger.LogEvaluation(EvaluatorLogEvent{
				Engine:   entry.engine,
				Expr:     entry.rule.Expr,
				Rule:     entry.rule.Name,
				Duration: time.Since(start),
				Err:      err,
			})
			if err != nil {
				result.Errors = append(result.Errors, formstate.ValidationError{Rule: ruleName(entry.rule), Message: err.Error()})
				continue
			}
			if passed, _ := out.(bool); !passed {
				result.Errors = append(result.Errors, formstate.ValidationError{Rule: ruleName(entry.rule), Message: failureMessage(entry.rule)})
			}
		}
		return result
	}
}

func ruleName(rule Rule) string {
	if rule.Name != "" {
		return rule.Name
	}
	return rule.Expr
}

func failureMessage(rule Rule) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fmt.Sprintf("rule %s failed", ruleName(rule))
}

// StateBinding exposes a store snapshot to expressions: the common flags,
// kind, and for fields the type and title.
func StateBinding(state formstate.State) map[string]any {
	if state == nil {
		return map[string]any{}
	}
	common := state.Common()
	binding := map[string]any{
		"kind":         string(state.Kind()),
		"isValid":      common.IsValid,
		"isDirty":      common.IsDirty,
		"isTouched":    common.IsTouched,
		"hasFocus":     common.HasFocus,
		"isPending":    common.IsPending,
		"pendingCount": common.PendingCount,
	}
	switch typed := state.(type) {
	case *formstate.FieldState:
		binding["type"] = typed.Type
		if typed.Options != nil {
			binding["title"] = typed.Options.Title
			binding["initialValue"] = typed.Options.InitialValue
		}
	case *formstate.GroupState:
		if typed.Options != nil {
			binding["title"] = typed.Options.Title
		}
	}
	return binding
}
