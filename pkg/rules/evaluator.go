package rules

import (
	"fmt"
	"strings"
)

// Engine names accepted by New.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Engine() string
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// EvaluatorOption configures any of the built-in evaluators.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache caches compiled programs in cache.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to expressions. The
// registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithFunction registers a single function.
func WithFunction(name string, fn Function) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if cfg.registry == nil {
			cfg.registry = NewFunctionRegistry()
		}
		_ = cfg.registry.Register(name, fn)
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// New returns the evaluator for engine. An empty engine selects expr.
func New(engine string, opts ...EvaluatorOption) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		evaluator := NewJSEvaluator(opts...)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: %s (build with -tags js_eval)", ErrEngineUnavailable, EngineJS)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Registry resolves evaluators by engine name, building each one lazily with
// the same options.
type Registry struct {
	opts       []EvaluatorOption
	evaluators map[string]Evaluator
}

// NewRegistry builds an evaluator registry.
func NewRegistry(opts ...EvaluatorOption) *Registry {
	return &Registry{opts: opts, evaluators: map[string]Evaluator{}}
}

// Set overrides the evaluator used for engine.
func (r *Registry) Set(engine string, evaluator Evaluator) {
	r.evaluators[normalizeEngine(engine)] = evaluator
}

// Get returns the evaluator for engine, building it on first use. It is not
// safe for concurrent use.
func (r *Registry) Get(engine string) (Evaluator, error) {
	key := normalizeEngine(engine)
	if evaluator, ok := r.evaluators[key]; ok && evaluator != nil {
		return evaluator, nil
	}
	evaluator, err := New(key, r.opts...)
	if err != nil {
		return nil, err
	}
	r.evaluators[key] = evaluator
	return evaluator, nil
}

func normalizeEngine(engine string) string {
	engine = strings.ToLower(strings.TrimSpace(engine))
	if engine == "" {
		return EngineExpr
	}
	return engine
}
