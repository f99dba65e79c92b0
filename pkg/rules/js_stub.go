//go:build !js_eval

package rules

// NewJSEvaluator returns nil without the js_eval build tag.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	_ = applyEvaluatorOptions(opts)
	return nil
}
