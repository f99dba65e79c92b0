package rules

import "time"

// RuleContext carries the inputs of one evaluation.
type RuleContext struct {
	Value    any
	State    map[string]any
	Args     map[string]any
	Metadata map[string]any
	Now      *time.Time
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// binding is the variable set shared by every engine.
func (ctx RuleContext) binding() map[string]any {
	return map[string]any{
		"value":    ctx.Value,
		"state":    ctx.State,
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"now":      ctx.timestamp(),
	}
}
