package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/rules"
	"github.com/mitchellh/mapstructure"
)

type node struct {
	Kind         string         `mapstructure:"kind"`
	Type         string         `mapstructure:"type"`
	Title        string         `mapstructure:"title"`
	Placeholder  any            `mapstructure:"placeholder"`
	InitialValue any            `mapstructure:"initialValue"`
	MaxLength    int            `mapstructure:"maxLength"`
	Multiline    bool           `mapstructure:"multiline"`
	ThreeState   bool           `mapstructure:"threeState"`
	MinValue     *float64       `mapstructure:"minValue"`
	MaxValue     *float64       `mapstructure:"maxValue"`
	Precision    *int           `mapstructure:"precision"`
	Validators   []ruleNode     `mapstructure:"validators"`
	Properties   map[string]any `mapstructure:"properties"`
}

type ruleNode struct {
	Name    string `mapstructure:"name"`
	Rule    string `mapstructure:"rule"`
	Message string `mapstructure:"message"`
	Engine  string `mapstructure:"engine"`
}

func (l *Loader) decodeNode(path string, raw map[string]any) (formstate.Definition, error) {
	for _, hook := range l.preHooks {
		next, err := hook(path, raw)
		if err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("pre-hook: %w", err)}
		}
		if next != nil {
			raw = next
		}
	}

	var n node
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &n,
		WeaklyTypedInput: true,
		ErrorUnused:      l.strict,
	})
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}

	switch kind := n.kind(); kind {
	case formstate.KindField:
		return l.buildField(path, n)
	case formstate.KindGroup:
		return l.buildGroup(path, n)
	default:
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: unknown kind %q", ErrInvalidDocument, n.Kind)}
	}
}

func (n node) kind() formstate.Kind {
	switch strings.ToLower(strings.TrimSpace(n.Kind)) {
	case "field":
		return formstate.KindField
	case "group":
		return formstate.KindGroup
	case "":
		if n.Type != "" {
			return formstate.KindField
		}
		if n.Properties != nil {
			return formstate.KindGroup
		}
	}
	return formstate.Kind(n.Kind)
}

func (l *Loader) buildField(path string, n node) (*formstate.FieldDefinition, error) {
	if n.Type == "" {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: field without type", ErrInvalidDocument)}
	}
	if len(n.Properties) > 0 {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: field with properties", ErrInvalidDocument)}
	}

	resolved, err := formstate.ResolveFieldOptions(n.Type, nil, l.formOpts...)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	options := formstate.FieldOptions{
		Title:            n.Title,
		PlaceholderValue: n.Placeholder,
	}
	if n.MaxLength > 0 || n.Multiline {
		options.Text = &formstate.TextOptions{MaxLength: n.MaxLength, Multiline: n.Multiline}
	}
	if n.ThreeState {
		options.Bool = &formstate.BoolOptions{ThreeState: true}
	}
	if n.MinValue != nil || n.MaxValue != nil || n.Precision != nil {
		numeric := &formstate.NumericOptions{MinValue: n.MinValue, MaxValue: n.MaxValue, Precision: n.Precision}
		if numeric.Precision == nil && resolved.Numeric != nil {
			numeric.Precision = resolved.Numeric.Precision
		}
		options.Numeric = numeric
	}
	if n.InitialValue != nil {
		// Align untyped document numbers with the field type.
		probe := &formstate.FieldState{Type: n.Type, Options: resolved}
		if options.Numeric != nil || options.Text != nil {
			layered := *resolved
			if options.Numeric != nil {
				layered.Numeric = options.Numeric
			}
			if options.Text != nil {
				layered.Text = options.Text
			}
			probe.Options = &layered
		}
		options.InitialValue = resolved.Coerce(n.InitialValue, probe)
	}

	for i, entry := range n.Validators {
		factory, err := l.fieldValidator(entry)
		if err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("validator %d: %w", i, err)}
		}
		options.ValidatorFactories = append(options.ValidatorFactories, factory)
	}

	return formstate.Field(n.Type, options), nil
}

func (l *Loader) buildGroup(path string, n node) (*formstate.GroupDefinition, error) {
	if n.Type != "" {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: group with type %q", ErrInvalidDocument, n.Type)}
	}

	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make(formstate.Properties, len(names))
	for _, name := range names {
		childPath := name
		if path != "" {
			childPath = path + "." + name
		}
		raw, ok := n.Properties[name].(map[string]any)
		if !ok {
			return nil, &Error{Path: childPath, Err: fmt.Errorf("%w: expected a mapping, got %T", ErrInvalidDocument, n.Properties[name])}
		}
		child, err := l.decodeNode(childPath, raw)
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}

	options := formstate.GroupOptions{Title: n.Title}
	for i, entry := range n.Validators {
		factory, err := l.groupValidator(entry)
		if err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("validator %d: %w", i, err)}
		}
		options.ValidatorFactories = append(options.ValidatorFactories, factory)
	}
	return formstate.Group(properties, options), nil
}

func (l *Loader) fieldValidator(entry ruleNode) (formstate.FieldValidatorFactory, error) {
	evaluator, rule, err := l.rule(entry)
	if err != nil {
		return nil, err
	}
	return rules.FieldValidator(evaluator, []rules.Rule{rule}, l.ruleOpts...)
}

func (l *Loader) groupValidator(entry ruleNode) (formstate.GroupValidatorFactory, error) {
	evaluator, rule, err := l.rule(entry)
	if err != nil {
		return nil, err
	}
	return rules.GroupValidator(evaluator, []rules.Rule{rule}, l.ruleOpts...)
}

func (l *Loader) rule(entry ruleNode) (rules.Evaluator, rules.Rule, error) {
	if strings.TrimSpace(entry.Rule) == "" {
		return nil, rules.Rule{}, fmt.Errorf("%w: validator without rule", ErrInvalidDocument)
	}
	evaluator, err := l.evaluators.Get(entry.Engine)
	if err != nil {
		return nil, rules.Rule{}, err
	}
	return evaluator, rules.Rule{Name: entry.Name, Expr: entry.Rule, Message: entry.Message}, nil
}
