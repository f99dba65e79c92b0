// Package loader builds form definitions from YAML or JSON documents.
//
// A document is a tree of nodes:
//
//	kind: group
//	title: Profile
//	properties:
//	  name:
//	    type: text
//	    maxLength: 40
//	    validators:
//	      - rule: len(value) > 0
//	        message: name is required
//	  age:
//	    type: int
//	    minValue: 0
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/rules"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument reports a node that cannot be turned into a definition.
var ErrInvalidDocument = errors.New("loader: invalid document")

// Error locates a failure inside a document.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("loader: node %s: %v", path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PreHook may rewrite a raw node before it is decoded. Returning nil keeps the
// node unchanged.
type PreHook func(path string, node map[string]any) (map[string]any, error)

// Option configures a Loader.
type Option func(*Loader)

// Loader decodes documents into definitions.
type Loader struct {
	evaluators *rules.Registry
	evalOpts   []rules.EvaluatorOption
	overrides  map[string]rules.Evaluator
	preHooks   []PreHook
	ruleOpts   []rules.ValidatorOption
	formOpts   []formstate.Option
	strict     bool
}

// WithEvaluator overrides the evaluator used for validators naming engine.
func WithEvaluator(engine string, evaluator rules.Evaluator) Option {
	return func(l *Loader) {
		if l.overrides == nil {
			l.overrides = map[string]rules.Evaluator{}
		}
		l.overrides[engine] = evaluator
	}
}

// WithEvaluatorOptions configures the built-in evaluators, e.g. with a
// program cache or function registry.
func WithEvaluatorOptions(opts ...rules.EvaluatorOption) Option {
	return func(l *Loader) {
		l.evalOpts = append(l.evalOpts, opts...)
	}
}

// WithValidatorOptions is passed to every validator built from a document.
func WithValidatorOptions(opts ...rules.ValidatorOption) Option {
	return func(l *Loader) {
		l.ruleOpts = append(l.ruleOpts, opts...)
	}
}

// WithPreHook runs hook on every node, parents before children.
func WithPreHook(hook PreHook) Option {
	return func(l *Loader) {
		if hook != nil {
			l.preHooks = append(l.preHooks, hook)
		}
	}
}

// WithFormOptions sets the formstate options used to resolve field types while
// loading. Pass the same options to the store constructors.
func WithFormOptions(opts ...formstate.Option) Option {
	return func(l *Loader) {
		l.formOpts = append(l.formOpts, opts...)
	}
}

// WithStrict rejects unknown node keys.
func WithStrict() Option {
	return func(l *Loader) {
		l.strict = true
	}
}

// New builds a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	l.evaluators = rules.NewRegistry(l.evalOpts...)
	for engine, evaluator := range l.overrides {
		l.evaluators.Set(engine, evaluator)
	}
	return l
}

// ParseYAML decodes a YAML document with a new Loader.
func ParseYAML(data []byte, opts ...Option) (formstate.Definition, error) {
	return New(opts...).ParseYAML(data)
}

// ParseJSON decodes a JSON document with a new Loader.
func ParseJSON(data []byte, opts ...Option) (formstate.Definition, error) {
	return New(opts...).ParseJSON(data)
}

// Decode builds a definition from an already parsed document.
func Decode(document map[string]any, opts ...Option) (formstate.Definition, error) {
	return New(opts...).Decode(document)
}

// LoadFile reads path as JSON when it has a .json extension and as YAML
// otherwise.
func LoadFile(path string, opts ...Option) (formstate.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data, opts...)
	}
	return ParseYAML(data, opts...)
}

// ParseYAML decodes a YAML document.
func (l *Loader) ParseYAML(data []byte) (formstate.Definition, error) {
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("loader: parse yaml: %w", err)
	}
	return l.Decode(document)
}

// ParseJSON decodes a JSON document.
func (l *Loader) ParseJSON(data []byte) (formstate.Definition, error) {
	var document map[string]any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("loader: parse json: %w", err)
	}
	return l.Decode(document)
}

// Decode builds a definition from an already parsed document.
func (l *Loader) Decode(document map[string]any) (formstate.Definition, error) {
	if document == nil {
		return nil, &Error{Err: fmt.Errorf("%w: empty document", ErrInvalidDocument)}
	}
	def, err := l.decodeNode("", document)
	if err != nil {
		return nil, err
	}
	if err := formstate.ValidateDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}
