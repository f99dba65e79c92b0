package formstate

import (
	"log/slog"
	"strings"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/activity"
)

// Option configures option resolution, state construction and stores.
type Option func(*config)

// ActionObserver is notified of every action a store processes. Implementations
// must be safe for concurrent use and must not block.
type ActionObserver interface {
	ObserveAction(kind, path, action string)
}

// ActionObserverFunc adapts a function to ActionObserver.
type ActionObserverFunc func(kind, path, action string)

// ObserveAction implements ActionObserver.
func (fn ActionObserverFunc) ObserveAction(kind, path, action string) {
	if fn != nil {
		fn(kind, path, action)
	}
}

type config struct {
	fieldTypeOptions   map[string]FieldOptions
	extraFieldTypes    map[string]FieldOptions
	globalFieldOptions *FieldOptions
	globalGroupOptions *GroupOptions

	logger               *slog.Logger
	emitter              *activity.Emitter
	observer             ActionObserver
	asyncEffects         bool
	propagateChildValues bool
	path                 string
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	return cfg
}

// WithFieldTypeOptions replaces the built-in per-type layers. The map is
// copied.
func WithFieldTypeOptions(types map[string]FieldOptions) Option {
	copied := make(map[string]FieldOptions, len(types))
	for name, options := range types {
		copied[name] = options
	}
	return func(cfg *config) {
		cfg.fieldTypeOptions = copied
	}
}

// WithFieldType registers (or overrides) a single per-type layer on top of
// whichever type map is in effect.
func WithFieldType(name string, options FieldOptions) Option {
	return func(cfg *config) {
		if cfg.extraFieldTypes == nil {
			cfg.extraFieldTypes = map[string]FieldOptions{}
		}
		cfg.extraFieldTypes[name] = options
	}
}

// WithGlobalFieldOptions replaces the global field layer.
func WithGlobalFieldOptions(options FieldOptions) Option {
	return func(cfg *config) {
		cfg.globalFieldOptions = &options
	}
}

// WithGlobalGroupOptions replaces the global group layer.
func WithGlobalGroupOptions(options GroupOptions) Option {
	return func(cfg *config) {
		cfg.globalGroupOptions = &options
	}
}

// WithLogger sets the structured logger used by stores.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithActivityEmitter publishes state change events through emitter.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *config) {
		cfg.emitter = emitter
	}
}

// WithActionObserver registers an observer of every processed action, across
// the whole store tree.
func WithActionObserver(observer ActionObserver) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}

// WithAsyncEffects runs the update and reset effects on their own goroutines.
// Superseded results are discarded.
func WithAsyncEffects() Option {
	return func(cfg *config) {
		cfg.asyncEffects = true
	}
}

// WithChildValuePropagation makes groups mirror their children's values: each
// child value change is dispatched to the parent as a stateChanged action with
// reason "child". Off by default.
func WithChildValuePropagation() Option {
	return func(cfg *config) {
		cfg.propagateChildValues = true
	}
}

// WithPath sets the dotted path of the root store, used in logs and activity
// events.
func WithPath(path string) Option {
	return func(cfg *config) {
		cfg.path = strings.TrimSpace(path)
	}
}

func (c config) fieldTypeLayer(fieldType string) (FieldOptions, bool) {
	if options, ok := c.extraFieldTypes[fieldType]; ok {
		return options, true
	}
	types := c.fieldTypeOptions
	if types == nil {
		types = DefaultFieldTypeOptions()
	}
	options, ok := types[fieldType]
	return options, ok
}

func (c config) globalFieldLayer() FieldOptions {
	if c.globalFieldOptions != nil {
		return *c.globalFieldOptions
	}
	return DefaultGlobalFieldOptions()
}

func (c config) globalGroupLayer() GroupOptions {
	if c.globalGroupOptions != nil {
		return *c.globalGroupOptions
	}
	return DefaultGlobalGroupOptions()
}

func (c config) child(name string) config {
	child := c
	child.path = joinPath(c.path, name)
	return child
}
