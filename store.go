package formstate

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/dispatch"
	"github.com/google/uuid"
)

// FormStore is a live field or group store.
type FormStore interface {
	Kind() Kind
	// ID is a random UUID assigned at construction.
	ID() string
	// Path is the dotted location of the store in its tree; "" for a root
	// store built without WithPath.
	Path() string
	Value() any
	Snapshot() State
	Reset()
	Dispatch(action dispatch.Action)
	// Watch registers fn for every snapshot, starting with the current one.
	Watch(fn func(State)) (unsubscribe func())
	Close()
}

// CreateFormStore builds a field or group store for def.
func CreateFormStore(def Definition, opts ...Option) (FormStore, error) {
	return createFormStore(def, applyOptions(opts), map[*GroupDefinition]struct{}{})
}

// CreateFieldStore builds a field store.
func CreateFieldStore(def *FieldDefinition, opts ...Option) (*FieldStore, error) {
	return createFieldStore(def, applyOptions(opts))
}

// CreateGroupStore builds a group store and, recursively, its children.
func CreateGroupStore(def *GroupDefinition, opts ...Option) (*GroupStore, error) {
	return createGroupStore(def, applyOptions(opts), map[*GroupDefinition]struct{}{})
}

func createFormStore(def Definition, cfg config, ancestors map[*GroupDefinition]struct{}) (FormStore, error) {
	switch typed := def.(type) {
	case nil:
		return nil, &DefinitionError{Path: cfg.path, Err: ErrNilDefinition}
	case *FieldDefinition:
		store, err := createFieldStore(typed, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case *GroupDefinition:
		store, err := createGroupStore(typed, cfg, ancestors)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, &DefinitionError{Path: cfg.path, Err: fmt.Errorf("%w: %T", ErrUnknownDefinition, def)}
	}
}

// FieldStore is the live store of a single field.
type FieldStore struct {
	id     string
	path   string
	store  *dispatch.Store[*FieldState]
	logger *slog.Logger
	once   sync.Once
}

func createFieldStore(def *FieldDefinition, cfg config) (*FieldStore, error) {
	initial, err := defaultFieldState(def, cfg)
	if err != nil {
		cfg.logger.Error("formstate field store", "path", cfg.path, "error", err)
		return nil, err
	}

	validators := make([]Validator, 0, len(initial.Options.ValidatorFactories))
	for _, factory := range initial.Options.ValidatorFactories {
		if factory == nil {
			continue
		}
		if validator := factory(initial); validator != nil {
			validators = append(validators, validator)
		}
	}

	id := uuid.NewString()
	logger := cfg.logger.With("store", KindField, "path", cfg.path, "id", id)
	s := &FieldStore{id: id, path: cfg.path, logger: logger}
	observe := newObserver[*FieldState](KindField, id, cfg, logger)

	s.store = dispatch.New(ReduceField, initial,
		dispatch.WithObserver(observe),
		dispatch.WithEffects(FieldEffects(validators, latestOptions(cfg, logger)...)),
	)
	logger.Debug("formstate field store created", "type", def.Type, "validators", len(validators))
	return s, nil
}

// Kind implements FormStore.
func (*FieldStore) Kind() Kind { return KindField }

// ID implements FormStore.
func (s *FieldStore) ID() string { return s.id }

// Path implements FormStore.
func (s *FieldStore) Path() string { return s.path }

// State returns the current snapshot.
func (s *FieldStore) State() *FieldState { return s.store.State() }

// Snapshot implements FormStore.
func (s *FieldStore) Snapshot() State { return s.store.State() }

// Value implements FormStore.
func (s *FieldStore) Value() any { return s.store.State().Value }

// Update coerces value with the resolved Coerce and dispatches it.
func (s *FieldStore) Update(value any) {
	state := s.store.State()
	s.store.Dispatch(Update(state.Options.Coerce(value, state)))
}

// Focus dispatches a focus trigger.
func (s *FieldStore) Focus() { s.store.Dispatch(Focus()) }

// Blur dispatches a blur trigger.
func (s *FieldStore) Blur() { s.store.Dispatch(Blur()) }

// Reset implements FormStore.
func (s *FieldStore) Reset() { s.store.Dispatch(Reset()) }

// Dispatch implements FormStore.
func (s *FieldStore) Dispatch(action dispatch.Action) { s.store.Dispatch(action) }

// Subscribe registers fn for every snapshot, starting with the current one.
func (s *FieldStore) Subscribe(fn func(*FieldState)) (unsubscribe func()) {
	return s.store.SubscribeState(fn)
}

// SubscribeActions registers fn for every processed action.
func (s *FieldStore) SubscribeActions(fn func(dispatch.Action)) (unsubscribe func()) {
	return s.store.SubscribeActions(fn)
}

// Watch implements FormStore.
func (s *FieldStore) Watch(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.store.SubscribeState(func(state *FieldState) { fn(state) })
}

// Close stops the effects and drops subscribers. It is safe to call twice.
func (s *FieldStore) Close() {
	s.once.Do(func() {
		s.store.Close()
		s.logger.Debug("formstate field store closed")
	})
}

// GroupStore is the live store of a group. It owns its children.
type GroupStore struct {
	id       string
	path     string
	store    *dispatch.Store[*GroupState]
	children map[string]FormStore
	logger   *slog.Logger
	unwatch  []func()
	once     sync.Once
}

func createGroupStore(def *GroupDefinition, cfg config, ancestors map[*GroupDefinition]struct{}) (*GroupStore, error) {
	initial, err := defaultGroupState(def, cfg, ancestors)
	if err != nil {
		cfg.logger.Error("formstate group store", "path", cfg.path, "error", err)
		return nil, err
	}

	validators := make([]Validator, 0, len(initial.Options.ValidatorFactories))
	for _, factory := range initial.Options.ValidatorFactories {
		if factory == nil {
			continue
		}
		if validator := factory(initial); validator != nil {
			validators = append(validators, validator)
		}
	}

	id := uuid.NewString()
	logger := cfg.logger.With("store", KindGroup, "path", cfg.path, "id", id)
	s := &GroupStore{id: id, path: cfg.path, children: initial.Children, logger: logger}
	observe := newObserver[*GroupState](KindGroup, id, cfg, logger)

	s.store = dispatch.New(ReduceGroup, initial,
		dispatch.WithObserver(observe),
		dispatch.WithEffects(GroupEffects(validators, latestOptions(cfg, logger)...)),
	)
	if cfg.propagateChildValues {
		for _, name := range sortedStoreNames(s.children) {
			s.unwatch = append(s.unwatch, s.children[name].Watch(func(State) { s.syncChildValues() }))
		}
	}
	logger.Debug("formstate group store created", "children", len(s.children), "validators", len(validators))
	return s, nil
}

// syncChildValues mirrors the children's values into the group value.
func (s *GroupStore) syncChildValues() {
	value := AggregateValue(s.children)
	if reflect.DeepEqual(value, s.store.State().Value) {
		return
	}
	s.store.Dispatch(StateChanged(StateChange{
		Reason:      ReasonChild,
		ChangeValue: &ValueChange{Value: value},
	}))
}

// Kind implements FormStore.
func (*GroupStore) Kind() Kind { return KindGroup }

// ID implements FormStore.
func (s *GroupStore) ID() string { return s.id }

// Path implements FormStore.
func (s *GroupStore) Path() string { return s.path }

// State returns the current snapshot.
func (s *GroupStore) State() *GroupState { return s.store.State() }

// Snapshot implements FormStore.
func (s *GroupStore) Snapshot() State { return s.store.State() }

// Value implements FormStore. Without child value propagation it is the
// aggregate computed at construction.
func (s *GroupStore) Value() any { return s.store.State().Value }

// Children returns a copy of the child map.
func (s *GroupStore) Children() map[string]FormStore {
	out := make(map[string]FormStore, len(s.children))
	for name, child := range s.children {
		out[name] = child
	}
	return out
}

// Child returns the direct child called name.
func (s *GroupStore) Child(name string) (FormStore, bool) {
	child, ok := s.children[name]
	return child, ok
}

// Field resolves a dotted path below the group to a field store.
func (s *GroupStore) Field(path string) (*FieldStore, bool) {
	store, ok := s.Lookup(path)
	if !ok {
		return nil, false
	}
	field, ok := store.(*FieldStore)
	return field, ok
}

// Lookup resolves a dotted path below the group.
func (s *GroupStore) Lookup(path string) (FormStore, bool) {
	var current FormStore = s
	for _, name := range splitPath(path) {
		group, ok := current.(*GroupStore)
		if !ok {
			return nil, false
		}
		if current, ok = group.children[name]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Reset implements FormStore. Only the group's own flags are reset; children
// keep their state.
func (s *GroupStore) Reset() { s.store.Dispatch(Reset()) }

// ResetAll resets every descendant, then the group itself.
func (s *GroupStore) ResetAll() {
	for _, name := range sortedStoreNames(s.children) {
		if group, ok := s.children[name].(*GroupStore); ok {
			group.ResetAll()
			continue
		}
		s.children[name].Reset()
	}
	s.Reset()
}

// Dispatch implements FormStore.
func (s *GroupStore) Dispatch(action dispatch.Action) { s.store.Dispatch(action) }

// Subscribe registers fn for every snapshot, starting with the current one.
func (s *GroupStore) Subscribe(fn func(*GroupState)) (unsubscribe func()) {
	return s.store.SubscribeState(fn)
}

// SubscribeActions registers fn for every action processed by the group.
func (s *GroupStore) SubscribeActions(fn func(dispatch.Action)) (unsubscribe func()) {
	return s.store.SubscribeActions(fn)
}

// Watch implements FormStore.
func (s *GroupStore) Watch(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.store.SubscribeState(func(state *GroupState) { fn(state) })
}

// Close closes the group and every child. It is safe to call twice.
func (s *GroupStore) Close() {
	s.once.Do(func() {
		for _, unwatch := range s.unwatch {
			unwatch()
		}
		closeChildren(s.children)
		s.store.Close()
		s.logger.Debug("formstate group store closed")
	})
}

func sortedStoreNames(children map[string]FormStore) []string {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func latestOptions(cfg config, logger *slog.Logger) []dispatch.LatestOption {
	return []dispatch.LatestOption{
		dispatch.AsyncIf(cfg.asyncEffects),
		dispatch.OnDrop(func(trigger dispatch.Action) {
			logger.Debug("formstate superseded effect output dropped", "action", trigger.Type)
		}),
	}
}

// newObserver logs every processed action, reports it to the configured
// ActionObserver and publishes activity events for applied changes.
func newObserver[S State](kind Kind, id string, cfg config, logger *slog.Logger) func(dispatch.Update[S]) {
	observer := cfg.observer
	emitter := cfg.emitter
	path := cfg.path
	return func(u dispatch.Update[S]) {
		logger.Debug("formstate action", "action", u.Action.Type)
		if observer != nil {
			observer.ObserveAction(string(kind), path, string(u.Action.Type))
		}
		if !emitter.Enabled() {
			return
		}
		for _, event := range activityEvents(kind, id, path, u.Prior.Common(), u.State.Common(), u.Action) {
			if err := emitter.Emit(context.Background(), event); err != nil {
				logger.Warn("formstate activity emit failed", "verb", event.Verb, "error", err)
			}
		}
	}
}

func activityEvents(kind Kind, id, path string, prior, next CommonState, action dispatch.Action) []activity.Event {
	input := activity.FormEventInput{StoreID: id, Kind: string(kind), Path: path}
	var events []activity.Event

	if change, ok := stateChangePayload(action); ok && action.Type == ActionStateChanged {
		input.Reason = change.Reason
		switch {
		case change.ChangeValidation != nil && !prior.Errors.Equal(next.Errors):
			messages := make([]string, 0, len(next.Errors.Errors))
			for _, failure := range next.Errors.Errors {
				messages = append(messages, failure.Message)
			}
			input.Errors = messages
			events = append(events, activity.BuildValidationChangedEvent(input))
		case change.ChangeValue != nil || change.ChangeFocus != nil:
			input.OldValue = prior.Value
			input.NewValue = next.Value
			events = append(events, activity.BuildStateChangedEvent(input))
		}
		input.Errors = nil
	}

	if prior.IsDirty != next.IsDirty {
		dirty := next.IsDirty
		input.IsDirty = &dirty
		input.OldValue, input.NewValue = nil, nil
		events = append(events, activity.BuildDirtyChangedEvent(input))
	}
	return events
}
