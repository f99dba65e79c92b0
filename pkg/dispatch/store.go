package dispatch

import (
	"sync"
)

// ActionType names an action. Types are compared by value.
type ActionType string

// Action is the unit of change accepted by a Store.
type Action struct {
	Type    ActionType
	Payload any
}

// Is reports whether the action has the given type.
func (a Action) Is(t ActionType) bool {
	return a.Type == t
}

// Reducer is a pure transition function. It must not mutate prior.
type Reducer[S any] func(prior S, action Action) S

// Update pairs an action with the state before and after it was reduced.
type Update[S any] struct {
	Prior  S
	State  S
	Action Action
}

// Option configures a Store.
type Option[S any] func(*storeConfig[S])

type storeConfig[S any] struct {
	effects   []Effect[S]
	observers []func(Update[S])
}

// WithEffects registers effects started once the store is constructed.
func WithEffects[S any](effects ...Effect[S]) Option[S] {
	return func(cfg *storeConfig[S]) {
		for _, effect := range effects {
			if effect != nil {
				cfg.effects = append(cfg.effects, effect)
			}
		}
	}
}

// WithObserver registers a function notified of every update before effects
// run. Observers must not block.
func WithObserver[S any](fn func(Update[S])) Option[S] {
	return func(cfg *storeConfig[S]) {
		if fn != nil {
			cfg.observers = append(cfg.observers, fn)
		}
	}
}

// Store is a publish/subscribe container around a reducer.
type Store[S any] struct {
	reducer Reducer[S]

	mu       sync.Mutex
	state    S
	queue    []Action
	draining bool
	closed   bool
	nextID   uint64

	stateSubs  map[uint64]func(S)
	actionSubs map[uint64]func(Action)
	updateSubs map[uint64]func(Update[S])
	// order keeps subscription order stable across the three maps.
	order []uint64

	stops []func()
}

// New builds a store and starts its effects.
func New[S any](reducer Reducer[S], initial S, opts ...Option[S]) *Store[S] {
	cfg := storeConfig[S]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	s := &Store[S]{
		reducer:    reducer,
		state:      initial,
		stateSubs:  map[uint64]func(S){},
		actionSubs: map[uint64]func(Action){},
		updateSubs: map[uint64]func(Update[S]){},
	}
	for _, observer := range cfg.observers {
		s.SubscribeUpdates(observer)
	}
	for _, effect := range cfg.effects {
		if stop := effect.Start(s); stop != nil {
			s.stops = append(s.stops, stop)
		}
	}
	return s
}

// State returns the current snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch enqueues action and, when no other dispatch is in progress,
// drains the queue before returning. Dispatching on a closed store is a no-op.
func (s *Store[S]) Dispatch(action Action) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, action)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.drainLocked()
}

// DispatchIf enqueues actions, in order and without interleaving, only if
// guard reports true. guard runs while the queue is locked and must not call
// back into the store. It reports the guard's answer.
func (s *Store[S]) DispatchIf(guard func() bool, actions ...Action) bool {
	s.mu.Lock()
	if guard != nil && !guard() {
		s.mu.Unlock()
		return false
	}
	if s.closed || len(actions) == 0 {
		s.mu.Unlock()
		return true
	}
	s.queue = append(s.queue, actions...)
	if s.draining {
		s.mu.Unlock()
		return true
	}
	s.draining = true
	s.drainLocked()
	return true
}

// drainLocked is entered with s.mu held and returns with it released.
func (s *Store[S]) drainLocked() {
	for len(s.queue) > 0 && !s.closed {
		action := s.queue[0]
		s.queue[0] = Action{}
		if len(s.queue) == 1 {
			s.queue = s.queue[:0]
		} else {
			s.queue = s.queue[1:]
		}

		prior := s.state
		next := s.reducer(prior, action)
		s.state = next
		stateSubs, actionSubs, updateSubs := s.snapshotSubscribersLocked()
		s.mu.Unlock()

		for _, fn := range stateSubs {
			fn(next)
		}
		for _, fn := range actionSubs {
			fn(action)
		}
		update := Update[S]{Prior: prior, State: next, Action: action}
		for _, fn := range updateSubs {
			fn(update)
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store[S]) snapshotSubscribersLocked() ([]func(S), []func(Action), []func(Update[S])) {
	var (
		stateSubs  []func(S)
		actionSubs []func(Action)
		updateSubs []func(Update[S])
	)
	for _, id := range s.order {
		if fn, ok := s.stateSubs[id]; ok {
			stateSubs = append(stateSubs, fn)
		}
		if fn, ok := s.actionSubs[id]; ok {
			actionSubs = append(actionSubs, fn)
		}
		if fn, ok := s.updateSubs[id]; ok {
			updateSubs = append(updateSubs, fn)
		}
	}
	return stateSubs, actionSubs, updateSubs
}

// SubscribeState registers fn for every new snapshot. fn is invoked
// immediately with the current snapshot.
func (s *Store[S]) SubscribeState(fn func(S)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.registerLocked()
	s.stateSubs[id] = fn
	current := s.state
	s.mu.Unlock()

	fn(current)
	return s.unsubscriber(id)
}

// SubscribeActions registers fn for every processed action.
func (s *Store[S]) SubscribeActions(fn func(Action)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.registerLocked()
	s.actionSubs[id] = fn
	return s.unsubscriber(id)
}

// SubscribeUpdates registers fn for every (prior, state, action) update.
func (s *Store[S]) SubscribeUpdates(fn func(Update[S])) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.registerLocked()
	s.updateSubs[id] = fn
	return s.unsubscriber(id)
}

func (s *Store[S]) registerLocked() uint64 {
	s.nextID++
	s.order = append(s.order, s.nextID)
	return s.nextID
}

func (s *Store[S]) unsubscriber(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.stateSubs, id)
			delete(s.actionSubs, id)
			delete(s.updateSubs, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Pending returns the number of queued actions not yet reduced.
func (s *Store[S]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops effects, drops subscribers and discards queued actions.
func (s *Store[S]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	stops := s.stops
	s.stops = nil
	s.stateSubs = map[uint64]func(S){}
	s.actionSubs = map[uint64]func(Action){}
	s.updateSubs = map[uint64]func(Update[S]){}
	s.order = nil
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// Closed reports whether Close has been called.
func (s *Store[S]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
