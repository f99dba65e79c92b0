package dispatch

import (
	"context"
	"sync"
)

// Effect derives follow-up actions from a store's streams. Start subscribes
// to whatever the effect needs and returns a function releasing it.
type Effect[S any] interface {
	Start(store *Store[S]) (stop func())
}

// EffectFunc adapts a plain function to Effect.
type EffectFunc[S any] func(store *Store[S]) (stop func())

// Start implements Effect.
func (fn EffectFunc[S]) Start(store *Store[S]) func() {
	if fn == nil {
		return nil
	}
	return fn(store)
}

// Match returns a predicate accepting actions of any of the given types.
func Match(types ...ActionType) func(Action) bool {
	return func(action Action) bool {
		for _, t := range types {
			if action.Type == t {
				return true
			}
		}
		return false
	}
}

// OnUpdate builds an effect that maps every update to zero or more actions
// dispatched back into the same store.
func OnUpdate[S any](fn func(Update[S]) []Action) Effect[S] {
	return EffectFunc[S](func(store *Store[S]) func() {
		return store.SubscribeUpdates(func(u Update[S]) {
			for _, action := range fn(u) {
				store.Dispatch(action)
			}
		})
	})
}

// OnState builds an effect over the state stream alone. fn sees the current
// snapshot on start and every snapshot after that.
func OnState[S any](fn func(S) []Action) Effect[S] {
	return EffectFunc[S](func(store *Store[S]) func() {
		return store.SubscribeState(func(state S) {
			for _, action := range fn(state) {
				store.Dispatch(action)
			}
		})
	})
}

// LatestOption configures a Latest effect.
type LatestOption func(*latestConfig)

type latestConfig struct {
	async bool
	onDrop func(Action)
}

// Async runs each computation on its own goroutine. Results are dispatched
// only if no newer trigger arrived in the meantime.
func Async() LatestOption {
	return func(cfg *latestConfig) {
		cfg.async = true
	}
}

// AsyncIf is Async when enabled is true.
func AsyncIf(enabled bool) LatestOption {
	return func(cfg *latestConfig) {
		cfg.async = cfg.async || enabled
	}
}

// OnDrop is called with the trigger of every computation whose output was
// discarded because a newer trigger superseded it.
func OnDrop(fn func(trigger Action)) LatestOption {
	return func(cfg *latestConfig) {
		cfg.onDrop = fn
	}
}

// Latest builds a supersede-latest effect: every update accepted by match
// starts a computation and cancels the previous one of this effect. Output of
// a superseded computation is never dispatched.
func Latest[S any](match func(Action) bool, fn func(ctx context.Context, u Update[S]) []Action, opts ...LatestOption) Effect[S] {
	cfg := latestConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &latest[S]{match: match, fn: fn, cfg: cfg}
}

type latest[S any] struct {
	match func(Action) bool
	fn    func(ctx context.Context, u Update[S]) []Action
	cfg   latestConfig

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (l *latest[S]) Start(store *Store[S]) func() {
	unsubscribe := store.SubscribeUpdates(func(u Update[S]) {
		if l.match != nil && !l.match(u.Action) {
			return
		}
		ctx, gen := l.begin()
		if !l.cfg.async {
			l.run(ctx, gen, store, u)
			return
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.run(ctx, gen, store, u)
		}()
	})
	return func() {
		unsubscribe()
		l.mu.Lock()
		l.gen++
		if l.cancel != nil {
			l.cancel()
			l.cancel = nil
		}
		l.mu.Unlock()
		l.wg.Wait()
	}
}

func (l *latest[S]) begin() (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.gen++
	l.cancel = cancel
	return ctx, l.gen
}

func (l *latest[S]) run(ctx context.Context, gen uint64, store *Store[S], u Update[S]) {
	out := l.fn(ctx, u)

	// The generation check and the enqueue happen atomically, so a trigger
	// that begins after the check always queues behind this output.
	current := store.DispatchIf(func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return gen == l.gen && ctx.Err() == nil
	}, out...)

	l.mu.Lock()
	if gen == l.gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	if !current && l.cfg.onDrop != nil {
		l.cfg.onDrop(u.Action)
	}
}

// Pipeline merges several effects into one.
func Pipeline[S any](effects ...Effect[S]) Effect[S] {
	return EffectFunc[S](func(store *Store[S]) func() {
		stops := make([]func(), 0, len(effects))
		for _, effect := range effects {
			if effect == nil {
				continue
			}
			if stop := effect.Start(store); stop != nil {
				stops = append(stops, stop)
			}
		}
		return func() {
			for _, stop := range stops {
				stop()
			}
		}
	})
}
