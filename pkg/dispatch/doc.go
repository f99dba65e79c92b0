// Package dispatch is the single-threaded action runtime backing form stores.
//
// A Store holds the current state snapshot, applies a pure reducer to every
// dispatched Action and publishes three streams:
//
//   - state: the latest snapshot, replayed to new subscribers
//   - actions: every action in processing order
//   - updates: (prior state, new state, action) triples consumed by effects
//
// Dispatch is synchronous. The goroutine that finds the queue idle drains it;
// actions dispatched while draining (by effects, subscribers or any other
// goroutine) are queued and processed in arrival order. The reducer is never
// re-entered and runs exactly once per action.
//
// Effects are registered with WithEffects and started when the store is
// built:
//
//	store := dispatch.New(reduce, initial, dispatch.WithEffects(
//	    dispatch.OnUpdate(func(u dispatch.Update[State]) []dispatch.Action { ... }),
//	    dispatch.Latest(dispatch.Match("reset"), resetFn),
//	))
//
// Latest implements supersede-latest semantics: every matching trigger cancels
// the previous computation of the same effect and late results are dropped.
package dispatch
