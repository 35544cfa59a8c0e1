// Package resource provides asynchronously resolving reactive nodes built on
// the vireo scope core.
//
// A Resource claims a hydration key at construction, runs its fetcher in a
// goroutine, and exposes its lifecycle (Pending → Loading → Ready | Error)
// through signals owned by the creating scope. In a reconstructing run that
// was seeded with resolved payloads (Runtime.ProvideResolved), a resource
// adopts the precomputed result for its key instead of fetching.
package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/vireo-dev/vireo/pkg/vireo"
)

// State represents the current state of a resource.
type State int

const (
	Pending State = iota // before the first fetch begins
	Loading              // fetch in progress
	Ready                // value available
	Error                // fetch failed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Resource manages one unit of asynchronous data tied to a scope.
//
// The creating scope holds one reference through its resource container and
// the in-flight fetch holds another, so the resource outlives disposal for
// exactly as long as the fetch needs it. Disposing the owning scope does not
// cancel the fetch; its late completion degrades to a no-op because the
// disposed signals drop the writes.
//
// Completion is applied through the configured dispatcher. The default
// dispatcher applies it on the fetching goroutine, which is safe under the
// handoff pattern: the owner blocks on Wait, ResolveSerialized, or
// Runtime.ResolveResources before touching the tree again.
type Resource[T any] struct {
	rt      *vireo.Runtime
	key     string
	fetcher func(context.Context) (T, error)

	state vireo.Signal[State]
	data  vireo.Signal[T]
	err   vireo.Signal[error]

	suspense    vireo.SuspenseContext
	hasSuspense bool

	codec    vireo.Codec
	dispatch func(func())
	baseCtx  context.Context

	mu      sync.Mutex
	fetchID uint64

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Resource.
type Option[T any] func(*Resource[T])

// WithDispatch sets the function used to apply fetch completions to the
// reactive tree. Supply the owning event loop's dispatch here when the tree
// stays live across ticks.
func WithDispatch[T any](dispatch func(func())) Option[T] {
	return func(r *Resource[T]) {
		r.dispatch = dispatch
	}
}

// WithContext sets the base context passed to the fetcher.
// Defaults to context.Background().
func WithContext[T any](ctx context.Context) Option[T] {
	return func(r *Resource[T]) {
		r.baseCtx = ctx
	}
}

// WithCodec overrides the runtime codec for this resource's payload.
func WithCodec[T any](c vireo.Codec) Option[T] {
	return func(r *Resource[T]) {
		r.codec = c
	}
}

// New creates a resource on cx and starts its first fetch. If the runtime
// holds a resolved payload for the claimed hydration key, the fetcher is
// never called and the resource goes straight to Ready with the decoded
// value.
func New[T any](cx vireo.Scope, fetcher func(context.Context) (T, error), opts ...Option[T]) *Resource[T] {
	var initial T
	r := &Resource[T]{
		rt:      cx.Runtime(),
		key:     cx.NextHydrationKey(),
		fetcher: fetcher,
		state:   vireo.CreateSignal(cx, Pending),
		data:    vireo.CreateSignal(cx, initial),
		err:     vireo.CreateSignal[error](cx, nil),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.codec == nil && r.rt != nil {
		r.codec = r.rt.Codec()
	}
	if r.dispatch == nil {
		r.dispatch = func(fn func()) { fn() }
	}
	if r.baseCtx == nil {
		r.baseCtx = context.Background()
	}

	if sus, ok := vireo.UseContext[vireo.SuspenseContext](cx); ok {
		r.suspense = sus
		r.hasSuspense = true
	}

	cx.PushResource(r)

	if r.rt != nil {
		if payload, ok := r.rt.ResolvedPayload(r.key); ok {
			r.adopt(payload)
			return r
		}
	}

	r.fetch()
	return r
}

// adopt installs a precomputed payload from an earlier run.
func (r *Resource[T]) adopt(payload string) {
	var value T
	if err := r.codec.Decode([]byte(payload), &value); err != nil {
		r.err.Set(fmt.Errorf("resource: decode payload for key %q: %w", r.key, err))
		r.state.Set(Error)
	} else {
		r.data.Set(value)
		r.state.Set(Ready)
	}
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *Resource[T]) fetch() {
	r.mu.Lock()
	r.fetchID++
	id := r.fetchID
	r.mu.Unlock()

	if r.hasSuspense {
		r.suspense.Increment()
	}
	r.state.Set(Loading)

	go func() {
		value, err := r.fetcher(r.baseCtx)

		r.dispatch(func() {
			// Every fetch incremented the suspense count, so every
			// completion must decrement it, including one superseded by a
			// Refetch; otherwise the count never returns to zero.
			if r.hasSuspense {
				r.suspense.Decrement()
			}

			r.mu.Lock()
			stale := r.fetchID != id
			r.mu.Unlock()
			if stale {
				return
			}

			if err != nil {
				r.err.Set(err)
				r.state.Set(Error)
			} else {
				r.err.Set(nil)
				r.data.Set(value)
				r.state.Set(Ready)
			}
			r.doneOnce.Do(func() { close(r.done) })
		})
	}()
}

// Refetch starts a new fetch, superseding any in-flight one; the superseded
// completion is ignored.
func (r *Resource[T]) Refetch() {
	r.fetch()
}

// State returns the current state. The read is tracked.
func (r *Resource[T]) State() State {
	return r.state.Get()
}

// IsLoading reports whether the resource has no value yet.
func (r *Resource[T]) IsLoading() bool {
	s := r.state.Get()
	return s == Pending || s == Loading
}

// IsReady reports whether a value is available.
func (r *Resource[T]) IsReady() bool {
	return r.state.Get() == Ready
}

// Data returns the current value. The read is tracked.
func (r *Resource[T]) Data() T {
	return r.data.Get()
}

// DataOr returns the value when Ready, or fallback otherwise.
func (r *Resource[T]) DataOr(fallback T) T {
	if r.IsReady() {
		return r.data.Get()
	}
	return fallback
}

// Err returns the fetch error, if any. The read is tracked.
func (r *Resource[T]) Err() error {
	return r.err.Get()
}

// Wait blocks until the first fetch (or adoption) completes, or ctx expires.
func (r *Resource[T]) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HydrationKey returns the correlation key this resource claimed at
// construction. Implements vireo.AnyResource.
func (r *Resource[T]) HydrationKey() string {
	return r.key
}

// ResolveSerialized waits for the first completion and returns the encoded
// value. Implements vireo.AnyResource.
func (r *Resource[T]) ResolveSerialized(ctx context.Context) (string, error) {
	if err := r.Wait(ctx); err != nil {
		return "", err
	}
	if err := r.err.Peek(); err != nil {
		return "", err
	}
	encoded, err := r.codec.Encode(r.data.Peek())
	if err != nil {
		return "", fmt.Errorf("resource: encode value for key %q: %w", r.key, err)
	}
	return string(encoded), nil
}
