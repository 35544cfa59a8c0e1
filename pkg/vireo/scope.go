package vireo

import (
	"log/slog"
	"reflect"

	"github.com/vireo-dev/vireo/internal/arena"
	"github.com/vireo-dev/vireo/internal/seglist"
)

// ScopeID is an opaque key into a Runtime's scope arena. It has no meaning
// outside its owning Runtime. A ScopeID is valid exactly until its scope is
// disposed; a stale id never aliases a scope created later.
type ScopeID struct {
	key arena.Key
}

// SignalID is the index of a signal within its owning scope.
type SignalID int

// EffectID is the index of an effect within its owning scope.
type EffectID int

// ResourceID is the index of a resource within its owning scope.
type ResourceID int

// Scope is a copyable handle to one node of the ownership tree. Many copies
// may exist; they all refer to the same underlying state, and disposing
// through any copy disposes it for all of them.
//
// Operations on a handle whose scope has been disposed are silent no-ops.
type Scope struct {
	runtime *Runtime
	id      ScopeID
}

// ID returns the scope's arena key.
func (cx Scope) ID() ScopeID {
	return cx.id
}

// Runtime returns the Runtime that owns this scope.
func (cx Scope) Runtime() *Runtime {
	return cx.runtime
}

// scopeState is the per-scope record. It is owned exclusively by the
// Runtime's arena entry and only ever reached through a Scope handle.
type scopeState struct {
	// parent is set at construction and immutable thereafter.
	parent *Scope

	children []ScopeID

	// contexts holds at most one value per type key, shadowing any ancestor
	// value of the same type.
	contexts map[reflect.Type]any

	// Node containers. Indices are handed out monotonically and never
	// reused; the segmented lists keep element addresses stable so a node
	// initializer may read earlier siblings while its own push is in flight.
	signals   seglist.List[any]
	effects   seglist.List[AnyEffect]
	resources seglist.List[AnyResource]

	// cleanups run in registration order at disposal.
	cleanups []func()
}

func newScopeState(parent *Scope) *scopeState {
	return &scopeState{parent: parent}
}

// state resolves the handle against the arena.
func (cx Scope) state() (*scopeState, bool) {
	if cx.runtime == nil {
		return nil, false
	}
	return cx.runtime.scopes.Get(cx.id.key)
}

// ChildScope allocates a child scope, runs f with its handle, and returns a
// disposer bound to exactly that child. The child's lifetime is bounded by
// this scope: disposing the parent disposes the child first.
func (cx Scope) ChildScope(f func(Scope)) ScopeDisposer {
	if cx.runtime == nil {
		return ScopeDisposer{}
	}
	self := cx
	return cx.runtime.createScope(f, &self)
}

// OnCleanup registers fn to run when this scope is disposed. Cleanups run
// after all children are disposed, in the order they were registered.
func (cx Scope) OnCleanup(fn func()) {
	state, ok := cx.state()
	if !ok {
		return
	}
	state.cleanups = append(state.cleanups, fn)
}

// PushSignal appends a signal payload to this scope and returns its index.
// On a disposed scope the push is dropped and the returned id refers to
// nothing; callers are expected not to reuse handles across disposal.
func (cx Scope) PushSignal(payload any) SignalID {
	state, ok := cx.state()
	if !ok {
		cx.deadPush("signal")
		return 0
	}
	cx.runtime.metrics.nodePushed("signal")
	return SignalID(state.signals.Push(payload))
}

// PushEffect appends an effect node to this scope and returns its index.
// The effect's ClearDependencies is invoked exactly once when the scope is
// disposed. Disposed-scope semantics match PushSignal.
func (cx Scope) PushEffect(payload AnyEffect) EffectID {
	state, ok := cx.state()
	if !ok {
		cx.deadPush("effect")
		return 0
	}
	cx.runtime.metrics.nodePushed("effect")
	return EffectID(state.effects.Push(payload))
}

// PushResource appends a resource node to this scope and returns its index.
// The scope holds one reference to the payload; an in-flight async task may
// hold another, so the payload outlives disposal for as long as the task
// needs it. Disposed-scope semantics match PushSignal.
func (cx Scope) PushResource(payload AnyResource) ResourceID {
	state, ok := cx.state()
	if !ok {
		cx.deadPush("resource")
		return 0
	}
	cx.runtime.metrics.nodePushed("resource")
	return ResourceID(state.resources.Push(payload))
}

func (cx Scope) deadPush(kind string) {
	if cx.runtime != nil {
		cx.runtime.logger.Debug("push on disposed scope", slog.String("kind", kind))
	}
}

// Dispose tears down this scope and everything it owns. The sequence is:
// remove the scope from the arena (after which the handle is dead), dispose
// every child the same way, sever every effect's dependency edges, then run
// the cleanups in registration order. Children are disposed before the
// parent's own cleanups so teardown is strictly bottom-up.
//
// Dispose is idempotent: a second call finds the arena entry gone and
// returns immediately.
func (cx Scope) Dispose() {
	rt := cx.runtime
	if rt == nil {
		return
	}
	state, ok := rt.scopes.Remove(cx.id.key)
	if !ok {
		return
	}

	for _, child := range state.children {
		Scope{runtime: rt, id: child}.Dispose()
	}

	state.effects.ForEach(func(_ int, e *AnyEffect) {
		(*e).ClearDependencies()
	})

	for _, cleanup := range state.cleanups {
		cleanup()
		rt.metrics.cleanupRun()
	}

	rt.metrics.scopeDisposed()
	rt.logger.Debug("scope disposed")
}

// ProvideContext stores value in cx's context map under its type key,
// replacing any previous value of the same type on this scope. Descendant
// scopes observe it through UseContext until one of them shadows it.
func ProvideContext[T any](cx Scope, value T) {
	state, ok := cx.state()
	if !ok {
		return
	}
	if state.contexts == nil {
		state.contexts = make(map[reflect.Type]any)
	}
	state.contexts[typeKey[T]()] = value
}

// UseContext looks up a context value of type T on cx or the nearest
// ancestor that provides one.
func UseContext[T any](cx Scope) (T, bool) {
	key := typeKey[T]()

	state, ok := cx.state()
	for ok {
		if v, found := state.contexts[key]; found {
			return v.(T), true
		}
		if state.parent == nil {
			break
		}
		state, ok = state.parent.state()
	}

	var zero T
	return zero, false
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
