package vireo

import (
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vireo-dev/vireo/internal/arena"
)

// Runtime owns every scope in one reactive tree: the arena holding scope
// state, the ambient tracking state used for dependency collection, and the
// optional hydration context shared across producing and reconstructing runs.
//
// A Runtime must outlive every Scope handle derived from it. Long-lived
// applications typically create one Runtime and never tear it down, disposing
// individual scopes instead. All operations assume a single logical caller;
// see the package documentation for the threading model.
type Runtime struct {
	id     string
	scopes *arena.Arena[*scopeState]

	// observer is the effect currently collecting dependencies.
	observer *effectState

	// untracked suppresses dependency collection while set.
	untracked bool

	shared *SharedContext

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	codec   Codec
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger used for debug-level lifecycle events.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithMetrics attaches a Metrics collector to the Runtime.
func WithMetrics(m *Metrics) RuntimeOption {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer used for the blocking hydration
// operations. Without a tracer those operations emit no spans.
func WithTracer(t trace.Tracer) RuntimeOption {
	return func(rt *Runtime) {
		rt.tracer = t
	}
}

// WithTracerName resolves a tracer by name from the global otel provider.
func WithTracerName(name string) RuntimeOption {
	return func(rt *Runtime) {
		rt.tracer = otel.Tracer(name)
	}
}

// WithCodec sets the codec used to serialize resource payloads for handoff
// between runs. Defaults to JSONCodec.
func WithCodec(c Codec) RuntimeOption {
	return func(rt *Runtime) {
		rt.codec = c
	}
}

// NewRuntime creates an empty Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		id:     uuid.NewString(),
		scopes: arena.New[*scopeState](),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	rt.logger = rt.logger.With(slog.String("runtime", rt.id[:8]))
	if rt.codec == nil {
		rt.codec = JSONCodec{}
	}
	return rt
}

// ID returns the unique identifier of this Runtime instance.
func (rt *Runtime) ID() string {
	return rt.id
}

// Codec returns the Runtime's payload codec.
func (rt *Runtime) Codec() Codec {
	return rt.codec
}

// Tracking reports whether dependency collection is currently active,
// i.e. not suppressed by Untrack.
func (rt *Runtime) Tracking() bool {
	return !rt.untracked
}

// CreateScope allocates a root scope, runs f with its handle, and returns the
// disposer for the new scope.
//
// The returned disposer must eventually be consumed: a scope that is never
// disposed keeps itself and all of its descendants in the arena forever.
func (rt *Runtime) CreateScope(f func(Scope)) ScopeDisposer {
	return rt.createScope(f, nil)
}

func (rt *Runtime) createScope(f func(Scope), parent *Scope) ScopeDisposer {
	state := newScopeState(parent)
	id := ScopeID{key: rt.scopes.Insert(state)}

	if parent != nil {
		if ps, ok := rt.scopes.Get(parent.id.key); ok {
			ps.children = append(ps.children, id)
		}
	}

	cx := Scope{runtime: rt, id: id}
	rt.metrics.scopeCreated()
	rt.logger.Debug("scope created", slog.Bool("root", parent == nil))

	f(cx)

	return ScopeDisposer{dispose: cx.Dispose}
}

// RunScope allocates a root scope, runs f with its handle, disposes the scope
// synchronously, and returns f's result. Use it for short-lived throwaway
// executions where no reactivity outlives the call.
func RunScope[T any](rt *Runtime, f func(Scope) T) T {
	value, disposer := RunScopeUndisposed(rt, f)
	disposer.Dispose()
	return value
}

// RunScopeUndisposed is RunScope without the synchronous disposal: it returns
// f's result together with the disposer, leaving teardown to the caller.
// The same must-consume contract as CreateScope applies to the disposer.
func RunScopeUndisposed[T any](rt *Runtime, f func(Scope) T) (T, ScopeDisposer) {
	var value T
	disposer := rt.CreateScope(func(cx Scope) {
		value = f(cx)
	})
	return value, disposer
}

// Untrack runs f with dependency collection suppressed and returns its
// result. The previous tracking state is restored on every exit path,
// including a panic inside f.
func Untrack[T any](cx Scope, f func() T) T {
	rt := cx.runtime
	if rt == nil {
		return f()
	}
	prev := rt.untracked
	rt.untracked = true
	defer func() {
		rt.untracked = prev
	}()
	return f()
}

// track subscribes the current observer, if any, to the given subscriber set.
func (rt *Runtime) track(subs *subscribers) {
	if rt.untracked || rt.observer == nil {
		return
	}
	subs.add(rt.observer.ref)
	rt.observer.addSource(subs)
}

// runEffect executes the effect identified by ref, re-collecting its
// dependencies. A reference into a disposed scope is silently ignored; this
// is what makes stale notifications after disposal harmless.
func (rt *Runtime) runEffect(ref effectRef) {
	state, ok := rt.scopes.Get(ref.scope.key)
	if !ok {
		return
	}
	slot := state.effects.Get(int(ref.id))
	if slot == nil {
		return
	}
	e, ok := (*slot).(*effectState)
	if !ok {
		return
	}

	e.ClearDependencies()

	prevObserver := rt.observer
	prevUntracked := rt.untracked
	rt.observer = e
	rt.untracked = false
	defer func() {
		rt.observer = prevObserver
		rt.untracked = prevUntracked
	}()

	e.fn()
}
