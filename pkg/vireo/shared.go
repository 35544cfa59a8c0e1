package vireo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vireo-dev/vireo/internal/arena"
)

// SharedContext is the per-runtime hydration session: a monotonic key
// counter, an optional nested fragment namespace, the registry of pending
// output fragments, and the resolved payloads fed into a reconstructing run.
//
// Key pairing relies entirely on request order. Two runs that call
// NextHydrationKey in the same control-flow order receive identical key
// sequences; the core cannot verify that precondition, it is a caller
// obligation.
type SharedContext struct {
	count    int
	context  *HydrationContext
	pending  map[string]*Fragment
	resolved map[string]string
}

func newSharedContext() *SharedContext {
	return &SharedContext{
		pending:  make(map[string]*Fragment),
		resolved: make(map[string]string),
	}
}

func (sc *SharedContext) nextKey() string {
	key := strconv.Itoa(sc.count)
	sc.count++
	return key
}

// sharedContext returns the Runtime's hydration session, creating it lazily.
func (rt *Runtime) sharedContext() *SharedContext {
	if rt.shared == nil {
		rt.shared = newSharedContext()
	}
	return rt.shared
}

// NextHydrationKey returns the next ordinal correlation key ("0", "1", …).
// Requesting a key when no hydration session is active starts one.
func (cx Scope) NextHydrationKey() string {
	if cx.runtime == nil {
		return ""
	}
	return cx.runtime.sharedContext().nextKey()
}

// IsHydrating reports whether a hydration session is active on the Runtime.
func (cx Scope) IsHydrating() bool {
	return cx.runtime != nil && cx.runtime.shared != nil
}

// HydrationContext is a nested fragment namespace. Deriving a child produces
// keys scoped under the parent's path instead of growing the runtime's
// global counter.
type HydrationContext struct {
	id    string
	count int
}

func (hc *HydrationContext) nextChild() *HydrationContext {
	child := &HydrationContext{id: fmt.Sprintf("%s-%d", hc.id, hc.count)}
	hc.count++
	return child
}

func (hc *HydrationContext) fragmentKey() string {
	return hc.id + "f"
}

// StartHydration installs the root fragment namespace, beginning a hydration
// session if none is active. It is a no-op if a namespace is already set.
func (rt *Runtime) StartHydration() {
	sc := rt.sharedContext()
	if sc.context == nil {
		sc.context = &HydrationContext{id: "0"}
	}
}

// EndHydration clears the fragment namespace. The key counter and the
// fragment registry survive so late resolvers still find their entries.
func (rt *Runtime) EndHydration() {
	if rt.shared != nil {
		rt.shared.context = nil
	}
}

// CurrentFragmentKey returns the key of the active fragment namespace,
// or "0f" when none is active.
func (cx Scope) CurrentFragmentKey() string {
	if cx.runtime != nil && cx.runtime.shared != nil && cx.runtime.shared.context != nil {
		return cx.runtime.shared.context.fragmentKey()
	}
	return "0f"
}

// WithNextContext runs f inside a derived child fragment namespace,
// restoring the parent namespace afterward on every exit path. The body runs
// untracked. Without an active namespace it degrades to a plain Untrack.
func WithNextContext[T any](cx Scope, f func() T) T {
	rt := cx.runtime
	if rt == nil || rt.shared == nil || rt.shared.context == nil {
		return Untrack(cx, f)
	}

	sc := rt.shared
	parent := sc.context
	sc.context = parent.nextChild()
	defer func() {
		sc.context = parent
	}()

	return Untrack(cx, f)
}

// Fragment is a not-yet-resolved unit of output registered under a
// caller-chosen key. It becomes resolvable once its suspense pending-count
// first reaches zero.
type Fragment struct {
	key     string
	ready   chan struct{}
	resolve func() string
}

// Key returns the key the fragment was registered under.
func (f *Fragment) Key() string {
	return f.key
}

// Resolve blocks until the fragment's outstanding async work is done, then
// invokes the resolver and returns its content. No timeout is imposed here;
// bound the wait through ctx.
func (f *Fragment) Resolve(ctx context.Context) (string, error) {
	select {
	case <-f.ready:
		return f.resolve(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RegisterSuspense registers a pending fragment under key. An effect watches
// the suspense pending-count and signals the fragment's single-slot channel
// exactly once when the count reaches zero, at which point Resolve unblocks
// and invokes resolver.
func (cx Scope) RegisterSuspense(sus SuspenseContext, key string, resolver func() string) {
	if cx.runtime == nil {
		return
	}
	rt := cx.runtime
	sc := rt.sharedContext()

	frag := &Fragment{
		key:     key,
		ready:   make(chan struct{}, 1),
		resolve: resolver,
	}

	// The guard keeps re-evaluations after the first completion from
	// signalling again; at-most-one notification is all Resolve needs.
	signalled := false
	CreateEffect(cx, func() {
		if sus.Pending() == 0 && !signalled {
			signalled = true
			frag.ready <- struct{}{}
		}
	})

	sc.pending[key] = frag
	rt.metrics.fragmentRegistered()
	rt.logger.Debug("fragment registered", slog.String("key", key))
}

// PendingFragments drains and returns the registry of pending fragments.
func (cx Scope) PendingFragments() map[string]*Fragment {
	if cx.runtime == nil || cx.runtime.shared == nil {
		return nil
	}
	sc := cx.runtime.shared
	pending := sc.pending
	sc.pending = make(map[string]*Fragment)
	return pending
}

// FlushFragments drains all pending fragments and awaits each one, returning
// their resolved content by key. Fragments resolve concurrently; the first
// error (typically ctx expiring) cancels the rest.
func (cx Scope) FlushFragments(ctx context.Context) (map[string]string, error) {
	fragments := cx.PendingFragments()
	if len(fragments) == 0 {
		return map[string]string{}, nil
	}

	rt := cx.runtime
	ctx, span := rt.startSpan(ctx, "vireo.flush_fragments",
		attribute.Int("fragments", len(fragments)))
	defer span.End()

	results := make(map[string]string, len(fragments))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, frag := range fragments {
		g.Go(func() error {
			content, err := frag.Resolve(gctx)
			if err != nil {
				return fmt.Errorf("vireo: resolve fragment %q: %w", key, err)
			}
			mu.Lock()
			results[key] = content
			mu.Unlock()
			rt.metrics.fragmentResolved()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AllResources lists every resource node anywhere in the Runtime's tree.
// Used to discover outstanding async work without knowing resource internals.
func (rt *Runtime) AllResources() []ResourceNodeID {
	var out []ResourceNodeID
	rt.scopes.ForEach(func(key arena.Key, state *scopeState) {
		state.resources.ForEach(func(i int, _ *AnyResource) {
			out = append(out, ResourceNodeID{
				Scope:    ScopeID{key: key},
				Resource: ResourceID(i),
			})
		})
	})
	return out
}

// AllResources is a convenience for Runtime.AllResources on the owning
// Runtime; see there for details. It returns nil on a zero Scope.
func (cx Scope) AllResources() []ResourceNodeID {
	if cx.runtime == nil {
		return nil
	}
	return cx.runtime.AllResources()
}

// ResolveResources awaits every resource in the tree and returns the
// serialized payloads keyed by hydration key, ready to hand to a later
// reconstructing run via ProvideResolved.
func (rt *Runtime) ResolveResources(ctx context.Context) (map[string]string, error) {
	var resources []AnyResource
	rt.scopes.ForEach(func(_ arena.Key, state *scopeState) {
		state.resources.ForEach(func(_ int, r *AnyResource) {
			resources = append(resources, *r)
		})
	})
	if len(resources) == 0 {
		return map[string]string{}, nil
	}

	ctx, span := rt.startSpan(ctx, "vireo.resolve_resources",
		attribute.Int("resources", len(resources)))
	defer span.End()

	results := make(map[string]string, len(resources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range resources {
		g.Go(func() error {
			data, err := r.ResolveSerialized(gctx)
			if err != nil {
				return fmt.Errorf("vireo: resolve resource %q: %w", r.HydrationKey(), err)
			}
			mu.Lock()
			results[r.HydrationKey()] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProvideResolved seeds the hydration session with a payload produced by an
// earlier run. A resource that claims the matching key during a later run
// adopts the payload instead of recomputing.
func (rt *Runtime) ProvideResolved(key, payload string) {
	rt.sharedContext().resolved[key] = payload
}

// ResolvedPayload returns the payload seeded for key, if any.
func (rt *Runtime) ResolvedPayload(key string) (string, bool) {
	if rt.shared == nil {
		return "", false
	}
	payload, ok := rt.shared.resolved[key]
	return payload, ok
}
