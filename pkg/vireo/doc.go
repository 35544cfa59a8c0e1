// Package vireo provides the ownership and lifetime core of a fine-grained
// reactive runtime.
//
// Reactive nodes (signals, effects, async resources) live inside a tree of
// scopes. A Scope is a cheap copyable handle; the state it refers to is owned
// by a Runtime and disposed as a unit, cascading bottom-up through child
// scopes:
//
//	rt := vireo.NewRuntime()
//	disposer := rt.CreateScope(func(cx vireo.Scope) {
//	    count := vireo.CreateSignal(cx, 0)
//	    vireo.CreateEffect(cx, func() {
//	        fmt.Println("count is", count.Get())
//	    })
//	    cx.OnCleanup(func() { fmt.Println("torn down") })
//	})
//	disposer.Dispose()
//
// Disposal is explicit, idempotent, and strictly ordered: children first,
// then effect dependency edges, then cleanups in registration order. A scope
// handle that outlives its scope degrades to a silent no-op rather than
// touching released state.
//
// # Hydration
//
// The hydration subsystem pairs asynchronously produced results from one run
// of a scope tree with the matching nodes of a later, structurally identical
// run. Both runs request ordinal keys via Scope.NextHydrationKey in the same
// control-flow order, so the Nth key of the producing run always names the
// Nth node of the reconstructing run. Pending output fragments register under
// caller-chosen keys and resolve once their suspense pending-count reaches
// zero.
//
// # Threading
//
// The scope tree is single-threaded and cooperative: all Runtime and Scope
// operations assume one logical owner and take no internal locks. Only the
// hydration await paths (Fragment.Resolve, Runtime.ResolveResources) block,
// and they are intended to run after the synchronous pass over the tree.
package vireo
