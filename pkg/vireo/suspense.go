package vireo

// SuspenseContext counts outstanding async work under one region of the
// tree. Resources increment it when a fetch starts and decrement it on
// completion; RegisterSuspense watches it to decide when a pending fragment
// may resolve.
//
// Provide it to descendants through the scope context map:
//
//	sus := vireo.NewSuspenseContext(cx)
//	vireo.ProvideContext(cx, sus)
type SuspenseContext struct {
	pending Signal[int]
}

// NewSuspenseContext creates a suspense context owned by cx.
func NewSuspenseContext(cx Scope) SuspenseContext {
	return SuspenseContext{pending: CreateSignal(cx, 0)}
}

// Increment records one more outstanding unit of async work.
func (s SuspenseContext) Increment() {
	s.pending.Update(func(n int) int { return n + 1 })
}

// Decrement records the completion of one unit of async work.
func (s SuspenseContext) Decrement() {
	s.pending.Update(func(n int) int { return n - 1 })
}

// Pending returns the outstanding count. The read is tracked, so an effect
// reading it re-runs on every change.
func (s SuspenseContext) Pending() int {
	return s.pending.Get()
}
