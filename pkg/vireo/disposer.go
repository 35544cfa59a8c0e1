package vireo

// ScopeDisposer is a one-shot capability that disposes exactly one scope.
//
// Every function that returns a ScopeDisposer places a must-consume contract
// on its caller: if Dispose is never called, the scope and all of its
// descendants stay in the Runtime's arena forever. Calling Dispose more than
// once is safe; the second call is a no-op.
type ScopeDisposer struct {
	dispose func()
}

// Dispose tears down the scope this disposer is bound to.
func (d ScopeDisposer) Dispose() {
	if d.dispose != nil {
		d.dispose()
	}
}
