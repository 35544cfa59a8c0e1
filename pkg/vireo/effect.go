package vireo

// effectState is the arena-owned payload of one effect node.
type effectState struct {
	ref effectRef

	fn func()

	// sources are the subscriber sets this effect joined during its last
	// run. They are cleared and re-collected on every run, and severed for
	// good when the owning scope is disposed.
	sources []*subscribers
}

// ClearDependencies removes this effect from every signal it subscribed to.
// Implements AnyEffect; the owning scope calls it once at disposal.
func (e *effectState) ClearDependencies() {
	for _, subs := range e.sources {
		subs.remove(e.ref)
	}
	e.sources = e.sources[:0]
}

func (e *effectState) addSource(subs *subscribers) {
	for _, existing := range e.sources {
		if existing == subs {
			return
		}
	}
	e.sources = append(e.sources, subs)
}

// CreateEffect creates an effect on cx and runs it immediately. Every signal
// read during the run subscribes the effect; any later write to one of those
// signals re-runs it, re-collecting dependencies from scratch each time.
//
// On a disposed scope the effect is dropped without running.
func CreateEffect(cx Scope, fn func()) EffectID {
	if cx.runtime == nil {
		return 0
	}
	e := &effectState{fn: fn}
	id := cx.PushEffect(e)
	e.ref = effectRef{scope: cx.id, id: id}
	cx.runtime.runEffect(e.ref)
	return id
}
