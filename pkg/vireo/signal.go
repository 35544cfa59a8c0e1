package vireo

// signalState is the arena-owned payload of one signal node. The subscriber
// set lives inside the state so effects can hold a direct pointer to it and
// remove themselves when their dependencies are cleared.
type signalState[T any] struct {
	value T
	subs  subscribers
}

// Signal is a copyable typed handle to a signal node. Reading it during an
// effect run subscribes that effect; writing it re-runs the subscribers.
//
// A Signal whose owning scope has been disposed degrades gracefully: Get and
// Peek return the zero value, Set and Update do nothing.
type Signal[T any] struct {
	runtime *Runtime
	scope   ScopeID
	id      SignalID
}

// CreateSignal allocates a signal with the given initial value on cx and
// returns its handle.
func CreateSignal[T any](cx Scope, initial T) Signal[T] {
	id := cx.PushSignal(&signalState[T]{value: initial})
	return Signal[T]{runtime: cx.runtime, scope: cx.id, id: id}
}

// Get returns the current value, subscribing the running effect, if any.
func (s Signal[T]) Get() T {
	st := s.lookup()
	if st == nil {
		var zero T
		return zero
	}
	s.runtime.track(&st.subs)
	return st.value
}

// Peek returns the current value without subscribing anything.
func (s Signal[T]) Peek() T {
	st := s.lookup()
	if st == nil {
		var zero T
		return zero
	}
	return st.value
}

// Set replaces the value and notifies subscribers.
func (s Signal[T]) Set(value T) {
	st := s.lookup()
	if st == nil {
		return
	}
	st.value = value
	st.subs.notify(s.runtime)
}

// Update replaces the value with fn(current) and notifies subscribers.
func (s Signal[T]) Update(fn func(T) T) {
	st := s.lookup()
	if st == nil {
		return
	}
	st.value = fn(st.value)
	st.subs.notify(s.runtime)
}

func (s Signal[T]) lookup() *signalState[T] {
	if s.runtime == nil {
		return nil
	}
	scope, ok := s.runtime.scopes.Get(s.scope.key)
	if !ok {
		return nil
	}
	slot := scope.signals.Get(int(s.id))
	if slot == nil {
		return nil
	}
	st, ok := (*slot).(*signalState[T])
	if !ok {
		return nil
	}
	return st
}

// effectRef names an effect node by scope and index. Notification goes
// through the Runtime's arena lookup, so a ref into a disposed scope is a
// harmless no-op.
type effectRef struct {
	scope ScopeID
	id    EffectID
}

// subscribers is the set of effects subscribed to one signal.
type subscribers struct {
	effects []effectRef
}

func (s *subscribers) add(ref effectRef) {
	for _, existing := range s.effects {
		if existing == ref {
			return
		}
	}
	s.effects = append(s.effects, ref)
}

func (s *subscribers) remove(ref effectRef) {
	for i, existing := range s.effects {
		if existing == ref {
			s.effects[i] = s.effects[len(s.effects)-1]
			s.effects = s.effects[:len(s.effects)-1]
			return
		}
	}
}

// notify re-runs every subscriber. The list is copied first because each run
// re-collects dependencies and mutates the set.
func (s *subscribers) notify(rt *Runtime) {
	if len(s.effects) == 0 {
		return
	}
	refs := make([]effectRef, len(s.effects))
	copy(refs, s.effects)
	for _, ref := range refs {
		rt.runEffect(ref)
	}
}
