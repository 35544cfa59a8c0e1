package vireo

import "testing"

func TestRunScopeDisposesSynchronously(t *testing.T) {
	rt := NewRuntime()

	cleaned := false
	got := RunScope(rt, func(cx Scope) int {
		cx.OnCleanup(func() { cleaned = true })
		return 7
	})

	if got != 7 {
		t.Errorf("RunScope = %d, want 7", got)
	}
	if !cleaned {
		t.Error("RunScope should dispose the scope before returning")
	}
	if rt.scopes.Len() != 0 {
		t.Errorf("arena holds %d scopes after RunScope, want 0", rt.scopes.Len())
	}
}

func TestRunScopeUndisposedLeavesScopeLive(t *testing.T) {
	rt := NewRuntime()

	cleaned := false
	got, disposer := RunScopeUndisposed(rt, func(cx Scope) string {
		cx.OnCleanup(func() { cleaned = true })
		return "ok"
	})

	if got != "ok" {
		t.Errorf("result = %q, want \"ok\"", got)
	}
	if cleaned {
		t.Error("scope disposed before the caller consumed the disposer")
	}

	disposer.Dispose()
	if !cleaned {
		t.Error("disposer did not dispose the scope")
	}
}

func TestUntrackRestoresFlag(t *testing.T) {
	rt := NewRuntime()

	RunScope(rt, func(cx Scope) struct{} {
		if !rt.Tracking() {
			t.Fatal("tracking should start enabled")
		}

		Untrack(cx, func() struct{} {
			if rt.Tracking() {
				t.Error("tracking should be suppressed inside Untrack")
			}
			// Nested suppression must not disturb the outer restore.
			Untrack(cx, func() struct{} { return struct{}{} })
			if rt.Tracking() {
				t.Error("tracking should stay suppressed after nested Untrack")
			}
			return struct{}{}
		})

		if !rt.Tracking() {
			t.Error("tracking not restored after Untrack")
		}
		return struct{}{}
	})
}

func TestUntrackRestoresFlagOnPanic(t *testing.T) {
	rt := NewRuntime()

	RunScope(rt, func(cx Scope) struct{} {
		func() {
			defer func() { _ = recover() }()
			Untrack(cx, func() struct{} {
				panic("boom")
			})
		}()

		if !rt.Tracking() {
			t.Error("tracking not restored after panic inside Untrack")
		}
		return struct{}{}
	})
}

func TestRuntimeIDsDistinct(t *testing.T) {
	a := NewRuntime()
	b := NewRuntime()
	if a.ID() == b.ID() {
		t.Error("distinct runtimes share an ID")
	}
	if a.ID() == "" {
		t.Error("runtime ID should be non-empty")
	}
}
