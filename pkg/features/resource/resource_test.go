package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vireo-dev/vireo/pkg/vireo"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestResourceFetchLifecycle(t *testing.T) {
	rt := vireo.NewRuntime()

	_, disposer := vireo.RunScopeUndisposed(rt, func(cx vireo.Scope) *Resource[string] {
		r := New(cx, func(ctx context.Context) (string, error) {
			return "fetched", nil
		})

		if err := r.Wait(waitCtx(t)); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if !r.IsReady() {
			t.Errorf("state = %s, want Ready", r.State())
		}
		if r.Data() != "fetched" {
			t.Errorf("Data() = %q, want \"fetched\"", r.Data())
		}
		if r.Err() != nil {
			t.Errorf("Err() = %v, want nil", r.Err())
		}
		return r
	})
	disposer.Dispose()
}

func TestResourceErrorState(t *testing.T) {
	rt := vireo.NewRuntime()
	boom := errors.New("backend unavailable")

	vireo.RunScope(rt, func(cx vireo.Scope) struct{} {
		r := New(cx, func(ctx context.Context) (string, error) {
			return "", boom
		})
		if err := r.Wait(waitCtx(t)); err != nil {
			t.Fatalf("Wait: %v", err)
		}

		if r.State() != Error {
			t.Errorf("state = %s, want Error", r.State())
		}
		if !errors.Is(r.Err(), boom) {
			t.Errorf("Err() = %v, want %v", r.Err(), boom)
		}
		if got := r.DataOr("fallback"); got != "fallback" {
			t.Errorf("DataOr = %q, want fallback", got)
		}

		if _, err := r.ResolveSerialized(waitCtx(t)); !errors.Is(err, boom) {
			t.Errorf("ResolveSerialized error = %v, want %v", err, boom)
		}
		return struct{}{}
	})
}

func TestResourceSerializationHandoff(t *testing.T) {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	// Producing run: fetch and serialize everything.
	producer := vireo.NewRuntime()
	_, disposer := vireo.RunScopeUndisposed(producer, func(cx vireo.Scope) struct{} {
		New(cx, func(ctx context.Context) (user, error) {
			return user{Name: "ada", Age: 36}, nil
		})
		New(cx, func(ctx context.Context) (int, error) {
			return 99, nil
		})
		return struct{}{}
	})
	payloads, err := producer.ResolveResources(waitCtx(t))
	if err != nil {
		t.Fatalf("ResolveResources: %v", err)
	}
	disposer.Dispose()

	if len(payloads) != 2 {
		t.Fatalf("resolved %d payloads, want 2", len(payloads))
	}

	// Reconstructing run: identical construction order, seeded payloads,
	// fetchers must never run.
	replayer := vireo.NewRuntime()
	for key, payload := range payloads {
		replayer.ProvideResolved(key, payload)
	}

	vireo.RunScope(replayer, func(cx vireo.Scope) struct{} {
		u := New(cx, func(ctx context.Context) (user, error) {
			t.Error("fetcher ran during reconstruction")
			return user{}, nil
		})
		n := New(cx, func(ctx context.Context) (int, error) {
			t.Error("fetcher ran during reconstruction")
			return 0, nil
		})

		if !u.IsReady() || !n.IsReady() {
			t.Fatalf("states = %s, %s; want Ready, Ready", u.State(), n.State())
		}
		if got := u.Data(); got.Name != "ada" || got.Age != 36 {
			t.Errorf("user = %+v", got)
		}
		if n.Data() != 99 {
			t.Errorf("n = %d, want 99", n.Data())
		}
		return struct{}{}
	})
}

func TestResourceKeysDeterministicAcrossRuns(t *testing.T) {
	build := func() []string {
		rt := vireo.NewRuntime()
		return vireo.RunScope(rt, func(cx vireo.Scope) []string {
			a := New(cx, func(ctx context.Context) (int, error) { return 1, nil })
			var b *Resource[int]
			cx.ChildScope(func(child vireo.Scope) {
				b = New(child, func(ctx context.Context) (int, error) { return 2, nil })
			})
			c := New(cx, func(ctx context.Context) (int, error) { return 3, nil })
			return []string{a.HydrationKey(), b.HydrationKey(), c.HydrationKey()}
		})
	}

	first := build()
	second := build()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("key sequences diverge: %v vs %v", first, second)
		}
	}
	if first[0] != "0" || first[1] != "1" || first[2] != "2" {
		t.Errorf("keys = %v, want [0 1 2]", first)
	}
}

func TestResourceMsgpackHandoff(t *testing.T) {
	producer := vireo.NewRuntime(vireo.WithCodec(vireo.MsgpackCodec{}))

	_, disposer := vireo.RunScopeUndisposed(producer, func(cx vireo.Scope) struct{} {
		New(cx, func(ctx context.Context) ([]string, error) {
			return []string{"x", "y"}, nil
		})
		return struct{}{}
	})
	payloads, err := producer.ResolveResources(waitCtx(t))
	if err != nil {
		t.Fatalf("ResolveResources: %v", err)
	}
	disposer.Dispose()

	replayer := vireo.NewRuntime(vireo.WithCodec(vireo.MsgpackCodec{}))
	for key, payload := range payloads {
		replayer.ProvideResolved(key, payload)
	}

	vireo.RunScope(replayer, func(cx vireo.Scope) struct{} {
		r := New(cx, func(ctx context.Context) ([]string, error) {
			t.Error("fetcher ran during reconstruction")
			return nil, nil
		})
		got := r.Data()
		if len(got) != 2 || got[0] != "x" || got[1] != "y" {
			t.Errorf("Data() = %v", got)
		}
		return struct{}{}
	})
}

func TestResourceSuspenseIntegration(t *testing.T) {
	rt := vireo.NewRuntime()

	_, disposer := vireo.RunScopeUndisposed(rt, func(cx vireo.Scope) struct{} {
		sus := vireo.NewSuspenseContext(cx)
		vireo.ProvideContext(cx, sus)

		release := make(chan struct{})
		var r *Resource[string]
		cx.ChildScope(func(child vireo.Scope) {
			r = New(child, func(ctx context.Context) (string, error) {
				<-release
				return "done", nil
			})
		})

		if got := sus.Pending(); got != 1 {
			t.Errorf("pending = %d while fetch in flight, want 1", got)
		}

		close(release)
		if err := r.Wait(waitCtx(t)); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if got := sus.Pending(); got != 0 {
			t.Errorf("pending = %d after completion, want 0", got)
		}
		return struct{}{}
	})
	disposer.Dispose()
}

func TestRefetchWhileInFlightDrainsSuspense(t *testing.T) {
	rt := vireo.NewRuntime()

	_, disposer := vireo.RunScopeUndisposed(rt, func(cx vireo.Scope) struct{} {
		sus := vireo.NewSuspenseContext(cx)
		vireo.ProvideContext(cx, sus)

		release := make(chan struct{})
		applied := make(chan struct{}, 2)
		var r *Resource[string]
		cx.ChildScope(func(child vireo.Scope) {
			r = New(child, func(ctx context.Context) (string, error) {
				<-release
				return "v", nil
			}, WithDispatch[string](func(fn func()) {
				fn()
				applied <- struct{}{}
			}))
		})

		// Supersede the blocked first fetch, then let both run to
		// completion one at a time. The superseded completion must still
		// hand back its suspense count.
		r.Refetch()
		if got := sus.Pending(); got != 2 {
			t.Fatalf("pending = %d with two fetches in flight, want 2", got)
		}

		for i := 0; i < 2; i++ {
			release <- struct{}{}
			select {
			case <-applied:
			case <-time.After(5 * time.Second):
				t.Fatal("fetch completion never applied")
			}
		}

		if got := sus.Pending(); got != 0 {
			t.Errorf("pending = %d after both fetches completed, want 0", got)
		}
		if !r.IsReady() || r.Data() != "v" {
			t.Errorf("resource = (%s, %q), want (Ready, \"v\")", r.State(), r.Data())
		}
		return struct{}{}
	})
	disposer.Dispose()
}

func TestDisposalDoesNotCancelFetch(t *testing.T) {
	rt := vireo.NewRuntime()

	release := make(chan struct{})
	var r *Resource[string]

	disposer := rt.CreateScope(func(cx vireo.Scope) {
		r = New(cx, func(ctx context.Context) (string, error) {
			<-release
			return "late", nil
		})
	})

	// Dispose while the fetch is still in flight; the late completion must
	// land as a silent no-op, not a crash.
	disposer.Dispose()
	close(release)

	if err := r.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if r.State() != Pending {
		// Disposed signals drop writes; reads degrade to the zero value.
		t.Errorf("state on disposed scope = %s, want zero-value Pending", r.State())
	}
	if r.Data() != "" {
		t.Errorf("Data() = %q, want zero value", r.Data())
	}
}

func TestRefetchUpdatesValue(t *testing.T) {
	rt := vireo.NewRuntime()

	vireo.RunScope(rt, func(cx vireo.Scope) struct{} {
		results := make(chan string, 2)
		results <- "first"
		results <- "second"

		applied := make(chan struct{}, 2)
		r := New(cx, func(ctx context.Context) (string, error) {
			return <-results, nil
		}, WithDispatch[string](func(fn func()) {
			fn()
			applied <- struct{}{}
		}))

		awaitApply := func() {
			select {
			case <-applied:
			case <-time.After(5 * time.Second):
				t.Fatal("fetch completion never applied")
			}
		}

		awaitApply()
		if r.Data() != "first" {
			t.Fatalf("Data() = %q, want \"first\"", r.Data())
		}

		r.Refetch()
		awaitApply()
		if r.Data() != "second" {
			t.Errorf("Data() after Refetch = %q, want \"second\"", r.Data())
		}
		if r.State() != Ready {
			t.Errorf("state = %s, want Ready", r.State())
		}
		return struct{}{}
	})
}
