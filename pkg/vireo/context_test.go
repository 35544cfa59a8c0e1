package vireo

import "testing"

type theme struct {
	Name string
}

func TestContextProvideAndUse(t *testing.T) {
	rt := NewRuntime()

	RunScope(rt, func(cx Scope) struct{} {
		ProvideContext(cx, theme{Name: "dark"})

		got, ok := UseContext[theme](cx)
		if !ok || got.Name != "dark" {
			t.Errorf("UseContext = %+v, %v; want dark theme", got, ok)
		}

		if _, ok := UseContext[int](cx); ok {
			t.Error("lookup of a never-provided type should fail")
		}
		return struct{}{}
	})
}

func TestContextAncestorLookupAndShadowing(t *testing.T) {
	rt := NewRuntime()

	RunScope(rt, func(root Scope) struct{} {
		ProvideContext(root, theme{Name: "light"})

		root.ChildScope(func(shadowing Scope) {
			ProvideContext(shadowing, theme{Name: "dark"})

			if got, _ := UseContext[theme](shadowing); got.Name != "dark" {
				t.Errorf("shadowing child sees %q, want its own \"dark\"", got.Name)
			}
		})

		root.ChildScope(func(sibling Scope) {
			// The sibling never wrote; it must see the ancestor value,
			// unaffected by the other child's shadow.
			if got, ok := UseContext[theme](sibling); !ok || got.Name != "light" {
				t.Errorf("sibling sees %q, want ancestor \"light\"", got.Name)
			}
		})

		if got, _ := UseContext[theme](root); got.Name != "light" {
			t.Errorf("root sees %q, want \"light\"", got.Name)
		}
		return struct{}{}
	})
}

func TestContextLastWriteWinsPerScope(t *testing.T) {
	rt := NewRuntime()

	RunScope(rt, func(cx Scope) struct{} {
		ProvideContext(cx, theme{Name: "first"})
		ProvideContext(cx, theme{Name: "second"})

		if got, _ := UseContext[theme](cx); got.Name != "second" {
			t.Errorf("UseContext = %q, want last write \"second\"", got.Name)
		}
		return struct{}{}
	})
}

func TestContextDistinctTypesCoexist(t *testing.T) {
	rt := NewRuntime()

	type limit int

	RunScope(rt, func(cx Scope) struct{} {
		ProvideContext(cx, theme{Name: "dark"})
		ProvideContext(cx, limit(3))

		th, _ := UseContext[theme](cx)
		li, _ := UseContext[limit](cx)
		if th.Name != "dark" || li != 3 {
			t.Errorf("coexisting values = (%q, %d), want (\"dark\", 3)", th.Name, li)
		}
		return struct{}{}
	})
}
