package vireo

import "context"

// AnyEffect is the capability a scope needs from every effect node it owns:
// severing the effect's subscriptions at disposal so no stale notification
// ever targets a disposed node. Concrete effect payloads implement this;
// the scope never inspects them further.
type AnyEffect interface {
	ClearDependencies()
}

// AnyResource is the capability the hydration subsystem needs from a
// resource node: the correlation key it claimed at construction, and a
// blocking resolver that yields the serialized result once the underlying
// async work completes. Cancellation of the wait is the caller's concern via
// ctx; the resource itself imposes no timeout.
type AnyResource interface {
	HydrationKey() string
	ResolveSerialized(ctx context.Context) (string, error)
}

// ResourceNodeID identifies one resource node anywhere in a Runtime's tree.
type ResourceNodeID struct {
	Scope    ScopeID
	Resource ResourceID
}
