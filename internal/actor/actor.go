// Package actor carries the authenticated caller's identity through request
// context. Authentication itself happens upstream at the gateway; this
// service only receives the resolved identity and threads it explicitly
// instead of reading ambient session state.
package actor

import "context"

// Actor identifies who triggered an operation.
type Actor struct {
	ID   string
	Role string
}

type contextKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext extracts the actor, if any, from ctx.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
