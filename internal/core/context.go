package core

import "context"

type callerKey struct{}

// Caller describes who issued the current request. It is opaque to the
// core and only carried into change events.
type Caller struct {
	Actor    string
	ClientIP string
}

// CallerFromContext returns the caller recorded in ctx, or the zero Caller.
func CallerFromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

// ContextWithActor records the identity of the caller performing a mutation.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	c := CallerFromContext(ctx)
	c.Actor = actor
	return context.WithValue(ctx, callerKey{}, c)
}

// ContextWithClientIP records the resolved client address.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	c := CallerFromContext(ctx)
	c.ClientIP = ip
	return context.WithValue(ctx, callerKey{}, c)
}
