// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the caller identity, verified role set, request id and the
// ledger time; services read them without importing net/http. Tests inject
// values directly:
//
//	ctx = requestcontext.WithActor(ctx, "0xmanufacturer")
//	ctx = requestcontext.WithRoles(ctx, domain.NewRoleSet(domain.RoleOperator))
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"pharmatrace/pkg/domain"
)

type (
	actorKey       struct{}
	rolesKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Actor retrieves the authenticated caller identity from the context.
// Returns the zero Actor if not set.
func Actor(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorKey{}).(domain.Actor); ok {
		return actor
	}
	return domain.Actor("")
}

// WithActor injects a caller identity into the context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Roles retrieves the caller's verified role set. Returns an empty set if the
// surrounding layer attached none.
func Roles(ctx context.Context) domain.RoleSet {
	if roles, ok := ctx.Value(rolesKey{}).(domain.RoleSet); ok {
		return roles
	}
	return domain.RoleSet{}
}

// WithRoles injects a verified role set into the context.
func WithRoles(ctx context.Context, roles domain.RoleSet) context.Context {
	return context.WithValue(ctx, rolesKey{}, roles)
}

// RequestID retrieves the correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped ledger time from context. Every expiry
// comparison in the core reads time through here so a whole operation sees one
// consistent instant. Falls back to time.Now() for workers and CLI contexts.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Used by middleware at
// request start and by tests that need deterministic clocks.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
