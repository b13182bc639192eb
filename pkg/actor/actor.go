// Package actor tracks the user performing an action. Authentication happens
// upstream; this service only receives the acting user's identifier and stamps
// it into audit columns and the movement ledger.
package actor

import "context"

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actingUserKey contextKey = "acting_user"

// System is the identifier stamped on operations not triggered by a user,
// such as scheduled expiry scans.
const System = "system"

// FromContext retrieves the acting user from the context.
// Returns System if none is present.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return System
	}
	user, ok := ctx.Value(actingUserKey).(string)
	if !ok || user == "" {
		return System
	}
	return user
}

// WithActingUser returns a new context with the acting user attached.
func WithActingUser(ctx context.Context, user string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actingUserKey, user)
}
