package domain

import "context"

type contextKey string

const accountIDKey contextKey = "account_id"

// WithAccountID returns a context carrying the authenticated account ID.
// The value comes from the session layer and is trusted as-is; every query
// downstream is scoped by it.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext extracts the account ID placed by the session middleware.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}
