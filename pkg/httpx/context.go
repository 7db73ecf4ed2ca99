package httpx

import "context"

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
)

// WithClientID stores the browser client identifier on the request context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, CtxKeyClientID, clientID)
}

// ClientIDFromContext returns the client identifier, or "" when the request
// has not passed through the client cookie middleware.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyClientID).(string); ok {
		return v
	}
	return ""
}
