package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxLocalUserKey ctxKey = "local_user"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithLocalUser inyecta el usuario local en el contexto.
func WithLocalUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, ctxLocalUserKey, user)
}

// GetRequestID obtiene el request ID del contexto o "".
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// GetLocalUser obtiene el usuario local del contexto o "".
func GetLocalUser(ctx context.Context) string {
	s, _ := ctx.Value(ctxLocalUserKey).(string)
	return s
}
