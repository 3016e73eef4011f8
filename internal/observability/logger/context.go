package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ToContext guarda l en ctx.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With agrega campos al logger de ctx y retorna el contexto que lo lleva.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ToContext(ctx, From(ctx).With(fields...))
}

// From retorna el logger de ctx o, si no hay, el singleton.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, _ := ctx.Value(ctxKey{}).(*zap.Logger); l != nil {
			return l
		}
	}
	return L()
}
