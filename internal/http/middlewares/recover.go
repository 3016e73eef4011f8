package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/clouddrive/internal/http/errors"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// WithRecover convierte un panic del handler en un 500 y lo registra con el
// stack. http.ErrAbortHandler se relanza para que net/http corte la respuesta.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("handler panic",
					logger.RequestID(GetRequestID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
					logger.Stack(),
				)
				errors.WriteError(w, errors.ErrInternalServerError.WithDetail("panic recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
