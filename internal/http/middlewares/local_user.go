package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/clouddrive/internal/http/errors"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// LocalUserHeader lo setea el portal (proxy autenticado) con el usuario local.
const LocalUserHeader = "X-Local-User"

// RequireLocalUser exige el header X-Local-User y lo inyecta en el contexto.
func RequireLocalUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := strings.TrimSpace(r.Header.Get(LocalUserHeader))
			if user == "" {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("falta el header "+LocalUserHeader))
				return
			}
			ctx := WithLocalUser(r.Context(), user)
			ctx = logger.With(ctx, logger.LocalUser(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
