// Package router arma el router chi de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/clouddrive/internal/http/controllers/connect"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/drive"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/health"
	"github.com/dropDatabas3/clouddrive/internal/http/controllers/login"
	httperrors "github.com/dropDatabas3/clouddrive/internal/http/errors"
	mw "github.com/dropDatabas3/clouddrive/internal/http/middlewares"
)

// Deps contiene los controllers a montar.
type Deps struct {
	Login   *login.Controller
	Connect *connect.Controller
	Drive   *drive.Controller
	Health  *health.Controller
	// Metrics es el handler de Prometheus. Opcional.
	Metrics http.Handler
	// RateLimit se aplica al submit de login y a la conexión. Opcional.
	RateLimit mw.Middleware
}

// New construye el handler HTTP completo.
func New(d Deps) http.Handler {
	limited := d.RateLimit
	if limited == nil {
		limited = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// infra: sin logging (muy frecuentes)
	if d.Health != nil {
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging(), mw.WithNoStore())

		if d.Login != nil {
			r.Get("/portal/clouddrive/{provider}/login", d.Login.Form)
			r.With(limited).Post("/portal/clouddrive/{provider}/login", d.Login.Submit)
			r.Get("/portal/rest/clouddrive/providers", d.Login.Providers)
		}
		if d.Connect != nil {
			// el segundo paso lo llama la UI de login, sin usuario local
			r.With(limited).Post("/portal/rest/clouddrive/connect/{provider}/context", d.Connect.SetContext)
		}

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireLocalUser())
			if d.Connect != nil {
				r.With(limited).Get("/portal/rest/clouddrive/connect/{provider}", d.Connect.Connect)
			}
			if d.Drive != nil {
				r.Get("/portal/rest/clouddrive/drives", d.Drive.List)
				r.Get("/portal/rest/clouddrive/drive", d.Drive.Get)
				r.Delete("/portal/rest/clouddrive/drive", d.Drive.Delete)
				r.Post("/portal/rest/clouddrive/drive/disconnect", d.Drive.Disconnect)
			}
		})
	})
	return r
}
