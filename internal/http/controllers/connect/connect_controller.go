// Package connect contiene el controller del endpoint de conexión de drives.
package connect

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/http/dto"
	httperrors "github.com/dropDatabas3/clouddrive/internal/http/errors"
	"github.com/dropDatabas3/clouddrive/internal/http/helpers"
	mw "github.com/dropDatabas3/clouddrive/internal/http/middlewares"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// DriveConnector conecta drives.
type DriveConnector interface {
	Connect(ctx context.Context, req clouddrive.ConnectRequest) (clouddrive.ConnectResult, error)
	AutoSync(node *nodes.Node) bool
}

// ContextSetter asigna el repositorio a un código intercambiado.
type ContextSetter interface {
	SetCodeContext(code, serviceContext string) error
}

// StateVerifier verifica el state firmado del auth URL.
type StateVerifier interface {
	Verify(raw, providerID string) error
}

// Deps son las dependencias del controller.
type Deps struct {
	Drives   DriveConnector
	Contexts ContextSetter
	// States es nil cuando no hay secreto de state configurado; en ese caso
	// no se verifica el state.
	States StateVerifier
}

// Controller maneja /portal/rest/clouddrive/connect/{provider}.
type Controller struct {
	drives   DriveConnector
	contexts ContextSetter
	states   StateVerifier
}

// NewController crea el controller.
func NewController(d Deps) *Controller {
	return &Controller{drives: d.Drives, contexts: d.Contexts, states: d.States}
}

// Connect maneja GET: presenta el código. Responde 202 mientras la
// autenticación está pendiente y 201 (o 200 al reconectar) con el drive.
func (c *Controller) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConnectController.Connect"), logger.Provider(providerID))

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail(e))
		return
	}
	if c.states != nil {
		if err := c.states.Verify(q.Get("state"), providerID); err != nil {
			log.Debug("state rejected", logger.Err(err))
			httperrors.WriteError(w, err)
			return
		}
	}

	res, err := c.drives.Connect(ctx, clouddrive.ConnectRequest{
		ProviderID: providerID,
		Code:       q.Get("code"),
		LocalUser:  mw.GetLocalUser(ctx),
		Workspace:  q.Get("workspace"),
		Path:       q.Get("path"),
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	if res.Pending {
		helpers.WriteJSON(w, http.StatusAccepted, dto.PendingResponse{
			Status:     "pending",
			Provider:   providerID,
			User:       res.User.Username(),
			ContextURL: strings.TrimSuffix(r.URL.Path, "/") + "/context",
		})
		return
	}

	out := dto.DriveFrom(res.Drive)
	out.Created = res.Created
	out.AutoSync = c.drives.AutoSync(res.Drive.Node())
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	helpers.WriteJSON(w, status, out)
}

// SetContext maneja POST .../context: asigna el repositorio elegido.
func (c *Controller) SetContext(w http.ResponseWriter, r *http.Request) {
	var req dto.ContextRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	req.Code, req.Repository = strings.TrimSpace(req.Code), strings.TrimSpace(req.Repository)
	if req.Code == "" || req.Repository == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code y repository son requeridos"))
		return
	}
	if err := c.contexts.SetCodeContext(req.Code, req.Repository); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Debug("code context set",
		logger.Layer("controller"), logger.CodePrefix(req.Code), logger.Repository(req.Repository))
	w.WriteHeader(http.StatusNoContent)
}
