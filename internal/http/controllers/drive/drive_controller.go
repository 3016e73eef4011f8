// Package drive contiene el controller de drives ya conectados.
package drive

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/http/dto"
	httperrors "github.com/dropDatabas3/clouddrive/internal/http/errors"
	"github.com/dropDatabas3/clouddrive/internal/http/helpers"
	mw "github.com/dropDatabas3/clouddrive/internal/http/middlewares"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
)

// DriveService es lo que el controller usa de clouddrive.Service.
type DriveService interface {
	LoadDrive(ctx context.Context, localUser, path string) (clouddrive.Drive, error)
	Disconnect(ctx context.Context, localUser, path string) error
	RemoveDrive(ctx context.Context, localUser, path string) error
	Drives(ctx context.Context, localUser string) ([]*nodes.Node, error)
	AutoSync(node *nodes.Node) bool
}

// Controller maneja /portal/rest/clouddrive/drive(s).
type Controller struct {
	svc DriveService
}

func NewController(svc DriveService) *Controller {
	return &Controller{svc: svc}
}

func pathParam(r *http.Request) (string, error) {
	p := strings.TrimSpace(r.URL.Query().Get("path"))
	if p == "" {
		return "", httperrors.ErrMissingFields.WithDetail("path requerido")
	}
	return p, nil
}

// Get carga el drive en ?path=.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	p, err := pathParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	d, err := c.svc.LoadDrive(r.Context(), mw.GetLocalUser(r.Context()), p)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := dto.DriveFrom(d)
	out.AutoSync = c.svc.AutoSync(d.Node())
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Delete envía el drive a la papelera.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := pathParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.svc.RemoveDrive(r.Context(), mw.GetLocalUser(r.Context()), p); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Disconnect marca el drive como desconectado.
func (c *Controller) Disconnect(w http.ResponseWriter, r *http.Request) {
	p, err := pathParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.svc.Disconnect(r.Context(), mw.GetLocalUser(r.Context()), p); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List retorna los drives del usuario local.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.Drives(r.Context(), mw.GetLocalUser(r.Context()))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := make([]dto.Drive, 0, len(list))
	for _, n := range list {
		d := dto.DriveFromNode(n)
		d.AutoSync = c.svc.AutoSync(n)
		out = append(out, d)
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
