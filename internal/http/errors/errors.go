// Package errors define el error HTTP estándar de la API y su serialización.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/cmis/login"
	"github.com/dropDatabas3/clouddrive/internal/features"
	"github.com/dropDatabas3/clouddrive/internal/security/state"
)

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // usado para el header
	Err        error  `json:"-"` // causa, útil para logs, no se expone al cliente
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un nuevo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA del error con detalle.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA del error con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidState = &AppError{
		Code:       "INVALID_STATE",
		Message:    "El parámetro state es inválido o expiró.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidCode = &AppError{
		Code:       "INVALID_CODE",
		Message:    "El código de acceso es inválido o expiró.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrDriveOperation = &AppError{
		Code:       "DRIVE_OPERATION_FAILED",
		Message:    "La operación sobre el drive falló.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "La operación no está permitida.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrProviderNotFound = &AppError{
		Code:       "PROVIDER_NOT_FOUND",
		Message:    "El proveedor solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Método HTTP no permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrDriveRemoved = &AppError{
		Code:       "DRIVE_REMOVED",
		Message:    "El drive fue eliminado.",
		HTTPStatus: http.StatusGone,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Demasiadas solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)

// FromError convierte errores de otras capas en un AppError. Lo que no se
// reconoce es un 500 que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, clouddrive.ErrUnknownProvider):
		return ErrProviderNotFound.WithCause(err)
	case stderrors.Is(err, clouddrive.ErrDriveRemoved):
		return ErrDriveRemoved.WithCause(err)
	case stderrors.Is(err, clouddrive.ErrUnknownDrive):
		return ErrNotFound.WithDetail(domainMessage(err)).WithCause(err)
	case stderrors.Is(err, state.ErrInvalidState), stderrors.Is(err, state.ErrProviderMismatch):
		return ErrInvalidState.WithCause(err)
	case stderrors.Is(err, features.ErrDenied), stderrors.Is(err, clouddrive.ErrNotOwner):
		return ErrForbidden.WithDetail(domainMessage(err)).WithCause(err)
	case clouddrive.IsError(err):
		return ErrDriveOperation.WithDetail(domainMessage(err)).WithCause(err)
	case stderrors.Is(err, login.ErrUnknownCode):
		return ErrInvalidCode.WithCause(err)
	case stderrors.Is(err, login.ErrInvalidInput):
		return ErrMissingFields.WithDetail("user, password y service_url son requeridos").WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

func domainMessage(err error) string {
	var de *clouddrive.Error
	if stderrors.As(err, &de) {
		return de.Message
	}
	return ""
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta HTTP para err.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
