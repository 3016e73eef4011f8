package clouddrive

import (
	"errors"
	"fmt"
)

// Error es la única categoría de error de las operaciones de drive
// ("drive operation failed"): un mensaje legible y una causa opcional.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clouddrive: %s: %v", e.Message, e.Err)
	}
	return "clouddrive: " + e.Message
}

// Unwrap permite acceder a la causa.
func (e *Error) Unwrap() error { return e.Err }

// NewError crea un Error sin causa.
func NewError(msg string) *Error { return &Error{Message: msg} }

// Errorf crea un Error con mensaje formateado.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapError crea un Error envolviendo una causa.
func WrapError(err error, msg string) *Error {
	return &Error{Message: msg, Err: err}
}

// IsError reporta si err (o algo en su cadena) es un *Error.
func IsError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// Causas conocidas. Siempre viajan envueltas en un *Error.
var (
	ErrDriveRemoved  = errors.New("drive removed")
	ErrConfiguration = errors.New("connector misconfigured")
	ErrNotCloudUser  = errors.New("not a user of this provider")
	ErrUnknownDrive  = errors.New("drive not found")
	ErrNotOwner      = errors.New("drive owned by another user")
)

// ErrUnknownProvider indica que no hay conector registrado para el proveedor.
var ErrUnknownProvider = errors.New("unknown provider")
