package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un campo estructurado de log.
type Field = zap.Field

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// =================================================================================
// CAMPOS ESTÁNDAR - DRIVES
// =================================================================================

// Provider crea un campo para el id del proveedor (cmis, gdrive...).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// LocalUser crea un campo para el usuario local dueño del drive.
func LocalUser(v string) zap.Field { return zap.String("local_user", v) }

// CloudUser crea un campo para el usuario remoto.
func CloudUser(v string) zap.Field { return zap.String("cloud_user", v) }

// DrivePath crea un campo para la ruta del nodo raíz del drive.
func DrivePath(v string) zap.Field { return zap.String("drive_path", v) }

// Repository crea un campo para el repositorio CMIS.
func Repository(v string) zap.Field { return zap.String("repository", v) }

// CodePrefix loguea solo los primeros caracteres de un código de acceso.
func CodePrefix(code string) zap.Field {
	if len(code) > 6 {
		code = code[:6] + "…"
	}
	return zap.String("code", code)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// Stack agrega el stack trace actual.
func Stack() zap.Field { return zap.Stack("stack") }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
