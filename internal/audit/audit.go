// Package audit registra eventos de auditoría de drives y login. Los eventos
// salen por el logger "audit" con el contexto de la request (request_id, etc).
package audit

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

const (
	EventCodeIssued        = "login.code_issued"
	EventDriveConnected    = "drive.connected"
	EventDriveCreateDenied = "drive.create_denied"
	EventDriveDisconnected = "drive.disconnected"
	EventDriveRemoved      = "drive.removed"
)

// Log escribe un evento de auditoría.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}

// Email agrega el email enmascarado.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// MaskEmail deja la primera letra del usuario y del dominio: j…@e….com.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}
