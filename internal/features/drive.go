package features

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrDenied es la causa de toda denegación de CanCreateDrive.
var ErrDenied = errors.New("feature denied")

// DriveTarget es el contexto sobre el que se evalúan las features de drives.
type DriveTarget struct {
	ProviderID string
	LocalUser  string
	Workspace  string
	Path       string
	// ExistingDrives es la cantidad de drives que ya tiene LocalUser.
	ExistingDrives int
}

// Config define las reglas de las features.
type Config struct {
	EnabledProviders  []string // vacío = todos
	MaxDrivesPerUser  int      // 0 = sin límite
	AllowedWorkspaces []string // vacío = todos
	AutoSync          bool
	AutoSyncExcluded  []string
}

// ProviderEnabled se cumple si el proveedor está habilitado.
func ProviderEnabled(enabled []string) Spec[DriveTarget] {
	return Func[DriveTarget](func(t DriveTarget) bool {
		return len(enabled) == 0 || containsFold(enabled, t.ProviderID)
	})
}

// ProviderIn se cumple si el proveedor está en la lista.
func ProviderIn(ids []string) Spec[DriveTarget] {
	return Func[DriveTarget](func(t DriveTarget) bool { return containsFold(ids, t.ProviderID) })
}

// UnderDriveLimit se cumple si el usuario no alcanzó max drives.
func UnderDriveLimit(max int) Spec[DriveTarget] {
	return Func[DriveTarget](func(t DriveTarget) bool { return max <= 0 || t.ExistingDrives < max })
}

// WorkspaceAllowed se cumple si el workspace está permitido.
func WorkspaceAllowed(allowed []string) Spec[DriveTarget] {
	return Func[DriveTarget](func(t DriveTarget) bool {
		return len(allowed) == 0 || slices.Contains(allowed, t.Workspace)
	})
}

// Enabled es una spec constante.
func Enabled(on bool) Spec[DriveTarget] {
	return Func[DriveTarget](func(DriveTarget) bool { return on })
}

// Features es la API de features de drives.
type Features struct {
	createSpec Spec[DriveTarget]
	syncSpec   Spec[DriveTarget]
	cfg        Config
}

// New arma las specs a partir de la configuración.
func New(cfg Config) *Features {
	return &Features{
		cfg: cfg,
		createSpec: AllOf(
			ProviderEnabled(cfg.EnabledProviders),
			UnderDriveLimit(cfg.MaxDrivesPerUser),
			WorkspaceAllowed(cfg.AllowedWorkspaces),
		),
		syncSpec: Of(Enabled(cfg.AutoSync)).And(Not(ProviderIn(cfg.AutoSyncExcluded))),
	}
}

// CanCreateDrive retorna nil si el drive puede crearse, o un error que envuelve
// ErrDenied con el motivo del rechazo.
func (f *Features) CanCreateDrive(t DriveTarget) error {
	if f.createSpec.IsSatisfiedBy(t) {
		return nil
	}
	switch {
	case !ProviderEnabled(f.cfg.EnabledProviders).IsSatisfiedBy(t):
		return fmt.Errorf("%w: provider %s is not enabled", ErrDenied, t.ProviderID)
	case !UnderDriveLimit(f.cfg.MaxDrivesPerUser).IsSatisfiedBy(t):
		return fmt.Errorf("%w: user %s reached the limit of %d drives", ErrDenied, t.LocalUser, f.cfg.MaxDrivesPerUser)
	default:
		return fmt.Errorf("%w: drives not allowed in workspace %s", ErrDenied, t.Workspace)
	}
}

// IsAutoSyncEnabled reporta si el drive debe sincronizarse automáticamente.
func (f *Features) IsAutoSyncEnabled(t DriveTarget) bool {
	return f.syncSpec.IsSatisfiedBy(t)
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
