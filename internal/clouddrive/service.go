package clouddrive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/clouddrive/internal/audit"
	"github.com/dropDatabas3/clouddrive/internal/features"
	"github.com/dropDatabas3/clouddrive/internal/metrics"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// FeatureChecker decide si un drive puede crearse.
type FeatureChecker interface {
	CanCreateDrive(t features.DriveTarget) error
	IsAutoSyncEnabled(t features.DriveTarget) bool
}

// ConnectRequest son los datos de una conexión (o del paso de una conexión).
type ConnectRequest struct {
	ProviderID string
	Code       string
	LocalUser  string
	Workspace  string
	// Path es la ruta del nodo raíz. Vacío = /Users/<LocalUser>/<Proveedor> <usuario>.
	Path string
}

// ConnectResult es el resultado de Connect. Si Pending es true el usuario
// debe completar el segundo paso y Drive es nil.
type ConnectResult struct {
	Pending bool
	User    User
	Drive   Drive
	// Created es false cuando se reconectó un drive existente.
	Created bool
}

// ServiceDeps contiene las dependencias de Service.
type ServiceDeps struct {
	Registry *Registry
	Nodes    nodes.Store
	Features FeatureChecker // opcional
	Now      func() time.Time
}

// Service orquesta conectores y repositorio de nodos.
type Service struct {
	registry *Registry
	nodes    nodes.Store
	features FeatureChecker
	now      func() time.Time
	loads    singleflight.Group
}

// NewService crea el servicio.
func NewService(d ServiceDeps) *Service {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		registry: d.Registry,
		nodes:    d.Nodes,
		features: d.Features,
		now:      now,
	}
}

// Connector retorna el conector registrado para providerID.
func (s *Service) Connector(providerID string) (Connector, error) {
	c, ok := s.registry.Get(providerID)
	if !ok {
		return nil, WrapError(ErrUnknownProvider, "Provider not found: "+providerID)
	}
	return c, nil
}

// Providers retorna los proveedores registrados, ordenados por id.
func (s *Service) Providers() []Provider {
	ids := s.registry.List()
	out := make([]Provider, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.registry.Get(id); ok {
			out = append(out, c.Provider())
		}
	}
	return out
}

// Connect autentica el código y, si el usuario está completo, crea (o
// reconecta) el drive en el nodo indicado.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (ConnectResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Service.Connect"), logger.Provider(req.ProviderID))

	conn, err := s.Connector(req.ProviderID)
	if err != nil {
		return ConnectResult{}, err
	}
	if strings.TrimSpace(req.LocalUser) == "" {
		return ConnectResult{}, NewError("Local user required")
	}

	user, err := conn.Authenticate(ctx, req.Code)
	if err != nil {
		log.Debug("authentication failed", logger.Err(err), logger.CodePrefix(req.Code))
		return ConnectResult{}, err
	}
	if IsPending(user) {
		log.Debug("authentication pending", logger.CloudUser(user.Username()))
		return ConnectResult{Pending: true, User: user}, nil
	}

	provider := conn.Provider()
	drivePath := req.Path
	if strings.TrimSpace(drivePath) == "" {
		drivePath = path.Join("/Users", req.LocalUser, DriveTitle(provider.Name(), user.Username()))
	}
	drivePath = nodes.CleanPath(drivePath)

	node, created, err := s.driveNode(ctx, drivePath, provider, req.LocalUser)
	if err != nil {
		return ConnectResult{}, err
	}

	// revivir un drive eliminado cuenta como uno nuevo
	if (created || node.Trashed) && s.features != nil {
		existing, err := s.countDrives(ctx, req.LocalUser)
		if err != nil {
			return ConnectResult{}, err
		}
		target := features.DriveTarget{
			ProviderID:     provider.ID(),
			LocalUser:      req.LocalUser,
			Workspace:      req.Workspace,
			Path:           drivePath,
			ExistingDrives: existing,
		}
		if err := s.features.CanCreateDrive(target); err != nil {
			log.Info("drive creation denied", logger.Err(err), logger.LocalUser(req.LocalUser))
			audit.Log(ctx, audit.EventDriveCreateDenied,
				logger.Provider(provider.ID()),
				logger.DrivePath(drivePath),
				logger.LocalUser(req.LocalUser),
				logger.String("reason", err.Error()),
			)
			return ConnectResult{}, WrapError(err, "Cannot create drive")
		}
	}

	drive, err := conn.CreateDrive(ctx, user, node)
	if err != nil {
		return ConnectResult{}, err
	}

	now := s.now()
	node.Trashed = false
	node.Set(nodetypes.PropConnected, true)
	node.Set(nodetypes.PropCloudUserName, user.Username())
	node.Set(nodetypes.PropCloudUserID, user.ID())
	if email := user.Email(); email != "" {
		node.Set(nodetypes.PropUserEmail, email)
	}
	node.Set(nodetypes.PropConnectDate, now)
	if err := s.nodes.Save(ctx, node); err != nil {
		return ConnectResult{}, WrapError(err, "Cannot save drive "+drivePath)
	}

	metrics.DrivesConnected.WithLabelValues(provider.ID()).Inc()
	log.Info("drive connected",
		logger.DrivePath(drivePath),
		logger.LocalUser(req.LocalUser),
		logger.CloudUser(user.Username()),
		logger.Bool("created", created),
	)
	audit.Log(ctx, audit.EventDriveConnected,
		logger.Provider(provider.ID()),
		logger.DrivePath(drivePath),
		logger.LocalUser(req.LocalUser),
		logger.CloudUser(user.Username()),
		audit.Email(user.Email()),
		logger.Bool("created", created),
	)
	return ConnectResult{User: user, Drive: drive, Created: created}, nil
}

// driveNode retorna el nodo en drivePath listo para CreateDrive. Si no existe
// arma el esqueleto (se guarda recién después de conectar).
func (s *Service) driveNode(ctx context.Context, drivePath string, provider Provider, localUser string) (*nodes.Node, bool, error) {
	node, err := s.nodes.Get(ctx, drivePath)
	switch {
	case errors.Is(err, nodes.ErrNotFound):
		n := &nodes.Node{Path: drivePath, Type: nodetypes.CloudDrive}
		n.Set(nodetypes.PropTitle, path.Base(drivePath))
		n.Set(nodetypes.PropConnected, false)
		n.Set(nodetypes.PropLocalUserName, localUser)
		n.Set(nodetypes.PropInitDate, s.now())
		n.Set(nodetypes.PropProvider, provider.ID())
		return n, true, nil
	case err != nil:
		return nil, false, WrapError(err, "Cannot read node "+drivePath)
	}

	if !nodetypes.IsA(node.Type, nodetypes.CloudDrive) {
		return nil, false, Errorf("Node %s is not a cloud drive", drivePath)
	}
	if err := checkOwner(node, localUser); err != nil {
		return nil, false, err
	}
	if p := node.String(nodetypes.PropProvider); p != provider.ID() {
		return nil, false, Errorf("Drive %s already connected to provider %s", drivePath, p)
	}
	return node, false, nil
}

func (s *Service) countDrives(ctx context.Context, localUser string) (int, error) {
	list, err := s.nodes.List(ctx, nodetypes.CloudDrive)
	if err != nil {
		return 0, WrapError(err, "Cannot list drives")
	}
	n := 0
	for _, d := range list {
		if !d.Trashed && d.String(nodetypes.PropLocalUserName) == localUser {
			n++
		}
	}
	return n, nil
}

// LoadDrive carga el drive de localUser montado en drivePath. Cargas
// concurrentes de la misma ruta comparten una única lectura.
func (s *Service) LoadDrive(ctx context.Context, localUser, drivePath string) (Drive, error) {
	drivePath = nodes.CleanPath(drivePath)
	node, err := s.readDrive(ctx, drivePath)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(node, localUser); err != nil {
		return nil, err
	}
	v, err, _ := s.loads.Do(drivePath, func() (any, error) {
		return s.loadDrive(ctx, drivePath)
	})
	if err != nil {
		return nil, err
	}
	return v.(Drive), nil
}

func (s *Service) loadDrive(ctx context.Context, drivePath string) (Drive, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Service.LoadDrive"), logger.DrivePath(drivePath))

	node, err := s.readDrive(ctx, drivePath)
	if err != nil {
		return nil, err
	}
	providerID := node.String(nodetypes.PropProvider)
	conn, err := s.Connector(providerID)
	if err != nil {
		return nil, err
	}

	title := node.String(nodetypes.PropTitle)
	drive, err := conn.LoadDrive(ctx, node)
	metrics.DrivesLoaded.WithLabelValues(providerID, metrics.Result(err)).Inc()
	if err != nil {
		log.Debug("drive load failed", logger.Err(err))
		return nil, err
	}

	// MigrateName puede haber renombrado el drive.
	if loaded := drive.Node(); loaded != nil && loaded.String(nodetypes.PropTitle) != title {
		if err := s.nodes.Save(ctx, loaded); err != nil {
			log.Warn("drive title migration not saved", logger.Err(err))
		} else {
			log.Info("drive title migrated", logger.String("title", loaded.String(nodetypes.PropTitle)))
		}
	}
	return drive, nil
}

// Disconnect marca el drive como desconectado.
func (s *Service) Disconnect(ctx context.Context, localUser, drivePath string) error {
	node, err := s.readDrive(ctx, drivePath)
	if err != nil {
		return err
	}
	if err := checkOwner(node, localUser); err != nil {
		return err
	}
	if err := CheckTrashed(node); err != nil {
		return err
	}
	node.Set(nodetypes.PropConnected, false)
	if err := s.nodes.Save(ctx, node); err != nil {
		return WrapError(err, "Cannot save drive "+node.Path)
	}
	audit.Log(ctx, audit.EventDriveDisconnected,
		logger.Provider(node.String(nodetypes.PropProvider)),
		logger.DrivePath(node.Path),
		logger.LocalUser(node.String(nodetypes.PropLocalUserName)),
	)
	return nil
}

// RemoveDrive envía el drive a la papelera. Cargas posteriores fallan con
// ErrDriveRemoved.
func (s *Service) RemoveDrive(ctx context.Context, localUser, drivePath string) error {
	node, err := s.readDrive(ctx, drivePath)
	if err != nil {
		return err
	}
	if err := checkOwner(node, localUser); err != nil {
		return err
	}
	if node.Trashed {
		return nil
	}
	node.Trashed = true
	node.Set(nodetypes.PropConnected, false)
	if err := s.nodes.Save(ctx, node); err != nil {
		return WrapError(err, "Cannot save drive "+node.Path)
	}
	audit.Log(ctx, audit.EventDriveRemoved,
		logger.Provider(node.String(nodetypes.PropProvider)),
		logger.DrivePath(node.Path),
		logger.LocalUser(node.String(nodetypes.PropLocalUserName)),
	)
	return nil
}

// Drives lista los drives (no eliminados) de un usuario local.
func (s *Service) Drives(ctx context.Context, localUser string) ([]*nodes.Node, error) {
	list, err := s.nodes.List(ctx, nodetypes.CloudDrive)
	if err != nil {
		return nil, WrapError(err, "Cannot list drives")
	}
	out := list[:0]
	for _, n := range list {
		if n.Trashed {
			continue
		}
		if localUser != "" && n.String(nodetypes.PropLocalUserName) != localUser {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Service) readDrive(ctx context.Context, drivePath string) (*nodes.Node, error) {
	drivePath = nodes.CleanPath(drivePath)
	node, err := s.nodes.Get(ctx, drivePath)
	if errors.Is(err, nodes.ErrNotFound) {
		return nil, WrapError(ErrUnknownDrive, "Drive not found: "+drivePath)
	}
	if err != nil {
		return nil, WrapError(err, "Cannot read node "+drivePath)
	}
	if !nodetypes.IsA(node.Type, nodetypes.CloudDrive) {
		return nil, WrapError(ErrUnknownDrive, fmt.Sprintf("Node %s is not a cloud drive", drivePath))
	}
	return node, nil
}

// AutoSync reporta si el drive debe sincronizarse automáticamente.
func (s *Service) AutoSync(node *nodes.Node) bool {
	if s.features == nil || node == nil {
		return false
	}
	return s.features.IsAutoSyncEnabled(features.DriveTarget{
		ProviderID: node.String(nodetypes.PropProvider),
		LocalUser:  node.String(nodetypes.PropLocalUserName),
		Path:       node.Path,
	})
}

// checkOwner exige que el drive pertenezca a localUser.
func checkOwner(node *nodes.Node, localUser string) error {
	if strings.TrimSpace(localUser) == "" {
		return NewError("Local user required")
	}
	if node.String(nodetypes.PropLocalUserName) != localUser {
		return WrapError(ErrNotOwner, fmt.Sprintf("Drive %s belongs to another user", node.Path))
	}
	return nil
}
