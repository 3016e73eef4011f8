package clouddrive

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
)

// PredefinedService es un servicio remoto ofrecido por configuración en el
// formulario de login (p. ej. una URL AtomPub de un repositorio CMIS conocido).
type PredefinedService struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ConnectorParams son los parámetros comunes a todos los conectores.
type ConnectorParams struct {
	Schema       string // http | https
	Host         string // host[:port] público del portal
	ProviderID   string
	ProviderName string
	Predefined   []PredefinedService
}

// Validate verifica los parámetros obligatorios.
func (p ConnectorParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Schema) == "" {
		missing = append(missing, "schema")
	}
	if strings.TrimSpace(p.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(p.ProviderID) == "" {
		missing = append(missing, "provider id")
	}
	if strings.TrimSpace(p.ProviderName) == "" {
		missing = append(missing, "provider name")
	}
	if len(missing) > 0 {
		return WrapError(ErrConfiguration, "Connector parameters missing: "+strings.Join(missing, ", "))
	}
	return nil
}

// BaseConnector implementa lo que comparten los conectores concretos. Se
// embebe en cada conector.
type BaseConnector struct {
	params ConnectorParams

	providerOnce sync.Once
	provider     Provider
}

// NewBaseConnector valida los parámetros y crea la base.
func NewBaseConnector(params ConnectorParams) (*BaseConnector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &BaseConnector{params: params}, nil
}

func (b *BaseConnector) ConnectorSchema() string { return b.params.Schema }

func (b *BaseConnector) ConnectorHost() string { return b.params.Host }

func (b *BaseConnector) ProviderID() string { return b.params.ProviderID }

func (b *BaseConnector) ProviderName() string { return b.params.ProviderName }

// PredefinedServices retorna una copia de los servicios configurados.
func (b *BaseConnector) PredefinedServices() []PredefinedService {
	return append([]PredefinedService(nil), b.params.Predefined...)
}

// BaseURL es "<schema>://<host>".
func (b *BaseConnector) BaseURL() string {
	return b.params.Schema + "://" + b.params.Host
}

// ProviderOnce crea el proveedor con create en la primera llamada y lo reutiliza.
func (b *BaseConnector) ProviderOnce(create func() Provider) Provider {
	b.providerOnce.Do(func() {
		b.provider = create()
	})
	return b.provider
}

// CheckTrashed falla con ErrDriveRemoved si el nodo del drive fue eliminado.
func CheckTrashed(node *nodes.Node) error {
	if node == nil {
		return WrapError(ErrUnknownDrive, "Drive node is nil")
	}
	if node.Trashed {
		return WrapError(ErrDriveRemoved, fmt.Sprintf("Drive %s was removed", node.Path))
	}
	return nil
}

// DriveTitle es el título por defecto de un drive: "<proveedor> <usuario>".
func DriveTitle(providerName, username string) string {
	return providerName + " " + username
}

// MigrateName normaliza títulos con el formato viejo "<proveedor> - <usuario>".
// Retorna true si cambió el título.
func MigrateName(node *nodes.Node) bool {
	if node == nil {
		return false
	}
	title := node.String(nodetypes.PropTitle)
	provider, user, ok := strings.Cut(title, " - ")
	if !ok || provider == "" || user == "" {
		return false
	}
	node.Set(nodetypes.PropTitle, DriveTitle(provider, user))
	return true
}

// Registry mantiene los conectores por id de proveedor.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry crea un registro vacío.
func NewRegistry() *Registry {
	return &Registry{connectors: map[string]Connector{}}
}

// Register agrega un conector. Un id repetido reemplaza al anterior.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Provider().ID()] = c
}

// Get busca el conector de un proveedor.
func (r *Registry) Get(providerID string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[providerID]
	return c, ok
}

// List retorna los ids registrados ordenados.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
