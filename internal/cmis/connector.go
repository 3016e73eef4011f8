package cmis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/cmis/login"
	"github.com/dropDatabas3/clouddrive/internal/metrics"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// PropRepository es la propiedad residual del nodo del drive con el
// repositorio CMIS.
const PropRepository = "cmis:repository"

const defaultFlowTTL = 10 * time.Minute

// StateSigner firma el state del auth URL.
type StateSigner interface {
	Sign(providerID string) (string, error)
}

// Options configura el Connector.
type Options struct {
	Params        clouddrive.ConnectorParams
	Authenticator login.Authenticator
	// States es opcional; sin él el auth URL lleva NoState.
	States StateSigner
	// FlowTTL es la vida de un flujo pendiente entre el primer y segundo paso.
	FlowTTL time.Duration
}

// Connector es el conector de repositorios CMIS.
type Connector struct {
	*clouddrive.BaseConnector

	auth   login.Authenticator
	states StateSigner
	flows  *flowTable
}

// NewConnector crea el conector.
func NewConnector(opts Options) (*Connector, error) {
	base, err := clouddrive.NewBaseConnector(opts.Params)
	if err != nil {
		return nil, err
	}
	if opts.Authenticator == nil {
		return nil, clouddrive.WrapError(clouddrive.ErrConfiguration, "Authenticator required")
	}
	ttl := opts.FlowTTL
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}
	providerID := opts.Params.ProviderID
	return &Connector{
		BaseConnector: base,
		auth:          opts.Authenticator,
		states:        opts.States,
		flows: newFlowTable(ttl, func(n int) {
			metrics.PendingFlows.WithLabelValues(providerID).Set(float64(n))
		}),
	}, nil
}

// Close detiene la limpieza de la tabla de flujos pendientes.
func (c *Connector) Close() error {
	c.flows.close()
	return nil
}

// Provider retorna el proveedor CMIS (creado una sola vez).
func (c *Connector) Provider() clouddrive.Provider { return c.cmisProvider() }

func (c *Connector) cmisProvider() *Provider {
	return c.ProviderOnce(func() clouddrive.Provider { return c.createProvider() }).(*Provider)
}

func (c *Connector) createProvider() *Provider {
	base := c.BaseURL()
	p := &Provider{
		id:          c.ProviderID(),
		name:        c.ProviderName(),
		loginURL:    base + "/portal/clouddrive/" + c.ProviderID() + "/login",
		redirectURL: base + "/portal/rest/clouddrive/connect/" + c.ProviderID(),
	}
	if c.states != nil {
		p.state = func() string {
			st, err := c.states.Sign(c.ProviderID())
			if err != nil {
				logger.L().Warn("cannot sign state", logger.Provider(c.ProviderID()), logger.Err(err))
				return NoState
			}
			return st
		}
	}
	p.InitPredefined(c.PredefinedServices())
	return p
}

// Authenticate intercambia el código por un usuario CMIS en dos pasos. La
// primera presentación de un código retorna un usuario pendiente; la segunda
// lo completa con el repositorio asignado a la identidad entre ambas.
func (c *Connector) Authenticate(ctx context.Context, code string) (clouddrive.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, clouddrive.NewError("Access code should not be null or empty")
	}
	log := logger.From(ctx).With(logger.Component("cmis"), logger.Op("Connector.Authenticate"),
		logger.Provider(c.ProviderID()), logger.CodePrefix(code))

	if flow, ok := c.flows.take(code); ok {
		repo := flow.identity.ServiceContext()
		if repo == "" {
			metrics.CodeExchanges.WithLabelValues(c.ProviderID(), "complete", "error").Inc()
			return nil, clouddrive.NewError("CMIS repository not defined")
		}
		flow.user.SetCurrentRepository(repo)
		metrics.CodeExchanges.WithLabelValues(c.ProviderID(), "complete", "ok").Inc()
		log.Debug("authentication completed", logger.CloudUser(flow.user.Username()), logger.Repository(repo))
		return flow.user, nil
	}

	id, err := c.auth.ExchangeCode(ctx, code)
	if err != nil {
		metrics.CodeExchanges.WithLabelValues(c.ProviderID(), "exchange", "error").Inc()
		return nil, clouddrive.WrapError(err, "Authentication failed: "+authMessage(err))
	}
	api, err := newAPIBuilder().auth(id.User, id.Password).serviceURL(id.ServiceURL).build()
	if err != nil {
		metrics.CodeExchanges.WithLabelValues(c.ProviderID(), "exchange", "error").Inc()
		return nil, err
	}
	user := newUser(api, c.cmisProvider())
	c.flows.put(code, authFlow{user: user, identity: id})
	metrics.PendingFlows.WithLabelValues(c.ProviderID()).Set(float64(c.flows.len()))
	metrics.CodeExchanges.WithLabelValues(c.ProviderID(), "exchange", "ok").Inc()
	log.Debug("code exchanged, waiting for repository", logger.CloudUser(user.Username()))
	return user, nil
}

func authMessage(err error) string {
	var ae *login.AuthenticationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// CreateDrive crea el drive de un usuario CMIS completo sobre node.
func (c *Connector) CreateDrive(ctx context.Context, user clouddrive.User, node *nodes.Node) (clouddrive.Drive, error) {
	cu, ok := user.(*User)
	if !ok || cu == nil {
		return nil, clouddrive.WrapError(clouddrive.ErrNotCloudUser, fmt.Sprintf("Not cloud user: %v", user))
	}
	api := cu.API()
	node.Set(nodetypes.PropID, api.Repository())
	node.Set(nodetypes.PropURL, api.ServiceURL())
	node.Set(PropRepository, api.Repository())
	if node.String(nodetypes.PropTitle) == "" {
		node.Set(nodetypes.PropTitle, clouddrive.DriveTitle(c.ProviderName(), cu.Username()))
	}
	logger.From(ctx).Debug("drive created",
		logger.Component("cmis"), logger.DrivePath(node.Path), logger.Repository(api.Repository()))
	return newDrive(node, cu), nil
}

// LoadDrive reconstruye un drive guardado. El API resultante no tiene
// credenciales.
func (c *Connector) LoadDrive(ctx context.Context, node *nodes.Node) (clouddrive.Drive, error) {
	if err := clouddrive.CheckTrashed(node); err != nil {
		return nil, err
	}
	clouddrive.MigrateName(node)

	serviceURL := node.String(nodetypes.PropURL)
	if serviceURL == "" {
		return nil, clouddrive.Errorf("Cannot load drive %s: service URL not found", node.Path)
	}
	repo := node.String(PropRepository)
	if repo == "" {
		repo = node.String(nodetypes.PropID)
	}
	api := restoreAPI(serviceURL, node.String(nodetypes.PropCloudUserName), repo)
	logger.From(ctx).Debug("drive loaded",
		logger.Component("cmis"), logger.DrivePath(node.Path), logger.Repository(repo))
	return newDrive(node, newUser(api, c.cmisProvider())), nil
}
