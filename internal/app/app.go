// Package app cablea la aplicación a partir de la configuración: stores,
// cache, autenticación por código, conectores, servicio y router HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/clouddrive/internal/cache"
	"github.com/dropDatabas3/clouddrive/internal/clouddrive"
	"github.com/dropDatabas3/clouddrive/internal/cmis"
	"github.com/dropDatabas3/clouddrive/internal/cmis/login"
	"github.com/dropDatabas3/clouddrive/internal/config"
	"github.com/dropDatabas3/clouddrive/internal/features"
	connectctrl "github.com/dropDatabas3/clouddrive/internal/http/controllers/connect"
	drivectrl "github.com/dropDatabas3/clouddrive/internal/http/controllers/drive"
	healthctrl "github.com/dropDatabas3/clouddrive/internal/http/controllers/health"
	loginctrl "github.com/dropDatabas3/clouddrive/internal/http/controllers/login"
	mw "github.com/dropDatabas3/clouddrive/internal/http/middlewares"
	"github.com/dropDatabas3/clouddrive/internal/http/router"
	"github.com/dropDatabas3/clouddrive/internal/metrics"
	"github.com/dropDatabas3/clouddrive/internal/nodes"
	pgnodes "github.com/dropDatabas3/clouddrive/internal/nodes/pg"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
	"github.com/dropDatabas3/clouddrive/internal/rate"
	"github.com/dropDatabas3/clouddrive/internal/security/secretbox"
	"github.com/dropDatabas3/clouddrive/internal/security/state"
	"github.com/dropDatabas3/clouddrive/internal/store"
)

// Version se setea con -ldflags en el build.
var Version = "dev"

// Deps son dependencias opcionales que los tests pueden reemplazar.
type Deps struct {
	// Registry de Prometheus. nil = registry default.
	Registry *prometheus.Registry
	// Nodes reemplaza al store configurado.
	Nodes nodes.Store
}

// App es la aplicación cableada.
type App struct {
	Handler http.Handler
	Service *clouddrive.Service
	Codes   *login.CodeAuthentication

	closers []func() error
}

// New construye la aplicación.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{}

	// 1. Métricas
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	if err := metrics.Register(registerer); err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	checks := map[string]healthctrl.Check{}

	// 2. Store de nodos
	nodeStore := deps.Nodes
	if nodeStore == nil {
		var pool *pgxpool.Pool
		var err error
		nodeStore, pool, err = openNodes(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if pool != nil {
			checks["postgres"] = pool.Ping
		}
	}
	a.closers = append(a.closers, nodeStore.Close)

	// 3. Cache de códigos de login
	cc, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}
	a.closers = append(a.closers, cc.Close)
	checks["cache"] = cc.Ping

	// 4. Autenticación por código
	box, err := secretbox.FromEnv()
	switch {
	case errors.Is(err, secretbox.ErrNoKey):
		log.Warn("secretbox key not set, login passwords are cached unsealed")
		box = nil
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("app: secretbox: %w", err)
	}
	a.Codes = login.New(login.Options{
		Cache:      cc,
		Box:        box,
		CodeTTL:    config.Duration(cfg.Login.CodeTTL),
		ContextTTL: config.Duration(cfg.Login.ContextTTL),
	})
	a.closers = append(a.closers, a.Codes.Close)

	// 5. State firmado (opcional)
	var signer *state.Signer
	if cfg.Connector.StateSecret != "" {
		if signer, err = state.NewSigner(cfg.Connector.StateSecret, config.Duration(cfg.Connector.StateTTL)); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: state: %w", err)
		}
	}

	// 6. Conectores
	params := clouddrive.ConnectorParams{
		Schema:       cfg.Connector.Schema,
		Host:         cfg.Connector.Host,
		ProviderID:   cfg.Connector.ProviderID,
		ProviderName: cfg.Connector.ProviderName,
	}
	for _, p := range cfg.Connector.Predefined {
		params.Predefined = append(params.Predefined, clouddrive.PredefinedService{Name: p.Name, URL: p.URL})
	}
	cmisOpts := cmis.Options{
		Params:        params,
		Authenticator: a.Codes,
		FlowTTL:       config.Duration(cfg.Connector.FlowTTL),
	}
	if signer != nil {
		cmisOpts.States = signer
	}
	conn, err := cmis.NewConnector(cmisOpts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	registry := clouddrive.NewRegistry()
	registry.Register(conn)

	// 7. Servicio
	a.Service = clouddrive.NewService(clouddrive.ServiceDeps{
		Registry: registry,
		Nodes:    nodeStore,
		Features: features.New(features.Config{
			EnabledProviders:  cfg.Features.EnabledProviders,
			MaxDrivesPerUser:  cfg.Features.MaxDrivesPerUser,
			AllowedWorkspaces: cfg.Features.AllowedWorkspaces,
			AutoSync:          cfg.Features.AutoSync,
			AutoSyncExcluded:  cfg.Features.AutoSyncExcluded,
		}),
	})

	// 8. Rate limit: compartido vía Redis cuando la cache es redis
	var rateLimit mw.Middleware
	if cfg.Rate.Max > 0 {
		rdb, _ := cache.RedisClient(cc)
		rateLimit = mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: rate.New(rate.Config{
				Prefix: cfg.Cache.Prefix + ":rl:",
				Max:    cfg.Rate.Max,
				Window: config.Duration(cfg.Rate.Window),
			}, rdb),
		})
	}

	// 9. Controllers y router
	connectDeps := connectctrl.Deps{Drives: a.Service, Contexts: a.Codes}
	if signer != nil {
		connectDeps.States = signer
	}
	a.Handler = router.New(router.Deps{
		Login:     loginctrl.NewController(a.Service, a.Codes),
		Connect:   connectctrl.NewController(connectDeps),
		Drive:     drivectrl.NewController(a.Service),
		Health:    healthctrl.NewController(Version, checks),
		Metrics:   promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		RateLimit: rateLimit,
	})

	log.Info("app wired",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Provider(params.ProviderID),
		logger.Bool("signed_state", signer != nil),
		logger.Bool("sealed_codes", box != nil),
		logger.Int("rate_max", cfg.Rate.Max),
	)
	return a, nil
}

func openNodes(ctx context.Context, cfg *config.Config) (nodes.Store, *pgxpool.Pool, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := store.OpenPool(ctx, store.PoolConfig{
			DSN:      cfg.Storage.DSN,
			MaxConns: cfg.Storage.Postgres.MaxConns,
			MinConns: cfg.Storage.Postgres.MinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Storage.Migrate {
			res, err := pgnodes.Migrate(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.From(ctx).Info("migrations applied", logger.Int("applied", len(res.Applied)))
		}
		return pgnodes.New(pool), pool, nil
	default:
		return nodes.NewMemory(), nil, nil
	}
}

// Close libera los recursos en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
