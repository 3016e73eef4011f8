package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML).
	App struct {
		// dev | staging | prod
		Env  string `yaml:"app_env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns int `yaml:"max_conns"`
			MinConns int `yaml:"min_conns"`
		} `yaml:"postgres"`
		Migrate bool `yaml:"migrate"`
	} `yaml:"storage"`

	// Cache para los códigos de login pendientes.
	Cache struct {
		Kind   string `yaml:"kind"` // memory | redis
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// ───────── Conector CMIS ─────────
	Connector struct {
		Schema       string `yaml:"schema"` // http | https
		Host         string `yaml:"host"`   // host[:port] público del portal
		ProviderID   string `yaml:"provider_id"`
		ProviderName string `yaml:"provider_name"`
		FlowTTL      string `yaml:"flow_ttl"` // vida de un flujo de autenticación pendiente
		StateSecret  string `yaml:"state_secret"`
		StateTTL     string `yaml:"state_ttl"`
		Predefined   []struct {
			Name string `yaml:"name"`
			URL  string `yaml:"url"`
		} `yaml:"predefined"`
	} `yaml:"connector"`

	Login struct {
		CodeTTL    string `yaml:"code_ttl"`
		ContextTTL string `yaml:"context_ttl"`
	} `yaml:"login"`

	// Límite por IP para login y conexión. max < 0 desactiva.
	Rate struct {
		Max    int    `yaml:"max"`
		Window string `yaml:"window"`
	} `yaml:"rate"`

	Features struct {
		EnabledProviders  []string `yaml:"enabled_providers"` // vacío = todos
		MaxDrivesPerUser  int      `yaml:"max_drives_per_user"`
		AllowedWorkspaces []string `yaml:"allowed_workspaces"` // vacío = todos
		AutoSync          bool     `yaml:"autosync"`
		AutoSyncExcluded  []string `yaml:"autosync_excluded"`
	} `yaml:"features"`
}

// envOverrides se parsea con caarlos0/env. Punteros nil = variable no seteada.
type envOverrides struct {
	AppEnv       *string `env:"APP_ENV"`
	LogLevel     *string `env:"LOG_LEVEL"`
	Addr         *string `env:"CLOUDDRIVE_ADDR"`
	StorageDSN   *string `env:"STORAGE_DSN"`
	StorageKind  *string `env:"STORAGE_DRIVER"`
	CacheKind    *string `env:"CACHE_KIND"`
	RedisAddr    *string `env:"REDIS_ADDR"`
	RedisDB      *int    `env:"REDIS_DB"`
	RedisPass    *string `env:"REDIS_PASSWORD"`
	Schema       *string `env:"CONNECTOR_SCHEMA"`
	Host         *string `env:"CONNECTOR_HOST"`
	StateSecret  *string `env:"CONNECTOR_STATE_SECRET"`
	MaxDrives    *int    `env:"FEATURES_MAX_DRIVES_PER_USER"`
	AutoSyncFlag *bool   `env:"FEATURES_AUTOSYNC"`
	RateMax      *int    `env:"RATE_MAX"`
}

// Load lee el YAML en path, aplica defaults y overrides por env y valida.
// Si path está vacío se parte de una configuración vacía.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "clouddrive"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "clouddrive"
	}
	if c.Connector.Schema == "" {
		c.Connector.Schema = "http"
	}
	if c.Connector.Host == "" {
		c.Connector.Host = "localhost:8080"
	}
	if c.Connector.ProviderID == "" {
		c.Connector.ProviderID = "cmis"
	}
	if c.Connector.ProviderName == "" {
		c.Connector.ProviderName = "CMIS"
	}
	if c.Connector.FlowTTL == "" {
		c.Connector.FlowTTL = "10m"
	}
	if c.Connector.StateTTL == "" {
		c.Connector.StateTTL = "15m"
	}
	if c.Login.CodeTTL == "" {
		c.Login.CodeTTL = "5m"
	}
	if c.Login.ContextTTL == "" {
		c.Login.ContextTTL = "10m"
	}
	if c.Rate.Max == 0 {
		c.Rate.Max = 30
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
}

func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	setStr := func(dst *string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			*dst = strings.TrimSpace(*v)
		}
	}
	setStr(&c.App.Env, o.AppEnv)
	setStr(&c.Log.Level, o.LogLevel)
	setStr(&c.Server.Addr, o.Addr)
	setStr(&c.Storage.DSN, o.StorageDSN)
	setStr(&c.Storage.Driver, o.StorageKind)
	setStr(&c.Cache.Kind, o.CacheKind)
	setStr(&c.Cache.Redis.Addr, o.RedisAddr)
	setStr(&c.Cache.Redis.Password, o.RedisPass)
	setStr(&c.Connector.Schema, o.Schema)
	setStr(&c.Connector.Host, o.Host)
	setStr(&c.Connector.StateSecret, o.StateSecret)
	if o.RedisDB != nil {
		c.Cache.Redis.DB = *o.RedisDB
	}
	if o.MaxDrives != nil {
		c.Features.MaxDrivesPerUser = *o.MaxDrives
	}
	if o.AutoSyncFlag != nil {
		c.Features.AutoSync = *o.AutoSyncFlag
	}
	if o.RateMax != nil {
		c.Rate.Max = *o.RateMax
	}
	return nil
}

// Validate verifica valores que no tienen un default razonable.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"connector.flow_ttl":   c.Connector.FlowTTL,
		"connector.state_ttl":  c.Connector.StateTTL,
		"login.code_ttl":       c.Login.CodeTTL,
		"login.context_ttl":    c.Login.ContextTTL,
		"rate.window":          c.Rate.Window,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	switch c.Connector.Schema {
	case "http", "https":
	default:
		return fmt.Errorf("config: connector.schema must be http or https, got %q", c.Connector.Schema)
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Features.MaxDrivesPerUser < 0 {
		return fmt.Errorf("config: features.max_drives_per_user must be >= 0")
	}
	for i, p := range c.Connector.Predefined {
		if strings.TrimSpace(p.URL) == "" {
			return fmt.Errorf("config: connector.predefined[%d].url required", i)
		}
	}
	return nil
}

// Duration parsea una duración ya validada por Load.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
