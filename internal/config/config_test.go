package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "cmis", c.Connector.ProviderID)
	require.Equal(t, "http", c.Connector.Schema)
	require.Equal(t, 10*time.Minute, Duration(c.Connector.FlowTTL))
	require.Equal(t, 5*time.Minute, Duration(c.Login.CodeTTL))
	require.Equal(t, 30, c.Rate.Max)
	require.Equal(t, time.Minute, Duration(c.Rate.Window))
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
connector:
  schema: https
  host: portal.example.com
  predefined:
    - name: Nuxeo
      url: https://nuxeo.example.com/atom
features:
  max_drives_per_user: 2
`)
	t.Setenv("CONNECTOR_HOST", "override.example.com")
	t.Setenv("FEATURES_AUTOSYNC", "true")
	t.Setenv("RATE_MAX", "-1")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "https", c.Connector.Schema)
	require.Equal(t, "override.example.com", c.Connector.Host)
	require.Len(t, c.Connector.Predefined, 1)
	require.Equal(t, "Nuxeo", c.Connector.Predefined[0].Name)
	require.Equal(t, 2, c.Features.MaxDrivesPerUser)
	require.True(t, c.Features.AutoSync)
	require.Equal(t, -1, c.Rate.Max)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad schema":        "connector:\n  schema: ftp\n",
		"bad duration":      "login:\n  code_ttl: soon\n",
		"pg without dsn":    "storage:\n  driver: postgres\n",
		"unknown storage":   "storage:\n  driver: mongo\n",
		"predefined no url": "connector:\n  predefined:\n    - name: x\n",
		"bad rate window":   "rate:\n  window: often\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			require.Error(t, err)
		})
	}
}
