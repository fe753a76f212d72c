package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wikigraph/errors"
)

func validConfig() Config {
	cfg := Default()
	cfg.StorePath = "/var/lib/wikigraph"
	cfg.MediaWikiAPI = "https://wiki.example.org/w/api.php"
	cfg.MediaWikiBase = "https://wiki.example.org"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:7878", cfg.Bind)
	assert.Equal(t, []int{0}, cfg.Namespaces)
	assert.Equal(t, 10*time.Second, cfg.SyncInterval.Std())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	valid := validConfig()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing store path", mutate: func(c *Config) { c.StorePath = "" }},
		{name: "missing api", mutate: func(c *Config) { c.MediaWikiAPI = "" }},
		{name: "missing base url", mutate: func(c *Config) { c.MediaWikiBase = "" }},
		{name: "non-http api", mutate: func(c *Config) { c.MediaWikiAPI = "ftp://wiki" }},
		{name: "empty bind", mutate: func(c *Config) { c.Bind = "" }},
		{name: "namespaces with slot", mutate: func(c *Config) {
			c.Slot = "mediainfo"
			c.Namespaces = []int{0, 120}
		}},
		{name: "zero interval", mutate: func(c *Config) { c.SyncInterval = 0 }},
		{name: "bad ops port", mutate: func(c *Config) { c.OpsPort = 70000 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "logfmt" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestValidateSlotWithDefaultNamespaces(t *testing.T) {
	// The default namespace list does not conflict with a slot filter.
	cfg := validConfig()
	cfg.Slot = "mediainfo"
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikigraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bind: ":8000"
store_path: /data/graph
mediawiki_api: https://wiki.example.org/w/api.php
mediawiki_base_url: https://wiki.example.org
namespaces: [0, 120]
sync_interval: 30s
ops_port: 9090
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Bind)
	assert.Equal(t, "/data/graph", cfg.StorePath)
	assert.Equal(t, []int{0, 120}, cfg.Namespaces)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval.Std())
	assert.Equal(t, 9090, cfg.OpsPort)
	assert.Equal(t, "info", cfg.LogLevel, "unset fields keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestParseNamespaces(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "0", want: []int{0}},
		{in: "0,120", want: []int{0, 120}},
		{in: " 0 , 120 ", want: []int{0, 120}},
		{in: "x", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseNamespaces(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
