// Package config defines the WikiGraph runtime configuration: defaults,
// optional YAML file, and validation. Flag and environment handling lives
// in cmd/wikigraph; this package is the merged result both feed into.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/wikigraph/errors"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("30s", "1m"). Bare numbers are seconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %v", value.Value)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Config is the full runtime configuration.
type Config struct {
	// Bind is the listen address of the query endpoint.
	Bind string `yaml:"bind"`
	// StorePath is the directory holding the Badger store.
	StorePath string `yaml:"store_path"`

	// MediaWikiAPI is the upstream action API endpoint
	// (https://wiki.example.org/w/api.php).
	MediaWikiAPI string `yaml:"mediawiki_api"`
	// MediaWikiBase is the wiki origin serving Special:EntityData.
	MediaWikiBase string `yaml:"mediawiki_base_url"`

	// Namespaces restricts synchronization to these wiki namespaces.
	// Mutually exclusive with Slot.
	Namespaces []int `yaml:"namespaces"`
	// Slot restricts synchronization to one content slot.
	Slot string `yaml:"slot"`
	// SyncInterval is the update-loop poll interval.
	SyncInterval Duration `yaml:"sync_interval"`

	// NATSURL enables sync-event publishing when non-empty.
	NATSURL string `yaml:"nats_url"`
	// OpsPort serves Prometheus metrics; 0 disables the listener.
	OpsPort int `yaml:"ops_port"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bind:         "localhost:7878",
		Namespaces:   []int{0},
		SyncInterval: Duration(10 * time.Second),
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WrapFatal(err, "config", "Load", "read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WrapFatal(err, "config", "Load", "parse config file")
	}
	return cfg, nil
}

// Validate checks the configuration, failing fast on anything the process
// could not run with.
func (c *Config) Validate() error {
	fail := func(msg string) error {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate", msg)
	}

	if c.Bind == "" {
		return fail("bind address is required")
	}
	if c.StorePath == "" {
		return fail("store path is required")
	}
	if c.MediaWikiAPI == "" {
		return fail("mediawiki API endpoint is required")
	}
	if c.MediaWikiBase == "" {
		return fail("mediawiki base URL is required")
	}
	if !strings.HasPrefix(c.MediaWikiAPI, "http://") && !strings.HasPrefix(c.MediaWikiAPI, "https://") {
		return fail(fmt.Sprintf("mediawiki API endpoint %q is not an HTTP(S) URL", c.MediaWikiAPI))
	}
	if c.Slot != "" && len(c.Namespaces) > 0 && !isDefaultNamespaces(c.Namespaces) {
		return fail("namespaces and slot are mutually exclusive")
	}
	if c.SyncInterval <= 0 {
		return fail("sync interval must be positive")
	}
	if c.OpsPort < 0 || c.OpsPort > 65535 {
		return fail(fmt.Sprintf("invalid ops port %d", c.OpsPort))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fail(fmt.Sprintf("invalid log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fail(fmt.Sprintf("invalid log format %q", c.LogFormat))
	}
	return nil
}

func isDefaultNamespaces(namespaces []int) bool {
	return len(namespaces) == 1 && namespaces[0] == 0
}

// ParseNamespaces parses a comma-separated namespace list ("0,120").
func ParseNamespaces(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	namespaces := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, errors.Invalidf("invalid namespace %q", part)
		}
		namespaces = append(namespaces, n)
	}
	return namespaces, nil
}
