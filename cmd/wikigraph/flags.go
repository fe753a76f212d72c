package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/wikigraph/config"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath    string
	Bind          string
	StorePath     string
	MediaWikiAPI  string
	MediaWikiBase string
	Namespaces    string
	Slot          string
	SyncInterval  time.Duration
	NATSURL       string
	OpsPort       int
	LogLevel      string
	LogFormat     string
	ShowVersion   bool
	ShowHelp      bool
	Validate      bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}
	defaults := config.Default()

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("WIKIGRAPH_CONFIG", ""),
		"Path to YAML configuration file, optional (env: WIKIGRAPH_CONFIG)")

	flag.StringVar(&cfg.Bind, "bind",
		getEnv("WIKIGRAPH_BIND", defaults.Bind),
		"SPARQL endpoint listen address (env: WIKIGRAPH_BIND)")

	flag.StringVar(&cfg.StorePath, "file",
		getEnv("WIKIGRAPH_FILE", ""),
		"Directory for the quad store (env: WIKIGRAPH_FILE)")

	flag.StringVar(&cfg.MediaWikiAPI, "mediawiki-api",
		getEnv("WIKIGRAPH_MEDIAWIKI_API", ""),
		"MediaWiki Action API endpoint, e.g. https://wiki.example.org/w/api.php (env: WIKIGRAPH_MEDIAWIKI_API)")

	flag.StringVar(&cfg.MediaWikiBase, "mediawiki-base-url",
		getEnv("WIKIGRAPH_MEDIAWIKI_BASE_URL", ""),
		"MediaWiki base URL used to build entity data URLs (env: WIKIGRAPH_MEDIAWIKI_BASE_URL)")

	flag.StringVar(&cfg.Namespaces, "namespaces",
		getEnv("WIKIGRAPH_NAMESPACES", "0"),
		"Comma-separated namespace IDs to sync (env: WIKIGRAPH_NAMESPACES)")

	flag.StringVar(&cfg.Slot, "slot",
		getEnv("WIKIGRAPH_SLOT", ""),
		"Sync only pages with this content slot instead of filtering by namespace (env: WIKIGRAPH_SLOT)")

	flag.DurationVar(&cfg.SyncInterval, "sync-interval",
		getEnvDuration("WIKIGRAPH_SYNC_INTERVAL", defaults.SyncInterval.Std()),
		"Interval between recent-changes polls (env: WIKIGRAPH_SYNC_INTERVAL)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("WIKIGRAPH_NATS_URL", ""),
		"NATS server URL for sync event publishing, empty to disable (env: WIKIGRAPH_NATS_URL)")

	flag.IntVar(&cfg.OpsPort, "ops-port",
		getEnvInt("WIKIGRAPH_OPS_PORT", 0),
		"Metrics and health port, 0 to disable (env: WIKIGRAPH_OPS_PORT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("WIKIGRAPH_LOG_LEVEL", defaults.LogLevel),
		"Log level: debug, info, warn, error (env: WIKIGRAPH_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("WIKIGRAPH_LOG_FORMAT", defaults.LogFormat),
		"Log format: json, text (env: WIKIGRAPH_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

// resolveConfig merges the optional YAML file with command-line flags.
// Flags set explicitly on the command line win over file values.
func resolveConfig(cliCfg *CLIConfig) (config.Config, error) {
	cfg := config.Default()

	if cliCfg.ConfigPath != "" {
		loaded, err := config.Load(cliCfg.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Without a config file every flag applies; with one, only explicit flags override.
	apply := func(name string) bool { return cliCfg.ConfigPath == "" || set[name] }

	if apply("bind") {
		cfg.Bind = cliCfg.Bind
	}
	if apply("file") && cliCfg.StorePath != "" {
		cfg.StorePath = cliCfg.StorePath
	}
	if apply("mediawiki-api") && cliCfg.MediaWikiAPI != "" {
		cfg.MediaWikiAPI = cliCfg.MediaWikiAPI
	}
	if apply("mediawiki-base-url") && cliCfg.MediaWikiBase != "" {
		cfg.MediaWikiBase = cliCfg.MediaWikiBase
	}
	if apply("namespaces") {
		namespaces, err := config.ParseNamespaces(cliCfg.Namespaces)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Namespaces = namespaces
	}
	if apply("slot") && cliCfg.Slot != "" {
		cfg.Slot = cliCfg.Slot
	}
	if apply("sync-interval") {
		cfg.SyncInterval = config.Duration(cliCfg.SyncInterval)
	}
	if apply("nats-url") && cliCfg.NATSURL != "" {
		cfg.NATSURL = cliCfg.NATSURL
	}
	if apply("ops-port") && cliCfg.OpsPort != 0 {
		cfg.OpsPort = cliCfg.OpsPort
	}
	if apply("log-level") {
		cfg.LogLevel = cliCfg.LogLevel
	}
	if apply("log-format") {
		cfg.LogFormat = cliCfg.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - RDF knowledge graph synced from MediaWiki

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Serve a wiki's main namespace
  %s --file=/var/lib/wikigraph --mediawiki-api=https://wiki.example.org/w/api.php \
      --mediawiki-base-url=https://wiki.example.org

  # Sync a dedicated content slot with debug logging
  %s --slot=jsonld --log-level=debug --log-format=text

  # Run from a config file with environment overrides
  export WIKIGRAPH_CONFIG=/etc/wikigraph/config.yaml
  export WIKIGRAPH_LOG_LEVEL=debug
  %s

  # Validate configuration only
  %s --config=/etc/wikigraph/config.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
