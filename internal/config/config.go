package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/esquery/internal/db/driver"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
	"github.com/kailas-cloud/esquery/internal/usecase/search"
)

// Supported search drivers.
const (
	DriverElasticsearch = driver.Elasticsearch
	DriverOpenSearch    = driver.OpenSearch
)

// Config holds the esquery API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Search  SearchConfig  `yaml:"search"`
	Records RecordsConfig `yaml:"records"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds backend connection and query settings.
type SearchConfig struct {
	Driver            string       `yaml:"driver"` // elasticsearch, opensearch (default: elasticsearch)
	Hosts             HostList     `yaml:"hosts"`
	Username          string       `yaml:"username"`
	Password          string       `yaml:"password"`
	DefaultIndex      string       `yaml:"default_index"`
	Dialect           string       `yaml:"dialect"` // modern (default); legacy is rejected by both drivers
	MaxLimit          int          `yaml:"max_limit"`
	MaxRetries        int          `yaml:"max_retries"`
	ReloadIntervalSec int          `yaml:"reload_interval_sec"` // 0 disables periodic reload
	Types             []TypeConfig `yaml:"types"`
}

// TypeConfig binds a document type to an index and scoping strategy.
type TypeConfig struct {
	Name     string           `yaml:"name"`
	Index    string           `yaml:"index"`    // default: search.default_index
	Strategy string           `yaml:"strategy"` // discriminator (default), type_filter
	Field    string           `yaml:"field"`
	Filters  map[string][]any `yaml:"filters"`
}

// RecordsConfig holds the Redis record store settings. Empty addrs disables it.
type RecordsConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a record store is configured.
func (r RecordsConfig) Enabled() bool { return len(r.Addrs) > 0 }

// HostList accepts either a YAML sequence or a single whitespace-separated string.
type HostList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *HostList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*h = strings.Fields(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err //nolint:wrapcheck
		}
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, strings.Fields(s)...)
		}
		*h = out
		return nil
	default:
		return fmt.Errorf("hosts: expected string or list, line %d", node.Line)
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Driver == "" {
		c.Search.Driver = DriverElasticsearch
	}
	if c.Search.DefaultIndex == "" {
		c.Search.DefaultIndex = "default"
	}
	if c.Search.MaxRetries <= 0 {
		c.Search.MaxRetries = 3
	}
	c.Search.Hosts = driver.NormalizeHosts(c.Search.Hosts)
	for i := range c.Search.Types {
		if c.Search.Types[i].Index == "" {
			c.Search.Types[i].Index = c.Search.DefaultIndex
		}
	}
	c.Auth.APIKeys = nonEmpty(c.Auth.APIKeys)
	if c.Records.KeyPrefix == "" {
		c.Records.KeyPrefix = "esquery:record:"
	}
	if c.Records.ReadinessTimeout <= 0 {
		c.Records.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Search.Driver {
	case DriverElasticsearch, DriverOpenSearch:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q",
			DriverElasticsearch, DriverOpenSearch, c.Search.Driver)
	}
	if len(c.Search.Hosts) == 0 {
		return fmt.Errorf("search.hosts is required")
	}
	dialect, err := dsl.Parse(c.Search.Dialect)
	if err != nil {
		return fmt.Errorf("search.dialect: %w", err)
	}
	if err := driver.CheckDialect(c.Search.Driver, dialect); err != nil {
		return fmt.Errorf("search.dialect: %w", err)
	}
	if c.Search.MaxLimit < 0 {
		return fmt.Errorf("search.max_limit must not be negative, got %d", c.Search.MaxLimit)
	}
	seen := make(map[string]bool, len(c.Search.Types))
	for i, t := range c.Search.Types {
		if t.Name == "" {
			return fmt.Errorf("search.types[%d].name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("search.types[%d]: duplicate type %q", i, t.Name)
		}
		seen[t.Name] = true
		strategy, err := search.ParseStrategy(t.Strategy)
		if err != nil {
			return fmt.Errorf("search.types.%s.strategy: %w", t.Name, err)
		}
		if err := (search.Scope{Type: t.Name, Strategy: strategy}).Validate(dialect); err != nil {
			return fmt.Errorf("search.types.%s.strategy: %w", t.Name, err)
		}
	}
	return nil
}

// nonEmpty drops blank entries left by unset ${VAR} references.
func nonEmpty(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
