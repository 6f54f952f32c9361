// internal/config/config.go
//
// This package handles configuration and the fieldcrm home directory.
// The home directory holds config.yaml, the session token and log files.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HomeDirName is the directory created under the user's home.
	HomeDirName = ".fieldcrm"

	defaultBaseURL     = "http://10.0.0.4:5052"
	defaultTimeout     = 15 * time.Second
	defaultReadRetries = 1
	defaultCacheTTL    = 30 * time.Second
	defaultSortBy      = "date"
	defaultBridgeHost  = "127.0.0.1"
	defaultBridgePort  = 8766
)

const defaultConfigYAML = `# fieldcrm configuration
version: 1

server:
  # Base URL of the CRM REST service.
  base_url: http://10.0.0.4:5052
  timeout: 15s
  # Extra attempts for read requests on network errors and 5xx. Writes never retry.
  read_retries: 1

# Optional shared response cache. Leave redis_addr empty to disable.
cache:
  redis_addr: ""
  ttl: 30s

# Defaults for the customer and order lists.
lists:
  sort_by: date
  descending: false

# Local status endpoint exposing /health and /metrics.
bridge:
  enabled: false
  host: 127.0.0.1
  port: 8766
`

// ServerConfig describes the remote service.
type ServerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	ReadRetries int           `yaml:"read_retries"`
}

// CacheConfig configures the optional redis response cache.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// ListConfig captures list preferences persisted between runs.
type ListConfig struct {
	SortBy     string `yaml:"sort_by"`
	Descending bool   `yaml:"descending"`
}

// BridgeConfig configures the local status bridge.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// FileConfig models config.yaml.
type FileConfig struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
	Cache   CacheConfig  `yaml:"cache"`
	Lists   ListConfig   `yaml:"lists"`
	Bridge  BridgeConfig `yaml:"bridge"`
}

// Config holds the runtime configuration.
type Config struct {
	// HomeDir is where config.yaml, state/ and logs/ live
	HomeDir string

	File FileConfig
}

// DefaultHome returns $FIELDCRM_HOME, or ~/.fieldcrm.
func DefaultHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("FIELDCRM_HOME")); home != "" {
		return filepath.Clean(home), nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(userHome, HomeDirName), nil
}

// InitDir creates the directory structure in homeDir.
//
// Structure created:
// <home>/
// ├── config.yaml
// ├── logs/    <- journey.log and http.log
// └── state/   <- session token
func InitDir(homeDir string) error {
	dirs := []string{
		filepath.Join(homeDir, "logs"),
		filepath.Join(homeDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.Chmod(filepath.Join(homeDir, "state"), 0o700); err != nil {
		return err
	}
	return ensureConfigFile(filepath.Join(homeDir, "config.yaml"))
}

// NewConfig loads config.yaml from homeDir and applies environment overrides.
func NewConfig(homeDir string) (*Config, error) {
	cfg := &Config{
		HomeDir: homeDir,
		File:    defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.HomeDir, "state")
}

// TokenPath returns where the session token is stored
func (c *Config) TokenPath() string {
	return filepath.Join(c.StateDir(), "token")
}

// JourneyLogPath returns the user-facing activity log
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// HTTPLogPath returns the request trace log
func (c *Config) HTTPLogPath() string {
	return filepath.Join(c.LogsDir(), "http.log")
}

// ConfigPath returns the on-disk location for config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.yaml")
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.File.Server.BaseURL, "/")
}

// SetBaseURL overrides the service base URL for this run only.
func (c *Config) SetBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.File.Server.BaseURL = strings.TrimRight(raw, "/")
	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return c.File.Server.Timeout
}

// ReadRetries returns the number of extra attempts for reads.
func (c *Config) ReadRetries() int {
	return c.File.Server.ReadRetries
}

// CacheEnabled reports whether a redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.File.Cache.RedisAddr != ""
}

// BridgeEnabled reports whether the status bridge should listen.
func (c *Config) BridgeEnabled() bool {
	return c.File.Bridge.Enabled != nil && *c.File.Bridge.Enabled
}

// BridgeAddress returns the bridge bind address in host:port form.
func (c *Config) BridgeAddress() string {
	host, port := c.File.Bridge.Host, c.File.Bridge.Port
	if host == "" {
		host = defaultBridgeHost
	}
	if port == 0 {
		port = defaultBridgePort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ListDefaults returns the persisted sort preference.
func (c *Config) ListDefaults() ListConfig {
	return c.File.Lists
}

// SetListDefaults stores the sort preference and persists it to config.yaml.
func (c *Config) SetListDefaults(sortBy string, descending bool) error {
	sortBy = strings.ToLower(strings.TrimSpace(sortBy))
	if !validSortBy(sortBy) {
		return fmt.Errorf("config: unknown sort field %q", sortBy)
	}
	if c.File.Lists.SortBy == sortBy && c.File.Lists.Descending == descending {
		return nil
	}
	c.File.Lists.SortBy = sortBy
	c.File.Lists.Descending = descending
	return c.saveLists()
}

func (c *Config) loadFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultFileConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.File = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if server := strings.TrimSpace(os.Getenv("FIELDCRM_SERVER")); server != "" {
		c.File.Server.BaseURL = strings.TrimRight(server, "/")
	}
	if addr, ok := os.LookupEnv("FIELDCRM_REDIS_ADDR"); ok {
		c.File.Cache.RedisAddr = strings.TrimSpace(addr)
	}
	if value := strings.TrimSpace(os.Getenv("FIELDCRM_BRIDGE_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.File.Bridge.Enabled = &enabled
		}
	}
	if host := strings.TrimSpace(os.Getenv("FIELDCRM_BRIDGE_HOST")); host != "" {
		c.File.Bridge.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("FIELDCRM_BRIDGE_PORT")); port != "" {
		// Out of range values are ignored, like unparsable ones.
		if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 && parsed <= 65535 {
			c.File.Bridge.Port = parsed
		}
	}
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		Server: ServerConfig{
			BaseURL:     defaultBaseURL,
			Timeout:     defaultTimeout,
			ReadRetries: defaultReadRetries,
		},
		Cache: CacheConfig{TTL: defaultCacheTTL},
		Lists: ListConfig{SortBy: defaultSortBy},
		Bridge: BridgeConfig{
			Host: defaultBridgeHost,
			Port: defaultBridgePort,
		},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if fc.Server.Timeout <= 0 {
		fc.Server.Timeout = defaultTimeout
	}
	if fc.Server.ReadRetries < 0 {
		fc.Server.ReadRetries = 0
	}
	if fc.Cache.TTL <= 0 {
		fc.Cache.TTL = defaultCacheTTL
	}
	if fc.Lists.SortBy == "" {
		fc.Lists.SortBy = defaultSortBy
	}
}

func (fc *FileConfig) normalize() {
	fc.Server.BaseURL = strings.TrimRight(strings.TrimSpace(fc.Server.BaseURL), "/")
	if fc.Server.BaseURL == "" {
		fc.Server.BaseURL = defaultBaseURL
	}
	fc.Cache.RedisAddr = strings.TrimSpace(fc.Cache.RedisAddr)
	fc.Lists.SortBy = strings.ToLower(strings.TrimSpace(fc.Lists.SortBy))
	fc.Bridge.Host = strings.TrimSpace(fc.Bridge.Host)
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateBaseURL(fc.Server.BaseURL); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if !validSortBy(fc.Lists.SortBy) {
		return fmt.Errorf("lists.sort_by must be one of date, name, number")
	}
	if fc.Bridge.Port != 0 && (fc.Bridge.Port < 0 || fc.Bridge.Port > 65535) {
		return fmt.Errorf("bridge.port %s out of range", strconv.Itoa(fc.Bridge.Port))
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be an http or https URL")
	}
	if u.Host == "" {
		return fmt.Errorf("base_url is missing a host")
	}
	return nil
}

func validSortBy(v string) bool {
	switch v {
	case "date", "name", "number":
		return true
	}
	return false
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// saveLists rewrites config.yaml with the current list preferences. The
// file is re-read first so run-only overrides (flags, env) are not persisted.
func (c *Config) saveLists() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	onDisk := &Config{HomeDir: c.HomeDir, File: defaultFileConfig()}
	if err := onDisk.loadFile(); err != nil {
		return err
	}
	onDisk.File.Lists = c.File.Lists
	if err := onDisk.File.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.HomeDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure home dir: %w", err)
	}
	data, err := yaml.Marshal(onDisk.File)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}
