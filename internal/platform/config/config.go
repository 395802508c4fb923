package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreRedis  = "redis"

	PolicyLogout = "logout"
	PolicyRetry  = "retry"

	envPrefix = "TODOTERM_"
)

type Config struct {
	ServerURL            string        `yaml:"server"`
	Store                string        `yaml:"store"`
	DataDir              string        `yaml:"data_dir"`
	RedisURL             string        `yaml:"redis_url"`
	Timeout              time.Duration `yaml:"timeout"`
	LogLevel             string        `yaml:"log_level"`
	LogFile              string        `yaml:"log_file"`
	NetworkErrorPolicy   string        `yaml:"network_error_policy"`
	ForcedLogoutStatuses []int         `yaml:"forced_logout_statuses"`

	// Path is the config file that was read, empty when none existed.
	Path string `yaml:"-"`
}

// Overrides are applied last, after the file and the environment.
type Overrides struct {
	ConfigPath string
	ServerURL  string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func Defaults() (Config, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	return Config{
		ServerURL:            "http://localhost:8080",
		Store:                StoreSQLite,
		DataDir:              filepath.Join(dir, "todoterm"),
		Timeout:              10 * time.Second,
		LogLevel:             "info",
		NetworkErrorPolicy:   PolicyLogout,
		ForcedLogoutStatuses: []int{401, 403},
	}, nil
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "todoterm", "config.yaml"), nil
}

// Load layers defaults, the YAML file, TODOTERM_* variables and overrides.
// A missing default config file is fine; a missing explicit one is not.
func Load(o Overrides) (Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return Config{}, err
	}

	path := o.ConfigPath
	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return Config{}, err
	}

	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if o.ServerURL != "" {
		cfg.ServerURL = o.ServerURL
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, explicit bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	c.ServerURL = firstNonEmpty(getenv(envPrefix+"SERVER"), c.ServerURL)
	c.Store = firstNonEmpty(getenv(envPrefix+"STORE"), c.Store)
	c.DataDir = firstNonEmpty(getenv(envPrefix+"DATA_DIR"), c.DataDir)
	c.RedisURL = firstNonEmpty(getenv(envPrefix+"REDIS_URL"), c.RedisURL)
	c.LogLevel = firstNonEmpty(getenv(envPrefix+"LOG_LEVEL"), c.LogLevel)
	c.LogFile = firstNonEmpty(getenv(envPrefix+"LOG_FILE"), c.LogFile)
	c.NetworkErrorPolicy = firstNonEmpty(getenv(envPrefix+"NETWORK_ERROR_POLICY"), c.NetworkErrorPolicy)
	if v := getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		c.Timeout = d
	}
	if v := getenv(envPrefix + "FORCED_LOGOUT_STATUSES"); v != "" {
		statuses, err := parseStatuses(v)
		if err != nil {
			return err
		}
		c.ForcedLogoutStatuses = statuses
	}
	return nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an absolute http(s) url, got %q", c.ServerURL)
	}
	switch c.Store {
	case StoreSQLite, StoreFile:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for the %s store", c.Store)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q (sqlite|file|redis)", c.Store)
	}
	switch c.NetworkErrorPolicy {
	case PolicyLogout, PolicyRetry:
	default:
		return fmt.Errorf("unknown network_error_policy %q (logout|retry)", c.NetworkErrorPolicy)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if len(c.ForcedLogoutStatuses) == 0 {
		return fmt.Errorf("forced_logout_statuses must not be empty")
	}
	for _, s := range c.ForcedLogoutStatuses {
		if s < 400 || s > 499 {
			return fmt.Errorf("forced logout status %d is not a 4xx code", s)
		}
	}
	for _, required := range []int{401, 403} {
		if !slices.Contains(c.ForcedLogoutStatuses, required) {
			return fmt.Errorf("forced_logout_statuses must include %d", required)
		}
	}
	return nil
}

// Origin is the scheme://host[:port] the credential is scoped to.
func (c Config) Origin() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "todoterm.db")
}

func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "todoterm.log")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseStatuses(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("forced logout status %q: %w", part, err)
		}
		out = append(out, code)
	}
	return out, nil
}
