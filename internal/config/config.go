package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	Auth   AuthConfig   `yaml:"auth"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Transport      string        `yaml:"transport"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"`
	DBPath     string `yaml:"db_path"`
	BadgerPath string `yaml:"badger_path"`
}

// CacheConfig sizes the read-through record cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	Enabled       bool      `yaml:"enabled"`
	DefaultCaller string    `yaml:"default_caller"`
	Keys          []AuthKey `yaml:"keys"`
}

// AuthKey maps a bearer token to a caller identity.
type AuthKey struct {
	Token  string `yaml:"token"`
	Caller string `yaml:"caller"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Transport:      TransportHTTP,
			SessionTimeout: 30 * time.Minute,
		},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			DBPath:     "crisisdesk.db",
			BadgerPath: "crisisdesk.badger",
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  5 * time.Minute,
		},
		Auth: AuthConfig{
			DefaultCaller: "local",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CRISISDESK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("CRISISDESK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CRISISDESK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CRISISDESK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if transport := os.Getenv("CRISISDESK_TRANSPORT"); transport != "" {
		cfg.Server.Transport = transport
	}
	if backend := os.Getenv("CRISISDESK_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if dbPath := os.Getenv("CRISISDESK_DB_PATH"); dbPath != "" {
		cfg.Store.DBPath = dbPath
	}
	if badgerPath := os.Getenv("CRISISDESK_BADGER_PATH"); badgerPath != "" {
		cfg.Store.BadgerPath = badgerPath
	}
	if sizeStr := os.Getenv("CRISISDESK_CACHE_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid CRISISDESK_CACHE_SIZE: %w", err)
		}
		cfg.Cache.Size = size
	}
	if enabled := os.Getenv("CRISISDESK_AUTH_ENABLED"); enabled != "" {
		on, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid CRISISDESK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = on
	}
	if level := os.Getenv("CRISISDESK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("CRISISDESK_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, c.Server.Transport)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("%w: sqlite backend needs db_path", ErrInvalid)
		}
	case BackendBadger:
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("%w: badger backend needs badger_path", ErrInvalid)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("%w: negative cache size", ErrInvalid)
	}
	if c.Auth.DefaultCaller == "" {
		return fmt.Errorf("%w: auth.default_caller is empty", ErrInvalid)
	}
	for i, key := range c.Auth.Keys {
		if key.Token == "" || key.Caller == "" {
			return fmt.Errorf("%w: auth.keys[%d] needs token and caller", ErrInvalid, i)
		}
	}
	return nil
}

// StaticKeys returns the configured token to caller map.
func (c Config) StaticKeys() map[string]string {
	keys := make(map[string]string, len(c.Auth.Keys))
	for _, key := range c.Auth.Keys {
		keys[key.Token] = key.Caller
	}
	return keys
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
