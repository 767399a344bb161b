package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// maxShortCodeLength is the length of a hex-encoded SHA-256 digest.
const maxShortCodeLength = 64

var errInvalidConfig = errors.New("invalid config")

type Config struct {
	Env             string `yaml:"env"`
	BaseURL         string `yaml:"base_url"`
	ShortCodeLength int    `yaml:"short_code_length"`
	DefaultExpiry   int    `yaml:"default_expiry"`
	Storage         `yaml:"storage"`
	SQLite          `yaml:"sqlite"`
	Postgres        `yaml:"postgres"`
	HTTPServer      `yaml:"http_server"`
	IPLookup        `yaml:"ip_lookup"`
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

var defaultSQLite = SQLite{
	Path: "url_shortener.db",
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// IPLookup configures the public IP service queried when a caller IP is unknown.
type IPLookup struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

var defaultIPLookup = IPLookup{
	URL:     "https://api.ipify.org?format=json",
	Timeout: 3 * time.Second,
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", errInvalidConfig, c.Storage.Driver)
	}

	if c.ShortCodeLength < 1 || c.ShortCodeLength > maxShortCodeLength {
		return fmt.Errorf("%w: short_code_length must be between 1 and %d", errInvalidConfig, maxShortCodeLength)
	}

	if c.DefaultExpiry <= 0 {
		return fmt.Errorf("%w: default_expiry must be positive", errInvalidConfig)
	}

	if int64(c.DefaultExpiry) > entity.MaxExpiryHours {
		return fmt.Errorf("%w: default_expiry must not exceed %d hours", errInvalidConfig, entity.MaxExpiryHours)
	}

	if c.IPLookup.Timeout <= 0 {
		return fmt.Errorf("%w: ip_lookup.timeout must be positive", errInvalidConfig)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.ShortCodeLength = 6
	cfg.DefaultExpiry = 24
	cfg.Storage.Driver = DriverSQLite
	cfg.SQLite = defaultSQLite
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.IPLookup = defaultIPLookup
}
