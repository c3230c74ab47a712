// Package config collects runtime settings from .env files, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type Config struct {
	Port            string         `yaml:"port"`
	StoreBackend    string         `yaml:"store_backend"`
	StoreTimeout    time.Duration  `yaml:"store_timeout"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
	Postgres        PostgresConfig `yaml:"postgres"`
	Mongo           MongoConfig    `yaml:"mongo"`
	HTTP            HTTPConfig     `yaml:"http"`
	Log             LogConfig      `yaml:"log"`
}

type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	// Lazy defers connecting until the first request needs the database.
	Lazy           bool          `yaml:"lazy"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type HTTPConfig struct {
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:            "4000",
		StoreBackend:    BackendPostgres,
		StoreTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Postgres:        PostgresConfig{AutoMigrate: true},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "shopnex_db",
			Collection:     "products",
			ConnectTimeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			CORSOrigins:    []string{"*"},
			RateLimitBurst: 20,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// LoadEnvFiles loads every existing file into the environment, later files
// overriding earlier ones. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Overload(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DB_DSN is empty (check your .env)")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo uri is empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.Port == "" {
		return errors.New("port is empty")
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func applyEnv(cfg *Config) {
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.StoreBackend = strings.ToLower(getenv("STORE_BACKEND", cfg.StoreBackend))
	cfg.StoreTimeout = durenv("STORE_TIMEOUT", cfg.StoreTimeout)
	cfg.ShutdownTimeout = durenv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.Postgres.DSN = getenv("DB_DSN", cfg.Postgres.DSN)
	cfg.Postgres.AutoMigrate = boolenv("DB_AUTO_MIGRATE", cfg.Postgres.AutoMigrate)

	if uri := mongoURIFromEnv(); uri != "" {
		cfg.Mongo.URI = uri
	}
	cfg.Mongo.Database = getenv("MONGO_DB", cfg.Mongo.Database)
	cfg.Mongo.Collection = getenv("MONGO_COLLECTION", cfg.Mongo.Collection)
	cfg.Mongo.Lazy = boolenv("MONGO_LAZY", cfg.Mongo.Lazy)
	cfg.Mongo.ConnectTimeout = durenv("MONGO_CONNECT_TIMEOUT", cfg.Mongo.ConnectTimeout)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	cfg.HTTP.RateLimitRPS = floatenv("RATE_LIMIT_RPS", cfg.HTTP.RateLimitRPS)
	cfg.HTTP.RateLimitBurst = atoienv("RATE_LIMIT_BURST", cfg.HTTP.RateLimitBurst)

	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
}

// mongoURIFromEnv prefers MONGO_URI and otherwise assembles an SRV uri from
// DB_USER, DB_PASS and MONGO_HOST.
func mongoURIFromEnv() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	user, host := os.Getenv("DB_USER"), os.Getenv("MONGO_HOST")
	if user == "" || host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "mongodb+srv",
		User:   url.UserPassword(user, os.Getenv("DB_PASS")),
		Host:   host,
		Path:   "/",
	}
	if app := os.Getenv("MONGO_APP_NAME"); app != "" {
		u.RawQuery = url.Values{"appName": {app}}.Encode()
	}
	return u.String()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(key, ""), 64)
	if err != nil {
		return def
	}
	return f
}

func boolenv(key string, def bool) bool {
	b, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return def
	}
	return b
}

// durenv accepts Go durations ("15s") or a bare number of seconds.
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
