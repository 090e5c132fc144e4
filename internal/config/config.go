package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when --config is not given.
const DefaultPath = "formdb.yaml"

// Fixed address of the ephemeral instance used when no database is configured.
const (
	DefaultFallbackHost     = "127.0.0.1"
	DefaultFallbackPort     = 3000
	DefaultFallbackDatabase = "formsg"
)

// Environment variables folded into the configuration by ApplyEnv.
const (
	EnvDBHost             = "DB_HOST"
	EnvMongoBinaryVersion = "MONGO_BINARY_VERSION"
	EnvInitAgencyDomain   = "INIT_AGENCY_DOMAIN"
	EnvInitAgencyShort    = "INIT_AGENCY_SHORTNAME"
	EnvInitAgencyFull     = "INIT_AGENCY_FULLNAME"
	EnvJournalPath        = "FORMDB_JOURNAL"
	EnvMetricsAddr        = "FORMDB_METRICS_ADDR"
)

// Mode is how the bootstrapper reaches its database.
type Mode string

const (
	// ModeConnected uses the configured connection string.
	ModeConnected Mode = "connected"
	// ModeEphemeral spawns an in-memory instance because no string is configured.
	ModeEphemeral Mode = "ephemeral"
)

// Config is the complete formdb configuration.
//
// A Config is loaded once, overlaid with the environment, validated, and then
// treated as read-only. The effective connection string after fallback
// resolution lives in bootstrap.Resolved, never here.
type Config struct {
	DB       DBConfig       `yaml:"db" json:"db"`
	Fallback FallbackConfig `yaml:"fallback" json:"fallback"`
	Seed     SeedConfig     `yaml:"seed" json:"seed"`
	Models   []ModelConfig  `yaml:"models,omitempty" json:"models,omitempty"`
	Journal  JournalConfig  `yaml:"journal" json:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// DBConfig holds the connection string and the driver option mapping.
type DBConfig struct {
	URI     string        `yaml:"uri" json:"uri"`
	Options DriverOptions `yaml:"options" json:"options"`
}

// DriverOptions is the subset of MongoDB client options formdb understands.
// Zero values leave the driver default in place.
type DriverOptions struct {
	AppName                  string `yaml:"appName,omitempty" json:"appName,omitempty"`
	MaxPoolSize              uint64 `yaml:"maxPoolSize,omitempty" json:"maxPoolSize,omitempty"`
	MinPoolSize              uint64 `yaml:"minPoolSize,omitempty" json:"minPoolSize,omitempty"`
	ConnectTimeoutMS         int64  `yaml:"connectTimeoutMS,omitempty" json:"connectTimeoutMS,omitempty"`
	ServerSelectionTimeoutMS int64  `yaml:"serverSelectionTimeoutMS,omitempty" json:"serverSelectionTimeoutMS,omitempty"`
	ReplicaSet               string `yaml:"replicaSet,omitempty" json:"replicaSet,omitempty"`
	ReadPreference           string `yaml:"readPreference,omitempty" json:"readPreference,omitempty"`
	RetryWrites              *bool  `yaml:"retryWrites,omitempty" json:"retryWrites,omitempty"`
	DirectConnection         *bool  `yaml:"directConnection,omitempty" json:"directConnection,omitempty"`
	Username                 string `yaml:"username,omitempty" json:"username,omitempty"`
	Password                 string `yaml:"password,omitempty" json:"password,omitempty"`
	AuthSource               string `yaml:"authSource,omitempty" json:"authSource,omitempty"`
}

// FallbackConfig describes the ephemeral instance.
type FallbackConfig struct {
	BinaryVersion string `yaml:"binaryVersion" json:"binaryVersion"`
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	Database      string `yaml:"database" json:"database"`
}

// SeedConfig controls bootstrap records.
type SeedConfig struct {
	InitAgency InitAgency `yaml:"initAgency" json:"initAgency"`
}

// InitAgency is the production seed agency. It is only used when all three
// fields are present.
type InitAgency struct {
	Domain    string `yaml:"domain" json:"domain"`
	ShortName string `yaml:"shortName" json:"shortName"`
	FullName  string `yaml:"fullName" json:"fullName"`
}

// Complete reports whether every field is set. Partial values skip seeding.
func (a InitAgency) Complete() bool {
	return a.Domain != "" && a.ShortName != "" && a.FullName != ""
}

// ModelConfig registers or overrides a data model.
type ModelConfig struct {
	Name           string `yaml:"name" json:"name"`
	Collection     string `yaml:"collection" json:"collection"`
	ReadPreference string `yaml:"readPreference,omitempty" json:"readPreference,omitempty"`
}

// JournalConfig locates the SQLite run journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MetricsConfig is the listen address for the /metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns a Config with fallback defaults filled in.
func Default() *Config {
	return &Config{
		Fallback: FallbackConfig{
			Host:     DefaultFallbackHost,
			Port:     DefaultFallbackPort,
			Database: DefaultFallbackDatabase,
		},
	}
}

// Load reads a YAML configuration file over the defaults.
//
// A missing file at DefaultPath is not an error: formdb runs entirely from
// the environment in that case. Any other missing path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// ApplyEnv overlays environment values. Empty values never override.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DB.URI, EnvDBHost)
	set(&c.Fallback.BinaryVersion, EnvMongoBinaryVersion)
	set(&c.Seed.InitAgency.Domain, EnvInitAgencyDomain)
	set(&c.Seed.InitAgency.ShortName, EnvInitAgencyShort)
	set(&c.Seed.InitAgency.FullName, EnvInitAgencyFull)
	set(&c.Journal.Path, EnvJournalPath)
	set(&c.Metrics.Addr, EnvMetricsAddr)
}

// Mode reports which database path the configuration selects.
func (c *Config) Mode() Mode {
	if c.DB.URI == "" {
		return ModeEphemeral
	}
	return ModeConnected
}

// fillDefaults restores fallback defaults a YAML file blanked out.
func (c *Config) fillDefaults() {
	if c.Fallback.Host == "" {
		c.Fallback.Host = DefaultFallbackHost
	}
	if c.Fallback.Port == 0 {
		c.Fallback.Port = DefaultFallbackPort
	}
	if c.Fallback.Database == "" {
		c.Fallback.Database = DefaultFallbackDatabase
	}
}
