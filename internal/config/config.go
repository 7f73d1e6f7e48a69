// Package config loads the keygraph configuration file.
//
// The file is TOML. Every section is optional; missing values take the
// defaults returned by [Default].
//
//	[log]
//	level = "debug"
//
//	[store]
//	driver = "redis"
//
//	  [store.redis]
//	  url = "redis://localhost:6379/0"
//	  read_timeout = "2s"
//
//	[serializer]
//	filter = 'Name != "DefaultDatabase"'
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/serial"
)

// DefaultPath is read when no configuration file is named.
const DefaultPath = "keygraph.toml"

// Store drivers.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverS3     = "s3"
	DriverSQLite = "sqlite"
)

// Drivers lists the supported store drivers.
var Drivers = []string{DriverFile, DriverMemory, DriverRedis, DriverMongo, DriverS3, DriverSQLite}

// Config is the complete configuration.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Store      StoreConfig      `toml:"store"`
	Serializer SerializerConfig `toml:"serializer"`
	Server     ServerConfig     `toml:"server"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// StoreConfig selects a document store driver. Only the subtable of the
// selected driver is used.
type StoreConfig struct {
	Driver string       `toml:"driver"`
	File   FileConfig   `toml:"file"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
	S3     S3Config     `toml:"s3"`
	SQLite SQLiteConfig `toml:"sqlite"`
}

type FileConfig struct {
	Dir string `toml:"dir"`
}

type RedisConfig struct {
	URL          string        `toml:"url"`
	Prefix       string        `toml:"prefix"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type MongoConfig struct {
	URI        string        `toml:"uri"`
	Database   string        `toml:"database"`
	Collection string        `toml:"collection"`
	Timeout    time.Duration `toml:"timeout"`
}

type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Prefix          string `toml:"prefix"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	SessionToken    string `toml:"session_token"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SerializerConfig controls document writing.
type SerializerConfig struct {
	// Filter is an expression evaluated per property; properties for
	// which it is false are not written. See [serial.ExprFilter].
	Filter string `toml:"filter"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	// MaxDocumentBytes limits uploaded documents.
	MaxDocumentBytes int64 `toml:"max_document_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Driver: DriverFile},
		Server: ServerConfig{
			Addr:             ":8080",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			ShutdownTimeout:  10 * time.Second,
			MaxDocumentBytes: 32 << 20,
		},
	}
}

// Load reads the configuration at path over the defaults. An empty path
// reads [DefaultPath] and tolerates its absence; a named file must exist.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver names, the log level and the filter expression.
func (c *Config) Validate() error {
	if !slices.Contains(Drivers, c.Store.Driver) {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "unknown store driver %q (want one of %s)",
			c.Store.Driver, strings.Join(Drivers, ", "))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "log level")
	}
	if c.Serializer.Filter != "" {
		if _, err := serial.ExprFilter(c.Serializer.Filter); err != nil {
			return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "serializer filter")
		}
	}
	if c.Server.Addr == "" {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "server addr is empty")
	}
	return nil
}

// LogLevel returns the configured level. Validate has checked it.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// SerializerOptions returns the serializer options for c.
func (c *Config) SerializerOptions(logger *log.Logger) ([]serial.Option, error) {
	opts := []serial.Option{serial.WithLogger(logger)}
	if c.Serializer.Filter != "" {
		f, err := serial.ExprFilter(c.Serializer.Filter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, serial.WithFilter(f))
	}
	return opts, nil
}
