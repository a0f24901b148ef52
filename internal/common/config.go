package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Extract  ExtractConfig  `yaml:"extract"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration. An empty DSN disables
// run history.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr  string `yaml:"grpc_addr"`
	HTTPAddr  string `yaml:"http_addr"`
	MaxUpload int64  `yaml:"max_upload"`
}

// ExtractConfig configures the document text extraction collaborator.
type ExtractConfig struct {
	Backend     string        `yaml:"backend"` // auto | pdftotext | pdfcpu
	Pdftotext   string        `yaml:"pdftotext"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxFileSize int64         `yaml:"max_file_size"`
}

// PipelineConfig configures document fan-out.
type PipelineConfig struct {
	Workers         int           `yaml:"workers"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
}

// ExportConfig configures spreadsheet output.
type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ConfigFileEnv names the optional YAML file read before the environment.
const ConfigFileEnv = "ROMANEIO_CONFIG"

// Backends accepted by ExtractConfig.Backend.
var ExtractBackends = []string{"auto", "pdftotext", "pdfcpu"}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr:  ":8080",
			HTTPAddr:  ":8081",
			MaxUpload: 32 << 20,
		},
		Extract: ExtractConfig{
			Backend:     "auto",
			Pdftotext:   "pdftotext",
			Timeout:     2 * time.Minute,
			MaxFileSize: 100 << 20,
		},
		Pipeline: PipelineConfig{
			Workers:         4,
			DocumentTimeout: 3 * time.Minute,
		},
		Export: ExportConfig{SheetName: "Romaneio"},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig loads defaults, then the YAML file named by ROMANEIO_CONFIG (if
// any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config file %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	db := &c.Database
	db.DSN = getEnv("DB_URL", db.DSN)
	db.MaxConns = getEnvAsInt32("DB_MAX_CONNS", db.MaxConns)
	db.MinConns = getEnvAsInt32("DB_MIN_CONNS", db.MinConns)
	db.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", db.MaxConnLifetime)
	db.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", db.MaxConnIdleTime)
	db.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", db.DialTimeout)
	db.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", db.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.MaxUpload = getEnvAsInt64("HTTP_MAX_UPLOAD", c.Server.MaxUpload)

	c.Extract.Backend = strings.ToLower(getEnv("EXTRACT_BACKEND", c.Extract.Backend))
	c.Extract.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Extract.Pdftotext)
	c.Extract.Timeout = getEnvAsDuration("EXTRACT_TIMEOUT", c.Extract.Timeout)
	c.Extract.MaxFileSize = getEnvAsInt64("EXTRACT_MAX_FILE_SIZE", c.Extract.MaxFileSize)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.DocumentTimeout = getEnvAsDuration("DOCUMENT_TIMEOUT", c.Pipeline.DocumentTimeout)

	c.Export.SheetName = getEnv("EXPORT_SHEET", c.Export.SheetName)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("extract.backend", c.Extract.Backend, OneOf(ExtractBackends...)).
		Field("server.grpc_addr", c.Server.GRPCAddr, Required).
		Field("server.http_addr", c.Server.HTTPAddr, Required).
		Field("export.sheet_name", c.Export.SheetName, Required, MaxLength(31))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Extract.MaxFileSize <= 0 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_MAX_FILE_SIZE must be positive", ErrInvalidInput)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return NewAppError("CONFIG_ERROR", err.Error(), ErrInvalidInput)
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// NewLogger builds the JSON process logger used by every binary.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
