// Package config loads pigeonhole configuration from an optional YAML file,
// a local .env file, and PIGEONHOLE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all pigeonhole configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Registry RegistryConfig `yaml:"registry"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// ModelConfig identifies the registered model and the vectorizer artifact.
type ModelConfig struct {
	Name      string `yaml:"name"`
	VocabPath string `yaml:"vocab_path"`
}

// RegistryConfig selects and configures the model registry backend.
type RegistryConfig struct {
	Kind   string       `yaml:"kind"` // "mlflow" or "sqlite"
	MLflow MLflowConfig `yaml:"mlflow"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// MLflowConfig holds settings for the MLflow-compatible REST backend. Token
// is the Bearer token for hosted registries; leave empty for a local server.
type MLflowConfig struct {
	BaseURL string   `yaml:"base_url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

// SQLiteConfig holds settings for the local SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// Duration decodes YAML strings like "30s" or "1m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a configuration suitable for a local single-box setup.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Model: ModelConfig{
			Name:      "my_model",
			VocabPath: "models/vocabulary.json",
		},
		Registry: RegistryConfig{
			Kind:   "sqlite",
			SQLite: SQLiteConfig{Path: "models/registry.db"},
			MLflow: MLflowConfig{Timeout: Duration(30 * time.Second)},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// read first (best effort), then the YAML file at path (or $PIGEONHOLE_CONFIG
// when path is empty), then environment variable overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("PIGEONHOLE_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getenv("PIGEONHOLE_ADDR", c.Server.Addr)
	c.Server.ShutdownTimeout = getenvDuration("PIGEONHOLE_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Model.Name = getenv("PIGEONHOLE_MODEL_NAME", c.Model.Name)
	c.Model.VocabPath = getenv("PIGEONHOLE_VOCAB_PATH", c.Model.VocabPath)
	c.Registry.Kind = getenv("PIGEONHOLE_REGISTRY", c.Registry.Kind)
	c.Registry.MLflow.BaseURL = getenv("PIGEONHOLE_MLFLOW_URL", c.Registry.MLflow.BaseURL)
	c.Registry.MLflow.Token = getenv("PIGEONHOLE_MLFLOW_TOKEN", c.Registry.MLflow.Token)
	c.Registry.MLflow.Timeout = getenvDuration("PIGEONHOLE_MLFLOW_TIMEOUT", c.Registry.MLflow.Timeout)
	c.Registry.SQLite.Path = getenv("PIGEONHOLE_SQLITE_PATH", c.Registry.SQLite.Path)
	c.Logging.Level = getenv("PIGEONHOLE_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenv("PIGEONHOLE_LOG_FORMAT", c.Logging.Format)
}

// Validate checks the configuration for values that would only fail later,
// at startup wiring time, with a worse diagnostic.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("config: model.name must not be empty")
	}
	if c.Model.VocabPath == "" {
		return fmt.Errorf("config: model.vocab_path must not be empty")
	}
	switch c.Registry.Kind {
	case "mlflow":
		if c.Registry.MLflow.BaseURL == "" {
			return fmt.Errorf("config: registry.mlflow.base_url required for kind mlflow")
		}
	case "sqlite":
		if c.Registry.SQLite.Path == "" {
			return fmt.Errorf("config: registry.sqlite.path required for kind sqlite")
		}
	default:
		return fmt.Errorf("config: unknown registry.kind %q (want mlflow or sqlite)", c.Registry.Kind)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback Duration) Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return Duration(d)
}
