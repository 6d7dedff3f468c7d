// Package config loads engine configuration from defaults, an optional YAML
// overlay file and environment variables, in that priority order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the full engine configuration
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development production test"`
	Server      Server      `yaml:"server"`
	Graph       Graph       `yaml:"graph"`
	Agents      Agents      `yaml:"agents"`
	Feed        Feed        `yaml:"feed"`
	Scoring     Scoring     `yaml:"scoring"`
	Metrics     Metrics     `yaml:"metrics"`
	CORS        CORS        `yaml:"cors"`
}

// Server holds HTTP server settings
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// Graph holds snapshot persistence settings
type Graph struct {
	SnapshotPath string        `yaml:"snapshot_path"`
	SaveInterval time.Duration `yaml:"save_interval" validate:"gte=0"`
}

// Agents holds the background loop cadence and the rng seed. A zero seed
// means seed from the clock.
type Agents struct {
	AdaptInterval    time.Duration `yaml:"adapt_interval" validate:"gt=0"`
	InteractInterval time.Duration `yaml:"interact_interval" validate:"gt=0"`
	Seed             int64         `yaml:"seed"`
}

// Feed holds feed cursor settings
type Feed struct {
	WindowSize int `yaml:"window_size" validate:"gt=0"`
}

// Scoring holds scoring engine settings
type Scoring struct {
	TrendingWindow time.Duration `yaml:"trending_window" validate:"gt=0"`
}

// Metrics holds Prometheus settings
type Metrics struct {
	Namespace string `yaml:"namespace" validate:"required"`
}

// CORS holds the allowed cross-origin settings for the REST surface
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	MaxAge         int      `yaml:"max_age"`
}

// Load builds the configuration: defaults, then the YAML overlay named by
// WEAVE_CONFIG (if the file exists), then environment variables, then
// validation.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := configFilePath(); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	loadEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error. Use only in main().
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func defaultConfig() *Config {
	return &Config{
		Environment: getEnvironment(),
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Graph: Graph{
			SnapshotPath: "data/graph.json",
			SaveInterval: 5 * time.Minute,
		},
		Agents: Agents{
			AdaptInterval:    time.Hour,
			InteractInterval: 120 * time.Second,
		},
		Feed: Feed{
			WindowSize: 10,
		},
		Scoring: Scoring{
			TrendingWindow: 24 * time.Hour,
		},
		Metrics: Metrics{
			Namespace: "weave",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			MaxAge:         300,
		},
	}
}

func configFilePath() string {
	if path := os.Getenv("WEAVE_CONFIG"); path != "" {
		return path
	}
	// Default overlay location; absence is not an error.
	if _, err := os.Stat("config/weave.yaml"); err == nil {
		return "config/weave.yaml"
	}
	return ""
}

func loadYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadEnvironment overlays environment variables, the highest priority source
func loadEnvironment(cfg *Config) {
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SNAPSHOT_PATH"); val != "" {
		cfg.Graph.SnapshotPath = val
	}
	if val := os.Getenv("SNAPSHOT_SAVE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Graph.SaveInterval = d
		}
	}
	if val := os.Getenv("AGENT_ADAPT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agents.AdaptInterval = d
		}
	}
	if val := os.Getenv("AGENT_INTERACT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Agents.InteractInterval = d
		}
	}
	if val := os.Getenv("AGENT_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Agents.Seed = seed
		}
	}
	if val := os.Getenv("FEED_WINDOW_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.Feed.WindowSize = size
		}
	}
	if val := os.Getenv("TRENDING_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scoring.TrendingWindow = d
		}
	}
	if val := os.Getenv("METRICS_NAMESPACE"); val != "" {
		cfg.Metrics.Namespace = val
	}
}

func getEnvironment() Environment {
	switch os.Getenv("WEAVE_ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}
