package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Provider ProviderConfig `yaml:"provider"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// PipelineConfig holds slide-extraction pipeline settings
type PipelineConfig struct {
	SampleInterval    time.Duration `yaml:"sample_interval"`
	SlideThreshold    float64       `yaml:"slide_threshold"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"`
	JobTimeout        time.Duration `yaml:"job_timeout"`
	Retention         time.Duration `yaml:"retention"`
	ExpireInterval    time.Duration `yaml:"expire_interval"`
	TempDir           string        `yaml:"temp_dir"`
	OutputDir         string        `yaml:"output_dir"`
}

// ProviderConfig holds video source provider settings
type ProviderConfig struct {
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	MaxVideoBytes int64         `yaml:"max_video_bytes"`
}

// DatabaseConfig holds the optional PostgreSQL job archive configuration
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RabbitMQConfig holds the optional status event publisher configuration
type RabbitMQConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Pipeline.SampleInterval <= 0 {
		return fmt.Errorf("pipeline sample_interval must be greater than 0")
	}

	if c.Pipeline.SlideThreshold < 0 || c.Pipeline.SlideThreshold > 1 {
		return fmt.Errorf("pipeline slide_threshold must be between 0 and 1, got %g", c.Pipeline.SlideThreshold)
	}

	if c.Pipeline.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("pipeline max_concurrent_jobs must be greater than 0")
	}

	if c.Pipeline.Retention <= 0 {
		return fmt.Errorf("pipeline retention must be greater than 0")
	}

	if c.Pipeline.ExpireInterval <= 0 {
		return fmt.Errorf("pipeline expire_interval must be greater than 0")
	}

	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("pipeline output_dir is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required when the archive is enabled")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required when the archive is enabled")
		}
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq url is required when events are enabled")
		}
		if c.RabbitMQ.Exchange == "" {
			return fmt.Errorf("rabbitmq exchange is required when events are enabled")
		}
	}

	return nil
}
