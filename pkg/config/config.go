package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Reranker model configuration
	Reranker RerankerConfig `mapstructure:"reranker"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// RerankerConfig holds the model, device, and batching configuration shared
// by the service and the enrichment job.
type RerankerConfig struct {
	// Model is a Hugging Face model name or a local model directory.
	Model string `mapstructure:"model"`

	// Device preference: auto, cpu, cuda, or mps.
	Device string `mapstructure:"device"`

	// MaxLength is the token cap per encoded pair.
	MaxLength int `mapstructure:"max_length"`

	// BatchSize bounds how many rows the enrichment job buffers.
	BatchSize int `mapstructure:"batch_size"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Reranker defaults
	viper.SetDefault("reranker.model", "BAAI/bge-reranker-base")
	viper.SetDefault("reranker.device", "auto")
	viper.SetDefault("reranker.max_length", 256)
	viper.SetDefault("reranker.batch_size", 64)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.rerankd/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if model := os.Getenv("RERANKER_MODEL"); model != "" {
		config.Reranker.Model = model
	}
	if dev := os.Getenv("RERANKER_DEVICE"); dev != "" {
		config.Reranker.Device = dev
	}
	if maxLength := os.Getenv("RERANKER_MAX_LENGTH"); maxLength != "" {
		if n, err := strconv.Atoi(maxLength); err == nil && n > 0 {
			config.Reranker.MaxLength = n
		}
	}
	if batchSize := os.Getenv("RERANKER_BATCH_SIZE"); batchSize != "" {
		if n, err := strconv.Atoi(batchSize); err == nil && n > 0 {
			config.Reranker.BatchSize = n
		}
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			config.Server.Port = n
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
