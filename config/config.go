package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Equityflow EquityflowConfig `yaml:"equityflow"`
	Universe   UniverseConfig   `yaml:"universe"`
	Source     SourceConfig     `yaml:"source"`
	Reader     ReaderConfig     `yaml:"reader"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Writer     WriterConfig     `yaml:"writer"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type EquityflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type UniverseConfig struct {
	File string `yaml:"file"`
}

type SourceConfig struct {
	IEX IEXSourceConfig `yaml:"iex"`
}

type IEXSourceConfig struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	BatchSize int    `yaml:"batch_size"`
}

type ReaderConfig struct {
	MaxWorkers int             `yaml:"max_workers"`
	Timeout    time.Duration   `yaml:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Retry      RetryConfig     `yaml:"retry"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type StrategyConfig struct {
	EqualWeight EqualWeightConfig `yaml:"equal_weight"`
	Momentum    ScreenConfig      `yaml:"momentum"`
	Value       ScreenConfig      `yaml:"value"`
}

type EqualWeightConfig struct {
	TopN int `yaml:"top_n"`
}

type ScreenConfig struct {
	TopN      int      `yaml:"top_n"`
	Composite bool     `yaml:"composite"`
	Threshold *float64 `yaml:"threshold"`
}

type PortfolioConfig struct {
	Size float64 `yaml:"size"`
}

type WriterConfig struct {
	OutputDir string        `yaml:"output_dir"`
	Formats   FormatsConfig `yaml:"formats"`
	Archive   ArchiveConfig `yaml:"archive"`
}

type FormatsConfig struct {
	Xlsx XlsxConfig `yaml:"xlsx"`
	Csv  CsvConfig  `yaml:"csv"`
}

type XlsxConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CsvConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ArchiveConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Source: SourceConfig{
			IEX: IEXSourceConfig{
				BaseURL:   "https://api.iex.cloud/v1/data/core",
				BatchSize: 100,
			},
		},
		Reader: ReaderConfig{
			MaxWorkers: 1,
			Timeout:    30 * time.Second,
			RateLimit:  RateLimitConfig{RequestsPerSecond: 5, BurstSize: 1},
			Retry:      RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second},
		},
		Writer: WriterConfig{
			OutputDir: "out",
			Formats:   FormatsConfig{Xlsx: XlsxConfig{Enabled: true}},
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override the API token from the environment if available
	if v := os.Getenv("IEX_CLOUD_API_TOKEN"); v != "" {
		config.Source.IEX.Token = strings.TrimSpace(v)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Equityflow.Name == "" {
		return fmt.Errorf("equityflow.name is required")
	}

	if cfg.Equityflow.Version == "" {
		return fmt.Errorf("equityflow.version is required")
	}

	if cfg.Universe.File == "" {
		return fmt.Errorf("universe.file is required")
	}

	if cfg.Source.IEX.BaseURL == "" {
		return fmt.Errorf("source.iex.base_url is required")
	}

	if cfg.Source.IEX.BatchSize <= 0 {
		return fmt.Errorf("source.iex.batch_size must be greater than 0")
	}

	if cfg.Source.IEX.Token == "" && IsProductionLike(AppEnvironment()) {
		return fmt.Errorf("source.iex.token is required (set IEX_CLOUD_API_TOKEN)")
	}

	if cfg.Reader.MaxWorkers <= 0 {
		return fmt.Errorf("reader.max_workers must be greater than 0")
	}
	if cfg.Reader.Timeout <= 0 {
		return fmt.Errorf("reader.timeout must be greater than 0")
	}
	if cfg.Reader.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("reader.retry.max_attempts must be greater than 0")
	}

	if cfg.Strategy.Momentum.TopN < 0 || cfg.Strategy.Value.TopN < 0 || cfg.Strategy.EqualWeight.TopN < 0 {
		return fmt.Errorf("strategy top_n values must not be negative")
	}

	if !cfg.Writer.Formats.Xlsx.Enabled && !cfg.Writer.Formats.Csv.Enabled {
		return fmt.Errorf("at least one writer format must be enabled")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
