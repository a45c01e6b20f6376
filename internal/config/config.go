package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/storageprobe/storageprobe/pkg/errors"
)

// ProviderType identifies a backend implementation.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeMinio = "minio"
	TypeOCI   = "oci"
)

// Configuration represents the complete application configuration.
type Configuration struct {
	Global    GlobalConfig              `yaml:"global"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Benchmark BenchmarkConfig           `yaml:"benchmark"`
}

// GlobalConfig represents global application settings.
type GlobalConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPort    int    `yaml:"metrics_port"`
}

// ProviderConfig holds backend-specific connection parameters. Which
// fields are required depends on Type; see ValidateProvider.
type ProviderConfig struct {
	Type string `yaml:"type"`

	// Shared cloud settings
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`

	// S3 settings
	ForcePathStyle bool `yaml:"force_path_style"`

	// MinIO settings
	UseSSL bool `yaml:"use_ssl"`

	// Local reference provider settings
	BaseDir string `yaml:"base_dir"`

	// OCI settings
	Namespace  string `yaml:"namespace"`
	ConfigFile string `yaml:"config_file"`
	Profile    string `yaml:"profile"`
}

// BenchmarkConfig controls the benchmark runner.
type BenchmarkConfig struct {
	ObjectSize      int64  `yaml:"object_size"`
	LargeObjectSize int64  `yaml:"large_object_size"`
	Concurrency     int    `yaml:"concurrency"`
	RateLimit       int    `yaml:"rate_limit"`
	KeyPrefix       string `yaml:"key_prefix"`
}

// NewDefault returns a configuration with sensible defaults: a single
// local provider rooted in the user cache directory and 1 MiB / 32 MiB
// benchmark payloads.
func NewDefault() *Configuration {
	baseDir := "/var/lib/storageprobe"
	if cache, err := os.UserCacheDir(); err == nil {
		baseDir = filepath.Join(cache, "storageprobe")
	}

	return &Configuration{
		Global: GlobalConfig{
			LogLevel:       "INFO",
			MetricsEnabled: false,
			MetricsPort:    8080,
		},
		Providers: map[string]ProviderConfig{
			"local": {
				Type:    TypeLocal,
				BaseDir: baseDir,
			},
		},
		Benchmark: BenchmarkConfig{
			ObjectSize:      1024 * 1024,
			LargeObjectSize: 32 * 1024 * 1024,
			Concurrency:     10,
			RateLimit:       0,
			KeyPrefix:       "benchmark-",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv applies STORAGEPROBE_* environment variable overrides.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("STORAGEPROBE_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("STORAGEPROBE_LOG_FILE"); val != "" {
		c.Global.LogFile = val
	}
	if val := os.Getenv("STORAGEPROBE_METRICS_ENABLED"); val != "" {
		c.Global.MetricsEnabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("STORAGEPROBE_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Global.MetricsPort = port
		}
	}

	if val := os.Getenv("STORAGEPROBE_BENCH_OBJECT_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Benchmark.ObjectSize = size
		}
	}
	if val := os.Getenv("STORAGEPROBE_BENCH_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Benchmark.Concurrency = n
		}
	}

	return nil
}

// Validate validates the global and benchmark sections plus every
// configured provider.
func (c *Configuration) Validate() error {
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if strings.ToUpper(c.Global.LogLevel) == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return errors.Newf(errors.ErrCodeInvalidConfig,
			"invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Benchmark.ObjectSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "benchmark object_size must be greater than 0")
	}
	if c.Benchmark.LargeObjectSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "benchmark large_object_size must be greater than 0")
	}
	if c.Benchmark.Concurrency <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "benchmark concurrency must be greater than 0")
	}

	for name := range c.Providers {
		if err := c.ValidateProvider(name); err != nil {
			return err
		}
	}

	return nil
}

// ProviderNames returns the configured provider names, sorted.
func (c *Configuration) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider returns the configuration for name, or a MISSING_CONFIG error
// naming the known providers.
func (c *Configuration) Provider(name string) (ProviderConfig, error) {
	pc, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, errors.Newf(errors.ErrCodeMissingConfig,
			"no configuration for provider %q (known providers: %s)",
			name, strings.Join(c.ProviderNames(), ", "))
	}
	return pc, nil
}

// ValidateProvider checks that the named provider's configuration is
// complete for its type.
func (c *Configuration) ValidateProvider(name string) error {
	pc, err := c.Provider(name)
	if err != nil {
		return err
	}

	switch pc.Type {
	case TypeLocal:
		if pc.BaseDir == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: local provider requires base_dir", name)
		}
	case TypeS3:
		if pc.Bucket == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: s3 provider requires bucket", name)
		}
		if pc.Region == "" && pc.Endpoint == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: s3 provider requires region or endpoint", name)
		}
	case TypeMinio:
		if pc.Endpoint == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: minio provider requires endpoint", name)
		}
		if pc.Bucket == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: minio provider requires bucket", name)
		}
		if pc.AccessKeyID == "" || pc.SecretAccessKey == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: minio provider requires access_key_id and secret_access_key", name)
		}
	case TypeOCI:
		if pc.Bucket == "" {
			return errors.Newf(errors.ErrCodeInvalidConfig,
				"provider %q: oci provider requires bucket", name)
		}
	case "":
		return errors.Newf(errors.ErrCodeInvalidConfig,
			"provider %q: missing type", name)
	default:
		return errors.Newf(errors.ErrCodeInvalidConfig,
			"provider %q: unknown type %q (known types: %s, %s, %s, %s)",
			name, pc.Type, TypeLocal, TypeS3, TypeMinio, TypeOCI)
	}

	return nil
}
