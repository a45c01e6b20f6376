package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storageprobe/storageprobe/pkg/errors"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg.Global.LogLevel != "INFO" {
		t.Errorf("default log level = %q, want INFO", cfg.Global.LogLevel)
	}
	if cfg.Benchmark.ObjectSize != 1024*1024 {
		t.Errorf("default object size = %d, want 1MiB", cfg.Benchmark.ObjectSize)
	}
	if cfg.Benchmark.LargeObjectSize != 32*1024*1024 {
		t.Errorf("default large object size = %d, want 32MiB", cfg.Benchmark.LargeObjectSize)
	}

	pc, ok := cfg.Providers["local"]
	if !ok {
		t.Fatal("default configuration should include a local provider")
	}
	if pc.Type != TypeLocal {
		t.Errorf("default local provider type = %q", pc.Type)
	}
	if pc.BaseDir == "" {
		t.Error("default local provider has no base_dir")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
global:
  log_level: DEBUG
  metrics_port: 9090

providers:
  stage:
    type: s3
    bucket: probe-stage
    region: eu-central-1
  onprem:
    type: minio
    endpoint: minio.internal:9000
    bucket: probe
    access_key_id: probe
    secret_access_key: probe-secret
    use_ssl: true

benchmark:
  object_size: 2097152
  concurrency: 4
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefault()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Global.LogLevel != "DEBUG" {
		t.Errorf("log level = %q, want DEBUG", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9090 {
		t.Errorf("metrics port = %d, want 9090", cfg.Global.MetricsPort)
	}
	if cfg.Benchmark.ObjectSize != 2097152 {
		t.Errorf("object size = %d, want 2097152", cfg.Benchmark.ObjectSize)
	}

	stage, err := cfg.Provider("stage")
	if err != nil {
		t.Fatalf("Provider(stage) error = %v", err)
	}
	if stage.Type != TypeS3 || stage.Bucket != "probe-stage" || stage.Region != "eu-central-1" {
		t.Errorf("unexpected stage config: %+v", stage)
	}

	onprem, err := cfg.Provider("onprem")
	if err != nil {
		t.Fatalf("Provider(onprem) error = %v", err)
	}
	if !onprem.UseSSL {
		t.Error("onprem use_ssl should be true")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg := NewDefault()
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGEPROBE_LOG_LEVEL", "ERROR")
	t.Setenv("STORAGEPROBE_BENCH_OBJECT_SIZE", "4096")
	t.Setenv("STORAGEPROBE_BENCH_CONCURRENCY", "25")

	cfg := NewDefault()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Global.LogLevel != "ERROR" {
		t.Errorf("log level = %q, want ERROR", cfg.Global.LogLevel)
	}
	if cfg.Benchmark.ObjectSize != 4096 {
		t.Errorf("object size = %d, want 4096", cfg.Benchmark.ObjectSize)
	}
	if cfg.Benchmark.Concurrency != 25 {
		t.Errorf("concurrency = %d, want 25", cfg.Benchmark.Concurrency)
	}
}

func TestProvider_Unknown(t *testing.T) {
	cfg := NewDefault()

	_, err := cfg.Provider("does-not-exist")
	if err == nil {
		t.Fatal("unknown provider should error")
	}
	if !errors.IsConfiguration(err) {
		t.Errorf("error should be a configuration error, got %v", err)
	}
	// The error must name the known providers so the caller can correct it.
	if got := err.Error(); !strings.Contains(got, "local") {
		t.Errorf("error should list known providers, got %q", got)
	}
}

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name    string
		pc      ProviderConfig
		wantErr bool
	}{
		{"valid local", ProviderConfig{Type: TypeLocal, BaseDir: "/tmp/x"}, false},
		{"local without base_dir", ProviderConfig{Type: TypeLocal}, true},
		{"valid s3", ProviderConfig{Type: TypeS3, Bucket: "b", Region: "us-east-1"}, false},
		{"s3 endpoint only", ProviderConfig{Type: TypeS3, Bucket: "b", Endpoint: "http://localhost:4566"}, false},
		{"s3 without bucket", ProviderConfig{Type: TypeS3, Region: "us-east-1"}, true},
		{"s3 without region or endpoint", ProviderConfig{Type: TypeS3, Bucket: "b"}, true},
		{"valid minio", ProviderConfig{Type: TypeMinio, Endpoint: "localhost:9000", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}, false},
		{"minio without credentials", ProviderConfig{Type: TypeMinio, Endpoint: "localhost:9000", Bucket: "b"}, true},
		{"valid oci", ProviderConfig{Type: TypeOCI, Bucket: "b"}, false},
		{"missing type", ProviderConfig{}, true},
		{"unknown type", ProviderConfig{Type: "tape-robot"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Configuration{
				Global:    GlobalConfig{LogLevel: "INFO"},
				Providers: map[string]ProviderConfig{"candidate": tt.pc},
				Benchmark: NewDefault().Benchmark,
			}

			err := cfg.ValidateProvider("candidate")
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && err != nil && !errors.IsConfiguration(err) {
				t.Errorf("validation failures should be configuration errors, got %v", err)
			}
		})
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := NewDefault()
	cfg.Global.LogLevel = "LOUD"

	if err := cfg.Validate(); err == nil {
		t.Error("invalid log level should fail validation")
	}
}
