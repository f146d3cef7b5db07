package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelhub/internal/registry"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr            string   `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir       string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DataDir         string   `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	RegistryBackend string   `json:"registry_backend" yaml:"registry_backend" toml:"registry_backend"`
	HFEndpoint      string   `json:"hf_endpoint" yaml:"hf_endpoint" toml:"hf_endpoint"`
	HFToken         string   `json:"hf_token" yaml:"hf_token" toml:"hf_token"`
	Workers         int      `json:"workers" yaml:"workers" toml:"workers"`
	MaxDownloads    int      `json:"max_downloads" yaml:"max_downloads" toml:"max_downloads"`
	LlamaCtx        int      `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads    int      `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	LogLevel        string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyBytes    int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled     bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	// Seconds a generation request waits for its result; 0 waits indefinitely.
	GenerateTimeoutSeconds int64 `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
}

// Defaults used by WithDefaults.
const (
	DefaultAddr         = ":8000"
	DefaultModelsDir    = "models"
	DefaultDataDir      = "data"
	DefaultMaxDownloads = 2
	DefaultLlamaCtx     = 2048
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 1 << 20
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults fills unspecified fields. Environment variables MODELHUB_ADDR
// and HF_TOKEN take precedence over built-in defaults but not over values
// already set.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = envOr("MODELHUB_ADDR", DefaultAddr)
	}
	if c.HFToken == "" {
		c.HFToken = os.Getenv("HF_TOKEN")
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.RegistryBackend == "" {
		c.RegistryBackend = "json"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MaxDownloads <= 0 {
		c.MaxDownloads = DefaultMaxDownloads
	}
	if c.LlamaCtx <= 0 {
		c.LlamaCtx = DefaultLlamaCtx
	}
	if c.LlamaThreads <= 0 {
		c.LlamaThreads = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// Validate rejects values WithDefaults cannot repair.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.RegistryBackend)) {
	case "", registry.BackendJSON, registry.BackendSQLite:
	default:
		return fmt.Errorf("registry_backend must be %q or %q, got %q", registry.BackendJSON, registry.BackendSQLite, c.RegistryBackend)
	}
	if c.GenerateTimeoutSeconds < 0 {
		return fmt.Errorf("generate_timeout_seconds must not be negative, got %d", c.GenerateTimeoutSeconds)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
