package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmodels_dir: /tmp\nregistry_backend: sqlite\nworkers: 3\nmax_downloads: 1\ncors_enabled: true\ncors_origins:\n  - http://a\n  - http://b\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ModelsDir != "/tmp" || cfg.RegistryBackend != "sqlite" || cfg.Workers != 3 || cfg.MaxDownloads != 1 || !cfg.CORSEnabled {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://a", "http://b"}) {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","models_dir":"/m","data_dir":"/d","hf_token":"tok","llama_ctx":4096,"max_body_bytes":2048}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ModelsDir != "/m" || cfg.DataDir != "/d" || cfg.HFToken != "tok" || cfg.LlamaCtx != 4096 || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodels_dir=\"/x\"\nhf_endpoint=\"http://mirror\"\nllama_threads=6\nlog_level=\"debug\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ModelsDir != "/x" || cfg.HFEndpoint != "http://mirror" || cfg.LlamaThreads != 6 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestWithDefaults(t *testing.T) {
	t.Setenv("MODELHUB_ADDR", "")
	t.Setenv("HF_TOKEN", "")
	cfg := Config{}.WithDefaults()
	if cfg.Addr != DefaultAddr || cfg.ModelsDir != DefaultModelsDir || cfg.DataDir != DefaultDataDir {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.RegistryBackend != "json" || cfg.MaxDownloads != DefaultMaxDownloads || cfg.LlamaCtx != DefaultLlamaCtx {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Workers <= 0 || cfg.LlamaThreads <= 0 || cfg.MaxBodyBytes != DefaultMaxBodyBytes || cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestWithDefaults_EnvAndExplicit(t *testing.T) {
	t.Setenv("MODELHUB_ADDR", ":9000")
	t.Setenv("HF_TOKEN", "env-token")
	cfg := Config{}.WithDefaults()
	if cfg.Addr != ":9000" || cfg.HFToken != "env-token" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	cfg = Config{Addr: ":1", HFToken: "file-token", Workers: 2}.WithDefaults()
	if cfg.Addr != ":1" || cfg.HFToken != "file-token" || cfg.Workers != 2 {
		t.Fatalf("explicit values overridden: %+v", cfg)
	}
}
