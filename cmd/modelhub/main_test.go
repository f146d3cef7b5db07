package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("MODELHUB_ADDR", "")
	t.Setenv("HF_TOKEN", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "modelhub.yaml")
	yaml := "addr: \":9000\"\nmodels_dir: /srv/models\nregistry_backend: sqlite\nworkers: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cmd, f := newServeCmdWithFlags()
	if err := cmd.ParseFlags([]string{"--config", path, "--workers", "7", "--cors-origins", "http://a, http://b"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.ModelsDir != "/srv/models" || cfg.RegistryBackend != "sqlite" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Workers != 7 {
		t.Fatalf("flag should override file: workers=%d", cfg.Workers)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
	if cfg.MaxDownloads != 2 || cfg.LlamaCtx != 2048 || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger("warn", "json", &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level not applied: %q", buf.String())
	}
	if _, err := newLogger("loud", "json", &buf); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if _, err := newLogger("info", "xml", &buf); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "modelhub dev") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
