package gguf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeHeader writes a GGUF v3 file with string metadata and no tensors.
func writeHeader(t *testing.T, path string, kv [][2]string) {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	putStr := func(s string) {
		_ = binary.Write(&buf, le, uint64(len(s)))
		buf.WriteString(s)
	}
	buf.WriteString("GGUF")
	_ = binary.Write(&buf, le, uint32(3))
	_ = binary.Write(&buf, le, uint64(0))
	_ = binary.Write(&buf, le, uint64(len(kv)))
	for _, e := range kv {
		putStr(e[0])
		_ = binary.Write(&buf, le, uint32(8)) // string
		putStr(e[1])
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProbe_Header(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tiny.gguf")
	writeHeader(t, p, [][2]string{
		{"general.architecture", "llama"},
		{"general.name", "tiny"},
	})
	info, err := Probe(p)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Architecture != "llama" || info.Name != "tiny" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestProbe_NotGGUF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.gguf")
	if err := os.WriteFile(p, []byte("definitely not gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Probe(p); err == nil {
		t.Fatalf("expected error for non-gguf file")
	}
}

func TestSelectFile(t *testing.T) {
	got, ok := SelectFile([]string{"README.md", "b.Q8_0.GGUF", "a.Q4_K_M.gguf"})
	if !ok || got != "b.Q8_0.GGUF" {
		t.Fatalf("expected first gguf in order, got %q %v", got, ok)
	}
	if _, ok := SelectFile([]string{"config.json", "model.safetensors"}); ok {
		t.Fatalf("expected no selection")
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindFile(dir); err == nil {
		t.Fatalf("expected error for dir without gguf")
	}
	for _, n := range []string{"z.gguf", "a.gguf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := FindFile(dir)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != filepath.Join(dir, "a.gguf") {
		t.Fatalf("got %q", got)
	}
	f := filepath.Join(dir, "notes.txt")
	if got, _ := FindFile(f); got != f {
		t.Fatalf("file path should be returned unchanged, got %q", got)
	}
	if _, err := FindFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
