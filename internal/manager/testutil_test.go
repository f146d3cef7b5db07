package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"modelhub/internal/llm/llmtest"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

type fakeFile struct {
	name string
	data string
}

// fakeHub serves repositories from memory.
type fakeHub struct {
	mu    sync.Mutex
	repos map[string][]fakeFile
	// failFile makes DownloadFile fail for that file after writing part of it.
	failFile string
	// gate, when non-nil, blocks every DownloadFile until closed.
	gate   chan struct{}
	tokens []string
}

func newFakeHub() *fakeHub {
	return &fakeHub{repos: map[string][]fakeFile{
		"org/gpt-mini": {
			{"config.json", `{"model_type":"gpt2"}`},
			{"tokenizer.json", `{"version":"1.0"}`},
			{"model.safetensors", "0123456789"},
		},
		"org/gpt-mini-gguf": {
			{"README.md", "readme"},
			{"gpt-mini.Q4_K_M.gguf", "q4-weights"},
			{"gpt-mini.Q8_0.gguf", "q8-weights"},
		},
		"org/no-gguf": {
			{"config.json", "{}"},
		},
		"org/sharded": shardedRepo(12),
	}}
}

// shardedRepo returns a repository of n weight shards.
func shardedRepo(n int) []fakeFile {
	files := make([]fakeFile, n)
	for i := range files {
		files[i] = fakeFile{fmt.Sprintf("model-%05d-of-%05d.safetensors", i+1, n), "shard"}
	}
	return files
}

func (h *fakeHub) ListFiles(ctx context.Context, repo, token string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = append(h.tokens, token)
	files, ok := h.repos[repo]
	if !ok {
		return nil, errors.New("not found: " + repo)
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.name
	}
	return out, nil
}

func (h *fakeHub) DownloadFile(ctx context.Context, repo, file, destDir, token string) (string, error) {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	var data string
	for _, f := range h.repos[repo] {
		if f.name == file {
			data = f.data
		}
	}
	fail := h.failFile == file
	h.mu.Unlock()
	p := filepath.Join(destDir, filepath.FromSlash(file))
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		return "", err
	}
	if fail {
		return "", errors.New("connection reset while fetching " + file)
	}
	return p, nil
}

type testEnv struct {
	m         *Manager
	rt        *llmtest.Runtime
	hub       *fakeHub
	store     registry.Store
	pub       *MemoryPublisher
	modelsDir string
}

var testClock = time.Unix(1700000000, 500_000_000)

func newTestEnvWithStore(t *testing.T, store registry.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		rt:        &llmtest.Runtime{},
		hub:       newFakeHub(),
		store:     store,
		pub:       NewMemoryPublisher(),
		modelsDir: filepath.Join(t.TempDir(), "models"),
	}
	env.m = NewWithConfig(ManagerConfig{
		ModelsDir: env.modelsDir,
		Store:     store,
		Runtime:   env.rt,
		Hub:       env.hub,
		Workers:   4,
		Publisher: env.pub,
		Now:       func() time.Time { return testClock },
	})
	if err := env.m.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		env.m.Wait()
		_ = env.m.Close()
	})
	return env
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, registry.NewJSONStore(filepath.Join(t.TempDir(), "data", "models.json")))
}

// collect drains ch until it closes.
func collect(t *testing.T, ch <-chan types.DownloadProgress) []types.DownloadProgress {
	t.Helper()
	var out []types.DownloadProgress
	timeout := time.After(5 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		case <-timeout:
			t.Fatalf("download did not finish; got %d events", len(out))
		}
	}
}

// download runs a download to completion and returns its events.
func (e *testEnv) download(t *testing.T, name, source string, isGGUF bool) []types.DownloadProgress {
	t.Helper()
	ch, err := e.m.Download(context.Background(), types.DownloadRequest{ModelName: name, SourceID: source, IsGGUF: isGGUF})
	if err != nil {
		t.Fatalf("download %s: %v", name, err)
	}
	return collect(t, ch)
}

func terminalCount(events []types.DownloadProgress) (completed, failed int) {
	for _, e := range events {
		switch e.Status {
		case types.DownloadCompleted:
			completed++
		case types.DownloadError:
			failed++
		}
	}
	return
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
