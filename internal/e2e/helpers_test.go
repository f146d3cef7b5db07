package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"modelhub/internal/httpapi"
	"modelhub/internal/hub"
	"modelhub/internal/llm/llmtest"
	"modelhub/internal/manager"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

// repos served by the fake hub: repo id -> file name -> content
var repos = map[string]map[string]string{
	"org/tiny": {
		"config.json": `{"architectures":["LlamaForCausalLM"]}`,
		"model.bin":   strings.Repeat("w", 64),
	},
	"org/tiny-gguf": {
		"README.md":    "# tiny",
		"tiny.Q4.gguf": "GGUF-not-really",
		"tiny.Q8.gguf": "GGUF-not-really-either",
	},
}

// order fixes the listing order per repo.
var order = map[string][]string{
	"org/tiny":      {"config.json", "model.bin"},
	"org/tiny-gguf": {"README.md", "tiny.Q4.gguf", "tiny.Q8.gguf"},
}

func newFakeHub(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/models/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
		files, ok := order[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		type sibling struct {
			RFilename string `json:"rfilename"`
		}
		var body struct {
			Siblings []sibling `json:"siblings"`
		}
		for _, f := range files {
			body.Siblings = append(body.Siblings, sibling{RFilename: f})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	r.Get("/{owner}/{repo}/resolve/main/*", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")
		content, ok := repos[id][chi.URLParam(r, "*")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, content)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	srv       *httptest.Server
	mgr       *manager.Manager
	rt        *llmtest.Runtime
	modelsDir string
	dataDir   string
	hubURL    string
}

// newEnv starts the full stack over temp dirs. dataDir may be shared across
// environments to exercise restarts.
func newEnv(t *testing.T, hubURL, dataDir, modelsDir string) *env {
	t.Helper()
	return newEnvWithPublisher(t, hubURL, dataDir, modelsDir, nil)
}

func newEnvWithPublisher(t *testing.T, hubURL, dataDir, modelsDir string, pub manager.EventPublisher) *env {
	t.Helper()
	store, err := registry.Open(registry.BackendJSON, dataDir)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	rt := &llmtest.Runtime{}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelsDir:    modelsDir,
		Store:        store,
		Runtime:      rt,
		Hub:          hub.NewClient(hubURL),
		Workers:      2,
		MaxDownloads: 2,
		Publisher:    pub,
	})
	if err := mgr.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		mgr.Wait()
		_ = mgr.Close()
	})
	return &env{srv: srv, mgr: mgr, rt: rt, modelsDir: modelsDir, dataDir: dataDir, hubURL: hubURL}
}

func newDefaultEnv(t *testing.T) *env {
	t.Helper()
	hubSrv := newFakeHub(t)
	dir := t.TempDir()
	return newEnv(t, hubSrv.URL, filepath.Join(dir, "data"), filepath.Join(dir, "models"))
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return httpDo(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return httpDo(t, http.MethodPost, url, payload)
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

// parseSSE decodes every "data:" frame of an event stream body.
func parseSSE(t *testing.T, body []byte) []types.DownloadProgress {
	t.Helper()
	var out []types.DownloadProgress
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var p types.DownloadProgress
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &p); err != nil {
			t.Fatalf("decode frame %q: %v", line, err)
		}
		out = append(out, p)
	}
	return out
}

// download posts a download request and returns the streamed events.
func (e *env) download(t *testing.T, name, repo string, gguf bool) (*http.Response, []types.DownloadProgress) {
	t.Helper()
	payload, _ := json.Marshal(types.DownloadRequest{ModelName: name, SourceID: repo, IsGGUF: gguf})
	resp, body := httpPostJSON(t, e.srv.URL+"/api/models/download", payload)
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	return resp, parseSSE(t, body)
}

func (e *env) models(t *testing.T) []types.ModelSummary {
	t.Helper()
	resp, body := httpGet(t, e.srv.URL+"/api/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list models: %d %s", resp.StatusCode, body)
	}
	var mr types.ModelsResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	return mr.Models
}

func assertSequence(t *testing.T, events []types.DownloadProgress, last types.DownloadStatus) {
	t.Helper()
	if len(events) < 2 {
		t.Fatalf("want at least 2 events, got %+v", events)
	}
	if events[0].Status != types.DownloadStarting || events[0].Progress != 0 {
		t.Fatalf("first event should be starting(0), got %+v", events[0])
	}
	terminal := 0
	for _, ev := range events {
		switch {
		case ev.Status.Terminal():
			terminal++
		case ev.Status != types.DownloadStarting:
			t.Fatalf("non-terminal event with status %q in %+v", ev.Status, events)
		}
	}
	if terminal != 1 {
		t.Fatalf("want exactly one terminal event, got %d in %+v", terminal, events)
	}
	if got := events[len(events)-1].Status; got != last {
		t.Fatalf("last event = %s, want %s", got, last)
	}
}
