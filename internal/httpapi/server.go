package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelhub/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelSummary
	SystemInfo(ctx context.Context) (types.SystemInfo, error)
	Record(name string) (types.ModelRecord, bool)
	Download(ctx context.Context, req types.DownloadRequest) (<-chan types.DownloadProgress, error)
	DownloadProgress(name string) types.DownloadProgress
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Generate(ctx context.Context, req types.GenerateRequest) (string, error)
	IsLoaded(name string) bool
	LoadedModels() []string
	Status() types.StatusResponse
	Ready() bool
}

// events is the websocket hub served at /api/events, if installed.
var events *EventStream

// SetEventStream installs the hub that serves GET /api/events.
func SetEventStream(s *EventStream) { events = s }

// NewMux builds the router for the dashboard API, the OpenAI-compatible API
// and the operational endpoints.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins(),
			AllowedMethods: corsMethods(),
			AllowedHeaders: corsHeaders(),
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", listModels(svc))
		r.Post("/models/download", downloadModel(svc))
		r.Get("/models/{name}/download-progress", downloadProgress(svc))
		r.Post("/models/{name}/load", loadModel(svc))
		r.Post("/models/{name}/unload", unloadModel(svc))
		r.Delete("/models/{name}", deleteModel(svc))
		r.Post("/generate", generate(svc))
		r.Get("/system", systemInfo(svc))
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			if events == nil {
				writeJSONError(w, http.StatusServiceUnavailable, "event stream disabled")
				return
			}
			events.ServeHTTP(w, r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", openAIModels(svc))
		r.Post("/completions", openAICompletions(svc))
		r.Post("/chat/completions", openAIChatCompletions(svc))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
