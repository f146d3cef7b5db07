package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelhub/internal/config"
	"modelhub/internal/httpapi"
	"modelhub/internal/hub"
	"modelhub/internal/llm"
	"modelhub/internal/manager"
	"modelhub/internal/registry"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelhub",
		Short:         "Local control plane for downloading, loading and serving language models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build features",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "modelhub %s (llama: %t)\n", version, llm.Built)
			return nil
		},
	}
}

// serveFlags holds raw flag values; only flags set on the command line
// override the config file.
type serveFlags struct {
	configPath  string
	logFormat   string
	corsOrigins string
	cfg         config.Config
}

func newServeCmd() *cobra.Command {
	cmd, _ := newServeCmdWithFlags()
	return cmd
}

func newServeCmdWithFlags() (*cobra.Command, *serveFlags) {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP server",
		Example: "  modelhub serve --models-dir ~/models --registry-backend sqlite\n  modelhub serve --config modelhub.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel, f.logFormat, os.Stderr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to config file (.yaml, .yml, .json, .toml)")
	fl.StringVar(&f.cfg.Addr, "addr", "", "HTTP listen address (defaults MODELHUB_ADDR or :8000)")
	fl.StringVar(&f.cfg.ModelsDir, "models-dir", "", "Directory holding one subdirectory per model (default models)")
	fl.StringVar(&f.cfg.DataDir, "data-dir", "", "Directory for the registry (default data)")
	fl.StringVar(&f.cfg.RegistryBackend, "registry-backend", "", "Registry backend: json|sqlite (default json)")
	fl.StringVar(&f.cfg.HFEndpoint, "hf-endpoint", "", "Model hub endpoint (default https://huggingface.co)")
	fl.StringVar(&f.cfg.HFToken, "hf-token", "", "Access token for gated repositories (defaults HF_TOKEN)")
	fl.IntVar(&f.cfg.Workers, "workers", 0, "Concurrent runtime calls (default NumCPU)")
	fl.IntVar(&f.cfg.MaxDownloads, "max-downloads", 0, "Concurrent file transfers (default 2)")
	fl.IntVar(&f.cfg.LlamaCtx, "llama-ctx", 0, "Context size for loaded models (default 2048)")
	fl.IntVar(&f.cfg.LlamaThreads, "llama-threads", 0, "Threads per generation (default NumCPU)")
	fl.StringVar(&f.cfg.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	fl.StringVar(&f.logFormat, "log-format", "json", "Log format: json|console")
	fl.Int64Var(&f.cfg.MaxBodyBytes, "max-body-bytes", 0, "Maximum JSON request body size (default 1 MiB)")
	fl.Int64Var(&f.cfg.GenerateTimeoutSeconds, "generate-timeout", 0, "Seconds a generation request waits (0 = no limit)")
	fl.BoolVar(&f.cfg.CORSEnabled, "cors-enabled", false, "Enable CORS")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (default *)")
	return cmd, f
}

// resolveConfig layers flags over the config file over defaults.
func resolveConfig(cmd *cobra.Command, f *serveFlags) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		c, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("addr", func() { cfg.Addr = f.cfg.Addr })
	set("models-dir", func() { cfg.ModelsDir = f.cfg.ModelsDir })
	set("data-dir", func() { cfg.DataDir = f.cfg.DataDir })
	set("registry-backend", func() { cfg.RegistryBackend = f.cfg.RegistryBackend })
	set("hf-endpoint", func() { cfg.HFEndpoint = f.cfg.HFEndpoint })
	set("hf-token", func() { cfg.HFToken = f.cfg.HFToken })
	set("workers", func() { cfg.Workers = f.cfg.Workers })
	set("max-downloads", func() { cfg.MaxDownloads = f.cfg.MaxDownloads })
	set("llama-ctx", func() { cfg.LlamaCtx = f.cfg.LlamaCtx })
	set("llama-threads", func() { cfg.LlamaThreads = f.cfg.LlamaThreads })
	set("log-level", func() { cfg.LogLevel = f.cfg.LogLevel })
	set("max-body-bytes", func() { cfg.MaxBodyBytes = f.cfg.MaxBodyBytes })
	set("generate-timeout", func() { cfg.GenerateTimeoutSeconds = f.cfg.GenerateTimeoutSeconds })
	set("cors-enabled", func() { cfg.CORSEnabled = f.cfg.CORSEnabled })
	set("cors-origins", func() { cfg.CORSOrigins = splitCSV(f.corsOrigins) })
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, err := registry.Open(cfg.RegistryBackend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	events := httpapi.NewEventStream()
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelsDir:    cfg.ModelsDir,
		Store:        store,
		LlamaCtx:     cfg.LlamaCtx,
		LlamaThreads: cfg.LlamaThreads,
		Hub:          hub.NewClient(cfg.HFEndpoint, hub.WithToken(cfg.HFToken)),
		Workers:      cfg.Workers,
		MaxDownloads: cfg.MaxDownloads,
		Logger:       &logger,
		Publisher:    events,
	})
	if err := mgr.Init(ctx); err != nil {
		return fmt.Errorf("init manager: %w", err)
	}
	if !llm.Built {
		logger.Warn().Msg("built without llama support; model loads will fail")
	}

	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetGenerateTimeoutSeconds(cfg.GenerateTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
	httpapi.SetEventStream(events)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).
			Str("registry", cfg.RegistryBackend).Msg("modelhub listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = mgr.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	logger.Info().Msg("shutting down")
	events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	return mgr.Close()
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
