package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"modelhub/pkg/types"
)

// listModels godoc
// @Summary      List registered models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /api/models [get]
func listModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
	}
}

// systemInfo godoc
// @Summary      Host memory, disk and CPU usage
// @Tags         system
// @Produce      json
// @Success      200  {object}  types.SystemInfo
// @Failure      500  {object}  types.ErrorResponse
// @Router       /api/system [get]
func systemInfo(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.SystemInfo(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// downloadModel godoc
// @Summary      Download a model and stream progress
// @Description  Streams DownloadProgress events as server-sent events until completed or error.
// @Tags         models
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      types.DownloadRequest  true  "Download request"
// @Success      200      {object}  types.DownloadProgress
// @Failure      400      {object}  types.ErrorResponse
// @Router       /api/models/download [post]
func downloadModel(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DownloadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		lvl := requestLogLevel(r)
		start := time.Now()
		// the stream stops on client disconnect or shutdown; the transfer does not
		ctx, cancel := requestContext(r, 0)
		defer cancel()
		ch, err := svc.Download(ctx, req)
		if err != nil {
			status := writeServiceError(w, err)
			logRequestEnd(r, lvl, "download", req.ModelName, start, status, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		if flusher != nil {
			flusher.Flush()
		}
		out := io.Writer(w)
		if lvl >= LevelDebug {
			out = io.MultiWriter(w, &loggingLineWriter{prefix: "download"})
		}
		progressStreams.Inc()
		defer progressStreams.Dec()

		var last types.DownloadProgress
		for {
			select {
			case <-ctx.Done():
				logRequestEnd(r, lvl, "download", req.ModelName, start, http.StatusOK, ctx.Err())
				return
			case p, ok := <-ch:
				if !ok {
					var err error
					if last.Status == types.DownloadError && last.Error != nil {
						err = fmt.Errorf("%s", *last.Error)
					}
					logRequestEnd(r, lvl, "download", req.ModelName, start, http.StatusOK, err)
					return
				}
				last = p
				if err := writeSSE(out, p); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}
}

// writeSSE writes one server-sent event frame carrying v as JSON.
func writeSSE(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// downloadProgress godoc
// @Summary      Last progress event of a download
// @Tags         models
// @Produce      json
// @Param        name  path      string  true  "Model name"
// @Success      200   {object}  types.DownloadProgress
// @Router       /api/models/{name}/download-progress [get]
func downloadProgress(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.DownloadProgress(chi.URLParam(r, "name")))
	}
}

// loadModel godoc
// @Summary      Load a registered model into memory
// @Tags         models
// @Produce      json
// @Param        name  path      string  true  "Model name"
// @Success      200   {object}  types.ActionResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Failure      503   {object}  types.ErrorResponse
// @Router       /api/models/{name}/load [post]
func loadModel(svc Service) http.HandlerFunc {
	return lifecycleAction("load", "loaded", svc.Load)
}

// unloadModel godoc
// @Summary      Unload a model
// @Tags         models
// @Produce      json
// @Param        name  path      string  true  "Model name"
// @Success      200   {object}  types.ActionResponse
// @Router       /api/models/{name}/unload [post]
func unloadModel(svc Service) http.HandlerFunc {
	return lifecycleAction("unload", "unloaded", svc.Unload)
}

// deleteModel godoc
// @Summary      Unload and delete a model from disk and registry
// @Tags         models
// @Produce      json
// @Param        name  path      string  true  "Model name"
// @Success      200   {object}  types.ActionResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /api/models/{name} [delete]
func deleteModel(svc Service) http.HandlerFunc {
	return lifecycleAction("delete", "deleted", svc.Delete)
}

func lifecycleAction(op, done string, fn func(ctx context.Context, name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		lvl := requestLogLevel(r)
		start := time.Now()
		ctx, cancel := requestContext(r, 0)
		defer cancel()
		if err := fn(ctx, name); err != nil {
			status := writeServiceError(w, err)
			logRequestEnd(r, lvl, op, name, start, status, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ActionResponse{Status: done})
		logRequestEnd(r, lvl, op, name, start, http.StatusOK, nil)
	}
}

// generate godoc
// @Summary      Generate text with a loaded model
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        request  body      types.GenerateRequest  true  "Generation request"
// @Success      200      {object}  types.GenerateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /api/generate [post]
func generate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		lvl := requestLogLevel(r)
		start := time.Now()
		ctx, cancel := requestContext(r, generateTimeout)
		defer cancel()
		text, err := svc.Generate(ctx, req)
		if err != nil {
			// If the client went away there is nobody to answer.
			if r.Context().Err() != nil {
				return
			}
			status := generateErrorStatus(ctx, err)
			writeJSONError(w, status, err.Error())
			logRequestEnd(r, lvl, "generate", req.ModelName, start, status, err)
			return
		}
		writeJSON(w, http.StatusOK, types.GenerateResponse{GeneratedText: text})
		logRequestEnd(r, lvl, "generate", req.ModelName, start, http.StatusOK, nil)
	}
}

// generateErrorStatus maps a generation failure to a status code. A request
// that ran out of its generate timeout gets 504.
func generateErrorStatus(ctx context.Context, err error) int {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) && serverBaseCtx.Err() != nil {
		return http.StatusServiceUnavailable
	}
	return statusFor(err)
}
