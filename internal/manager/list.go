package manager

import (
	"context"
	"sort"
	"time"

	"modelhub/internal/common/fsutil"
	"modelhub/internal/gguf"
	"modelhub/pkg/types"
)

// ListModels returns every registered model with its current size on disk,
// sorted by name. Sizes are computed on each call.
func (m *Manager) ListModels() []types.ModelSummary {
	m.mu.RLock()
	out := make([]types.ModelSummary, 0, len(m.records))
	paths := make(map[string]string, len(m.records))
	for name, rec := range m.records {
		paths[name] = rec.Path
		_, loaded := m.handles[name]
		out = append(out, types.ModelSummary{
			Name:         name,
			SourceID:     rec.SourceID,
			Loaded:       loaded,
			DownloadedAt: rec.DownloadedAt,
			Format:       rec.Format,
			GGUFFile:     rec.GGUFFile,
		})
	}
	m.mu.RUnlock()

	for i := range out {
		p := paths[out[i].Name]
		size, err := fsutil.DirSize(p)
		if err != nil {
			m.log.Debug().Err(err).Str("model", out[i].Name).Msg("size walk failed")
		}
		out[i].Size = size
		if out[i].Format == types.FormatGGUF {
			if info, err := gguf.Probe(p); err == nil {
				out[i].Architecture = info.Architecture
				out[i].Quantization = info.Quantization
				out[i].Parameters = info.Parameters
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SystemInfo passes through a host telemetry snapshot.
func (m *Manager) SystemInfo(ctx context.Context) (types.SystemInfo, error) {
	return m.system.Collect(ctx)
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	loaded := m.LoadedModels()
	downloading := m.Downloading()
	sort.Strings(downloading)
	m.mu.RLock()
	resp := types.StatusResponse{
		State:      string(m.state),
		Registered: len(m.records),
	}
	m.mu.RUnlock()
	resp.Loaded = loaded
	resp.Downloading = downloading
	resp.ComputeBusy = m.compute.Busy()
	resp.TransferBusy = m.transfer.Busy()
	resp.UptimeSeconds = int64(time.Since(m.startTime) / time.Second)
	resp.ServerTimeUnix = time.Now().Unix()
	return resp
}
