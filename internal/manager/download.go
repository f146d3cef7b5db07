package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"modelhub/internal/gguf"
	"modelhub/internal/lane"
	"modelhub/pkg/types"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func checkName(name string) error {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return errInvalid("invalid model name: " + name)
	}
	return nil
}

// Download validates req, then acquires the model in the background. The
// returned channel yields starting events (the first at 0%, then one per
// file) and exactly one terminal event (completed or error), then closes.
//
// Events are queued for the consumer, so a slow or absent reader never holds
// up the transfer. Cancelling ctx stops delivery and closes the channel; the
// transfer runs to completion and DownloadProgress keeps reflecting it.
func (m *Manager) Download(ctx context.Context, req types.DownloadRequest) (<-chan types.DownloadProgress, error) {
	name := strings.TrimSpace(req.ModelName)
	if err := checkName(name); err != nil {
		return nil, err
	}
	req.ModelName = name
	req.SourceID = strings.TrimSpace(req.SourceID)
	if req.SourceID == "" {
		return nil, errInvalid("hf_model_id is required")
	}

	m.mu.Lock()
	if _, ok := m.records[name]; ok {
		m.mu.Unlock()
		return nil, validationError{kind: kindExists, msg: "model already exists: " + name}
	}
	if m.downloading[name] {
		m.mu.Unlock()
		return nil, validationError{kind: kindInProgress, msg: "download already in progress: " + name}
	}
	m.downloading[name] = true
	m.progress[name] = types.DownloadProgress{Status: types.DownloadStarting}
	m.mu.Unlock()

	ch := make(chan types.DownloadProgress)
	sink := &progressSink{m: m, name: name, ctx: ctx, ch: ch, wake: make(chan struct{}, 1)}
	go sink.forward()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer sink.finish()
		m.runDownload(req, sink)
	}()
	return ch, nil
}

// DownloadProgress returns the last event for name, or a not_found status
// when no download was ever attempted.
func (m *Manager) DownloadProgress(name string) types.DownloadProgress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.progress[name]; ok {
		return p
	}
	return types.DownloadProgress{Status: types.DownloadNotFound}
}

// Downloading returns names with a download in flight.
func (m *Manager) Downloading() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.downloading))
	for name := range m.downloading {
		out = append(out, name)
	}
	return out
}

func (m *Manager) runDownload(req types.DownloadRequest, sink *progressSink) {
	name := req.ModelName
	format := types.FormatStandard
	if req.IsGGUF {
		format = types.FormatGGUF
	}
	log := m.log.With().Str("model", name).Str("source", req.SourceID).Str("format", string(format)).Logger()
	sink.emit(types.DownloadProgress{Status: types.DownloadStarting})
	log.Info().Msg("download start")

	// the transfer outlives the request that started it
	bg := context.Background()
	release, _ := m.locks.acquire(bg, name)
	defer release()

	dir := filepath.Join(m.modelsDir, name)
	rec, total, err := m.fetch(bg, req, format, dir, sink)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warn().Err(rmErr).Msg("cleanup of partial download failed")
		}
		m.mu.Lock()
		delete(m.downloading, name)
		m.mu.Unlock()
		downloadsTotal.WithLabelValues(string(format), "error").Inc()
		log.Error().Err(err).Msg("download failed")
		msg := err.Error()
		sink.emit(types.DownloadProgress{Status: types.DownloadError, Error: &msg})
		return
	}

	m.mu.Lock()
	m.records[name] = rec
	delete(m.downloading, name)
	m.mu.Unlock()
	m.persist()
	downloadsTotal.WithLabelValues(string(format), "completed").Inc()
	log.Info().Str("path", rec.Path).Int("files", total).Msg("download completed")
	sink.emit(types.DownloadProgress{
		Status:          types.DownloadCompleted,
		Progress:        100,
		TotalFiles:      total,
		DownloadedFiles: total,
	})
}

// fetch transfers the artifacts into dir and returns the record to register.
func (m *Manager) fetch(ctx context.Context, req types.DownloadRequest, format types.Format, dir string, sink *progressSink) (types.ModelRecord, int, error) {
	files, err := lane.Do(ctx, m.transfer, func() ([]string, error) {
		return m.hub.ListFiles(ctx, req.SourceID, req.Token)
	})
	if err != nil {
		return types.ModelRecord{}, 0, err
	}
	var ggufFile string
	if format == types.FormatGGUF {
		f, ok := gguf.SelectFile(files)
		if !ok {
			return types.ModelRecord{}, 0, errors.New("no GGUF file found in repository")
		}
		ggufFile = f
		files = []string{f}
	}
	if len(files) == 0 {
		return types.ModelRecord{}, 0, fmt.Errorf("repository %s has no files", req.SourceID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.ModelRecord{}, 0, fmt.Errorf("create model dir: %w", err)
	}

	total := len(files)
	for i, f := range files {
		sink.emit(types.DownloadProgress{
			Status:          types.DownloadStarting,
			Progress:        min(99, i*100/total),
			TotalFiles:      total,
			DownloadedFiles: i,
			CurrentFile:     f,
		})
		err := lane.Run(ctx, m.transfer, func() error {
			_, err := m.hub.DownloadFile(ctx, req.SourceID, f, dir, req.Token)
			return err
		})
		if err != nil {
			return types.ModelRecord{}, 0, err
		}
	}

	rec := types.ModelRecord{
		SourceID:     req.SourceID,
		Path:         dir,
		DownloadedAt: epochSeconds(m.now()),
		Format:       format,
	}
	if format == types.FormatGGUF {
		rec.GGUFFile = ggufFile
		rec.Path = filepath.Join(dir, filepath.FromSlash(ggufFile))
	}
	return rec, total, nil
}

// progressSink records each event in the progress table, publishes it and
// queues it for the consumer. emit never blocks on the consumer.
type progressSink struct {
	m    *Manager
	name string
	ctx  context.Context
	ch   chan types.DownloadProgress
	wake chan struct{}

	mu       sync.Mutex
	queue    []types.DownloadProgress
	finished bool
}

func (s *progressSink) emit(p types.DownloadProgress) {
	s.m.mu.Lock()
	s.m.progress[s.name] = p
	s.m.mu.Unlock()

	fields := map[string]any{"status": string(p.Status), "progress": p.Progress}
	if p.CurrentFile != "" {
		fields["current_file"] = p.CurrentFile
	}
	if p.Error != nil {
		fields["error"] = *p.Error
	}
	s.m.pub.Publish(Event{Name: EventDownload, ModelID: s.name, Fields: fields})

	s.mu.Lock()
	s.queue = append(s.queue, p)
	s.mu.Unlock()
	s.notify()
}

// finish marks the last event queued.
func (s *progressSink) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.notify()
}

func (s *progressSink) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// forward delivers queued events in order until the last one is sent, the
// consumer's ctx is done or the manager closes. It closes ch on return.
func (s *progressSink) forward() {
	defer close(s.ch)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		finished := s.finished
		s.mu.Unlock()

		for _, p := range batch {
			select {
			case s.ch <- p:
			case <-s.ctx.Done():
				return
			case <-s.m.closing:
				return
			}
		}
		if finished {
			return
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-s.wake:
		case <-s.ctx.Done():
			return
		case <-s.m.closing:
			return
		}
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
