package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/handiism/antenati-downloader/internal/config"
	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	ioutils "github.com/handiism/antenati-downloader/internal/io"
	"github.com/handiism/antenati-downloader/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned by Run when the run was cancelled before all
// pages were processed.
var ErrCancelled = errors.New("download cancelled")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// EventKind tells plain messages apart from per-page completions.
type EventKind int

const (
	// EventMessage carries only a message.
	EventMessage EventKind = iota

	// EventPage is sent once per consumed outcome. Processed, Total and
	// Bytes reflect the run after that outcome.
	EventPage
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Kind    EventKind
	Message string
	Level   ProgressLevel

	Processed int
	Total     int
	Bytes     int64
}

// Manager downloads the pages of a gallery into an output directory.
type Manager struct {
	settings  *config.Settings
	outputDir string
	logger    *zap.Logger

	onProgress func(ProgressEvent)

	mu    sync.Mutex
	ctrl  *Controller
	agg   *aggregator
	total atomic.Int64
}

// NewManager creates a new download Manager writing into outputDir.
func NewManager(settings *config.Settings, outputDir string, logger *zap.Logger, onProgress func(ProgressEvent)) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		settings:   settings,
		outputDir:  outputDir,
		logger:     logger,
		onProgress: onProgress,
	}
}

// Run downloads pages and blocks until every submitted page has an outcome
// or the run is cancelled.
//
// Pages are submitted in order; at most settings.Workers are in progress and
// at most settings.Connections requests are open at any time. Returns the
// summary of the outcomes consumed, together with ErrCancelled if the run
// was cancelled.
func (m *Manager) Run(ctx context.Context, pages []*model.Page) (*Summary, error) {
	if err := m.settings.Validate(); err != nil {
		return nil, err
	}

	ctrl := NewController(ctx)
	defer ctrl.Stop()

	agg := newAggregator(len(pages))
	m.mu.Lock()
	m.ctrl = ctrl
	m.agg = agg
	m.mu.Unlock()
	m.total.Store(int64(len(pages)))

	pool := antenatihttp.NewConnPool(m.settings.ToHTTPConfig(), m.settings.Connections)
	defer pool.CloseIdle()

	logger := m.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting downloads",
		zap.Int("pages", len(pages)),
		zap.Int("workers", m.settings.Workers),
		zap.Int("connections", pool.Size()),
		zap.String("output_dir", m.outputDir),
	)

	outcomes := make(chan Outcome)
	go m.submit(ctrl.Context(), pool, pages, outcomes)

	for o := range outcomes {
		if ctrl.Cancelled() {
			logger.Debug("discarding outcome after cancel", zap.Int("page", o.Page.Index))
			continue
		}
		agg.add(o)
		m.reportOutcome(logger, o, agg)
	}

	// A cancel wins even when it lands after the last outcome.
	summary := agg.result()
	if ctrl.Cancelled() {
		summary.Cancelled = true
		logger.Warn("run cancelled", zap.Int("processed", summary.Processed), zap.Int("total", summary.Total))
		return summary, ErrCancelled
	}

	logger.Info("run complete",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed()),
		zap.Int64("bytes", summary.Bytes),
	)
	return summary, nil
}

// submit feeds pages to a worker group and closes outcomes once every
// started task has returned.
func (m *Manager) submit(ctx context.Context, pool *antenatihttp.ConnPool, pages []*model.Page, outcomes chan<- Outcome) {
	defer close(outcomes)

	var g errgroup.Group
	g.SetLimit(m.settings.Workers)

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Abandon tasks that were waiting for a worker when the run was cancelled.
			if ctx.Err() != nil {
				return nil
			}
			o := m.fetchAndStore(ctx, pool, page)
			select {
			case outcomes <- o:
			case <-ctx.Done():
			}
			return nil
		})
	}

	g.Wait()
}

// fetchAndStore downloads one page into the output directory.
func (m *Manager) fetchAndStore(ctx context.Context, pool *antenatihttp.ConnPool, page *model.Page) Outcome {
	resp, err := pool.Open(ctx, page.ImageURL)
	if err != nil {
		return Outcome{Page: page, Err: err}
	}
	defer resp.Body.Close()

	ext, err := ioutils.ExtensionFor(resp.Header.Get("Content-Type"))
	if err != nil {
		return Outcome{Page: page, Err: fmt.Errorf("%s: %w", page.ImageURL, err)}
	}

	name := page.FileName(ext)
	n, err := ioutils.WriteAtomic(m.outputDir, name, resp.Body)
	if err != nil {
		return Outcome{Page: page, File: name, Err: err}
	}

	return Outcome{Page: page, File: name, Bytes: n}
}

func (m *Manager) reportOutcome(logger *zap.Logger, o Outcome, agg *aggregator) {
	event := ProgressEvent{
		Kind:      EventPage,
		Processed: agg.summary.Processed,
		Total:     agg.summary.Total,
		Bytes:     agg.summary.Bytes,
	}

	if o.OK() {
		event.Level = LevelVerbose
		event.Message = fmt.Sprintf("%s saved as %s", o.Page.Label, o.File)
	} else {
		logger.Debug("page failed", zap.Int("page", o.Page.Index), zap.String("label", o.Page.Label), zap.Error(o.Err))
		event.Level = LevelError
		event.Message = fmt.Sprintf("%s error (%v)", o.Page.Label, o.Err)
	}

	m.progress(event)
}

// Cancel cancels the current run, if any. It reports whether this call
// started the cancellation.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	ctrl := m.ctrl
	m.mu.Unlock()

	if ctrl == nil {
		return false
	}
	return ctrl.Cancel()
}

// State returns the state of the current run. A Manager that never ran
// reports StateStopped.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl == nil {
		return StateStopped
	}
	return m.ctrl.State()
}

// GetProgress returns the pages processed so far, the pages in the run and
// the bytes stored. Safe to call while Run is in progress.
func (m *Manager) GetProgress() (processed, total int, bytes int64) {
	m.mu.Lock()
	agg := m.agg
	m.mu.Unlock()

	if agg == nil {
		return 0, 0, 0
	}
	return int(agg.processed.Load()), int(m.total.Load()), agg.bytes.Load()
}

func (m *Manager) progress(event ProgressEvent) {
	m.mu.Lock()
	muted := m.ctrl != nil && m.ctrl.Cancelled()
	m.mu.Unlock()

	if muted || m.onProgress == nil {
		return
	}
	m.onProgress(event)
}
