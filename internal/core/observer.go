package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/cardimport/internal/logging"
)

// Observer receives progress notifications. It is purely observational: the
// pipeline behaves identically with NopObserver.
type Observer interface {
	// BatchFlushed is called after each batch is persisted.
	BatchFlushed(ctx context.Context, ev BatchEvent)

	// RunFinished is called once per run. err is nil on success.
	RunFinished(ctx context.Context, res RunResult, err error)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) BatchFlushed(context.Context, BatchEvent) {}
func (NopObserver) RunFinished(context.Context, RunResult, error) {}

// LogObserver reports progress through the context logger.
type LogObserver struct{}

func (LogObserver) BatchFlushed(ctx context.Context, ev BatchEvent) {
	logging.FromContext(ctx).Debug("batch flushed",
		"batch", ev.Batch,
		"size", ev.Size,
		"persisted", ev.Persisted,
	)
}

func (LogObserver) RunFinished(ctx context.Context, res RunResult, err error) {
	logger := logging.FromContext(ctx)
	if err != nil {
		logger.Error("import failed",
			"error", err,
			"processed", res.Processed,
			"flushes", res.Flushes,
			"elapsed", res.Elapsed.Round(time.Millisecond),
		)
		return
	}
	logger.Info("import completed",
		"processed", res.Processed,
		"imported", res.Imported,
		"flushes", res.Flushes,
		"bytes_read", res.BytesRead,
		"elapsed_seconds", fmt.Sprintf("%.2f", res.Elapsed.Seconds()),
	)
}

// ProgressIndicator writes a console indicator advanced once per batch.
type ProgressIndicator struct {
	w      io.Writer
	frames []string

	mu      sync.Mutex
	started bool
	tick    int
}

// NewProgressIndicator creates an indicator writing to w.
func NewProgressIndicator(w io.Writer) *ProgressIndicator {
	return &ProgressIndicator{
		w:      w,
		frames: []string{"-", "\\", "|", "/"},
	}
}

func (p *ProgressIndicator) BatchFlushed(_ context.Context, ev BatchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.started = true
		fmt.Fprintln(p.w, " Importing cards...")
	}
	frame := p.frames[p.tick%len(p.frames)]
	p.tick++
	fmt.Fprintf(p.w, "\r %s Importing cards... %d persisted (batch %d)", frame, ev.Persisted, ev.Batch)
}

func (p *ProgressIndicator) RunFinished(_ context.Context, _ RunResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		fmt.Fprint(p.w, "\n")
	}
	if err != nil {
		fmt.Fprintln(p.w, " Import failed.")
		return
	}
	fmt.Fprintln(p.w, " Import completed successfully.")
}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) BatchFlushed(ctx context.Context, ev BatchEvent) {
	for _, o := range m {
		o.BatchFlushed(ctx, ev)
	}
}

func (m MultiObserver) RunFinished(ctx context.Context, res RunResult, err error) {
	for _, o := range m {
		o.RunFinished(ctx, res, err)
	}
}
