package pipeline

import (
	"fmt"
	"log/slog"
	"time"
)

// ProgressCallback receives batch processing progress updates.
type ProgressCallback interface {
	// OnStart is called once with the total page count.
	OnStart(total int)
	// OnProgress is called after each completed page.
	OnProgress(current, total int)
	// OnComplete is called when the batch finishes.
	OnComplete()
}

// NoOpProgressCallback discards all progress updates.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}

// LogProgressCallback reports progress through slog at a fixed item interval.
type LogProgressCallback struct {
	logger   *slog.Logger
	interval int
	lastLog  int
	started  time.Time
}

// NewLogProgressCallback creates a log-based progress reporter that logs
// every interval pages.
func NewLogProgressCallback(logger *slog.Logger, interval int) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10
	}
	return &LogProgressCallback{logger: logger, interval: interval}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.started = time.Now()
	l.lastLog = 0
	l.logger.Info("processing started", slog.Int("pages", total))
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	elapsed := time.Since(l.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(current) / elapsed.Seconds()
	}
	l.logger.Info("processing progress",
		slog.Int("current", current),
		slog.Int("total", total),
		slog.String("rate", fmt.Sprintf("%.1f/s", rate)))
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Info("processing completed",
		slog.Duration("elapsed", time.Since(l.started).Round(time.Millisecond)))
}
