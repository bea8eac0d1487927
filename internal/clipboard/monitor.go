// Package clipboard polls an ambient text source and stages pipeline hits
// into the inbox.
package clipboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"

	"github.com/halvard/muninn/internal/capture"
	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/models"
)

// Captured clipboard URLs are staged with low trust; a human has not looked
// at them yet.
const capturedConfidence models.Confidence = 0.5

// Source yields the current ambient text. The system clipboard is the
// production implementation; tests inject fakes.
type Source interface {
	Text() (string, error)
}

// SystemSource reads the OS clipboard.
type SystemSource struct{}

// Text returns the current clipboard contents.
func (SystemSource) Text() (string, error) {
	return clipboard.ReadAll()
}

// Monitor is the capture poll loop. It owns no global state; cancellation
// comes from the context handed to Run, checked once per poll interval.
type Monitor struct {
	cfg    capture.Config
	inbox  *inbox.Inbox
	source Source
	logger *slog.Logger
}

// NewMonitor builds a monitor over the given source.
func NewMonitor(cfg capture.Config, in *inbox.Inbox, source Source, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{cfg: cfg, inbox: in, source: source, logger: logger}
}

// Run polls the source at the configured interval until ctx is cancelled.
// Cancellation latency is bounded by the poll interval; the loop never
// blocks indefinitely.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.PollInterval())
	defer ticker.Stop()

	m.logger.Info("clipboard monitor started",
		slog.Int("poll_interval_ms", m.cfg.PollIntervalMS))

	lastSeen := ""
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("clipboard monitor stopped")
			return nil
		case <-ticker.C:
			text, err := m.source.Text()
			if err != nil {
				continue
			}
			if text == "" || text == lastSeen {
				continue
			}
			lastSeen = text
			m.capture(text)
		}
	}
}

func (m *Monitor) capture(text string) {
	if m.cfg.CaptureURLs {
		url, ok, err := capture.Evaluate(text, m.cfg, m.inbox)
		if err != nil {
			m.logger.Error("filter pipeline failed", slog.String("error", err.Error()))
			return
		}
		if ok {
			item := models.NewInboxItem(models.TypeConcept, "inbox", models.MethodClipboardURL, url)
			item.Source = url
			item.Confidence = capturedConfidence
			path, addErr := m.inbox.Add(&item)
			if addErr != nil {
				m.logger.Error("failed to stage captured url", slog.String("error", addErr.Error()))
				return
			}
			m.logger.Info("captured url to inbox",
				slog.String("url", url), slog.String("path", path))
			return
		}
	}

	if m.cfg.CaptureText && capture.TextWorthKeeping(text) {
		item := models.NewInboxItem(models.TypeConcept, "inbox", models.MethodClipboardText, text)
		item.Confidence = capturedConfidence
		path, err := m.inbox.Add(&item)
		if err != nil {
			m.logger.Error("failed to stage captured text", slog.String("error", err.Error()))
			return
		}
		m.logger.Info("captured text to inbox", slog.String("path", path))
	}
}
