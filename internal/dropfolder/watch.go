// Package dropfolder watches a directory and stages files dropped into it
// as manual text captures.
package dropfolder

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halvard/muninn/internal/capture"
	"github.com/halvard/muninn/internal/inbox"
)

// settleDelay gives the writing process time to finish before we read the
// dropped file.
const settleDelay = 100 * time.Millisecond

// Watch starts an fsnotify watcher on dir and processes newly created
// .md/.txt files until ctx is cancelled. Each file's contents are staged as
// a manual capture with the filename as source.
func Watch(ctx context.Context, in *inbox.Inbox, dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("dropfolder: started", slog.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			logger.Info("dropfolder: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			if !watchable(ev.Name) {
				continue
			}

			time.Sleep(settleDelay)
			if err := stageFile(in, ev.Name); err != nil {
				logger.Warn("dropfolder: stage failed",
					slog.String("path", ev.Name), slog.String("error", err.Error()))
				continue
			}
			logger.Info("dropfolder: staged", slog.String("path", ev.Name))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("dropfolder: error", slog.String("error", watchErr.Error()))
		}
	}
}

func watchable(path string) bool {
	switch filepath.Ext(path) {
	case ".md", ".txt":
		return true
	}
	return false
}

func stageFile(in *inbox.Inbox, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	_, err = capture.FromText(in, text, filepath.Base(path), "")
	return err
}
