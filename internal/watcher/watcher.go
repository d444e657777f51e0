// Package watcher ingests log files dropped into a local directory, as an
// alternative to the HTTP upload endpoint. Files are handed to the same job
// pipeline and then moved aside so restarts do not re-ingest them.
package watcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"logsift/internal/logger"
	"logsift/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzip"
)

const (
	// defaultSettle is how long a file must stay quiet after the last write
	// event before it is read. Uploads via scp or cp arrive in bursts.
	defaultSettle = 2 * time.Second

	processedDir = "processed"
)

// Uploader registers a dropped file as an ingestion job. *service.JobsService
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, filename, content string) (models.Job, error)
}

type Watcher struct {
	dir      string
	uploader Uploader
	log      *logger.Logger
	settle   time.Duration

	timers map[string]*time.Timer
	ready  chan string
}

func New(dir string, uploader Uploader, log *logger.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		uploader: uploader,
		log:      log,
		settle:   defaultSettle,
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 16),
	}
}

// Run watches the drop directory until ctx is cancelled. Files already
// present at startup are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(w.dir, processedDir), 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.ingestExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Errorw("watch_error", "dir", w.dir, "err", err)
		case path := <-w.ready:
			w.ingest(ctx, path)
		}
	}
}

// schedule (re)arms the settle timer for a path. Timers fire into the ready
// channel so all ingestion happens on the Run goroutine.
func (w *Watcher) schedule(path string) {
	if !ingestible(path) {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.ready <- path
	})
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Errorw("watch_scan_failed", "dir", w.dir, "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if ingestible(path) {
			w.ingest(ctx, path)
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	delete(w.timers, path)

	content, err := readLogFile(path)
	if err != nil {
		w.log.Errorw("watch_read_failed", "path", path, "err", err)
		return
	}

	name := filepath.Base(path)
	job, err := w.uploader.Upload(ctx, name, content)
	if err != nil {
		w.log.Errorw("watch_upload_failed", "path", path, "err", err)
		return
	}
	w.log.Infow("watch_file_ingested", "path", path, "job_id", job.ID)

	dest := filepath.Join(w.dir, processedDir, name)
	if err := os.Rename(path, dest); err != nil {
		w.log.Errorw("watch_move_failed", "path", path, "err", err)
	}
}

func ingestible(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".log", ".txt", ".gz":
		return true
	}
	return false
}

func readLogFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("invalid gzip file: %w", err)
		}
		defer func() { _ = gz.Close() }()
		plain, err := io.ReadAll(gz)
		if err != nil {
			return "", fmt.Errorf("decompress: %w", err)
		}
		return string(plain), nil
	}
	return string(data), nil
}
