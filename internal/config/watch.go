package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-reads the config file on change and exposes the latest
// full Config snapshot atomically, mirroring the teacher's ConfigManager
// file watcher for the single config file.
type Watcher struct {
	path   string
	logger *zap.Logger
	fsw    *fsnotify.Watcher

	mu  sync.RWMutex
	cur *Config
}

// NewWatcher loads the config once and starts watching path for writes.
// Callers should call Close when done.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = "config/app.yaml"
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		// File may not exist yet (defaults-only config); not fatal.
		logger.Warn("config: could not watch file, hot reload disabled", zap.String("path", path), zap.Error(err))
	}

	w := &Watcher{path: path, logger: logger, fsw: fsw, cur: cfg}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config: reload failed, keeping previous config", zap.Error(err))
				continue
			}
			w.mu.Lock()
			w.cur = cfg
			w.mu.Unlock()
			w.logger.Info("config: reloaded",
				zap.Int("qgen_parallelism", cfg.QGen.Parallelism),
				zap.Int("ingest_parallelism", cfg.Ingestion.Parallelism),
				zap.Int("model_max_retries", cfg.ModelGateway.MaxRetries),
			)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config: watcher error", zap.Error(err))
		}
	}
}

// Current returns the most recently loaded configuration snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
