package registry

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the holder when its rule file changes on disk. The parent
// directory is watched because editors often replace files instead of writing
// them in place.
type Watcher struct {
	holder   *Holder
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	target   string

	timerMu sync.Mutex
	timer   *time.Timer

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewWatcher(holder *Holder, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target, err := filepath.Abs(holder.Path())
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		holder:   holder,
		watcher:  fsw,
		logger:   logger,
		debounce: defaultDebounce,
		target:   target,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetDebounce sets how long to wait for further writes before reloading.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching in the background.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.target)); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Info("rule watcher started", zap.String("path", w.target))
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("rule watcher error", zap.Error(err))
			case <-w.stopCh:
				w.logger.Info("rule watcher stopped")
				return
			}
		}
	}()
	return nil
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
	w.wg.Wait()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
}

func (w *Watcher) handle(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.target {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("rule file change detected", zap.String("op", event.Op.String()))

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		_, _ = w.holder.Reload()
	})
}
