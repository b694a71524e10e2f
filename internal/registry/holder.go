package registry

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Holder publishes the live rule snapshot. Readers always see a complete
// snapshot; reloads build a new one and swap the pointer.
type Holder struct {
	path    string
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger

	reloadMu sync.Mutex
	onReload func(s *Snapshot, err error)
}

// NewHolder loads the rule file at path. A configuration error fails fast.
func NewHolder(path string, logger *zap.Logger) (*Holder, error) {
	h := &Holder{path: path, logger: logger}
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	h.current.Store(s)
	return h, nil
}

// NewStaticHolder wraps an already built snapshot. Reload is not possible
// without a path.
func NewStaticHolder(s *Snapshot, logger *zap.Logger) *Holder {
	h := &Holder{logger: logger}
	if s != nil {
		h.current.Store(s)
	}
	return h
}

// SetReloadHook registers a callback invoked after every reload attempt.
func (h *Holder) SetReloadHook(fn func(s *Snapshot, err error)) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.onReload = fn
}

func (h *Holder) Path() string {
	return h.path
}

// Current returns the live snapshot, or nil when none was ever loaded.
func (h *Holder) Current() *Snapshot {
	if h == nil {
		return nil
	}
	return h.current.Load()
}

// Reload re-reads the rule file. On failure the previous snapshot stays live
// and the error is returned.
func (h *Holder) Reload() (*Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	if h.path == "" {
		err := errors.New("holder has no rule file path")
		h.notify(nil, err)
		return nil, err
	}

	s, err := Load(h.path)
	if err != nil {
		h.logger.Warn("rule reload failed, keeping previous snapshot",
			zap.String("path", h.path),
			zap.Error(err))
		h.notify(nil, err)
		return nil, err
	}

	prev := h.current.Swap(s)
	fields := []zap.Field{
		zap.String("path", h.path),
		zap.String("contract_version", s.ContractVersion()),
		zap.Int("enabled_rules", len(s.enabled)),
	}
	if prev != nil {
		fields = append(fields, zap.String("previous_version", prev.ContractVersion()))
	}
	h.logger.Info("rule snapshot reloaded", fields...)
	h.notify(s, nil)
	return s, nil
}

func (h *Holder) notify(s *Snapshot, err error) {
	if h.onReload != nil {
		h.onReload(s, err)
	}
}
