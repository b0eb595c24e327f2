package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Holder guards the active bundle of a long-running server.
type Holder struct {
	mu     sync.RWMutex
	bundle *Bundle
}

// NewHolder returns a holder serving b.
func NewHolder(b *Bundle) *Holder {
	return &Holder{bundle: b}
}

// Current returns the active bundle.
func (h *Holder) Current() *Bundle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bundle
}

// Swap replaces the active bundle and returns the previous one.
func (h *Holder) Swap(b *Bundle) *Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.bundle
	h.bundle = b
	return prev
}

// DefaultDebounce is how long Watch waits after the last change before
// reloading. Save renames three files in quick succession.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the model in h.Current().Dir whenever its structure or
// weights file changes, until ctx is done. A reload that fails is logged and
// the previous bundle keeps serving.
func Watch(ctx context.Context, h *Holder, debounce time.Duration, log *slog.Logger) error {
	dir := h.Current().Dir

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating model watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching model dir: %w", err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case StructureFile, WeightsFile, VocabFile:
			default:
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			b, err := Load(dir)
			if err != nil {
				log.Warn("model reload failed, keeping previous model", "dir", dir, "error", err)
				continue
			}
			h.Swap(b)
			log.Info("model reloaded", "dir", dir, "fingerprint", shortFingerprint(b.Structure))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Warn("model watcher overflowed", "dir", dir)
				continue
			}
			return fmt.Errorf("model watcher: %w", err)
		}
	}
}

func shortFingerprint(s *Structure) string {
	fp, err := s.Fingerprint()
	if err != nil || len(fp) < 12 {
		return fp
	}
	return fp[:12]
}
