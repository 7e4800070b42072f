// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - External-edit detection for the public partition.
//
// The public file is hand-editable, so the dashboard watches it and
// reloads the manager when an operator edits it out-of-band. The encrypted
// partition and salt are deliberately not reload triggers: the application
// is the only legitimate writer of those, and its own writes already
// update the snapshot.
package secureconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces editor write bursts (most editors emit
// several events per save) into a single reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads a Manager when the public partition file changes on
// disk.
type Watcher struct {
	mgr      *Manager
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// OnReload, if set, runs after each successful reload. OnError receives
	// reload failures; a failed reload keeps the previous snapshot.
	OnReload func()
	OnError  func(err error)
}

// NewWatcher creates a watcher over the manager's public file.
func NewWatcher(mgr *Manager, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		mgr:      mgr,
		watcher:  fsw,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching and returns immediately. Events are processed on
// background goroutines until Close.
func (w *Watcher) Watch() error {
	// Watch the directory, not the file: atomic replaces (temp + rename)
	// swap the inode, and a watch on the old inode would go silent after
	// the first save.
	if err := w.watcher.Add(w.mgr.Paths().Dir); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()
	return nil
}

func (w *Watcher) processEvents() {
	target := filepath.Base(w.mgr.Paths().PublicFile)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

func (w *Watcher) processPending() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if !due {
				continue
			}
			if err := w.mgr.Reload(); err != nil {
				if w.OnError != nil {
					w.OnError(err)
				}
				continue
			}
			if w.OnReload != nil {
				w.OnReload()
			}
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}
