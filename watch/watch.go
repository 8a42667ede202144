// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package watch watches source files and notifies changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/discovery"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
)

// DefaultDebounce is a default quiet period after the last change.
const DefaultDebounce = 300 * time.Millisecond

// Options is options of the Watcher.
type Options struct {
	// Roots are directories to watch recursively. Default is WorkDir.
	Roots []string

	// WorkDir is a directory that changed paths are relative to.
	WorkDir string

	// Patterns select files to notify. See discovery.Match.
	// Empty patterns select all files.
	Patterns []string

	// Exclude are patterns of files and directories to ignore.
	// Hidden directories (e.g. .git) are always ignored.
	Exclude []string

	// Debounce is a quiet period after the last change before OnChange
	// is called. Default is DefaultDebounce.
	Debounce time.Duration

	// OnChange is called with changed paths relative to WorkDir in
	// sorted order. Changes while OnChange is running are notified by
	// the next call.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher watches files.
type Watcher struct {
	opts Options
	wd   string
	fsw  *fsnotify.Watcher

	// pending are changed paths not notified yet.
	pending map[string]bool
}

// New creates a new watcher and starts watching directories under roots.
func New(ctx context.Context, opts Options) (*Watcher, error) {
	for _, patterns := range [][]string{opts.Patterns, opts.Exclude} {
		err := discovery.ValidatePatterns(patterns)
		if err != nil {
			return nil, err
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	wd, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		opts:    opts,
		wd:      wd,
		fsw:     fsw,
		pending: make(map[string]bool),
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{wd}
	}
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(wd, root)
		}
		fi, err := os.Stat(root)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		if !fi.IsDir() {
			// watch the directory of the file.
			root = filepath.Dir(root)
		}
		err = w.addTree(ctx, root, false)
		if err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run runs OnChange for changes until ctx is done.
// It returns nil when ctx is done, or error of the watcher or OnChange.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if w.handle(ctx, ev) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				return fmt.Errorf("watcher error: %w", err)
			}
			// some events are lost. notify roots as changed.
			clog.Warningf(ctx, "watcher: %v", err)
			w.pending["."] = true
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(w.pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(w.pending))
			for p := range w.pending {
				changed = append(changed, p)
			}
			clear(w.pending)
			slices.Sort(changed)
			clog.Infof(ctx, "changed %d files: %q", len(changed), changed)
			if w.opts.OnChange == nil {
				continue
			}
			err := w.opts.OnChange(ctx, changed)
			if err != nil {
				return err
			}
		}
	}
}

// handle handles the event, and reports whether a path is marked as changed.
func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) bool {
	if log.V(2) {
		clog.Infof(ctx, "event %s", ev)
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		fi, err := os.Stat(ev.Name)
		if err == nil && fi.IsDir() {
			if w.ignoreDir(ev.Name) {
				return false
			}
			// files may be created before the directory is watched.
			n := len(w.pending)
			err := w.addTree(ctx, ev.Name, true)
			if err != nil {
				clog.Warningf(ctx, "failed to watch %s: %v", ev.Name, err)
			}
			return len(w.pending) > n
		}
	}
	rel, ok := w.match(ev.Name)
	if !ok {
		return false
	}
	w.pending[rel] = true
	return true
}

// addTree watches directories under root.
// If mark is true, files in the directories are marked as changed.
func (w *Watcher) addTree(ctx context.Context, root string, mark bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if !mark {
				return nil
			}
			if rel, ok := w.match(path); ok {
				w.pending[rel] = true
			}
			return nil
		}
		if path != root && w.ignoreDir(path) {
			return filepath.SkipDir
		}
		if log.V(1) {
			clog.Infof(ctx, "watch %s", path)
		}
		return w.fsw.Add(path)
	})
}

// rel returns a slash path of fname relative to the working directory.
func (w *Watcher) rel(fname string) string {
	rel, err := filepath.Rel(w.wd, fname)
	if err != nil {
		return filepath.ToSlash(fname)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignoreDir(dir string) bool {
	if strings.HasPrefix(filepath.Base(dir), ".") {
		return true
	}
	rel := w.rel(dir)
	return matchAny(w.opts.Exclude, rel)
}

// match returns a path relative to the working directory if fname is
// a file to notify.
func (w *Watcher) match(fname string) (string, bool) {
	rel := w.rel(fname)
	if matchAny(w.opts.Exclude, rel) {
		return "", false
	}
	if len(w.opts.Patterns) > 0 && !matchAny(w.opts.Patterns, rel) {
		return "", false
	}
	return filepath.FromSlash(rel), true
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if discovery.Match(pattern, p) {
			return true
		}
	}
	return false
}
