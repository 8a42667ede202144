// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
)

// fileLoader is a Starlark module loader for files next to the config.
type fileLoader struct {
	dir         string
	predeclared starlark.StringDict

	cache map[string]*loadEntry
}

// loadEntry is a loaded module, or nil globals while loading.
type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// Load loads a Starlark module.
// A module is a slash path relative to the directory of the config.
func (l *fileLoader) Load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	fname := filepath.Join(l.dir, filepath.FromSlash(module))
	e, ok := l.cache[fname]
	if ok {
		if e == nil {
			return nil, fmt.Errorf("cycle in load graph: %s", module)
		}
		return e.globals, e.err
	}
	log.Debugf("load %s from %s", fname, thread.Name)
	l.cache[fname] = nil
	buf, err := os.ReadFile(fname)
	if err != nil {
		err = fmt.Errorf("failed to load %s: %w", module, err)
		l.cache[fname] = &loadEntry{err: err}
		return nil, err
	}
	t := &starlark.Thread{
		Name: "module " + module,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: l.Load,
	}
	globals, err := starlark.ExecFile(t, fname, buf, l.predeclared)
	l.cache[fname] = &loadEntry{globals: globals, err: err}
	return globals, err
}
