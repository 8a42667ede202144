// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides project config for `cxxmod build`.
//
// A project config is a Starlark file (cxxmod.star by default) that
// defines `init(ctx)`. `init` returns `struct(...)` with any of the
// fields below.
//
//	compiler      string          compiler command, e.g. "clang++".
//	flags         string or list  additional flags to all commands.
//	patterns      list            patterns of files to inspect.
//	exclude       list            patterns of files to exclude.
//	headers       list            patterns of header files.
//	include_dirs  list            directories to search headers.
//	obj_dir       string          directory for object files.
//	module_cache  string          compiler's module cache directory.
//	lib           string          static library to create.
//	so            string          shared library to create.
//	exe           string          executable to create.
//
// `ctx` has `flags` (dict of command line flags), `runtime` (os, arch,
// num_cpu) and `path` (base, dir, ext, join, rel, isabs).
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/cxxmod/toolsupport/shutil"
)

// DefaultFilename is a config filename looked up in the working directory.
const DefaultFilename = "cxxmod.star"

const configEntryPoint = "init"

// Config is a project config.
// Empty fields are not set by the config.
type Config struct {
	Compiler    string
	Flags       []string
	Patterns    []string
	Exclude     []string
	Headers     []string
	IncludeDirs []string
	ObjDir      string
	ModuleCache string
	Lib         string
	SO          string
	Exe         string
}

// InitError is an error of running `init` in the config.
type InitError struct {
	fname string
	err   *starlark.EvalError
}

func (e InitError) Error() string {
	return fmt.Sprintf("failed to run %s in %s: %v", configEntryPoint, e.fname, e.err)
}

// Backtrace returns a Starlark backtrace of the error.
func (e InitError) Backtrace() string {
	return e.err.Backtrace()
}

func (e InitError) Unwrap() error {
	return e.err
}

// Load loads the config file fname, and runs its `init` with flags.
func Load(ctx context.Context, fname string, flags map[string]string) (*Config, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, fname, buf, flags)
}

// Parse parses the config src as fname, and runs its `init` with flags.
// `load` in src and loaded files is resolved relative to the directory
// of fname.
func Parse(ctx context.Context, fname string, src []byte, flags map[string]string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loader := &fileLoader{
		dir:         filepath.Dir(fname),
		predeclared: builtinModule(),
		cache:       make(map[string]*loadEntry),
	}
	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: loader.Load,
	}
	stop := cancelOnDone(ctx, thread)
	globals, err := starlark.ExecFile(thread, fname, src, loader.predeclared)
	stop()
	if err != nil {
		log.Warnf("thread:%s failed to exec file %s: %v", thread.Name, fname, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return nil, err
	}
	fun, ok := globals[configEntryPoint]
	if !ok {
		return nil, fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := fun.(starlark.Callable); !ok {
		return nil, fmt.Errorf("%s %s is not callable in %s", configEntryPoint, fun.Type(), fname)
	}

	thread = &starlark.Thread{
		Name: configEntryPoint,
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load is not allowed in %s", configEntryPoint)
		},
	}
	sflags, err := packFlags(flags)
	if err != nil {
		return nil, err
	}
	ictx := starlarkstruct.FromStringDict(starlark.String("ctx"), map[string]starlark.Value{
		"flags":   sflags,
		"runtime": loader.predeclared["runtime"],
		"path":    loader.predeclared["path"],
	})
	stop = cancelOnDone(ctx, thread)
	ret, err := starlark.Call(thread, fun, []starlark.Value{ictx}, nil)
	stop()
	if err != nil {
		log.Warnf("thread:%s failed to run %s: %v", thread.Name, configEntryPoint, err)
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
			return nil, InitError{fname: fname, err: eerr}
		}
		return nil, fmt.Errorf("failed to run %s in %s: %w", configEntryPoint, fname, err)
	}
	var attrs starlark.HasAttrs
	switch ret := ret.(type) {
	case *starlarkstruct.Struct:
		attrs = ret
	case *starlarkstruct.Module:
		attrs = ret
	default:
		return nil, fmt.Errorf("%s returned %s, want struct", configEntryPoint, ret.Type())
	}
	cfg, err := unpackConfig(attrs)
	if err != nil {
		return nil, fmt.Errorf("bad config in %s: %w", fname, err)
	}
	log.Infof("config %s: %+v", fname, cfg)
	return cfg, nil
}

// cancelOnDone cancels thread when ctx is done.
func cancelOnDone(ctx context.Context, thread *starlark.Thread) func() bool {
	return context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
}

// unpackConfig unpacks struct returned by `init`.
func unpackConfig(v starlark.HasAttrs) (*Config, error) {
	cfg := &Config{}
	strs := map[string]*string{
		"compiler":     &cfg.Compiler,
		"obj_dir":      &cfg.ObjDir,
		"module_cache": &cfg.ModuleCache,
		"lib":          &cfg.Lib,
		"so":           &cfg.SO,
		"exe":          &cfg.Exe,
	}
	lists := map[string]*[]string{
		"patterns":     &cfg.Patterns,
		"exclude":      &cfg.Exclude,
		"headers":      &cfg.Headers,
		"include_dirs": &cfg.IncludeDirs,
	}
	for _, name := range v.AttrNames() {
		attr, err := v.Attr(name)
		if err != nil {
			return nil, err
		}
		if attr == starlark.None {
			continue
		}
		switch {
		case strs[name] != nil:
			s, ok := starlark.AsString(attr)
			if !ok {
				return nil, fmt.Errorf("%s: got %s, want string", name, attr.Type())
			}
			*strs[name] = s
		case lists[name] != nil:
			l, err := unpackList(attr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			*lists[name] = l
		case name == "flags":
			if s, ok := starlark.AsString(attr); ok {
				cfg.Flags, err = shutil.SplitFlags(s)
			} else {
				cfg.Flags, err = unpackList(attr)
			}
			if err != nil {
				return nil, fmt.Errorf("flags: %w", err)
			}
		default:
			log.Warnf("unknown config field %q", name)
		}
	}
	return cfg, nil
}
