// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build computes a build plan of C++20 modules and runs it.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/discovery"
	"go.chromium.org/infra/build/cxxmod/modgraph"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

// ErrOutsideWorkDir is an error when relative path rendering is requested
// but a path is not under the working directory.
var ErrOutsideWorkDir = discovery.ErrOutsideWorkDir

// Defaults of Options.
const (
	DefaultCompiler    = "g++"
	DefaultObjDir      = "obj"
	DefaultModuleCache = "gcm.cache"
	DefaultExe         = "myproj"
)

// Outputs are artifacts to link.
type Outputs struct {
	// StaticLib is a static library name, e.g. "libabc.a".
	StaticLib string
	// SharedLib is a shared library name, e.g. "libabc.so".
	SharedLib string
	// Exe is an executable name.
	Exe string
}

// IsEmpty reports whether no output is requested.
func (o Outputs) IsEmpty() bool {
	return o.StaticLib == "" && o.SharedLib == "" && o.Exe == ""
}

// Options is options of the Planner.
type Options struct {
	// WorkDir is the working directory where commands run.
	// Paths are rendered relative to WorkDir unless Absolute.
	// It must be set.
	WorkDir string

	// Absolute renders paths as absolute paths.
	Absolute bool

	// HeaderPatterns are patterns of header files.
	HeaderPatterns []string

	// IncludeDirs are directories to search headers.
	IncludeDirs []string

	// Compiler is a compiler command. Default is "g++".
	Compiler string

	// Flags are additional flags to all compile and link commands.
	Flags []string

	// ObjDir is a directory for object files. Default is "obj".
	ObjDir string

	// ModuleCache is a compiler's module cache directory.
	// Default is "gcm.cache".
	ModuleCache string

	// Outputs are artifacts to link.
	// Default is an executable "myproj".
	Outputs Outputs

	// ReadFile reads a source file. fname is a rendered path.
	// Default reads relative paths from WorkDir.
	ReadFile func(ctx context.Context, fname string) ([]byte, error)
}

// Planner computes a build plan.
type Planner struct {
	opts   Options
	wd     string
	objDir string
	cache  string
}

// NewPlanner creates a new planner.
// It returns error wrapping ErrOutsideWorkDir if paths in opts can't be
// rendered relative to the working directory.
func NewPlanner(opts Options) (*Planner, error) {
	if opts.Compiler == "" {
		opts.Compiler = DefaultCompiler
	}
	if opts.ObjDir == "" {
		opts.ObjDir = DefaultObjDir
	}
	if opts.ModuleCache == "" {
		opts.ModuleCache = DefaultModuleCache
	}
	if opts.Outputs.IsEmpty() {
		opts.Outputs.Exe = DefaultExe
	}
	if opts.WorkDir == "" {
		return nil, errors.New("work dir is not set")
	}
	wd, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	p := &Planner{
		opts: opts,
		wd:   wd,
	}
	if p.opts.ReadFile == nil {
		p.opts.ReadFile = p.readFile
	}
	p.objDir, err = p.render(opts.ObjDir)
	if err != nil {
		return nil, fmt.Errorf("object dir: %w", err)
	}
	p.cache, err = p.render(opts.ModuleCache)
	if err != nil {
		return nil, fmt.Errorf("module cache: %w", err)
	}
	var dirs []string
	for _, dir := range opts.IncludeDirs {
		d, err := p.render(dir)
		if err != nil {
			return nil, fmt.Errorf("include dir: %w", err)
		}
		dirs = append(dirs, d)
	}
	p.opts.IncludeDirs = dirs
	return p, nil
}

// render renders path p relative to the working directory or absolute.
func (p *Planner) render(fname string) (string, error) {
	if p.opts.Absolute {
		if filepath.IsAbs(fname) {
			return filepath.Clean(fname), nil
		}
		return filepath.Join(p.wd, fname), nil
	}
	return discovery.Rel(p.wd, fname)
}

// readFile reads fname, relative to the working directory unless absolute.
func (p *Planner) readFile(ctx context.Context, fname string) ([]byte, error) {
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(p.wd, fname)
	}
	return os.ReadFile(fname)
}

// objPath returns an object path for the source path.
func (p *Planner) objPath(src string) string {
	if filepath.IsAbs(src) {
		src = strings.TrimPrefix(src, filepath.VolumeName(src))
		src = strings.TrimLeft(src, `/\`)
	}
	return filepath.Join(p.objDir, src) + ".o"
}

// Plan computes a build plan for paths.
// It returns error if any of the modgraph errors is detected, and no
// partial plan is returned.
func (p *Planner) Plan(ctx context.Context, paths []string) (*Plan, error) {
	ctx, span := trace.NewSpan(ctx, "plan")
	var err error
	defer func() { span.Close(err) }()

	var srcs []string
	for _, path := range paths {
		var s string
		s, err = p.render(path)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, s)
	}
	var g *modgraph.Graph
	g, err = modgraph.NewBuilder(modgraph.Options{
		HeaderPatterns: p.opts.HeaderPatterns,
		IncludeDirs:    p.opts.IncludeDirs,
		ReadFile:       p.opts.ReadFile,
	}).Build(ctx, srcs)
	if err != nil {
		return nil, err
	}
	var batches [][]*modgraph.Unit
	batches, err = g.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		WorkDir: p.wd,
		Graph:   g,
		Batches: batches,
	}
	p.emit(ctx, plan)
	if log.V(1) {
		clog.Infof(ctx, "plan: %d units %d batches %d commands", len(g.Units()), len(batches), plan.NumCommands())
	}
	span.SetAttr("units", len(g.Units()))
	span.SetAttr("batches", len(batches))
	return plan, nil
}
