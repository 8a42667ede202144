// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/discovery"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
	"go.chromium.org/infra/build/cxxmod/scandeps"
)

// Options is options for Builder.
type Options struct {
	// HeaderPatterns are patterns of header files.
	// Files matching them and not declaring a module are not compiled
	// unless imported as header units.
	HeaderPatterns []string

	// IncludeDirs are directories to search quoted and angled headers,
	// in the same path form as the paths given to Build.
	IncludeDirs []string

	// ReadFile reads a source file. Default is os.ReadFile.
	ReadFile func(ctx context.Context, fname string) ([]byte, error)
}

// Builder builds a dependency graph.
type Builder struct {
	opts Options
}

// NewBuilder creates new builder.
func NewBuilder(opts Options) *Builder {
	if opts.ReadFile == nil {
		opts.ReadFile = func(ctx context.Context, fname string) ([]byte, error) {
			return os.ReadFile(fname)
		}
	}
	return &Builder{opts: opts}
}

// buildState is a state of Build.
type buildState struct {
	g *Graph

	// how headers are referenced.
	imported map[*Unit]bool
	included map[*Unit]bool
}

// Build scans paths and builds a classified dependency graph.
// paths are used as unit ids after filepath.Clean.
func (b *Builder) Build(ctx context.Context, paths []string) (*Graph, error) {
	ctx, span := trace.NewSpan(ctx, "build-graph")
	var err error
	defer func() { span.Close(err) }()

	st := &buildState{
		g:        newGraph(),
		imported: make(map[*Unit]bool),
		included: make(map[*Unit]bool),
	}
	err = b.scan(ctx, st, paths)
	if err != nil {
		return nil, err
	}
	err = b.register(ctx, st)
	if err != nil {
		return nil, err
	}
	err = b.resolve(ctx, st)
	if err != nil {
		return nil, err
	}
	b.classify(ctx, st)
	span.SetAttr("units", len(st.g.units))
	span.SetAttr("edges", st.g.NumEdges())
	return st.g, nil
}

// scan reads all files, and sets module names and module kinds.
func (b *Builder) scan(ctx context.Context, st *buildState, paths []string) error {
	ctx, span := trace.NewSpan(ctx, "scan")
	defer span.Close(nil)
	for _, p := range paths {
		p = filepath.Clean(p)
		if st.g.byID[p] != nil {
			continue
		}
		buf, err := b.opts.ReadFile(ctx, p)
		if err != nil {
			return &UnreadableFileError{Path: p, Err: err}
		}
		decls, err := scandeps.Scan(ctx, p, buf)
		var serr *scandeps.SyntaxError
		if errors.As(err, &serr) {
			return &DeclarationError{
				Path: p,
				Line: serr.Line,
				Msg:  fmt.Sprintf("%s: %q", serr.Reason, serr.Text),
			}
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", p, err)
		}
		u := &Unit{
			ID:    p,
			Decls: decls,
		}
		err = setModule(u)
		if err != nil {
			return err
		}
		st.g.add(u)
	}
	span.SetAttr("files", len(st.g.units))
	return nil
}

// setModule sets module kind and name from module declaration of u.
func setModule(u *Unit) error {
	var modDecl *scandeps.Decl
	for i := range u.Decls {
		d := &u.Decls[i]
		if d.Kind != scandeps.DeclModule {
			continue
		}
		if modDecl != nil {
			return &DeclarationError{
				Path: u.ID,
				Line: d.Line,
				Msg:  fmt.Sprintf("conflicting module declaration %q; %q at line %d", d, modDecl, modDecl.Line),
			}
		}
		modDecl = d
	}
	if modDecl != nil {
		u.Module = modDecl.Module
		u.Partition = modDecl.Partition
		switch {
		case modDecl.Export && modDecl.Partition == "":
			u.Kind = PrimaryModuleInterface
		case modDecl.Export:
			u.Kind = ModulePartitionInterface
		case modDecl.Partition != "":
			u.Kind = ModulePartition
		default:
			u.Kind = ModuleUnit
		}
	}
	for _, d := range u.Decls {
		if d.Kind == scandeps.DeclImport && d.Module == "" && u.Module == "" {
			return &DeclarationError{
				Path: u.ID,
				Line: d.Line,
				Msg:  fmt.Sprintf("partition import %q outside of module", d),
			}
		}
	}
	return nil
}

// register registers module interfaces and partitions.
func (b *Builder) register(ctx context.Context, st *buildState) error {
	for _, u := range st.g.units {
		switch u.Kind {
		case PrimaryModuleInterface, ModulePartitionInterface, ModulePartition:
			err := st.g.reg.register(u)
			if err != nil {
				return err
			}
			if log.V(1) {
				clog.Infof(ctx, "register module %s: %s", u.ModuleName(), u.ID)
			}
		}
	}
	return nil
}

// resolve adds edges for declarations.
func (b *Builder) resolve(ctx context.Context, st *buildState) error {
	ctx, span := trace.NewSpan(ctx, "resolve")
	defer span.Close(nil)
	// st.g.units grows with synthetic units, which have no declarations.
	files := st.g.units
	for _, u := range files {
		if u.Kind == ModuleUnit {
			iface, ok := st.g.reg.Lookup(u.Module)
			if !ok {
				return &UnresolvedImportError{
					Path:   u.ID,
					Target: fmt.Sprintf("primary module interface of %s", u.Module),
				}
			}
			st.g.addEdge(u, iface)
		}
		for _, d := range u.Decls {
			var dep *Unit
			switch d.Kind {
			case scandeps.DeclModule:
				continue
			case scandeps.DeclImport:
				name := d.ModuleName()
				if d.Module == "" {
					name = u.Module + name
				}
				m, ok := st.g.reg.Lookup(name)
				if !ok {
					return &UnresolvedImportError{
						Path:   u.ID,
						Line:   d.Line,
						Target: name,
					}
				}
				dep = m
			case scandeps.DeclHeaderImport, scandeps.DeclInclude:
				h, err := b.resolveHeader(st, u, d)
				if err != nil {
					return err
				}
				dep = h
				if d.Kind == scandeps.DeclHeaderImport {
					st.imported[h] = true
				} else {
					st.included[h] = true
				}
			default:
				continue
			}
			if log.V(1) {
				clog.Infof(ctx, "%s:%d %s -> %s", u.ID, d.Line, d, dep.ID)
			}
			st.g.addEdge(u, dep)
		}
	}
	return nil
}

// resolveHeader resolves header name of d in u.
// Quoted names are searched in the directory of u and then include dirs.
// Angled names are searched in include dirs, and become a synthetic
// unit if not found.
func (b *Builder) resolveHeader(st *buildState, u *Unit, d scandeps.Decl) (*Unit, error) {
	var candidates []string
	if filepath.IsAbs(d.Path) {
		candidates = append(candidates, d.Path)
	} else {
		if !d.Angled {
			candidates = append(candidates, filepath.Join(filepath.Dir(u.ID), d.Path))
		}
		for _, dir := range b.opts.IncludeDirs {
			candidates = append(candidates, filepath.Join(dir, d.Path))
		}
	}
	for _, c := range candidates {
		if h := st.g.byID[filepath.Clean(c)]; h != nil {
			return h, nil
		}
	}
	if !d.Angled {
		return nil, &UnresolvedImportError{
			Path:   u.ID,
			Line:   d.Line,
			Target: d.HeaderName(),
		}
	}
	id := SysPrefix + d.Path
	if h := st.g.byID[id]; h != nil {
		return h, nil
	}
	h := &Unit{ID: id}
	st.g.add(h)
	return h, nil
}

// classify sets kinds of units that don't declare a module.
// import takes precedence over include, i.e. a header imported by
// `import "h";` anywhere is a header unit even if it is also included.
func (b *Builder) classify(ctx context.Context, st *buildState) {
	_, span := trace.NewSpan(ctx, "classify")
	defer span.Close(nil)
	for _, u := range st.g.units {
		if u.Kind.IsModule() {
			if st.imported[u] {
				if log.V(1) {
					clog.Infof(ctx, "%s: module %s imported as header unit", u.ID, u.ModuleName())
				}
			}
			continue
		}
		switch {
		case u.Synthetic() && st.imported[u]:
			u.Kind = SystemHeaderUnit
		case u.Synthetic():
			u.Kind = Header
		case st.imported[u]:
			// any `import "path";` target, regardless of header patterns.
			u.Kind = HeaderUnit
		case st.included[u] || discovery.IsHeader(u.ID, b.opts.HeaderPatterns):
			u.Kind = Header
		default:
			u.Kind = GlobalUnit
		}
		if log.V(1) {
			clog.Infof(ctx, "classify %s: %s", u.ID, u.Kind)
		}
	}
}
