// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package discovery finds candidate C++ source files.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

// Default patterns.
var (
	DefaultPatterns = []string{"*.h", "*.c", "*.hxx", "*.cxx", "*.ixx", "*.mxx", "*.hpp", "*.cpp", "*.cppm"}
	DefaultHeaders  = []string{"*.h", "*.hpp", "*.hxx"}
)

// Options is options to find source files.
type Options struct {
	// Roots are files or directories to inspect.
	// Directories are inspected recursively. Default is ".".
	// Relative roots are relative to WorkDir.
	Roots []string

	// Patterns selects files to inspect. Patterns are matched against
	// paths relative to WorkDir. See Match.
	Patterns []string

	// Exclude rejects files matched by Patterns.
	Exclude []string

	// WorkDir is the directory paths are rendered relative to.
	WorkDir string

	// Absolute renders paths as absolute paths.
	Absolute bool
}

// Find returns paths of source files under roots in lexical order.
func Find(ctx context.Context, opts Options) ([]string, error) {
	ctx, span := trace.NewSpan(ctx, "discovery")
	defer span.Close(nil)

	for _, pats := range [][]string{opts.Patterns, opts.Exclude} {
		err := ValidatePatterns(pats)
		if err != nil {
			return nil, err
		}
	}
	wd, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) error {
		mp := p
		if rel, err := Rel(wd, p); err == nil {
			mp = rel
		}
		if !matchAny(opts.Patterns, mp) || matchAny(opts.Exclude, mp) {
			if log.V(2) {
				clog.Infof(ctx, "skip %s", p)
			}
			return nil
		}
		rp, err := render(wd, p, opts.Absolute)
		if err != nil {
			return err
		}
		if seen[rp] {
			return nil
		}
		seen[rp] = true
		paths = append(paths, rp)
		return nil
	}
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(wd, root)
		}
		root = filepath.Clean(root)
		fi, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("source root %q: %w", root, err)
		}
		if !fi.IsDir() {
			err = add(root)
			if err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return add(p)
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", root, err)
		}
	}
	slices.Sort(paths)
	span.SetAttr("files", len(paths))
	clog.Infof(ctx, "found %d source files in %q", len(paths), roots)
	return paths, nil
}

// IsHeader reports whether path matches header patterns.
func IsHeader(path string, headerPatterns []string) bool {
	return matchAny(headerPatterns, path)
}

// ValidatePatterns checks that every pattern is a valid doublestar glob.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// Match reports whether path matches pattern.
// A pattern without '/' is matched against the base name,
// otherwise against any trailing path components of path.
func Match(pattern, path string) bool {
	path = filepath.ToSlash(path)
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, pathBase(path))
		return ok
	}
	if ok, _ := doublestar.Match(pattern, path); ok {
		return true
	}
	if strings.HasPrefix(pattern, "/") {
		return false
	}
	ok, _ := doublestar.Match("**/"+pattern, path)
	return ok
}

func matchAny(patterns []string, path string) bool {
	for _, pat := range patterns {
		if Match(pat, path) {
			return true
		}
	}
	return false
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ErrOutsideWorkDir is an error when a path can't be rendered relative
// to the working directory.
var ErrOutsideWorkDir = errors.New("outside of working directory")

func render(wd, p string, absolute bool) (string, error) {
	if absolute {
		return p, nil
	}
	return Rel(wd, p)
}

// Rel returns p relative to wd, or error wrapping ErrOutsideWorkDir
// if p is not under wd.
func Rel(wd, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(wd, p)
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideWorkDir)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s not in %s: %w", p, wd, ErrOutsideWorkDir)
	}
	return rel, nil
}
