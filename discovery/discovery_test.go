// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupFiles(t *testing.T, dir string, files []string) {
	t.Helper()
	for _, f := range files {
		fname := filepath.Join(dir, f)
		err := os.MkdirAll(filepath.Dir(fname), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(fname, nil, 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, []string{
		"main.cpp",
		"README.md",
		"src/a.cppm",
		"src/a.cpp",
		"src/util.h",
		"tests/a_test.cpp",
		"examples/tests/b.cpp",
		"obj/src/a.cpp.o",
	})

	for _, tc := range []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "default",
			opts: Options{
				Patterns: DefaultPatterns,
			},
			want: []string{
				"examples/tests/b.cpp",
				"main.cpp",
				"src/a.cpp",
				"src/a.cppm",
				"src/util.h",
				"tests/a_test.cpp",
			},
		},
		{
			name: "exclude",
			opts: Options{
				Patterns: DefaultPatterns,
				Exclude:  []string{"tests/*", "*.h"},
			},
			want: []string{
				"main.cpp",
				"src/a.cpp",
				"src/a.cppm",
			},
		},
		{
			name: "roots",
			opts: Options{
				Roots:    []string{"src", "main.cpp", "src/a.cpp"},
				Patterns: []string{"*.cpp", "*.cppm"},
			},
			want: []string{
				"main.cpp",
				"src/a.cpp",
				"src/a.cppm",
			},
		},
		{
			name: "file-not-matching",
			opts: Options{
				Roots:    []string{"README.md"},
				Patterns: DefaultPatterns,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.WorkDir = dir
			got, err := Find(ctx, tc.opts)
			if err != nil {
				t.Fatalf("Find(ctx, %#v)=%v, %v; want nil err", tc.opts, got, err)
			}
			var want []string
			for _, w := range tc.want {
				want = append(want, filepath.FromSlash(w))
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Find(ctx, %#v) diff -want +got:\n%s", tc.opts, diff)
			}
		})
	}
}

func TestFind_absolute(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupFiles(t, dir, []string{"a.cpp"})
	got, err := Find(ctx, Options{
		Patterns: DefaultPatterns,
		WorkDir:  dir,
		Absolute: true,
	})
	if err != nil {
		t.Fatalf("Find(ctx, absolute)=%v; want nil err", err)
	}
	abs, err := filepath.Abs(filepath.Join(dir, "a.cpp"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{abs}, got); diff != "" {
		t.Errorf("Find(ctx, absolute) diff -want +got:\n%s", diff)
	}
}

func TestFind_errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Find(ctx, Options{
		Roots:    []string{"nosuchdir"},
		Patterns: DefaultPatterns,
		WorkDir:  dir,
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Find(ctx, missing root)=%v; want %v", err, os.ErrNotExist)
	}

	outside := t.TempDir()
	setupFiles(t, outside, []string{"x.cpp"})
	_, err = Find(ctx, Options{
		Roots:    []string{outside},
		Patterns: DefaultPatterns,
		WorkDir:  dir,
	})
	if !errors.Is(err, ErrOutsideWorkDir) {
		t.Errorf("Find(ctx, outside root)=%v; want %v", err, ErrOutsideWorkDir)
	}

	_, err = Find(ctx, Options{
		Patterns: []string{"[*.cpp"},
		WorkDir:  dir,
	})
	if err == nil {
		t.Errorf("Find(ctx, bad pattern)=nil; want err")
	}
}

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		pattern, path string
		want          bool
	}{
		{"*.h", "foo.h", true},
		{"*.h", "src/foo.h", true},
		{"*.h", "src/foo.hpp", false},
		{"tests/*", "tests/a.cpp", true},
		{"tests/*", "examples/tests/a.cpp", true},
		{"tests/*", "tests/sub/a.cpp", false},
		{"tests/**", "tests/sub/a.cpp", true},
		{"/src/*.cpp", "/src/a.cpp", true},
		{"/src/*.cpp", "/x/src/a.cpp", false},
	} {
		got := Match(tc.pattern, tc.path)
		if got != tc.want {
			t.Errorf("Match(%q, %q)=%t; want %t", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestIsHeader(t *testing.T) {
	for _, tc := range []struct {
		path string
		want bool
	}{
		{"a.h", true},
		{"inc/a.hpp", true},
		{"a.hxx", true},
		{"a.cpp", false},
		{"a.cppm", false},
	} {
		got := IsHeader(tc.path, DefaultHeaders)
		if got != tc.want {
			t.Errorf("IsHeader(%q)=%t; want %t", tc.path, got, tc.want)
		}
	}
}
