// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		buf  string
		want []Decl
	}{
		{
			name: "helloworld",
			buf: `
#include <stdio.h>

int main(int arg, char *argv[]) {
  printf("hello, world\n");
}
`,
			want: []Decl{
				{Kind: DeclInclude, Line: 2, Path: "stdio.h", Angled: true},
			},
		},
		{
			name: "primary-interface",
			buf: `module;
#include "config.h"
export module math;

export import :ops;
import std.core;
import <vector>;
import "util.h";

export int add(int a, int b);
`,
			want: []Decl{
				{Kind: DeclInclude, Line: 2, Path: "config.h"},
				{Kind: DeclModule, Line: 3, Export: true, Module: "math"},
				{Kind: DeclImport, Line: 5, Export: true, Partition: "ops"},
				{Kind: DeclImport, Line: 6, Module: "std.core"},
				{Kind: DeclHeaderImport, Line: 7, Path: "vector", Angled: true},
				{Kind: DeclHeaderImport, Line: 8, Path: "util.h"},
			},
		},
		{
			name: "partitions",
			buf: `export module math : ops;
import math:detail;
`,
			want: []Decl{
				{Kind: DeclModule, Line: 1, Export: true, Module: "math", Partition: "ops"},
				{Kind: DeclImport, Line: 2, Module: "math", Partition: "detail"},
			},
		},
		{
			name: "implementation",
			buf: `module math;

module :private;
`,
			want: []Decl{
				{Kind: DeclModule, Line: 1, Module: "math"},
			},
		},
		{
			name: "comments",
			buf: `// import commented;
/* export module hidden;
   import hidden2;
*/ import visible;
#include "a.h" // trailing
# include <b.h>
`,
			want: []Decl{
				{Kind: DeclImport, Line: 4, Module: "visible"},
				{Kind: DeclInclude, Line: 5, Path: "a.h"},
				{Kind: DeclInclude, Line: 6, Path: "b.h", Angled: true},
			},
		},
		{
			name: "multiline",
			buf: `export
module
  foo.bar;
import baz [[deprecated]];
`,
			want: []Decl{
				{Kind: DeclModule, Line: 1, Export: true, Module: "foo.bar"},
				{Kind: DeclImport, Line: 4, Module: "baz"},
			},
		},
		{
			name: "utf8-bom",
			buf:  "\ufeffexport module A;\nimport B;\n",
			want: []Decl{
				{Kind: DeclModule, Line: 1, Export: true, Module: "A"},
				{Kind: DeclImport, Line: 2, Module: "B"},
			},
		},
		{
			name: "not-declarations",
			buf: `int import = 1;
import = 2;
export namespace ns { int x; }
exported_module m;
#include_next <foo.h>
#include FOO_H
#include "unclosed.h
#define X 1
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Scan(ctx, tc.name, []byte(tc.buf))
			if err != nil {
				t.Fatalf("Scan(ctx,%q,buf)=%v, %v; want nil error", tc.name, got, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Scan(ctx,%q,buf) diff -want +got:\n%s", tc.name, diff)
			}
		})
	}
}

func TestScan_SyntaxError(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		buf  string
	}{
		{
			name: "export-module-without-name",
			buf:  "export module;\n",
		},
		{
			name: "partition-without-module",
			buf:  "export module :part;\n",
		},
		{
			name: "malformed-name",
			buf:  "\n\nexport module 3d;\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Scan(ctx, tc.name, []byte(tc.buf))
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("Scan(ctx,%q,buf)=%v, %v; want SyntaxError", tc.name, got, err)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{
			input: "a // b\nc",
			want:  "a     \nc",
		},
		{
			input: "a /* b\n c */ d",
			want:  "a     \n      d",
		},
		{
			input: "a /* unterminated",
			want:  "a                ",
		},
		{
			input: "a / b * c",
			want:  "a / b * c",
		},
	} {
		got := string(StripComments([]byte(tc.input)))
		if got != tc.want {
			t.Errorf("StripComments(%q)=%q; want %q", tc.input, got, tc.want)
		}
	}
}

func TestScanFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fname := filepath.Join(dir, "a.cppm")
	err := os.WriteFile(fname, []byte("export module a;\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ScanFile(ctx, fname)
	if err != nil {
		t.Fatalf("ScanFile(ctx,%q)=%v, %v; want nil error", fname, got, err)
	}
	want := []Decl{{Kind: DeclModule, Line: 1, Export: true, Module: "a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScanFile(ctx,%q) diff -want +got:\n%s", fname, diff)
	}

	_, err = ScanFile(ctx, filepath.Join(dir, "missing.cppm"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ScanFile(ctx, missing)=_, %v; want %v", err, os.ErrNotExist)
	}
}

func TestDeclString(t *testing.T) {
	for _, tc := range []struct {
		d    Decl
		want string
	}{
		{d: Decl{Kind: DeclModule, Export: true, Module: "a", Partition: "p"}, want: "export module a:p;"},
		{d: Decl{Kind: DeclImport, Partition: "p"}, want: "import :p;"},
		{d: Decl{Kind: DeclHeaderImport, Path: "vector", Angled: true}, want: "import <vector>;"},
		{d: Decl{Kind: DeclInclude, Path: "a.h"}, want: `#include "a.h"`},
	} {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("%#v.String()=%q; want %q", tc.d, got, tc.want)
		}
	}
}
