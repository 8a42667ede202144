// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/cxxmod/discovery"
)

// memFiles is in-memory source files.
type memFiles map[string]string

func (m memFiles) paths() []string {
	var paths []string
	for p := range m {
		paths = append(paths, filepath.FromSlash(p))
	}
	sort.Strings(paths)
	return paths
}

func (m memFiles) readFile(ctx context.Context, fname string) ([]byte, error) {
	s, ok := m[filepath.ToSlash(fname)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: fname, Err: fs.ErrNotExist}
	}
	return []byte(s), nil
}

func build(t *testing.T, files memFiles, opts Options) (*Graph, error) {
	t.Helper()
	opts.ReadFile = files.readFile
	if opts.HeaderPatterns == nil {
		opts.HeaderPatterns = discovery.DefaultHeaders
	}
	return NewBuilder(opts).Build(context.Background(), files.paths())
}

type unitInfo struct {
	ID     string
	Kind   Kind
	Module string
	Deps   []string
}

func graphInfo(g *Graph) []unitInfo {
	var infos []unitInfo
	for _, u := range g.Units() {
		var deps []string
		for _, d := range g.Deps(u) {
			deps = append(deps, filepath.ToSlash(d.ID))
		}
		infos = append(infos, unitInfo{
			ID:     filepath.ToSlash(u.ID),
			Kind:   u.Kind,
			Module: u.ModuleName(),
			Deps:   deps,
		})
	}
	return infos
}

func TestBuild(t *testing.T) {
	for _, tc := range []struct {
		name  string
		files memFiles
		opts  Options
		want  []unitInfo
	}{
		{
			name: "module-kinds",
			files: memFiles{
				"a.cppm": `export module A;
export import :p1;
import <iostream>;
`,
				"a_p1.cppm": `export module A:p1;
export int f();
`,
				"a.cpp": `module A;
int f() { return 1; }
`,
				"main.cpp": `import A;
int main() { return f(); }
`,
			},
			want: []unitInfo{
				{ID: "a.cpp", Kind: ModuleUnit, Module: "A", Deps: []string{"a.cppm"}},
				{ID: "a.cppm", Kind: PrimaryModuleInterface, Module: "A", Deps: []string{"a_p1.cppm", "sys:iostream"}},
				{ID: "a_p1.cppm", Kind: ModulePartitionInterface, Module: "A:p1"},
				{ID: "main.cpp", Kind: GlobalUnit, Deps: []string{"a.cppm"}},
				{ID: "sys:iostream", Kind: SystemHeaderUnit},
			},
		},
		{
			name: "partitions",
			files: memFiles{
				"m.ixx": `export module M;
export import :iface;
import :impl;
`,
				"m-iface.ixx": `export module M:iface;
import :impl;
`,
				"m-impl.cpp": `module M:impl;
`,
			},
			want: []unitInfo{
				{ID: "m-iface.ixx", Kind: ModulePartitionInterface, Module: "M:iface", Deps: []string{"m-impl.cpp"}},
				{ID: "m-impl.cpp", Kind: ModulePartition, Module: "M:impl"},
				{ID: "m.ixx", Kind: PrimaryModuleInterface, Module: "M", Deps: []string{"m-iface.ixx", "m-impl.cpp"}},
			},
		},
		{
			name: "headers",
			files: memFiles{
				"main.cpp": `#include "inc/util.h"
#include <vector>
import "hu.h";
import <string>;
int main() {}
`,
				"inc/util.h":  `#include "detail.h"` + "\n",
				"inc/detail.h": "",
				"hu.h":         `#include "inc/util.h"` + "\n",
				"unused.hpp":   "",
				"both.h":       "",
				"x.cpp": `#include "both.h"
import "both.h";
import <vector>;
`,
			},
			want: []unitInfo{
				{ID: "both.h", Kind: HeaderUnit},
				{ID: "hu.h", Kind: HeaderUnit, Deps: []string{"inc/util.h"}},
				{ID: "inc/detail.h", Kind: Header},
				{ID: "inc/util.h", Kind: Header, Deps: []string{"inc/detail.h"}},
				{ID: "main.cpp", Kind: GlobalUnit, Deps: []string{"inc/util.h", "sys:vector", "hu.h", "sys:string"}},
				{ID: "unused.hpp", Kind: Header},
				{ID: "x.cpp", Kind: GlobalUnit, Deps: []string{"both.h", "sys:vector"}},
				{ID: "sys:vector", Kind: SystemHeaderUnit},
				{ID: "sys:string", Kind: SystemHeaderUnit},
			},
		},
		{
			name: "include-dirs",
			files: memFiles{
				"src/main.cpp":      "#include \"lib.h\"\n#include <cfg.h>\n#include <cstdio>\n",
				"include/lib.h":     "",
				"include/cfg.h":     "",
				"src/lib.h":         "",
				"third_party/cfg.h": "",
			},
			opts: Options{
				IncludeDirs: []string{"include", "third_party"},
			},
			want: []unitInfo{
				{ID: "include/cfg.h", Kind: Header},
				{ID: "include/lib.h", Kind: Header},
				{ID: "src/lib.h", Kind: Header},
				{ID: "src/main.cpp", Kind: GlobalUnit, Deps: []string{"src/lib.h", "include/cfg.h", "sys:cstdio"}},
				{ID: "third_party/cfg.h", Kind: Header},
				{ID: "sys:cstdio", Kind: Header},
			},
		},
		{
			name: "utf8-bom",
			files: memFiles{
				"a.cppm":   "\ufeffexport module A;\n",
				"main.cpp": "\ufeffimport A;\n",
			},
			want: []unitInfo{
				{ID: "a.cppm", Kind: PrimaryModuleInterface, Module: "A"},
				{ID: "main.cpp", Kind: GlobalUnit, Deps: []string{"a.cppm"}},
			},
		},
		{
			name: "header-unit-without-header-pattern",
			files: memFiles{
				"gen.inc":  "",
				"main.cpp": "import \"gen.inc\";\n#include \"tbl.inc\"\n",
				"tbl.inc":  "",
			},
			want: []unitInfo{
				{ID: "gen.inc", Kind: HeaderUnit},
				{ID: "main.cpp", Kind: GlobalUnit, Deps: []string{"gen.inc", "tbl.inc"}},
				{ID: "tbl.inc", Kind: Header},
			},
		},
		{
			name: "module-imported-by-path",
			files: memFiles{
				"a.cppm":   "export module A;\n",
				"main.cpp": "import \"a.cppm\";\n",
			},
			want: []unitInfo{
				{ID: "a.cppm", Kind: PrimaryModuleInterface, Module: "A"},
				{ID: "main.cpp", Kind: GlobalUnit, Deps: []string{"a.cppm"}},
			},
		},
		{
			name: "duplicate-imports",
			files: memFiles{
				"a.cppm": "export module A;\n",
				"b.cpp":  "import A;\nimport A;\nexport import A;\n",
			},
			want: []unitInfo{
				{ID: "a.cppm", Kind: PrimaryModuleInterface, Module: "A"},
				{ID: "b.cpp", Kind: GlobalUnit, Deps: []string{"a.cppm"}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, err := build(t, tc.files, tc.opts)
			if err != nil {
				t.Fatalf("Build=%v; want nil err", err)
			}
			if diff := cmp.Diff(tc.want, graphInfo(g)); diff != "" {
				t.Errorf("Build diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestBuild_errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		files   memFiles
		wantErr error
	}{
		{
			name: "duplicate-module",
			files: memFiles{
				"x1.cppm": "export module X;\n",
				"x2.cppm": "export module X;\n",
			},
			wantErr: ErrDuplicateModuleDefinition,
		},
		{
			name: "duplicate-partition",
			files: memFiles{
				"x.cppm":  "export module X;\n",
				"p1.cppm": "export module X:p;\n",
				"p2.cpp":  "module X:p;\n",
			},
			wantErr: ErrDuplicateModuleDefinition,
		},
		{
			name: "conflicting-module-decls",
			files: memFiles{
				"a.cppm": "export module A;\nmodule B;\n",
			},
			wantErr: ErrUnparsableDeclaration,
		},
		{
			name: "malformed-module-decl",
			files: memFiles{
				"a.cppm": "export module;\n",
			},
			wantErr: ErrUnparsableDeclaration,
		},
		{
			name: "partition-import-outside-module",
			files: memFiles{
				"a.cpp": "import :p;\n",
			},
			wantErr: ErrUnparsableDeclaration,
		},
		{
			name: "unresolved-module",
			files: memFiles{
				"a.cpp": "import B;\n",
			},
			wantErr: ErrUnresolvedImport,
		},
		{
			name: "unresolved-partition",
			files: memFiles{
				"a.cppm": "export module A;\nimport :q;\n",
			},
			wantErr: ErrUnresolvedImport,
		},
		{
			name: "unresolved-quoted",
			files: memFiles{
				"a.cpp": "#include \"missing.h\"\n",
			},
			wantErr: ErrUnresolvedImport,
		},
		{
			name: "module-unit-without-interface",
			files: memFiles{
				"a.cpp": "module A;\n",
			},
			wantErr: ErrUnresolvedImport,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, err := build(t, tc.files, Options{})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Build=%v, %v; want %v", g, err, tc.wantErr)
			}
			if g != nil {
				t.Errorf("Build=%v; want nil graph", g)
			}
		})
	}
}

func TestBuild_duplicateModuleNamesFiles(t *testing.T) {
	files := memFiles{
		"x1.cppm": "export module X;\n",
		"x2.cppm": "export module X;\n",
	}
	_, err := build(t, files, Options{})
	var derr *DuplicateModuleError
	if !errors.As(err, &derr) {
		t.Fatalf("Build=%v; want DuplicateModuleError", err)
	}
	want := &DuplicateModuleError{Module: "X", Paths: []string{"x1.cppm", "x2.cppm"}}
	if diff := cmp.Diff(want, derr); diff != "" {
		t.Errorf("DuplicateModuleError diff -want +got:\n%s", diff)
	}
}

func TestBuild_unreadableFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "a.cpp")
	err := os.WriteFile(fname, []byte("import B;\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.cpp")
	_, err = NewBuilder(Options{}).Build(context.Background(), []string{fname, missing})
	if !errors.Is(err, ErrUnreadableFile) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Build=%v; want %v and %v", err, ErrUnreadableFile, fs.ErrNotExist)
	}
	var uerr *UnreadableFileError
	if !errors.As(err, &uerr) || uerr.Path != missing {
		t.Errorf("Build=%v; want UnreadableFileError for %s", err, missing)
	}
}

func TestKind(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range Kinds() {
		s := k.String()
		if seen[s] {
			t.Errorf("duplicate kind name %q", s)
		}
		seen[s] = true
		got, err := ParseKind(s)
		if err != nil || got != k {
			t.Errorf("ParseKind(%q)=%v, %v; want %v", s, got, err, k)
		}
	}
	if len(seen) != 8 {
		t.Errorf("len(Kinds())=%d; want 8", len(seen))
	}
	_, err := ParseKind("module")
	if err == nil {
		t.Errorf("ParseKind(%q)=nil err; want err", "module")
	}
	if got, want := Kind(0).String(), "kind(0)"; got != want {
		t.Errorf("Kind(0).String()=%q; want %q", got, want)
	}
	for k, want := range map[Kind]bool{
		PrimaryModuleInterface: true,
		GlobalUnit:             true,
		HeaderUnit:             false,
		SystemHeaderUnit:       false,
		Header:                 false,
	} {
		if got := k.ProducesObject(); got != want {
			t.Errorf("%v.ProducesObject()=%t; want %t", k, got, want)
		}
	}
	if Header.Compiled() || !HeaderUnit.Compiled() || !SystemHeaderUnit.Compiled() {
		t.Errorf("Compiled: header=%t header-unit=%t system-header-unit=%t; want false true true",
			Header.Compiled(), HeaderUnit.Compiled(), SystemHeaderUnit.Compiled())
	}
}

func ExampleKind_String() {
	fmt.Println(ModulePartitionInterface)
	// Output: module-partition-interface
}
