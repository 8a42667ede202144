// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func batchIDs(batches [][]*Unit) [][]string {
	var ids [][]string
	for _, b := range batches {
		var bids []string
		for _, u := range b {
			bids = append(bids, filepath.ToSlash(u.ID))
		}
		ids = append(ids, bids)
	}
	return ids
}

func TestSchedule(t *testing.T) {
	for _, tc := range []struct {
		name  string
		files memFiles
		want  [][]string
	}{
		{
			name: "helloworld",
			files: memFiles{
				"a.cppm":    "export module A;\nexport import :p1;\nimport <iostream>;\n",
				"a_p1.cppm": "export module A:p1;\n",
				"a.cpp":     "module A;\n",
				"main.cpp":  "import A;\n",
			},
			want: [][]string{
				{"a_p1.cppm", "sys:iostream"},
				{"a.cppm"},
				{"a.cpp", "main.cpp"},
			},
		},
		{
			name: "header-unit-before-importer",
			files: memFiles{
				"hu.h":     "#include \"x.h\"\n",
				"x.h":      "",
				"main.cpp": "import \"hu.h\";\n",
			},
			want: [][]string{
				{"x.h"},
				{"hu.h"},
				{"main.cpp"},
			},
		},
		{
			name: "maximal",
			files: memFiles{
				"a.cppm": "export module A;\n",
				"b.cppm": "export module B;\nimport A;\n",
				"c.cppm": "export module C;\nimport A;\n",
				"d.cppm": "export module D;\nimport B;\nimport C;\n",
				"e.cpp":  "import A;\n",
				"f.cpp":  "",
			},
			want: [][]string{
				{"a.cppm", "f.cpp"},
				{"b.cppm", "c.cppm", "e.cpp"},
				{"d.cppm"},
			},
		},
		{
			name: "empty",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			g, err := build(t, tc.files, Options{})
			if err != nil {
				t.Fatalf("Build=%v; want nil err", err)
			}
			batches, err := g.Schedule(ctx)
			if err != nil {
				t.Fatalf("Schedule=%v; want nil err", err)
			}
			if diff := cmp.Diff(tc.want, batchIDs(batches)); diff != "" {
				t.Errorf("Schedule diff -want +got:\n%s", diff)
			}
			checkSchedule(t, g, batches)
		})
	}
}

// checkSchedule checks batches cover all units exactly once, and every
// dependency is in an earlier batch.
func checkSchedule(t *testing.T, g *Graph, batches [][]*Unit) {
	t.Helper()
	batchOf := make(map[*Unit]int)
	for i, b := range batches {
		for _, u := range b {
			if j, ok := batchOf[u]; ok {
				t.Errorf("%s in batch %d and %d", u, j, i)
			}
			batchOf[u] = i
		}
	}
	for _, u := range g.Units() {
		bu, ok := batchOf[u]
		if !ok {
			t.Errorf("%s not scheduled", u)
			continue
		}
		for _, d := range g.Deps(u) {
			if bd := batchOf[d]; bd >= bu {
				t.Errorf("%s (batch %d) depends on %s (batch %d)", u, bu, d, bd)
			}
		}
	}
	if len(batchOf) != len(g.Units()) {
		t.Errorf("scheduled %d units; want %d", len(batchOf), len(g.Units()))
	}
}

func TestSchedule_cycle(t *testing.T) {
	for _, tc := range []struct {
		name      string
		files     memFiles
		wantCycle []string
	}{
		{
			name: "modules",
			files: memFiles{
				"a.cppm":   "export module A;\nimport B;\n",
				"b.cppm":   "export module B;\nimport A;\n",
				"main.cpp": "import A;\n",
			},
			wantCycle: []string{"a.cppm", "b.cppm", "a.cppm"},
		},
		{
			name: "self-include",
			files: memFiles{
				"ok.cpp": "",
				"x.h":    "#include \"x.h\"\n",
			},
			wantCycle: []string{"x.h", "x.h"},
		},
		{
			name: "headers",
			files: memFiles{
				"a.h":    "#include \"b.h\"\n",
				"b.h":    "#include \"c.h\"\n",
				"c.h":    "#include \"b.h\"\n",
				"main.c": "#include \"a.h\"\n",
			},
			wantCycle: []string{"b.h", "c.h", "b.h"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			g, err := build(t, tc.files, Options{})
			if err != nil {
				t.Fatalf("Build=%v; want nil err", err)
			}
			batches, err := g.Schedule(ctx)
			if !errors.Is(err, ErrCyclicDependency) {
				t.Fatalf("Schedule=%v, %v; want %v", batchIDs(batches), err, ErrCyclicDependency)
			}
			if batches != nil {
				t.Errorf("Schedule=%v; want nil", batchIDs(batches))
			}
			var cerr *CycleError
			if !errors.As(err, &cerr) {
				t.Fatalf("Schedule=%v; want CycleError", err)
			}
			var got []string
			for _, id := range cerr.Cycle {
				got = append(got, filepath.ToSlash(id))
			}
			if diff := cmp.Diff(tc.wantCycle, got); diff != "" {
				t.Errorf("cycle diff -want +got:\n%s", diff)
			}
		})
	}
}
