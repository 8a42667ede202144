// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/subcommands"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

func TestApplication(t *testing.T) {
	app := getApplication()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name())
	}
	want := []string{"build", "watch", "scandeps", "digraph", "help", "version"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("commands diff -want +got:\n%s", diff)
	}

	t.Setenv(traceIDEnv, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ctx := app.Context(context.Background())
	if trace.FromContext(ctx) == nil {
		t.Errorf("no trace context")
	}
	if got, want := trace.ID(ctx), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"; got != want {
		t.Errorf("trace.ID=%q; want %q", got, want)
	}
	if clog.FromContext(ctx) == clog.FromContext(context.Background()) {
		t.Errorf("clog logger is not set")
	}
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.cppm":   "export module A;\n",
		"main.cpp": "import A;\n",
		"b.cppm":   "export module B;\nimport C;\n",
		"c.cppm":   "export module C;\nimport B;\n",
	} {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	traceJSON := filepath.Join(t.TempDir(), "trace.json")
	for _, tc := range []struct {
		args []string
		want int
	}{
		{
			args: []string{"build", "-C", dir, "-nobuild", "-trace_json", traceJSON, "a.cppm", "main.cpp"},
			want: 0,
		},
		{
			args: []string{"build", "-C", dir, "-nobuild"},
			want: 1,
		},
		{
			args: []string{"scandeps", filepath.Join(dir, "a.cppm")},
			want: 0,
		},
		{
			args: []string{"nonexistent"},
			want: 2,
		},
	} {
		got := subcommands.Run(getApplication(), tc.args)
		if got != tc.want {
			t.Errorf("Run(%q)=%d; want %d", tc.args, got, tc.want)
		}
	}
	if _, err := os.Stat(traceJSON); err != nil {
		t.Errorf("trace json: %v", err)
	}
}
