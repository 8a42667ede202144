// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/cxxmod/modgraph"
)

func TestPlanFile(t *testing.T) {
	p, err := plan(t, helloworld, Options{})
	if err != nil {
		t.Fatalf("Plan=%v; want nil err", err)
	}
	want := p.File()
	if got, want := len(want.Units), len(p.Graph.Units()); got != want {
		t.Errorf("len(Units)=%d; want %d", got, want)
	}
	for _, u := range want.Units {
		if u.ID == "sys:iostream" && u.Kind != modgraph.SystemHeaderUnit {
			t.Errorf("kind of %s=%v; want %v", u.ID, u.Kind, modgraph.SystemHeaderUnit)
		}
	}

	dir := t.TempDir()
	for _, name := range []string{"plan.json", "plan.json.zst"} {
		t.Run(name, func(t *testing.T) {
			fname := filepath.Join(dir, name)
			err := WritePlanFile(fname, p)
			if err != nil {
				t.Fatalf("WritePlanFile(%q)=%v; want nil err", fname, err)
			}
			got, err := ReadPlanFile(fname)
			if err != nil {
				t.Fatalf("ReadPlanFile(%q)=%v; want nil err", fname, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ReadPlanFile(%q) diff -want +got:\n%s", fname, diff)
			}
		})
	}
}

func TestReadPlanFile_errors(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name    string
		content string
	}{
		{
			name:    "version.json",
			content: `{"version": 2}`,
		},
		{
			name:    "broken.json",
			content: `{"version":`,
		},
		{
			name:    "notzstd.json.zst",
			content: `{"version": 1}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(dir, tc.name)
			err := os.WriteFile(fname, []byte(tc.content), 0644)
			if err != nil {
				t.Fatal(err)
			}
			_, err = ReadPlanFile(fname)
			if err == nil {
				t.Errorf("ReadPlanFile(%q)=nil; want err", fname)
			}
		})
	}
	_, err := ReadPlanFile(filepath.Join(dir, "nonexistent.json"))
	if !os.IsNotExist(err) {
		t.Errorf("ReadPlanFile(nonexistent)=%v; want not exist", err)
	}
}
