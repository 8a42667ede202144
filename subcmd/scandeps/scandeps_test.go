// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cppm")
	err := os.WriteFile(a, []byte("export module A;\n// import B;\nimport <iostream>;\n#include \"a.h\"\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	c := &run{}
	var buf bytes.Buffer
	err = c.run(ctx, &buf, []string{a})
	if err != nil {
		t.Fatalf("run=%v; want nil err", err)
	}
	want := strings.NewReplacer("$A", a).Replace(`$A:1: export module A;
$A:3: import <iostream>;
$A:4: #include "a.h"
`)
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("run diff -want +got:\n%s", diff)
	}

	c = &run{json: true}
	buf.Reset()
	err = c.run(ctx, &buf, []string{a})
	if err != nil {
		t.Fatalf("run -json=%v; want nil err", err)
	}
	if !strings.Contains(buf.String(), `"kind": "header-import"`) {
		t.Errorf("run -json=%s; want header-import kind", buf.String())
	}

	err = c.run(ctx, &buf, nil)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("run()=%v; want %v", err, flag.ErrHelp)
	}
	err = c.run(ctx, &buf, []string{filepath.Join(dir, "nonexistent.cpp")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("run(nonexistent)=%v; want %v", err, os.ErrNotExist)
	}
}
