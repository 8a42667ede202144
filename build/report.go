// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/modgraph"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
)

// Report names.
const (
	ReportList  = "list"
	ReportDeps  = "deps"
	ReportOrder = "order"
	ReportCmd   = "cmd"
)

// ParseReports parses comma separated report names.
// Empty names are dropped.
func ParseReports(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// WriteReports writes reports of the plan in the order of names.
// Each report is followed by an empty line. Unknown names are ignored.
func WriteReports(ctx context.Context, w io.Writer, plan *Plan, names []string) error {
	bw := bufio.NewWriter(w)
	for _, name := range names {
		switch name {
		case ReportList:
			writeList(bw, plan.Graph)
		case ReportDeps:
			writeDeps(bw, plan.Graph)
		case ReportOrder:
			writeOrder(bw, plan.Batches)
		case ReportCmd:
			writeCmd(bw, plan)
		default:
			if log.V(1) {
				clog.Infof(ctx, "unknown report %q", name)
			}
			continue
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func quote(id string) string {
	return `"` + id + `"`
}

// writeList writes `"path", kind, module` for each unit.
func writeList(w io.Writer, g *modgraph.Graph) {
	for _, u := range g.Units() {
		fmt.Fprintf(w, "%s, %s, %s\n", quote(u.ID), u.Kind, u.ModuleName())
	}
}

// writeDeps writes `"path", "dep", ...` for each unit.
func writeDeps(w io.Writer, g *modgraph.Graph) {
	for _, u := range g.Units() {
		var sb strings.Builder
		sb.WriteString(quote(u.ID))
		for _, d := range g.Deps(u) {
			sb.WriteString(", ")
			sb.WriteString(quote(d.ID))
		}
		fmt.Fprintln(w, sb.String())
	}
}

// writeOrder writes units in each batch in a line.
func writeOrder(w io.Writer, batches [][]*modgraph.Unit) {
	for _, batch := range batches {
		ids := make([]string, 0, len(batch))
		for _, u := range batch {
			ids = append(ids, quote(u.ID))
		}
		fmt.Fprintln(w, strings.Join(ids, ", "))
	}
}

// writeCmd writes command blocks separated by an empty line.
func writeCmd(w io.Writer, plan *Plan) {
	for _, block := range plan.Blocks() {
		for _, cmd := range block {
			fmt.Fprintln(w, cmd.String())
		}
		fmt.Fprintln(w)
	}
}

// ParseDeps parses deps report into a map from unit id to its
// dependencies.
func ParseDeps(r io.Reader) (map[string][]string, error) {
	deps := make(map[string][]string)
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		var ids []string
		for _, f := range strings.Split(line, ", ") {
			if len(f) < 2 || f[0] != '"' || f[len(f)-1] != '"' {
				return nil, fmt.Errorf("bad deps line %q", line)
			}
			ids = append(ids, f[1:len(f)-1])
		}
		deps[ids[0]] = ids[1:]
	}
	return deps, s.Err()
}
