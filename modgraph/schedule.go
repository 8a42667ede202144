// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"context"
	"slices"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

// Schedule returns batches of units in layered topological order.
//
// Batch 0 has units without dependencies, and batch k has units whose
// dependencies are all in batches 0..k-1. Units in a batch are in
// discovery order. It returns CycleError if the graph has a cycle.
func (g *Graph) Schedule(ctx context.Context) ([][]*Unit, error) {
	ctx, span := trace.NewSpan(ctx, "schedule")
	var err error
	defer func() { span.Close(err) }()

	pending := make(map[*Unit]int, len(g.units))
	dependents := make(map[*Unit][]*Unit)
	var batch []*Unit
	for _, u := range g.units {
		deps := g.deps[u]
		pending[u] = len(deps)
		for _, d := range deps {
			dependents[d] = append(dependents[d], u)
		}
		if len(deps) == 0 {
			batch = append(batch, u)
		}
	}
	var batches [][]*Unit
	placed := 0
	for len(batch) > 0 {
		batches = append(batches, batch)
		placed += len(batch)
		if log.V(1) {
			clog.Infof(ctx, "batch %d: %d units", len(batches)-1, len(batch))
		}
		var next []*Unit
		for _, u := range batch {
			for _, p := range dependents[u] {
				pending[p]--
				if pending[p] == 0 {
					next = append(next, p)
				}
			}
		}
		slices.SortFunc(next, func(a, b *Unit) int {
			return a.index - b.index
		})
		batch = next
	}
	if placed != len(g.units) {
		err = &CycleError{Cycle: g.findCycle(pending)}
		return nil, err
	}
	span.SetAttr("batches", len(batches))
	return batches, nil
}

// findCycle returns a cycle among units with pending dependencies.
// Every such unit has at least one dependency with pending dependencies,
// so following them from any of them reaches a cycle.
func (g *Graph) findCycle(pending map[*Unit]int) []string {
	var start *Unit
	for _, u := range g.units {
		if pending[u] > 0 {
			start = u
			break
		}
	}
	if start == nil {
		return nil
	}
	pos := make(map[*Unit]int)
	var path []*Unit
	u := start
	for {
		if i, ok := pos[u]; ok {
			var cycle []string
			for _, c := range path[i:] {
				cycle = append(cycle, c.ID)
			}
			return append(cycle, u.ID)
		}
		pos[u] = len(path)
		path = append(path, u)
		for _, d := range g.deps[u] {
			if pending[d] > 0 {
				u = d
				break
			}
		}
	}
}
