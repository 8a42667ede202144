// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package modgraph classifies C++ translation units by their module
// declarations, and builds and schedules their dependency graph.
package modgraph

import (
	"strings"

	"go.chromium.org/infra/build/cxxmod/scandeps"
)

// SysPrefix is a prefix of synthetic unit ids for external headers.
const SysPrefix = "sys:"

// Unit is a node of the dependency graph: a discovered file or
// an external system header.
type Unit struct {
	// ID is a path of the file, or "sys:<name>" for an external header.
	ID string

	Kind Kind

	// Module is a module name. empty for non module units.
	Module string

	// Partition is a partition name. Set only if Module is set.
	Partition string

	// Decls are declarations scanned from the file.
	Decls []scandeps.Decl

	// index is a discovery order.
	index int
}

// Synthetic reports whether the unit is an external header that has no
// discovered file.
func (u *Unit) Synthetic() bool {
	return strings.HasPrefix(u.ID, SysPrefix)
}

// Name returns a name for a synthetic unit, i.e. id without "sys:".
// For other units, it returns id.
func (u *Unit) Name() string {
	return strings.TrimPrefix(u.ID, SysPrefix)
}

// ModuleName returns "M", "M:P" or "".
func (u *Unit) ModuleName() string {
	if u.Partition == "" {
		return u.Module
	}
	return u.Module + ":" + u.Partition
}

// Index returns discovery order of the unit.
func (u *Unit) Index() int {
	return u.index
}

func (u *Unit) String() string {
	return u.ID
}

// Graph is a dependency graph of units.
type Graph struct {
	units []*Unit
	byID  map[string]*Unit
	// deps maps a unit to its direct dependencies in declaration order.
	deps map[*Unit][]*Unit
	reg  *Registry
}

func newGraph() *Graph {
	return &Graph{
		byID: make(map[string]*Unit),
		deps: make(map[*Unit][]*Unit),
		reg:  newRegistry(),
	}
}

func (g *Graph) add(u *Unit) {
	u.index = len(g.units)
	g.units = append(g.units, u)
	g.byID[u.ID] = u
}

// addEdge adds edge from -> to, i.e. from depends on to.
func (g *Graph) addEdge(from, to *Unit) {
	for _, d := range g.deps[from] {
		if d == to {
			return
		}
	}
	g.deps[from] = append(g.deps[from], to)
}

// Units returns all units in discovery order.
// Discovered files come first, followed by synthetic units in order of
// first reference.
func (g *Graph) Units() []*Unit {
	return g.units
}

// Unit returns a unit for the id, or nil.
func (g *Graph) Unit(id string) *Unit {
	return g.byID[id]
}

// Deps returns direct dependencies of u.
func (g *Graph) Deps(u *Unit) []*Unit {
	return g.deps[u]
}

// Registry returns the module registry of the graph.
func (g *Graph) Registry() *Registry {
	return g.reg
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}
