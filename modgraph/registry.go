// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"maps"
	"slices"
)

// Registry maps module names ("M" or "M:P") to units defining them.
//
// "M" maps to the primary module interface of M.
// "M:P" maps to the module partition (interface or implementation) P of M.
type Registry struct {
	m map[string]*Unit
}

func newRegistry() *Registry {
	return &Registry{m: make(map[string]*Unit)}
}

// register registers u as a definition of its module name.
// It returns DuplicateModuleError if other unit has been registered.
func (r *Registry) register(u *Unit) error {
	name := u.ModuleName()
	if prev, ok := r.m[name]; ok {
		return &DuplicateModuleError{
			Module: name,
			Paths:  []string{prev.ID, u.ID},
		}
	}
	r.m[name] = u
	return nil
}

// Lookup returns the unit defining the module name.
func (r *Registry) Lookup(name string) (*Unit, bool) {
	u, ok := r.m[name]
	return u, ok
}

// Names returns registered module names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.m))
}
