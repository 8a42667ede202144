// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"go.chromium.org/infra/build/cxxmod/modgraph"
	"go.chromium.org/infra/build/cxxmod/toolsupport/shutil"
)

// Action names of commands.
const (
	ActionMkdir            = "mkdir"
	ActionCompile          = "compile"
	ActionHeaderUnit       = "header-unit"
	ActionSystemHeaderUnit = "system-header-unit"
	ActionLink             = "link"
	ActionCleanup          = "cleanup"
)

// Command is a command in the plan.
type Command struct {
	// ID is a unique identifier of the command in the plan.
	ID string `json:"id"`

	// Action is one of Action* names.
	Action string `json:"action"`

	// Desc is a short description, e.g. "CXX src/a.cppm".
	Desc string `json:"desc"`

	// Unit is a unit id for compile commands.
	Unit string `json:"unit,omitempty"`

	// Args is command line arguments.
	Args []string `json:"args"`

	// Outputs are files produced by the command.
	Outputs []string `json:"outputs,omitempty"`
}

// String returns the command line.
func (c *Command) String() string {
	return shutil.Join(c.Args)
}

// Plan is a build plan.
type Plan struct {
	// WorkDir is the absolute path of the working directory.
	WorkDir string

	Graph *modgraph.Graph

	// Batches are units in topological layers.
	Batches [][]*modgraph.Unit

	// Mkdir creates object directories before any compile.
	Mkdir []*Command

	// Compile has compile commands for each batch.
	// Compile[i] is for Batches[i], and may be empty if the batch has
	// only headers.
	Compile [][]*Command

	// Link links objects into outputs after all batches.
	Link []*Command

	// Cleanup removes the object directory and module cache after link.
	Cleanup []*Command
}

// NumCommands returns the number of commands.
func (p *Plan) NumCommands() int {
	n := len(p.Mkdir) + len(p.Link) + len(p.Cleanup)
	for _, cmds := range p.Compile {
		n += len(cmds)
	}
	return n
}

// Blocks returns command blocks in execution order: mkdir, non-empty
// compile batches, link and cleanup.
func (p *Plan) Blocks() [][]*Command {
	var blocks [][]*Command
	add := func(cmds []*Command) {
		if len(cmds) > 0 {
			blocks = append(blocks, cmds)
		}
	}
	add(p.Mkdir)
	for _, cmds := range p.Compile {
		add(cmds)
	}
	add(p.Link)
	add(p.Cleanup)
	return blocks
}

// Objects returns object files to link in batch order.
func (p *Plan) Objects() []string {
	var objs []string
	for _, cmds := range p.Compile {
		for _, c := range cmds {
			if c.Action != ActionCompile {
				continue
			}
			objs = append(objs, c.Outputs[0])
		}
	}
	return objs
}
