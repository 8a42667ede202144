// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"go.chromium.org/infra/build/cxxmod/modgraph"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

const stdFlag = "-std=c++20"

// emit sets commands of plan.
func (p *Planner) emit(ctx context.Context, plan *Plan) {
	_, span := trace.NewSpan(ctx, "emit")
	defer span.Close(nil)

	dirs := make(map[string]bool)
	for i, batch := range plan.Batches {
		var cmds []*Command
		for _, u := range batch {
			cmd := p.compileCommand(u)
			if cmd == nil {
				continue
			}
			cmd.ID = fmt.Sprintf("%s:%d:%s", cmd.Action, i, u.ID)
			if cmd.Action == ActionCompile {
				dirs[filepath.Dir(cmd.Outputs[0])] = true
			}
			cmds = append(cmds, cmd)
		}
		plan.Compile = append(plan.Compile, cmds)
	}
	for _, dir := range slices.Sorted(maps.Keys(dirs)) {
		plan.Mkdir = append(plan.Mkdir, &Command{
			ID:     "mkdir:" + dir,
			Action: ActionMkdir,
			Desc:   "MKDIR " + dir,
			Args:   []string{"mkdir", "-p", dir},
		})
	}
	plan.Link = p.linkCommands(plan.Objects())
	plan.Cleanup = []*Command{{
		ID:     "cleanup",
		Action: ActionCleanup,
		Desc:   "CLEAN " + p.objDir + " " + p.cache,
		Args:   []string{"rm", "-rf", p.objDir, p.cache},
	}}
}

// compileCommand returns a compile command for u, or nil if u is not
// compiled.
func (p *Planner) compileCommand(u *modgraph.Unit) *Command {
	cc := p.opts.Compiler
	switch u.Kind {
	case modgraph.PrimaryModuleInterface, modgraph.ModulePartitionInterface, modgraph.ModulePartition, modgraph.ModuleUnit, modgraph.GlobalUnit:
		obj := p.objPath(u.ID)
		args := []string{cc, "-x", "c++", stdFlag, "-fmodules-ts", u.ID, "-c", "-o", obj}
		args = append(args, p.opts.Flags...)
		if p.opts.Outputs.SharedLib != "" {
			// shared objects require position independent code.
			args = append(args, "-fPIC")
		}
		outputs := []string{obj}
		if cmi := p.cmiPath(u); cmi != "" {
			outputs = append(outputs, cmi)
		}
		return &Command{
			Action:  ActionCompile,
			Desc:    "CXX " + u.ID,
			Unit:    u.ID,
			Args:    args,
			Outputs: outputs,
		}
	case modgraph.HeaderUnit:
		args := []string{cc, "-x", "c++-header", stdFlag, "-fmodules-ts", "-fmodule-header", u.ID}
		args = append(args, p.opts.Flags...)
		return &Command{
			Action:  ActionHeaderUnit,
			Desc:    "HDRUNIT " + u.ID,
			Unit:    u.ID,
			Args:    args,
			Outputs: []string{p.headerCMIPath(u.ID)},
		}
	case modgraph.SystemHeaderUnit:
		args := []string{cc, "-x", "c++-system-header", stdFlag, "-fmodules-ts", u.Name()}
		args = append(args, p.opts.Flags...)
		return &Command{
			Action: ActionSystemHeaderUnit,
			Desc:   "SYSHDRUNIT " + u.Name(),
			Unit:   u.ID,
			Args:   args,
		}
	}
	return nil
}

// cmiPath returns a compiled module interface path for u in the module
// cache, or "" if u doesn't export module interface.
// Partition P of module M is stored as "M-P.gcm".
func (p *Planner) cmiPath(u *modgraph.Unit) string {
	switch u.Kind {
	case modgraph.PrimaryModuleInterface:
		return filepath.Join(p.cache, u.Module+".gcm")
	case modgraph.ModulePartitionInterface, modgraph.ModulePartition:
		return filepath.Join(p.cache, u.Module+"-"+u.Partition+".gcm")
	}
	return ""
}

// headerCMIPath returns a compiled header unit path for the header.
// Relative header paths are stored under "," in the module cache.
func (p *Planner) headerCMIPath(hdr string) string {
	if filepath.IsAbs(hdr) {
		hdr = strings.TrimPrefix(hdr, filepath.VolumeName(hdr))
		return filepath.Join(p.cache, hdr+".gcm")
	}
	return filepath.Join(p.cache, ",", hdr+".gcm")
}

// linkCommands returns link commands for outputs.
func (p *Planner) linkCommands(objs []string) []*Command {
	var cmds []*Command
	out := p.opts.Outputs
	if out.StaticLib != "" {
		args := append([]string{"ar", "rvs", out.StaticLib}, objs...)
		cmds = append(cmds, &Command{
			ID:      "link:" + out.StaticLib,
			Action:  ActionLink,
			Desc:    "AR " + out.StaticLib,
			Args:    args,
			Outputs: []string{out.StaticLib},
		})
	}
	if out.SharedLib != "" {
		args := append([]string{p.opts.Compiler}, objs...)
		args = append(args, "-shared", "-o", out.SharedLib)
		args = append(args, p.opts.Flags...)
		cmds = append(cmds, &Command{
			ID:      "link:" + out.SharedLib,
			Action:  ActionLink,
			Desc:    "SOLINK " + out.SharedLib,
			Args:    args,
			Outputs: []string{out.SharedLib},
		})
	}
	if out.Exe != "" {
		args := append([]string{p.opts.Compiler}, objs...)
		args = append(args, "-o", out.Exe)
		args = append(args, p.opts.Flags...)
		cmds = append(cmds, &Command{
			ID:      "link:" + out.Exe,
			Action:  ActionLink,
			Desc:    "LINK " + out.Exe,
			Args:    args,
			Outputs: []string{out.Exe},
		})
	}
	return cmds
}
