// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digraph is digraph subcommand to show digraph of module
// dependencies for https://pkg.go.dev/golang.org/x/tools/cmd/digraph
package digraph

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/cxxmod/modgraph"
	"go.chromium.org/infra/build/cxxmod/subcmd/buildcmd"
)

const usage = `show digraph

 $ cxxmod digraph [-C <dir>] [<flags>] [<units>...]

prints directed graph of module dependencies for <units>.
If <units> is not given, it will print directed graph for all units
found in <dir>. It accepts the same flags as "cxxmod build".
Each line contains one or more units, and the first unit depends on
the rest of the units on the same line.

This output can be passed to digraph command, installed by
 $ go install golang.org/x/tools/cmd/digraph@latest

See https://pkg.go.dev/golang.org/x/tools/cmd/digraph
for digraph command.
`

// Cmd returns the Command for the `digraph` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "digraph [-C <dir>] [<units>...]",
		ShortDesc: "show digraph",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	opts buildcmd.Options
}

func (c *run) init() {
	c.opts.Register(&c.Flags)
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	s, err := c.opts.Setup(ctx, &c.Flags, nil)
	if err != nil {
		return err
	}
	plan, err := s.Plan(ctx)
	if err != nil {
		return err
	}
	return Write(os.Stdout, plan.Graph, args)
}

// Write writes digraph of units reachable from targets in g.
// If targets is empty, it writes all units.
func Write(w io.Writer, g *modgraph.Graph, targets []string) error {
	d := &digraph{
		w:    w,
		g:    g,
		seen: make(map[*modgraph.Unit]bool),
	}
	if len(targets) == 0 {
		for _, u := range g.Units() {
			d.traverse(u)
		}
		return nil
	}
	for _, t := range targets {
		u := g.Unit(t)
		if u == nil {
			return fmt.Errorf("unit not found: %q", t)
		}
		d.traverse(u)
	}
	return nil
}

type digraph struct {
	w    io.Writer
	g    *modgraph.Graph
	seen map[*modgraph.Unit]bool
}

func (d *digraph) traverse(u *modgraph.Unit) {
	if d.seen[u] {
		return
	}
	d.seen[u] = true
	deps := d.g.Deps(u)
	if len(deps) == 0 {
		fmt.Fprintf(d.w, "%s\n", u.ID)
		return
	}
	var inputs []string
	for _, dep := range deps {
		d.traverse(dep)
		inputs = append(inputs, dep.ID)
	}
	fmt.Fprintf(d.w, "%s %s\n", u.ID, strings.Join(inputs, " "))
}
