// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package watchcmd is watch subcommand to rebuild C++20 modules on changes.
package watchcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/subcmd/buildcmd"
	"go.chromium.org/infra/build/cxxmod/ui"
	"go.chromium.org/infra/build/cxxmod/watch"
)

const usage = `rebuild C++20 modules on changes

 $ cxxmod watch [-C <dir>] [<flags>] [<src>...]

It builds once, and plans and builds again when sources matched by
-patterns change. It accepts the same flags as "cxxmod build".
Stop it with Ctrl-C.
`

// Cmd returns the Command for the `watch` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "watch [<flags>] [<src>...]",
		ShortDesc: "rebuild C++20 modules on changes",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	opts     buildcmd.Options
	debounce time.Duration
}

func (c *run) init() {
	c.opts.Register(&c.Flags)
	c.Flags.DurationVar(&c.debounce, "debounce", watch.DefaultDebounce, "quiet period after the last change before rebuild")
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

func (c *run) run(ctx context.Context, args []string) (err error) {
	s, err := c.opts.Setup(ctx, &c.Flags, args)
	if err != nil {
		return err
	}
	defer func() {
		terr := c.opts.WriteTrace(ctx)
		if err == nil {
			err = terr
		}
	}()
	cfg := s.Config()
	// outputs in the tree are not sources.
	exclude := append([]string{}, cfg.Exclude...)
	for _, dir := range []string{cfg.ObjDir, cfg.ModuleCache} {
		if dir == "" || filepath.IsAbs(dir) {
			continue
		}
		exclude = append(exclude, filepath.ToSlash(filepath.Clean(dir))+"/**")
	}
	w, err := watch.New(ctx, watch.Options{
		Roots:    s.Roots(),
		WorkDir:  s.WorkDir(),
		Patterns: cfg.Patterns,
		Exclude:  exclude,
		Debounce: c.debounce,
		OnChange: func(ctx context.Context, changed []string) error {
			ui.Default.PrintLines("\n", fmt.Sprintf("changed: %q", changed), "")
			c.build(ctx, s)
			return nil
		},
	})
	if err != nil {
		return err
	}
	c.build(ctx, s)
	ui.Default.Infof("watching %q. Ctrl-C to stop\n", s.Roots())
	return w.Run(ctx)
}

// build plans and builds. Failures are reported and wait for next changes.
func (c *run) build(ctx context.Context, s *buildcmd.Session) {
	err := s.Build(ctx, os.Stdout)
	switch {
	case err == nil:
		ui.Default.Infof("build succeeded\n")
	case ctx.Err() != nil:
	default:
		clog.Warningf(ctx, "build failed: %v", err)
		ui.Default.Errorf("build failed: %v\n", err)
	}
}
