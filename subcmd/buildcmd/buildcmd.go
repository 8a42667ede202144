// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildcmd is build subcommand to build C++20 modules.
package buildcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/cxxmod/build"
	"go.chromium.org/infra/build/cxxmod/build/buildconfig"
	"go.chromium.org/infra/build/cxxmod/discovery"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
	"go.chromium.org/infra/build/cxxmod/ui"
)

const usage = `build C++20 modules

 $ cxxmod build [-C <dir>] [<flags>] [<src>...]

<src> are source files and directories to inspect recursively.
If <src> is not given, it inspects the current directory.

It scans module declarations, imports and includes of sources,
computes the module dependency graph, and compiles sources in
batches of the topological order, then links objects.

e.g.
 $ cxxmod build -show=list,deps,order,cmd -nobuild
 $ cxxmod build -flags="-O2 -Wall" -patterns+=*.C -exe=prog
 $ cxxmod build -lib=libabc.a -patterns-=tests/*,examples/*

Flags set on the command line override cxxmod.star in <dir>.
`

// Cmd returns the Command for the `build` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "build [<flags>] [<src>...]",
		ShortDesc: "build C++20 modules",
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
	opts Options
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
		case errors.Is(err, context.Canceled):
			fmt.Fprintf(os.Stderr, "Interrupted\n")
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
	return s.Build(ctx, os.Stdout)
}

// Options are flags to plan and build.
type Options struct {
	dir       string
	show      string
	nobuild   bool
	absolute  bool
	jobs      int
	planOut   string
	traceJSON string
	keepObjs  bool
	verbose   bool
	config    buildconfig.Flags
}

// Register registers flags in fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.dir, "C", ".", "working directory to run commands. sources are relative to the directory")
	fs.StringVar(&o.show, "show", "", "comma separated reports to print: list, deps, order or cmd")
	fs.BoolVar(&o.nobuild, "nobuild", false, "do not run commands. can be combined with -show")
	fs.BoolVar(&o.absolute, "absolutepaths", false, "render paths as absolute paths")
	fs.IntVar(&o.jobs, "j", 0, "maximum number of parallel commands in a batch. 0 means number of CPUs")
	fs.StringVar(&o.planOut, "plan_out", "", "filename to write the plan in JSON. compressed with zstd if it ends with .zst")
	fs.StringVar(&o.traceJSON, "trace_json", "", "filename to write chrome trace json")
	fs.BoolVar(&o.keepObjs, "keep_objs", false, "keep objects and module cache after link")
	fs.BoolVar(&o.verbose, "verbose", false, "show command lines instead of descriptions")
	o.config.Register(fs)
}

// Session is a setup to plan and build.
type Session struct {
	opts  *Options
	wd    string
	roots []string
	cfg   *buildconfig.Config
}

// Setup loads the config and merges flags in fs set by the command line.
func (o *Options) Setup(ctx context.Context, fs *flag.FlagSet, args []string) (*Session, error) {
	wd, err := filepath.Abs(o.dir)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(wd)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("-C %s is not a directory: %w", o.dir, flag.ErrHelp)
	}
	cfg, err := o.loadConfig(ctx, fs, wd)
	if err != nil {
		return nil, err
	}
	cfg, err = o.config.Merge(fs, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, flag.ErrHelp)
	}
	if log.V(1) {
		clog.Infof(ctx, "config: %+v", cfg)
	}
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return &Session{
		opts:  o,
		wd:    wd,
		roots: roots,
		cfg:   cfg,
	}, nil
}

// loadConfig loads the config file, or returns nil if the default config
// file doesn't exist.
func (o *Options) loadConfig(ctx context.Context, fs *flag.FlagSet, wd string) (*buildconfig.Config, error) {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	fname := o.config.Config
	if fname == "" {
		return nil, nil
	}
	if !filepath.IsAbs(fname) {
		fname = filepath.Join(wd, fname)
	}
	cfg, err := buildconfig.Load(ctx, fname, buildconfig.Values(fs))
	if errors.Is(err, os.ErrNotExist) && !explicit {
		if log.V(1) {
			clog.Infof(ctx, "no config %s", fname)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", fname, err)
	}
	return cfg, nil
}

// WriteTrace writes chrome trace json if requested.
func (o *Options) WriteTrace(ctx context.Context) error {
	if o.traceJSON == "" {
		return nil
	}
	t := trace.FromContext(ctx)
	if t == nil {
		return nil
	}
	return t.WriteChromeTraceFile(o.traceJSON)
}

// WorkDir returns the working directory.
func (s *Session) WorkDir() string {
	return s.wd
}

// Roots returns sources and directories to inspect.
func (s *Session) Roots() []string {
	return s.roots
}

// Config returns the merged config.
func (s *Session) Config() *buildconfig.Config {
	return s.cfg
}

// Plan discovers sources and computes a build plan.
func (s *Session) Plan(ctx context.Context) (*build.Plan, error) {
	spinner := ui.Default.NewSpinner()
	spinner.Start("planning %s", strings.Join(s.roots, " "))
	paths, err := discovery.Find(ctx, discovery.Options{
		Roots:    s.roots,
		Patterns: s.cfg.Patterns,
		Exclude:  s.cfg.Exclude,
		WorkDir:  s.wd,
		Absolute: s.opts.absolute,
	})
	if err != nil {
		spinner.Stop(err)
		return nil, err
	}
	planner, err := build.NewPlanner(build.Options{
		WorkDir:        s.wd,
		Absolute:       s.opts.absolute,
		HeaderPatterns: s.cfg.Headers,
		IncludeDirs:    s.cfg.IncludeDirs,
		Compiler:       s.cfg.Compiler,
		Flags:          s.cfg.Flags,
		ObjDir:         s.cfg.ObjDir,
		ModuleCache:    s.cfg.ModuleCache,
		Outputs:        s.cfg.Outputs(),
	})
	if err != nil {
		spinner.Stop(err)
		return nil, err
	}
	plan, err := planner.Plan(ctx, paths)
	if err != nil {
		spinner.Stop(err)
		return nil, err
	}
	spinner.Done("planned %d sources in %d batches", len(paths), len(plan.Batches))
	return plan, nil
}

// Build plans, writes reports to w and runs commands unless -nobuild.
func (s *Session) Build(ctx context.Context, w io.Writer) error {
	plan, err := s.Plan(ctx)
	if err != nil {
		return err
	}
	err = build.WriteReports(ctx, w, plan, build.ParseReports(s.opts.show))
	if err != nil {
		return err
	}
	if s.opts.planOut != "" {
		err = build.WritePlanFile(s.opts.planOut, plan)
		if err != nil {
			return err
		}
	}
	if s.opts.nobuild {
		return nil
	}
	return build.Run(ctx, plan, build.RunOptions{
		Jobs:     s.opts.jobs,
		KeepObjs: s.opts.keepObjs,
		Verbose:  s.opts.verbose,
	})
}
