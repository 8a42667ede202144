// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"errors"
	"fmt"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/cxxmod/execute"
	"go.chromium.org/infra/build/cxxmod/execute/localexec"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
	"go.chromium.org/infra/build/cxxmod/runtimex"
	"go.chromium.org/infra/build/cxxmod/ui"
)

// RunOptions is options to run a plan.
type RunOptions struct {
	// Jobs is the maximum number of parallel commands in a batch.
	// Default is runtimex.NumCPU().
	Jobs int

	// Executor runs commands. Default is localexec.LocalExec.
	Executor execute.Executor

	// KeepObjs skips the cleanup command.
	KeepObjs bool

	// Verbose shows command lines instead of descriptions.
	Verbose bool

	// UI reports progress. Default is ui.Default.
	UI ui.UI
}

// Run runs commands of the plan.
//
// Commands run in order of mkdir, compile batches, link and cleanup.
// Commands in a batch run in parallel up to opts.Jobs. A failure in a
// batch cancels the batch and aborts the build without cleanup.
// Cleanup runs after link commands regardless of their results.
func Run(ctx context.Context, plan *Plan, opts RunOptions) error {
	ctx, span := trace.NewSpan(ctx, "run")
	var err error
	defer func() { span.Close(err) }()

	r := &runner{
		plan:     plan,
		executor: opts.Executor,
		jobs:     runtimex.Jobs(opts.Jobs),
	}
	if r.executor == nil {
		r.executor = localexec.LocalExec{}
	}
	total := plan.NumCommands()
	if opts.KeepObjs {
		total -= len(plan.Cleanup)
	}
	r.progress = newProgress(opts.UI, opts.Verbose, total)

	err = r.runSequential(ctx, "mkdir", plan.Mkdir)
	if err != nil {
		return err
	}
	for i, cmds := range plan.Compile {
		if len(cmds) == 0 {
			continue
		}
		err = r.runBatch(ctx, i, cmds)
		if err != nil {
			return err
		}
	}
	err = r.runSequential(ctx, "link", plan.Link)
	if opts.KeepObjs {
		return err
	}
	// cleanup runs even if link failed, but not after cancellation.
	if ctx.Err() != nil {
		return errors.Join(err, ctx.Err())
	}
	cerr := r.runSequential(ctx, "cleanup", plan.Cleanup)
	err = errors.Join(err, cerr)
	return err
}

type runner struct {
	plan     *Plan
	executor execute.Executor
	jobs     int
	progress *progress
}

// runSequential runs cmds one by one, and stops at the first error.
func (r *runner) runSequential(ctx context.Context, name string, cmds []*Command) error {
	if len(cmds) == 0 {
		return nil
	}
	ctx, span := trace.NewSpan(ctx, name)
	var err error
	defer func() { span.Close(err) }()
	for _, cmd := range cmds {
		err = r.runCommand(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

// runBatch runs cmds of i-th batch in parallel.
func (r *runner) runBatch(ctx context.Context, i int, cmds []*Command) error {
	ctx, span := trace.NewSpan(ctx, fmt.Sprintf("batch-%d", i))
	span.SetAttr("commands", len(cmds))
	ctx = clog.NewSpan(ctx, trace.ID(ctx), fmt.Sprintf("batch-%d", i), map[string]string{
		"batch": fmt.Sprint(i),
	})
	clog.Infof(ctx, "batch %d/%d: %d commands", i+1, len(r.plan.Compile), len(cmds))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs)
	for _, cmd := range cmds {
		eg.Go(func() error {
			return r.runCommand(ctx, cmd)
		})
	}
	err := eg.Wait()
	span.Close(err)
	if err != nil {
		return fmt.Errorf("batch %d: %w", i, err)
	}
	return nil
}

func (r *runner) runCommand(ctx context.Context, c *Command) error {
	ctx, span := trace.NewSpan(ctx, c.Action)
	span.SetAttr("id", c.ID)
	labels := map[string]string{"cmd": c.ID}
	if c.Unit != "" {
		labels["unit"] = c.Unit
	}
	ctx = clog.NewSpan(ctx, trace.ID(ctx), c.ID, labels)
	cmd := &execute.Cmd{
		ID:         c.ID,
		Desc:       c.Desc,
		ActionName: c.Action,
		Args:       c.Args,
		Dir:        r.plan.WorkDir,
	}
	if log.V(1) {
		clog.Infof(ctx, "run %s", cmd.Command())
	}
	err := r.executor.Run(ctx, cmd)
	span.Close(err)
	output := string(cmd.Stdout()) + string(cmd.Stderr())
	if ctx.Err() != nil && err != nil {
		// canceled by failure of other command in the batch.
		return err
	}
	r.progress.finish(c, output, err)
	if err != nil {
		clog.Warningf(ctx, "failed %s: %v", c.ID, err)
		return fmt.Errorf("%s: %w", c.Desc, err)
	}
	return nil
}
