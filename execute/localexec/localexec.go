// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/execute"
	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/runtimex"
	"go.chromium.org/infra/build/cxxmod/sync/semaphore"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	res, err := run(ctx, cmd)
	if err != nil {
		return err
	}
	cmd.SetResult(res)
	clog.Infof(ctx, "%s exit=%d stdout=%d stderr=%d in %s", cmd.ID, res.ExitCode, len(cmd.Stdout()), len(cmd.Stderr()), res.End.Sub(res.Start))
	if res.ExitCode != 0 {
		return execute.ExitError{ExitCode: res.ExitCode}
	}
	return nil
}

// forkSema limits concurrent fork/exec.
var forkSema = semaphore.New("fork", runtimex.NumCPU())

func run(ctx context.Context, cmd *execute.Cmd) (execute.Result, error) {
	if len(cmd.Args) == 0 {
		return execute.Result{}, fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()

	s := time.Now()
	err := forkSema.Do(ctx, func(ctx context.Context) error {
		return c.Start()
	})
	if err != nil {
		var eerr *exec.Error
		if errors.As(err, &eerr) || ctx.Err() != nil {
			return execute.Result{}, fmt.Errorf("failed to start %s: %w", cmd.ID, err)
		}
	} else {
		err = c.Wait()
	}
	e := time.Now()
	log.V(1).Infof("%s %q: %v", cmd.ID, cmd.Args, err)

	res := execute.Result{
		ExitCode: exitCode(err),
		Start:    s,
		End:      e,
	}
	if c.ProcessState != nil {
		res.Rusage = rusage(c)
	}
	if res.ExitCode != 0 {
		fmt.Fprintf(cmd.StderrWriter(), "\ncmd: %s dir: %q error: %v\n", cmd.Command(), cmd.Dir, err)
	}
	return res, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return 1
}
