// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs commands.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.chromium.org/infra/build/cxxmod/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run a build command.
type Cmd struct {
	// ID is used as a unique identifier for this cmd in logs and tracing.
	ID string

	// Desc is a short, human-readable description shown in the UI.
	// Example: "CXX src/a.cppm"
	Desc string

	// ActionName is the name of the step kind.
	// Example: "mkdir", "compile", "link" or "cleanup".
	ActionName string

	// Args holds command line arguments.
	Args []string

	// Env specifies the environment of the process.
	// If nil, the process uses the current environment.
	Env []string

	// Dir specifies the working directory of the process.
	Dir string

	stdoutWriter, stderrWriter io.Writer
	stdoutBuffer, stderrBuffer bytes.Buffer

	result Result
}

// Result is a result of the cmd execution.
type Result struct {
	ExitCode int
	Start    time.Time
	End      time.Time
	Rusage   *Rusage
}

// Rusage is resource usage of the process.
type Rusage struct {
	MaxRSS int64
	Utime  time.Duration
	Stime  time.Duration
}

// String returns an ID of the cmd.
func (c *Cmd) String() string {
	return c.ID
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	return shutil.Join(c.Args)
}

// SetStdoutWriter sets w for stdout.
func (c *Cmd) SetStdoutWriter(w io.Writer) {
	c.stdoutWriter = w
}

// SetStderrWriter sets w for stderr.
func (c *Cmd) SetStderrWriter(w io.Writer) {
	c.stderrWriter = w
}

// StdoutWriter returns a writer set by SetStdoutWriter or a writer to
// the buffer for Stdout.
func (c *Cmd) StdoutWriter() io.Writer {
	if c.stdoutWriter != nil {
		return c.stdoutWriter
	}
	return &c.stdoutBuffer
}

// StderrWriter returns a writer set by SetStderrWriter or a writer to
// the buffer for Stderr.
func (c *Cmd) StderrWriter() io.Writer {
	if c.stderrWriter != nil {
		return c.stderrWriter
	}
	return &c.stderrBuffer
}

// Stdout returns stdout output of the cmd.
func (c *Cmd) Stdout() []byte {
	return c.stdoutBuffer.Bytes()
}

// Stderr returns stderr output of the cmd.
func (c *Cmd) Stderr() []byte {
	return c.stderrBuffer.Bytes()
}

// SetResult sets execution result of the cmd.
func (c *Cmd) SetResult(result Result) {
	c.result = result
}

// Result returns execution result of the cmd.
func (c *Cmd) Result() Result {
	return c.result
}

// ExitError is an error of cmd exit.
type ExitError struct {
	ExitCode int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit=%d", e.ExitCode)
}
