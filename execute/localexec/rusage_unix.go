// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package localexec

import (
	"os/exec"
	"syscall"
	"time"

	"go.chromium.org/infra/build/cxxmod/execute"
)

func rusage(cmd *exec.Cmd) *execute.Rusage {
	if u, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
		return &execute.Rusage{
			// 32bit arch may use int32 for Maxrss.
			MaxRSS: int64(u.Maxrss),
			Utime:  time.Duration(u.Utime.Nano()),
			Stime:  time.Duration(u.Stime.Nano()),
		}
	}
	return nil
}
