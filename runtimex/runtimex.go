// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runtimex provides processor count usable for parallel compiles.
package runtimex

import "runtime"

var ncpu int

func init() {
	ncpu = getproccount()
	if ncpu <= 0 {
		ncpu = runtime.NumCPU()
	}
}

// NumCPU returns the number of logical CPUs usable by the current process.
// On Windows, runtime.NumCPU() only counts a single processor group
// (up to 64), so GetActiveProcessorCount is used to count all groups.
func NumCPU() int {
	return ncpu
}

// Jobs returns n if positive, or NumCPU.
func Jobs(n int) int {
	if n > 0 {
		return n
	}
	return ncpu
}
