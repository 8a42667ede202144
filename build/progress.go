// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.chromium.org/infra/build/cxxmod/ui"
)

// progress reports progress of commands.
type progress struct {
	ui      ui.UI
	verbose bool
	started time.Time

	mu    sync.Mutex
	total int
	done  int
}

func newProgress(u ui.UI, verbose bool, total int) *progress {
	if u == nil {
		u = ui.Default
	}
	return &progress{
		ui:      u,
		verbose: verbose,
		started: time.Now(),
		total:   total,
	}
}

// finish reports cmd finished with err, and output of the cmd.
func (p *progress) finish(cmd *Command, output string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	msg := cmd.Desc
	if p.verbose {
		msg = cmd.String()
	}
	line := fmt.Sprintf("[%d/%d] %s %s", p.done, p.total, ui.FormatDuration(time.Since(p.started)), msg)
	if err != nil {
		p.ui.PrintLines("\n", ui.SGR(ui.Red, "FAILED: ")+line, "")
		p.ui.Errorf("%s: %v\n%s", cmd.String(), err, strings.TrimRight(output, "\n"))
		return
	}
	p.ui.PrintLines(line)
	if output != "" {
		p.ui.PrintLines("\n", strings.TrimRight(output, "\n"), "")
	}
}
