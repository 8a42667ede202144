// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

type termSpinner struct {
	quit, done chan struct{}
	started    time.Time
	n          int
	msg        string
}

// Start starts the spinner.
func (s *termSpinner) Start(format string, args ...any) {
	s.started = time.Now()
	s.msg = fmt.Sprintf(format, args...)
	fmt.Printf("%s... ", s.msg)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		const chars = `/-\|`
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				fmt.Printf("\b%c", chars[s.n%len(chars)])
				s.n++
			}
		}
	}()
}

func (s *termSpinner) stop() time.Duration {
	close(s.quit)
	<-s.done
	return time.Since(s.started)
}

// Stop stops the spinner.
func (s *termSpinner) Stop(err error) {
	d := s.stop()
	if err != nil {
		fmt.Printf("\r\033[K%6s %s %s %v\n", FormatDuration(d), s.msg, SGR(Red, "failed"), err)
		return
	}
	if d < DurationThreshold {
		fmt.Printf("\r\033[K")
		return
	}
	fmt.Printf("\r\033[K%6s %s\n", FormatDuration(d), s.msg)
}

// Done finishes the spinner with message.
func (s *termSpinner) Done(format string, args ...any) {
	d := s.stop()
	fmt.Printf("\r\033[K%6s %s %s\n", FormatDuration(d), s.msg, fmt.Sprintf(format, args...))
}

// TermUI is a terminal-based UI.
type TermUI struct {
	width int
}

func (t *TermUI) init() {
	t.width, _, _ = term.GetSize(int(os.Stdout.Fd()))
}

// PrintLines implements the ui.UI interface.
func (t *TermUI) PrintLines(msgs ...string) {
	var buf bytes.Buffer
	if len(msgs) > 0 && msgs[0] == "\n" {
		msgs = msgs[1:]
	} else {
		for range len(msgs) - 1 {
			buf.WriteString("\r\033[K\033[A")
		}
		buf.WriteString("\r\033[K")
	}
	writeLinesMaxWidth(&buf, msgs, t.width)
	os.Stdout.Write(buf.Bytes())
}

// NewSpinner returns a terminal-based spinner.
func (*TermUI) NewSpinner() Spinner {
	return &termSpinner{}
}

// Infof prints a message to stdout.
func (*TermUI) Infof(format string, args ...any) {
	fmt.Printf("\r\033[K%s\n", fmt.Sprintf(format, args...))
}

// Warningf prints a warning message to stderr.
func (*TermUI) Warningf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n", SGR(Yellow, "warning:"), fmt.Sprintf(format, args...))
}

// Errorf prints an error message to stderr.
func (*TermUI) Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s\n", SGR(Red, "error:"), fmt.Sprintf(format, args...))
}
