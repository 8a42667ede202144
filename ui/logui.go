// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

type logSpinner struct {
	started time.Time
	msg     string
}

// Start implements the ui.Spinner interface.
// A log-based UI can't animate the spinner, so it only logs the start.
func (l *logSpinner) Start(format string, args ...any) {
	l.started = time.Now()
	l.msg = fmt.Sprintf(format, args...)
	log.Info(l.msg)
}

// Stop implements the ui.Spinner interface.
func (l *logSpinner) Stop(err error) {
	if err != nil {
		log.Warn("failed", "op", l.msg, "duration", FormatDuration(time.Since(l.started)), "err", err)
		return
	}
	log.Info("done", "op", l.msg, "duration", FormatDuration(time.Since(l.started)))
}

// Done implements the ui.Spinner interface.
func (l *logSpinner) Done(format string, args ...any) {
	log.Info(fmt.Sprintf(format, args...), "op", l.msg, "duration", FormatDuration(time.Since(l.started)))
}

// LogUI is a log-based UI.
type LogUI struct{}

// PrintLines implements the ui.UI interface.
// Progress lines are logged, stripping ansi escape sequence.
func (LogUI) PrintLines(msgs ...string) {
	for _, msg := range msgs {
		if msg == "" || msg == "\n" {
			continue
		}
		log.Print(StripANSIEscapeCodes(msg))
	}
}

// NewSpinner returns an implementation of ui.Spinner.
func (LogUI) NewSpinner() Spinner {
	return &logSpinner{}
}

// Infof reports to stdout, stripping ansi escape sequence.
func (LogUI) Infof(format string, args ...any) {
	log.Helper()
	log.Info(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Warningf reports to stderr, stripping ansi escape sequence.
func (LogUI) Warningf(format string, args ...any) {
	log.Helper()
	log.Warn(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Errorf reports to stderr, stripping ansi escape sequence.
func (LogUI) Errorf(format string, args ...any) {
	log.Helper()
	log.Error(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}
