// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It stores trace, span id and labels (e.g. the translation unit being
// compiled) in the context and adds them to each log entry.
//
// Entries are logging.Entry of Cloud Logging, but are emitted locally
// with glog.
package clog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/logging"
	"github.com/golang/glog"
)

type contextKeyType int

var contextKey contextKeyType

// DefaultFormatter formats payload prefixed with sorted labels.
func DefaultFormatter(e logging.Entry) string {
	if len(e.Labels) == 0 {
		return fmt.Sprintf("%v", e.Payload)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, k := range slices.Sorted(maps.Keys(e.Labels)) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%s", k, e.Labels[k])
	}
	sb.WriteString("] ")
	fmt.Fprintf(&sb, "%v", e.Payload)
	return sb.String()
}

var defaultLogger = New()

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		Formatter: DefaultFormatter,
	}
}

// NewContext sets the given logger to the context.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// NewSpan sets a sub logger with the given labels to the context.
// labels are merged into the labels of the current logger.
func NewSpan(ctx context.Context, trace, spanID string, labels map[string]string) context.Context {
	return NewContext(ctx, FromContext(ctx).Span(trace, spanID, labels))
}

// FromContext returns a logger in the context, or the default logger
// if it's not set.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok {
		return defaultLogger
	}
	return logger
}

// Logger holds the trace, spanID and labels of the context.
type Logger struct {
	// Formatter is a formatter of the entry for glog.
	// Default to DefaultFormatter.
	Formatter func(e logging.Entry) string

	// Sink receives each entry in addition to glog, if set.
	Sink func(e logging.Entry)

	trace  string
	spanID string
	labels map[string]string
}

// Span returns a sub logger for the trace span.
func (l *Logger) Span(trace, spanID string, labels map[string]string) *Logger {
	merged := maps.Clone(l.labels)
	if merged == nil {
		merged = make(map[string]string, len(labels))
	}
	maps.Copy(merged, labels)
	return &Logger{
		Formatter: l.Formatter,
		Sink:      l.Sink,
		trace:     trace,
		spanID:    spanID,
		labels:    merged,
	}
}

func (l *Logger) log(e logging.Entry) {
	if l.Sink != nil {
		l.Sink(e)
	}
	msg := l.Formatter(e)
	switch e.Severity {
	case logging.Info:
		glog.InfoDepth(3, msg)
	case logging.Warning:
		glog.WarningDepth(3, msg)
	case logging.Error:
		glog.ErrorDepth(3, msg)
	case logging.Emergency:
		glog.ExitDepth(3, msg)
	default:
		glog.InfoDepth(3, fmt.Sprintf("%s %s", e.Severity, msg))
	}
}

// Infof logs at info log level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...any) {
	l.log(l.Entry(logging.Info, fmt.Sprintf(format, args...)))
}

// Infof logs at info log level in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.log(logger.Entry(logging.Info, fmt.Sprintf(format, args...)))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...any) {
	l.log(l.Entry(logging.Warning, fmt.Sprintf(format, args...)))
}

// Warningf logs at warning log level in the manner of fmt.Printf.
func Warningf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.log(logger.Entry(logging.Warning, fmt.Sprintf(format, args...)))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(l.Entry(logging.Error, fmt.Sprintf(format, args...)))
}

// Errorf logs at error log level in the manner of fmt.Printf.
func Errorf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.log(logger.Entry(logging.Error, fmt.Sprintf(format, args...)))
}

// Exitf logs at fatal log level in the manner of fmt.Printf, and exit.
func Exitf(ctx context.Context, format string, args ...any) {
	logger := FromContext(ctx)
	logger.log(logger.Entry(logging.Emergency, fmt.Sprintf(format, args...)))
}

// Entry creates a new log entry for the given severity.
func (l *Logger) Entry(severity logging.Severity, payload any) logging.Entry {
	return logging.Entry{
		Timestamp: time.Now(),
		Severity:  severity,
		Payload:   payload,
		Labels:    l.labels,
		Trace:     l.trace,
		SpanID:    l.spanID,
	}
}

// V checks at verbose log level.
func (l *Logger) V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}

// Close closes the logger. it will flush log entries.
func (l *Logger) Close() {
	glog.Flush()
}
