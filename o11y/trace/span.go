// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package trace manages execution traces of a cxxmod invocation.
package trace

import (
	"context"
	"maps"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
)

// Context is a trace context.
type Context struct {
	traceID uuid.UUID

	mu sync.Mutex
	// first span is the top span in the trace.
	spans []*Span
}

// New creates a new context for id (uuid).
// A new random id is used if id is not a valid uuid.
func New(ctx context.Context, id string) *Context {
	if log.V(2) {
		clog.Infof(ctx, "new trace context for %s", id)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		clog.Warningf(ctx, "bad trace id %q: %v", id, err)
		u = uuid.New()
	}
	return &Context{
		traceID: u,
	}
}

// NewSpan creates new span in the parent.
func (t *Context) NewSpan(ctx context.Context, name string, parent *Span) *Span {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if parent == nil && len(t.spans) > 0 {
		parent = t.spans[0]
	}
	span := &Span{
		t:      t,
		id:     len(t.spans) + 1,
		parent: parent,
		name:   name,
		start:  time.Now(),
		attrs:  make(map[string]any),
	}
	if log.V(2) {
		clog.Infof(ctx, "new span %s %d<%v", name, span.id, parent)
	}
	t.spans = append(t.spans, span)
	return span
}

// Spans returns span data in the trace context.
func (t *Context) Spans() []SpanData {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	spans := append([]*Span(nil), t.spans...)
	t.mu.Unlock()
	data := make([]SpanData, 0, len(spans))
	for _, s := range spans {
		data = append(data, s.data())
	}
	return data
}

type contextKeyType int

const (
	contextKey contextKeyType = iota
	spanKey
)

// NewContext returns new context with a trace context.
func NewContext(ctx context.Context, t *Context) context.Context {
	return context.WithValue(ctx, contextKey, t)
}

// FromContext returns a trace context in ctx, or nil if not set.
func FromContext(ctx context.Context) *Context {
	t, _ := ctx.Value(contextKey).(*Context)
	return t
}

// NewSpan returns new contexts and span.
// If no trace context, returns nil span.
func NewSpan(ctx context.Context, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if t == nil {
		return ctx, nil
	}
	parent, _ := ctx.Value(spanKey).(*Span)
	span := t.NewSpan(ctx, name, parent)
	return context.WithValue(ctx, spanKey, span), span
}

// ID returns the trace id.
func ID(ctx context.Context) string {
	t := FromContext(ctx)
	if t == nil {
		return ""
	}
	return t.traceID.String()
}

// CurSpan returns current span in the context.
func CurSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey).(*Span)
	return span
}

// Span is a trace span.
type Span struct {
	t      *Context
	id     int
	parent *Span

	mu    sync.Mutex
	name  string
	start time.Time
	end   time.Time
	attrs map[string]any
	err   error
}

func (s *Span) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// SetAttr sets attributes in the span.
func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[key] = value
}

// Close closes the span with err.
func (s *Span) Close(err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = time.Now()
	s.err = err
}

func (s *Span) data() SpanData {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	sd := SpanData{
		Name:  s.name,
		ID:    s.id,
		Start: s.start,
		End:   end,
		Attrs: maps.Clone(s.attrs),
	}
	if s.parent != nil {
		sd.Parent = s.parent.id
	}
	if s.err != nil {
		sd.Error = s.err.Error()
	}
	return sd
}

// SpanData is a span data.
type SpanData struct {
	Name   string
	ID     int
	Parent int
	Start  time.Time
	End    time.Time
	Attrs  map[string]any
	Error  string
}

// Duration returns duration of the span.
func (sd SpanData) Duration() time.Duration {
	return sd.End.Sub(sd.Start)
}
