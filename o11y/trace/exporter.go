// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package trace

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// event is a complete event ("ph":"X") of the Chrome trace event format,
// readable by chrome://tracing and Perfetto.
type event struct {
	Name string         `json:"name"`
	Ph   string         `json:"ph"`
	TS   int64          `json:"ts"`
	Dur  int64          `json:"dur"`
	PID  int            `json:"pid"`
	TID  int            `json:"tid"`
	Args map[string]any `json:"args,omitempty"`
}

type traceFile struct {
	TraceEvents []event `json:"traceEvents"`
	Metadata    struct {
		TraceID string `json:"trace_id"`
	} `json:"metadata"`
}

// WriteChromeTrace writes spans of t to w in Chrome trace event format.
// Timestamps are relative to the start of the first span.
func (t *Context) WriteChromeTrace(w io.Writer) error {
	spans := t.Spans()
	var tf traceFile
	if t != nil {
		tf.Metadata.TraceID = t.traceID.String()
	}
	var origin time.Time
	if len(spans) > 0 {
		origin = spans[0].Start
	}
	byID := make(map[int]SpanData, len(spans))
	for _, sd := range spans {
		byID[sd.ID] = sd
	}
	for _, sd := range spans {
		args := sd.Attrs
		if sd.Error != "" {
			if args == nil {
				args = make(map[string]any)
			}
			args["error"] = sd.Error
		}
		tf.TraceEvents = append(tf.TraceEvents, event{
			Name: sd.Name,
			Ph:   "X",
			TS:   sd.Start.Sub(origin).Microseconds(),
			Dur:  sd.Duration().Microseconds(),
			PID:  1,
			TID:  depth(byID, sd),
			Args: args,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(tf)
}

// WriteChromeTraceFile writes spans of t to fname.
func (t *Context) WriteChromeTraceFile(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	err = t.WriteChromeTrace(f)
	cerr := f.Close()
	if err != nil {
		return err
	}
	return cerr
}

// depth returns nesting level of sd, used as thread id so that
// nested spans are rendered in separate rows.
func depth(byID map[int]SpanData, sd SpanData) int {
	d := 1
	for p := sd.Parent; p != 0; d++ {
		ps, ok := byID[p]
		if !ok {
			break
		}
		p = ps.Parent
	}
	return d
}
