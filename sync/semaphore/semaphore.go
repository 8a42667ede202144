// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package semaphore provides named semaphores.
package semaphore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

var (
	mu         sync.Mutex
	semaphores = map[string]*Semaphore{}
)

// Semaphore is a semaphore.
type Semaphore struct {
	name string
	ch   chan int

	waits atomic.Int64
	reqs  atomic.Int64
}

// Lookup returns a semaphore for the name.
func Lookup(name string) (*Semaphore, error) {
	mu.Lock()
	defer mu.Unlock()
	s, ok := semaphores[name]
	if !ok {
		return nil, fmt.Errorf("semaphore %q not found", name)
	}
	return s, nil
}

// New creates a new semaphore with name and capacity.
func New(name string, n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	ch := make(chan int, n)
	for i := range n {
		ch <- i + 1 // tid
	}
	s := &Semaphore{
		name: name,
		ch:   ch,
	}
	mu.Lock()
	semaphores[name] = s
	mu.Unlock()
	return s
}

// WaitAcquire acquires a semaphore.
// It returns a context for acquired semaphore and func to release it.
// The context has a trace span "<name>-serv" that is closed by the func.
func (s *Semaphore) WaitAcquire(ctx context.Context) (context.Context, func(error), error) {
	_, span := trace.NewSpan(ctx, s.name+"-wait")
	s.waits.Add(1)
	defer s.waits.Add(-1)
	select {
	case tid := <-s.ch:
		span.Close(nil)
		s.reqs.Add(1)
		ctx, span := trace.NewSpan(ctx, s.name+"-serv")
		span.SetAttr("tid", tid)
		return ctx, func(err error) {
			span.Close(err)
			s.ch <- tid
		}, nil
	case <-ctx.Done():
		span.Close(ctx.Err())
		return ctx, func(error) {}, ctx.Err()
	}
}

// Name returns name of the semaphore.
func (s *Semaphore) Name() string {
	return s.name
}

// Capacity returns capacity of the semaphore.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.ch)
}

// NumServs returns number of currently served.
func (s *Semaphore) NumServs() int {
	return cap(s.ch) - len(s.ch)
}

// NumWaits returns number of waiters.
func (s *Semaphore) NumWaits() int {
	return int(s.waits.Load())
}

// NumRequests returns total number of requests.
func (s *Semaphore) NumRequests() int {
	return int(s.reqs.Load())
}

// Do runs f under semaphore.
func (s *Semaphore) Do(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, done, err := s.WaitAcquire(ctx)
	if err != nil {
		return err
	}
	err = f(ctx)
	done(err)
	return err
}
