// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package semaphore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/cxxmod/o11y/trace"
	"go.chromium.org/infra/build/cxxmod/sync/semaphore"
)

type stats struct {
	Servs, Waits, Requests int
}

func checkStats(t *testing.T, sema *semaphore.Semaphore, want stats) {
	t.Helper()
	got := stats{
		Servs:    sema.NumServs(),
		Waits:    sema.NumWaits(),
		Requests: sema.NumRequests(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats diff -want +got:\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	sema := semaphore.New(t.Name(), 3)
	if name := sema.Name(); name != t.Name() {
		t.Errorf("Name=%q; want %q", name, t.Name())
	}
	if n := sema.Capacity(); n != 3 {
		t.Errorf("Capacity=%d; want %d", n, 3)
	}
	got, err := semaphore.Lookup(t.Name())
	if err != nil || got != sema {
		t.Errorf("Lookup(%q)=%p, %v; want %p, nil", t.Name(), got, err, sema)
	}
	badName := t.Name() + "_not_created"
	_, err = semaphore.Lookup(badName)
	if err == nil {
		t.Errorf("Lookup(%q)=_, %v; want err", badName, err)
	}
}

func TestWaitAcquire(t *testing.T) {
	ctx := context.Background()
	sema := semaphore.New(t.Name(), 3)
	checkStats(t, sema, stats{})

	var dones []func(error)
	for i := range 3 {
		_, done, err := sema.WaitAcquire(ctx)
		if err != nil {
			t.Fatalf("WaitAcquire %d: %v", i, err)
		}
		dones = append(dones, done)
		checkStats(t, sema, stats{Servs: i + 1, Requests: i + 1})
	}

	tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	_, _, err := sema.WaitAcquire(tctx)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitAcquire=%v; want %v", err, context.DeadlineExceeded)
	}
	checkStats(t, sema, stats{Servs: 3, Requests: 3})

	dones[0](nil)
	checkStats(t, sema, stats{Servs: 2, Requests: 3})
	_, done, err := sema.WaitAcquire(ctx)
	if err != nil {
		t.Fatalf("WaitAcquire %v", err)
	}
	checkStats(t, sema, stats{Servs: 3, Requests: 4})
	dones[1](nil)
	dones[2](nil)
	done(nil)
	checkStats(t, sema, stats{Requests: 4})
}

func TestDo(t *testing.T) {
	ctx := context.Background()
	sema := semaphore.New(t.Name(), 3)

	var called, running, maxRunning atomic.Int32
	f := func(ctx context.Context) error {
		called.Add(1)
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return nil
	}

	const count = 50
	var wg sync.WaitGroup
	for i := range count {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := sema.Do(ctx, f)
			if err != nil {
				t.Errorf("Do %d: %v", i, err)
			}
		}()
	}
	wg.Wait()
	checkStats(t, sema, stats{Requests: count})
	if n := called.Load(); n != count {
		t.Errorf("called=%d; want %d", n, count)
	}
	if n := maxRunning.Load(); n > 3 {
		t.Errorf("max running=%d; want <= 3", n)
	}
}

func TestDo_err(t *testing.T) {
	ctx := context.Background()
	sema := semaphore.New(t.Name(), 3)
	wantErr := errors.New("error")
	err := sema.Do(ctx, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Do %v; want %v", err, wantErr)
	}
	checkStats(t, sema, stats{Requests: 1})
}

func TestDo_trace(t *testing.T) {
	ctx := context.Background()
	tc := trace.New(ctx, "")
	ctx = trace.NewContext(ctx, tc)
	sema := semaphore.New(t.Name(), 1)
	err := sema.Do(ctx, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Do=%v; want nil", err)
	}
	var got []string
	for _, sd := range tc.Spans() {
		got = append(got, sd.Name)
	}
	want := []string{t.Name() + "-wait", t.Name() + "-serv"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans diff -want +got:\n%s", diff)
	}
}
