package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSessions struct {
	removed int
	err     error
	calls   int
}

func (f *fakeSessions) SweepIdle(context.Context) (int, error) {
	f.calls++
	return f.removed, f.err
}

type fakeQuota struct {
	removed int
	err     error
	calls   int
}

func (f *fakeQuota) Sweep(context.Context) (int, error) {
	f.calls++
	return f.removed, f.err
}

type countingSessions struct {
	calls atomic.Int32
}

func (c *countingSessions) SweepIdle(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

type fakeWindows struct {
	calls int
}

func (f *fakeWindows) SweepExpired() int {
	f.calls++
	return 1
}

func TestRunSweepsEveryStore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sessions := &fakeSessions{removed: 3}
	quota := &fakeQuota{removed: 2}
	windows := &fakeWindows{}
	logins := &fakeWindows{}

	job := New(sessions, quota, time.Minute, zap.New(core))
	job.AttachExpirySweep("rate_windows", windows)
	job.AttachExpirySweep("auth_sessions", logins)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if sessions.calls != 1 || quota.calls != 1 || windows.calls != 1 || logins.calls != 1 {
		t.Fatalf("unexpected sweep calls: sessions=%d quota=%d windows=%d logins=%d", sessions.calls, quota.calls, windows.calls, logins.calls)
	}
	if logs.FilterMessage("cleanup idle browsing sessions completed").Len() != 1 {
		t.Fatalf("expected session sweep log entry")
	}
	if logs.FilterMessage("cleanup stale quota counters completed").Len() != 1 {
		t.Fatalf("expected quota sweep log entry")
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("redis down")}
	quota := &fakeQuota{}

	job := New(sessions, quota, 0, nil)
	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected sweep error")
	}
	if quota.calls != 1 {
		t.Fatalf("quota sweep should still run, calls=%d", quota.calls)
	}
	if job.interval != defaultInterval {
		t.Fatalf("unexpected default interval: %s", job.interval)
	}
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	sessions := &countingSessions{}
	job := New(sessions, nil, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Loop(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sessions.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}
