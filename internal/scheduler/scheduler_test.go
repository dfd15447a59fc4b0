package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GregMSThompson/spendwise/pkg/logger"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func testScheduler(t *testing.T, tasks ...Task) *Scheduler {
	t.Helper()
	s, err := New(logger.New("", logger.NewTestHandler), ist, tasks...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(logger.New("", logger.NewTestHandler), ist, Task{Name: "bad", Spec: "not a cron", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNextRun(t *testing.T) {
	noop := func(context.Context) error { return nil }
	s := testScheduler(t,
		Task{Name: "process", Spec: ProcessEmailsSpec, Run: noop},
		Task{Name: "daily", Spec: DailySummarySpec, Run: noop},
		Task{Name: "weekly", Spec: WeeklyReportSpec, Run: noop},
	)
	process, daily, weekly := s.tasks[0], s.tasks[1], s.tasks[2]

	// Friday 10 May 2024.
	at := func(h, m int) time.Time { return time.Date(2024, 5, 10, h, m, 0, 0, ist) }

	cases := []struct {
		name string
		task Task
		from time.Time
		want time.Time
	}{
		{"before window", process, at(7, 30), at(8, 0)},
		{"inside window", process, at(8, 0), at(10, 0)},
		{"odd hour", process, at(13, 15), at(14, 0)},
		{"last run", process, at(21, 59), at(22, 0)},
		{"after window", process, at(22, 0), time.Date(2024, 5, 11, 8, 0, 0, 0, ist)},
		{"daily", daily, at(9, 0), at(21, 0)},
		{"weekly sunday", weekly, at(9, 0), time.Date(2024, 5, 12, 10, 0, 0, 0, ist)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.NextRun(tc.task, tc.from); !got.Equal(tc.want) {
				t.Fatalf("next = %v, want %v", got, tc.want)
			}
		})
	}

	// The zone is applied even when the caller's clock is in UTC.
	if got := s.NextRun(daily, at(9, 0).UTC()); !got.Equal(at(21, 0)) {
		t.Fatalf("next from UTC clock = %v, want %v", got, at(21, 0))
	}
}

func firing() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRunSerialisesTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running, overlaps, total int32
	job := func(context.Context) error {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			atomic.AddInt32(&overlaps, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.StoreInt32(&running, 0)
		if atomic.AddInt32(&total, 1) >= 10 {
			cancel()
		}
		return nil
	}
	s := testScheduler(t,
		Task{Name: "a", Spec: ProcessEmailsSpec, Run: job},
		Task{Name: "b", Spec: DailySummarySpec, Run: job},
	)
	s.after = func(time.Duration) <-chan time.Time { return firing() }

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop after cancellation")
	}
	if overlaps != 0 {
		t.Fatalf("%d ticks overlapped", overlaps)
	}
	if total < 10 {
		t.Fatalf("ran %d ticks, want at least 10", total)
	}
}

func TestRunContinuesAfterFailedTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	s := testScheduler(t, Task{Name: "flaky", Spec: DailySummarySpec, Run: func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("mailbox unavailable")
	}})
	s.after = func(time.Duration) <-chan time.Time { return firing() }

	s.Run(ctx)
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRunStopsWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	s := testScheduler(t, Task{Name: "idle", Spec: WeeklyReportSpec, Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})
	s.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
	if ran.Load() {
		t.Fatalf("task ran without its timer firing")
	}
}
