package parallel

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func ok(context.Context) (string, error) { return "", nil }

func TestRun_Success(t *testing.T) {
	tasks := []Task{
		{Name: "Acme", Fn: ok},
		{Name: "Foo", Fn: ok},
		{Name: "Bar", Fn: ok},
	}

	results := Run(context.Background(), nil, tasks, 4)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK {
			t.Errorf("task %s should be OK", r.Name)
		}
		if r.Err != nil {
			t.Errorf("task %s should have no error", r.Name)
		}
	}
	if len(Failed(results)) != 0 {
		t.Error("expected no failures")
	}
}

func TestRun_WithErrors(t *testing.T) {
	tasks := []Task{
		{Name: "ok-task", Fn: ok},
		{Name: "fail-task", Fn: func(context.Context) (string, error) {
			return "some output", fmt.Errorf("simulated failure")
		}},
	}

	var buf bytes.Buffer
	results := Run(context.Background(), &buf, tasks, 4)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if !results[0].OK {
		t.Error("first task should be OK")
	}
	if results[1].OK || results[1].Err == nil {
		t.Error("second task should have failed")
	}
	if results[1].Output != "some output" {
		t.Errorf("expected output %q, got %q", "some output", results[1].Output)
	}
	if failed := Failed(results); len(failed) != 1 || failed[0].Name != "fail-task" {
		t.Errorf("unexpected failures %+v", failed)
	}
	if !strings.Contains(buf.String(), "simulated failure") {
		t.Errorf("progress should mention the failure, got %q", buf.String())
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{
			Name: fmt.Sprintf("task-%d", i),
			Fn: func(context.Context) (string, error) {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return "", nil
			},
		}
	}

	results := Run(context.Background(), nil, tasks, 2)

	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	results := Run(context.Background(), nil, []Task{{Name: "test", Fn: ok}}, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	results := Run(ctx, nil, []Task{{Name: "late", Fn: func(context.Context) (string, error) {
		ran.Store(true)
		return "", nil
	}}}, 1)

	if ran.Load() {
		t.Error("task should not run after cancellation")
	}
	if results[0].OK || results[0].Err != context.Canceled {
		t.Errorf("expected context.Canceled, got %+v", results[0])
	}
}

func TestRun_TimingTracked(t *testing.T) {
	tasks := []Task{
		{Name: "slow", Fn: func(context.Context) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "", nil
		}},
	}

	results := Run(context.Background(), nil, tasks, 1)
	if results[0].Elapsed < 50*time.Millisecond {
		t.Errorf("expected elapsed >= 50ms, got %v", results[0].Elapsed)
	}
}

func TestRun_OutputCaptured(t *testing.T) {
	tasks := []Task{
		{Name: "with-output", Fn: func(context.Context) (string, error) { return "acme.svg", nil }},
	}

	results := Run(context.Background(), nil, tasks, 1)
	if results[0].Output != "acme.svg" {
		t.Errorf("expected output %q, got %q", "acme.svg", results[0].Output)
	}
}
