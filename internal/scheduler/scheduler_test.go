package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunFiresSweeps(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("取消后应返回 context.Canceled, 实际 %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("调度器未在期限内退出")
	}

	if calls.Load() < 3 {
		t.Fatalf("应至少执行 3 次, 实际 %d", calls.Load())
	}
}

func TestRunStartupDelayCancellable(t *testing.T) {
	s := New(Options{Interval: time.Hour, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error {
			t.Error("启动延迟期间不应触发扫描")
			return nil
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("应返回 context.Canceled, 实际 %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("调度器未在期限内退出")
	}
}

func TestRunSweepErrorDoesNotStop(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error {
			if calls.Add(1) >= 2 {
				cancel()
			}
			return errors.New("sweep failed")
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("调度器未在期限内退出")
	}

	if calls.Load() < 2 {
		t.Fatalf("扫描出错后应继续执行, 实际 %d 次", calls.Load())
	}
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("非正的间隔应 panic")
		}
	}()
	New(Options{Interval: 0}, zerolog.Nop())
}
