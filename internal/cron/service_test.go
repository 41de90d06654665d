package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

type stubLock struct {
	held     bool
	acquires int
	releases int
	err      error
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	l.acquires++
	if l.err != nil {
		return false, l.err
	}
	return !l.held, nil
}

func (l *stubLock) Release(ctx context.Context) error {
	l.releases++
	return nil
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestRunCycleExecutesAllJobs(t *testing.T) {
	t.Parallel()

	first := &namedJob{name: "first"}
	second := &namedJob{name: "second", err: errors.New("boom")}
	third := &namedJob{name: "third"}
	lock := &stubLock{}

	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("expected every job to run once, got %d/%d/%d", first.runs, second.runs, third.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected one lock release, got %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	job := &namedJob{name: "only"}
	lock := &stubLock{held: true}

	svc, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run while another instance holds the lock")
	}
	if lock.releases != 0 {
		t.Fatal("release must not fire when the lock was not acquired")
	}
}

func TestRunCycleReportsLockError(t *testing.T) {
	t.Parallel()

	lock := &stubLock{err: errors.New("redis down")}
	svc, err := NewService(ServiceParams{
		Logger: cronTestLogger(),
		Lock:   lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock acquisition error")
	}
}
