package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubNotificationCleaner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubNotificationCleaner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestNotificationCleanupJobUsesRetentionCutoff(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationCleaner{deleted: 12}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
		RetentionDays: 15,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	fixed := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	job.(*notificationCleanupJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := fixed.Add(-15 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationCleaner{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.(*notificationCleanupJob).retention != defaultNotificationRetentionDays {
		t.Fatalf("expected default retention, got %d", job.(*notificationCleanupJob).retention)
	}
}

func TestNotificationCleanupJobPropagatesError(t *testing.T) {
	t.Parallel()

	repo := &stubNotificationCleaner{err: errors.New("db down")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected cleanup error")
	}
}
