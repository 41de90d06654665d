package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const defaultNotificationRetentionDays = 30

type notificationCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the notification retention job.
type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationCleanupRepo
	RetentionDays int
}

// NewNotificationCleanupJob builds the cron job that prunes old notification rows.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultNotificationRetentionDays
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		repo:      params.Notifications,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	repo      notificationCleanupRepo
	retention int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
