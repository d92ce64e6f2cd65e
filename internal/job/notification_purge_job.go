package job

import (
	"Murmur/internal/pkg/logger"
	"Murmur/internal/service"
	"context"
	log "log/slog"
	"time"
)

// NotificationPurgeJob 定期清理超过保留期的通知
type NotificationPurgeJob struct {
	notificationSvc service.NotificationService
	retention       time.Duration
	now             func() time.Time
}

func NewNotificationPurgeJob(notificationSvc service.NotificationService, retentionDays int) *NotificationPurgeJob {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &NotificationPurgeJob{
		notificationSvc: notificationSvc,
		retention:       time.Duration(retentionDays) * 24 * time.Hour,
		now:             time.Now,
	}
}

func (s *NotificationPurgeJob) Run() {
	ctx := logger.WithTraceID(context.Background())
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	before := s.now().Add(-s.retention)
	n, err := s.notificationSvc.PurgeAll(ctx, before)
	if err != nil {
		log.ErrorContext(ctx, "notification purge failed", "before", before, "err", err)
		return
	}
	log.InfoContext(ctx, "NotificationPurgeJob finished", "before", before, "deleted", n)
}
