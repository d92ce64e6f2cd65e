package cron

import (
	"Murmur/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine    *cron.Cron
	purgeSpec string
	purgeJob  *job.NotificationPurgeJob
}

// NewCronManager purgeSpec 为带秒的 cron 表达式
func NewCronManager(purgeSpec string, purgeJob *job.NotificationPurgeJob) *Manager {
	if purgeSpec == "" {
		purgeSpec = "@daily"
	}
	return &Manager{
		engine:    cron.New(cron.WithSeconds()),
		purgeSpec: purgeSpec,
		purgeJob:  purgeJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.purgeSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.purgeJob)); err != nil {
		return err
	}
	return nil
}

// Entries 已注册任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
