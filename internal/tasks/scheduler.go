package tasks

import (
	"fmt"
	"runtime/debug"
	"sync"

	"coffeetour/internal/config"
	"coffeetour/internal/logger"
	"coffeetour/internal/services"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic jobs: the directory sync that keeps the
// generated files converged, and the GitHub backup when configured.
type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	syncSvc   *services.SyncService
	backupSvc *services.BackupService
	mu        sync.Mutex
}

func NewScheduler(cfg *config.Config, syncSvc *services.SyncService, backupSvc *services.BackupService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		cfg:       cfg,
		syncSvc:   syncSvc,
		backupSvc: backupSvc,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval := s.cfg.Sync.AutoIntervalHours; interval > 0 {
		spec := fmt.Sprintf("@every %dh", interval)
		_, err := s.cron.AddFunc(spec, recoveryWrapper(s.runSync))
		if err != nil {
			logger.Errorw("schedule_sync_failed", "spec", spec, "error", err)
		} else {
			logger.Infow("sync_scheduled", "interval_hours", interval)
		}
	}

	if s.cfg.Github.Repo != "" && s.cfg.Github.Token != "" {
		_, err := s.cron.AddFunc("@every 24h", recoveryWrapper(s.runBackup))
		if err != nil {
			logger.Errorw("schedule_backup_failed", "error", err)
		} else {
			logger.Infow("backup_scheduled", "repo", s.cfg.Github.Repo)
		}
	}

	if len(s.cron.Entries()) > 0 {
		s.cron.Start()
		logger.Infow("scheduler_started", "jobs", len(s.cron.Entries()))
	} else {
		logger.Infow("scheduler_idle")
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Stop()
}

func (s *Scheduler) runSync() {
	result, err := s.syncSvc.Sync()
	if err != nil {
		logger.Errorw("scheduled_sync_failed", "error", err)
		return
	}
	logger.Infow("scheduled_sync_done",
		"created", result.Created, "updated", result.Updated, "removed", result.Removed)
}

func (s *Scheduler) runBackup() {
	err := s.backupSvc.BackupToGithub(s.cfg.Github.Repo, s.cfg.Github.Branch, s.cfg.Github.Token)
	if err != nil {
		logger.Errorw("scheduled_backup_failed", "error", err)
		return
	}
	logger.Infow("scheduled_backup_done")
}

func recoveryWrapper(job func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("scheduled_job_panic", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		job()
	}
}
