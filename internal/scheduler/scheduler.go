// Package scheduler runs the periodic task reminder sweep. It finds tasks
// flagged for reminders that are overdue or due within the reminder window
// and records reminder audit entries; delivery mechanics stay external.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"dealdesk/internal/config"
	"dealdesk/internal/logger"
	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

// Scheduler drives the cron-based reminder sweep.
type Scheduler struct {
	cron         *cron.Cron
	db           *gorm.DB
	auditService services.AuditServicer
	window       time.Duration
	schedule     string
}

// New creates a scheduler from configuration.
func New(db *gorm.DB, cfg *config.Config, auditService services.AuditServicer) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		db:           db,
		auditService: auditService,
		window:       cfg.ReminderWindow,
		schedule:     cfg.ReminderSchedule,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.SweepReminders(time.Now()); err != nil {
			logger.Get().Errorw("reminder sweep failed", "error", err.Error())
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Get().Infow("reminder scheduler started", "schedule", s.schedule, "window", s.window.String())
	return nil
}

// Stop stops the cron loop; running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// SweepReminders records a reminder audit entry for every ai_reminder task
// that is not completed and due before now+window. The sweep never mutates
// task state: overdue stays a derived read-time property.
func (s *Scheduler) SweepReminders(now time.Time) error {
	cutoff := now.Add(s.window)

	var tasks []models.Task
	if err := s.db.
		Where("ai_reminder = ?", true).
		Where("status <> ?", models.TaskStatusCompleted).
		Where("due_date < ?", cutoff).
		Where("last_reminded_at IS NULL OR last_reminded_at < ?", now.Add(-s.window)).
		Find(&tasks).Error; err != nil {
		return err
	}

	for _, task := range tasks {
		s.auditService.Log(task.AgentID, "TASK_REMINDER", "task", task.ID, task.TransactionID, "",
			map[string]any{
				"title":    task.Title,
				"due_date": task.DueDate.Format(time.RFC3339),
				"overdue":  task.IsOverdue(now),
			})
		if err := s.db.Model(&models.Task{}).Where("id = ?", task.ID).
			Update("last_reminded_at", now).Error; err != nil {
			return err
		}
	}

	if len(tasks) > 0 {
		logger.Get().Infow("reminder sweep completed", "reminders", len(tasks))
	}
	return nil
}
