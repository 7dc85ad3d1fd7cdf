package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
)

// taskService tracks work items a TC assigns to agents against a
// transaction.
type taskService struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewTaskService creates a new TaskServicer.
func NewTaskService(db *gorm.DB, auditService AuditServicer) TaskServicer {
	return &taskService{db: db, auditService: auditService}
}

// AssignTask creates a pending task for an agent. The due date must be in
// the future at creation time.
func (s *taskService) AssignTask(caller Caller, input AssignTaskInput) (*models.Task, error) {
	if caller.Role != models.RoleTC {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only a transaction coordinator assigns tasks")
	}
	if input.Title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "task title is required")
	}
	if !input.DueDate.After(time.Now()) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "due date must be in the future")
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		TransactionID: input.TransactionID,
		AgentID:       input.AgentID,
		Title:         input.Title,
		Description:   input.Description,
		DueDate:       input.DueDate,
		Priority:      input.Priority,
		Status:        models.TaskStatusPending,
		AIReminder:    input.AIReminder,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := getScoped(tx, caller, input.TransactionID)
		if err != nil {
			return err
		}
		if transaction.Status.IsTerminal() {
			return apperrors.ErrTransactionTerminal
		}
		// The assignee must be the transaction's own agent; tasks are not
		// farmed out across the brokerage.
		if input.AgentID != transaction.AgentID {
			return apperrors.WithMessage(apperrors.ErrValidation, "assignee must be the transaction's agent")
		}

		if err := tx.Create(task).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Log(caller.UserID, "ASSIGN_TASK", "task", task.ID, input.TransactionID, "",
		map[string]any{"title": input.Title, "agent_id": input.AgentID, "priority": string(input.Priority)})

	return task, nil
}

// UpdateTaskStatus advances a task's stored status. The assignee agent (or
// a reviewer in the brokerage) may only move forward; nothing moves back
// from completed, and the derived overdue state is never written.
func (s *taskService) UpdateTaskStatus(caller Caller, taskID string, newStatus models.TaskStatus) (*models.Task, error) {
	var task models.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTaskNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		transaction, err := getScopedForTask(tx, caller, &task)
		if err != nil {
			return err
		}
		if transaction.Status.IsTerminal() {
			return apperrors.ErrTransactionTerminal
		}

		from := task.Status
		if !models.CanAdvanceTask(from, newStatus) {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot move task from %s to %s", from, newStatus))
		}

		updates := map[string]any{"status": newStatus}
		var completedAt *time.Time
		if newStatus == models.TaskStatusCompleted {
			now := time.Now()
			completedAt = &now
			updates["completed_at"] = now
		}

		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", taskID, from).
			Updates(updates)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition, "task changed concurrently")
		}

		task.Status = newStatus
		task.CompletedAt = completedAt

		return s.auditService.LogTx(tx, &models.AuditEntry{
			ActorID:       caller.UserID,
			Action:        "UPDATE_TASK_STATUS",
			ResourceType:  "task",
			ResourceID:    taskID,
			TransactionID: task.TransactionID,
			Details:       fmt.Sprintf(`{"from":%q,"to":%q}`, from, newStatus),
		})
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// getScopedForTask authorizes task access: the assignee agent or a reviewer
// in the transaction's brokerage. Out-of-scope callers get not-found.
func getScopedForTask(tx *gorm.DB, caller Caller, task *models.Task) (*models.Transaction, error) {
	if caller.Role == models.RoleAgent && task.AgentID != caller.UserID {
		return nil, apperrors.ErrTaskNotFound
	}
	transaction, err := getScoped(tx, caller, task.TransactionID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	return transaction, nil
}

// ListTasksForAgent retrieves a paginated list of an agent's tasks across
// transactions, soonest due first. Agents may only list their own.
func (s *taskService) ListTasksForAgent(caller Caller, agentID string, page pagination.PageRequest) (*pagination.PageResponse[models.Task], error) {
	if caller.Role == models.RoleAgent && agentID != caller.UserID {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "agents may only list their own tasks")
	}

	page.Defaults()

	base := s.db.Model(&models.Task{}).
		Where("agent_id = ?", agentID).
		Where("transaction_id IN (?)", s.db.Model(&models.Transaction{}).Select("id").Where("broker_id = ?", caller.BrokerID))

	return listTasks(base, page)
}

// ListTasksForTransaction retrieves a paginated list of a transaction's
// tasks, soonest due first.
func (s *taskService) ListTasksForTransaction(caller Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Task], error) {
	if _, err := getScoped(s.db, caller, transactionID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Task{}).Where("transaction_id = ?", transactionID)
	return listTasks(base, page)
}

func listTasks(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.Task], error) {
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tasks []models.Task
	if err := base.Scopes(pagination.Paginate(page)).
		Order("due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(tasks, page.Page, page.PageSize, totalItems)
	return &result, nil
}
