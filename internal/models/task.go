package models

import "time"

// TaskStatus represents the stored state of a task. Overdue is not a stored
// status: it is derived at read time from the due date.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"

	// TaskStatusOverdue appears only in API responses, never in the
	// database. See Task.EffectiveStatus.
	TaskStatusOverdue TaskStatus = "overdue"
)

// taskOrder gives the forward ordering of stored task states. Tasks only
// move forward; nothing moves back from completed.
var taskOrder = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusInProgress: 1,
	TaskStatusCompleted:  2,
}

// CanAdvanceTask reports whether a stored task status may move to the given
// stored status. Skipping in_progress (pending -> completed) is allowed.
func CanAdvanceTask(from, to TaskStatus) bool {
	fo, ok := taskOrder[from]
	if !ok {
		return false
	}
	no, ok := taskOrder[to]
	if !ok {
		return false
	}
	return no > fo
}

// TaskPriority represents how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is a discrete work item a TC assigns to an agent against a
// transaction.
type Task struct {
	Base
	TransactionID string       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	AgentID       string       `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title         string       `gorm:"not null" json:"title"`
	Description   string       `json:"description,omitempty"`
	DueDate       time.Time    `gorm:"not null" json:"due_date"`
	Priority      TaskPriority `gorm:"not null;default:'medium'" json:"priority"`
	Status        TaskStatus   `gorm:"not null;default:'pending';index" json:"status"`
	AIReminder    bool         `gorm:"default:false" json:"ai_reminder"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`

	// LastRemindedAt throttles the reminder sweep; it carries no workflow
	// meaning.
	LastRemindedAt *time.Time `json:"-"`
}

// IsOverdue is a pure predicate: the task is past due and not completed.
// It never mutates stored state.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusCompleted && t.DueDate.Before(now)
}

// EffectiveStatus returns the stored status, substituting the derived
// overdue state where it applies. Recomputed on every read.
func (t *Task) EffectiveStatus(now time.Time) TaskStatus {
	if t.IsOverdue(now) {
		return TaskStatusOverdue
	}
	return t.Status
}
