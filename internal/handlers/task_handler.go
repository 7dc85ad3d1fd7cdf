package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/services"
)

// TaskHandler handles task board requests.
type TaskHandler struct {
	taskService services.TaskServicer
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService services.TaskServicer) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// AssignTaskRequest represents the request payload for assigning a task
type AssignTaskRequest struct {
	AgentID     string    `json:"agent_id" binding:"required,uuid"`
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	DueDate     time.Time `json:"due_date" binding:"required"`
	Priority    string    `json:"priority" binding:"omitempty,task_priority"`
	AIReminder  bool      `json:"ai_reminder"`
}

// UpdateTaskStatusRequest represents the request payload for a task status change
type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required,task_status"`
}

// TaskResponse is a task with its derived overdue state. The overdue flag
// and effective status are recomputed on every read, never stored.
type TaskResponse struct {
	models.Task
	EffectiveStatus models.TaskStatus `json:"effective_status"`
	Overdue         bool              `json:"overdue"`
}

func taskResponses(tasks []models.Task, now time.Time) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, TaskResponse{
			Task:            task,
			EffectiveStatus: task.EffectiveStatus(now),
			Overdue:         task.IsOverdue(now),
		})
	}
	return responses
}

// AssignTask creates a pending task for an agent
// @Summary     Assign a task
// @Description Assign a task to a transaction's agent (TC only)
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body AssignTaskRequest true "Task details"
// @Success     201 {object} models.Task "Task created"
// @Failure     400 {object} ErrorResponse "Invalid input or past due date"
// @Failure     403 {object} ErrorResponse "Caller is not a TC"
// @Router      /transactions/{id}/tasks [post]
func (h *TaskHandler) AssignTask(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	task, err := h.taskService.AssignTask(caller, services.AssignTaskInput{
		TransactionID: c.Param("id"),
		AgentID:       req.AgentID,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		Priority:      models.TaskPriority(req.Priority),
		AIReminder:    req.AIReminder,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// UpdateTaskStatus advances a task's stored status
// @Summary     Update task status
// @Description Advance a task; no role moves a task backward from completed
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Param       request body UpdateTaskStatusRequest true "New status"
// @Success     200 {object} models.Task "Task updated"
// @Failure     409 {object} ErrorResponse "Invalid task transition"
// @Router      /tasks/{id}/status [put]
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	task, err := h.taskService.UpdateTaskStatus(caller, c.Param("id"), models.TaskStatus(req.Status))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// ListTasksForTransaction retrieves a transaction's tasks
// @Summary     List transaction tasks
// @Description List a transaction's tasks with derived overdue state
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[TaskResponse] "Tasks"
// @Router      /transactions/{id}/tasks [get]
func (h *TaskHandler) ListTasksForTransaction(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.taskService.ListTasksForTransaction(caller, c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response := pagination.NewPageResponse(taskResponses(result.Data, time.Now()), result.Page, result.PageSize, result.TotalItems)
	c.JSON(http.StatusOK, response)
}

// ListTasksForAgent retrieves an agent's tasks
// @Summary     List agent tasks
// @Description List an agent's tasks across transactions with derived overdue state
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Agent ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[TaskResponse] "Tasks"
// @Router      /agents/{id}/tasks [get]
func (h *TaskHandler) ListTasksForAgent(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.taskService.ListTasksForAgent(caller, c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response := pagination.NewPageResponse(taskResponses(result.Data, time.Now()), result.Page, result.PageSize, result.TotalItems)
	c.JSON(http.StatusOK, response)
}
