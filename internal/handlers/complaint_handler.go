package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/services"
)

// ComplaintHandler handles complaint tracker requests.
type ComplaintHandler struct {
	complaintService services.ComplaintServicer
}

// NewComplaintHandler creates a new ComplaintHandler.
func NewComplaintHandler(complaintService services.ComplaintServicer) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService}
}

// FileComplaintRequest represents the request payload for filing a complaint
type FileComplaintRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Title         string `json:"title" binding:"required,max=200"`
	Description   string `json:"description" binding:"max=2000"`
	Category      string `json:"category" binding:"omitempty,complaint_category"`
	Priority      string `json:"priority" binding:"omitempty,complaint_priority"`
}

// RespondRequest represents a TC/Broker response to a complaint
type RespondRequest struct {
	Response string `json:"response" binding:"required,max=2000"`
	AssignTo string `json:"assign_to" binding:"omitempty,uuid"`
}

// ListComplaintsQuery holds query parameters for listing complaints
type ListComplaintsQuery struct {
	pagination.PageRequest
	Status        *string `form:"status" binding:"omitempty,oneof=new in_progress escalated resolved"`
	TransactionID *string `form:"transaction_id" binding:"omitempty,uuid"`
}

// FileComplaint creates a complaint in status new
// @Summary     File a complaint
// @Description File a complaint against one of the caller's transactions (agent only)
// @Tags        complaints
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FileComplaintRequest true "Complaint details"
// @Success     201 {object} models.Complaint "Complaint filed"
// @Failure     403 {object} ErrorResponse "Caller is not an agent"
// @Router      /complaints [post]
func (h *ComplaintHandler) FileComplaint(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	complaint, err := h.complaintService.FileComplaint(caller, services.FileComplaintInput{
		TransactionID: req.TransactionID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      models.ComplaintCategory(req.Category),
		Priority:      models.TaskPriority(req.Priority),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"complaint": complaint})
}

// Respond records a TC/Broker response
// @Summary     Respond to a complaint
// @Description Record a response; a new complaint moves to in_progress
// @Tags        complaints
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Complaint ID"
// @Param       request body RespondRequest true "Response"
// @Success     200 {object} models.Complaint "Complaint updated"
// @Failure     409 {object} ErrorResponse "Complaint is resolved"
// @Router      /complaints/{id}/respond [post]
func (h *ComplaintHandler) Respond(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	complaint, err := h.complaintService.Respond(caller, c.Param("id"), req.Response, req.AssignTo)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": complaint})
}

// Escalate raises a complaint to escalated
// @Summary     Escalate a complaint
// @Description Escalate a complaint from new or in_progress
// @Tags        complaints
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Complaint ID"
// @Success     200 {object} models.Complaint "Complaint escalated"
// @Failure     409 {object} ErrorResponse "Invalid complaint transition"
// @Router      /complaints/{id}/escalate [post]
func (h *ComplaintHandler) Escalate(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	complaint, err := h.complaintService.Escalate(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": complaint})
}

// Resolve terminally resolves a complaint
// @Summary     Resolve a complaint
// @Description Resolve a complaint from in_progress or escalated
// @Tags        complaints
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Complaint ID"
// @Success     200 {object} models.Complaint "Complaint resolved"
// @Failure     409 {object} ErrorResponse "Invalid complaint transition"
// @Router      /complaints/{id}/resolve [post]
func (h *ComplaintHandler) Resolve(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	complaint, err := h.complaintService.Resolve(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": complaint})
}

// ListComplaints retrieves a paginated complaint list
// @Summary     List complaints
// @Description List complaints within the caller's scope
// @Tags        complaints
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       status query string false "Filter by status"
// @Param       transaction_id query string false "Filter by transaction"
// @Success     200 {object} pagination.PageResponse[models.Complaint] "Complaints"
// @Router      /complaints [get]
func (h *ComplaintHandler) ListComplaints(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListComplaintsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter := services.ComplaintFilter{TransactionID: query.TransactionID}
	if query.Status != nil {
		status := models.ComplaintStatus(*query.Status)
		filter.Status = &status
	}

	result, err := h.complaintService.ListComplaints(caller, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
