package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/services"
)

// ClosureHandler handles readiness evaluation and the TC -> Broker handoff.
type ClosureHandler struct {
	closureService services.ClosureServicer
}

// NewClosureHandler creates a new ClosureHandler.
func NewClosureHandler(closureService services.ClosureServicer) *ClosureHandler {
	return &ClosureHandler{closureService: closureService}
}

// ForwardRequest represents the request payload for forwarding to the broker
type ForwardRequest struct {
	Notes string `json:"notes" binding:"required,max=2000"`
}

// EvaluateReadiness computes closure readiness for a transaction
// @Summary     Evaluate readiness
// @Description Compute whether a transaction meets closure-readiness criteria
// @Tags        closure
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.Readiness "Readiness"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id}/readiness [get]
func (h *ClosureHandler) EvaluateReadiness(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	readiness, err := h.closureService.EvaluateReadiness(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"readiness": readiness})
}

// ForwardToBroker hands a ready transaction to the broker
// @Summary     Forward to broker
// @Description Forward a ready transaction to the broker with handoff notes
// @Tags        closure
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body ForwardRequest true "Handoff notes"
// @Success     200 {object} models.Transaction "Transaction forwarded"
// @Failure     409 {object} ErrorResponse "Transaction is not ready_for_closure"
// @Failure     412 {object} ErrorResponse "Readiness criteria unmet"
// @Router      /transactions/{id}/forward [post]
func (h *ClosureHandler) ForwardToBroker(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.closureService.ForwardToBroker(caller, c.Param("id"), req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// CloseTransaction performs the broker's final closure
// @Summary     Close a transaction
// @Description Close a forwarded transaction (broker only, terminal)
// @Tags        closure
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction closed"
// @Failure     403 {object} ErrorResponse "Caller is not a broker"
// @Failure     409 {object} ErrorResponse "Transaction is not forwarded_to_broker"
// @Router      /transactions/{id}/close [post]
func (h *ClosureHandler) CloseTransaction(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.closureService.CloseTransaction(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
