package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/services"
)

// TransactionHandler handles transaction lifecycle requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	PropertyAddress string `json:"property_address" binding:"required,max=500"`
	City            string `json:"city" binding:"required,max=100"`
	State           string `json:"state" binding:"required,max=100"`
	Price           int64  `json:"price" binding:"required,gt=0"`
	ClientName      string `json:"client_name" binding:"required,max=200"`
}

// AdvanceStatusRequest represents the request payload for a status transition
type AdvanceStatusRequest struct {
	Target string `json:"target" binding:"required,transaction_status"`
}

// ListTransactionsQuery holds query parameters for listing transactions
type ListTransactionsQuery struct {
	pagination.PageRequest
	Status  *string `form:"status" binding:"omitempty,transaction_status"`
	AgentID *string `form:"agent_id" binding:"omitempty,uuid"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new real-estate transaction owned by the calling agent
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Property details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Caller is not an agent"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(caller, services.CreateTransactionInput{
		PropertyAddress: req.PropertyAddress,
		City:            req.City,
		State:           req.State,
		Price:           req.Price,
		ClientName:      req.ClientName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransaction retrieves a single transaction
// @Summary     Get a transaction
// @Description Get a transaction visible to the caller
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransaction(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// ListTransactions retrieves a paginated transaction list
// @Summary     List transactions
// @Description List transactions within the caller's scope
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       status query string false "Filter by status"
// @Param       agent_id query string false "Filter by agent"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter := services.TransactionFilter{AgentID: query.AgentID}
	if query.Status != nil {
		status := models.TransactionStatus(*query.Status)
		filter.Status = &status
	}

	result, err := h.transactionService.ListTransactions(caller, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AdvanceStatus moves a transaction along one lifecycle edge
// @Summary     Advance transaction status
// @Description Move a transaction along one edge of the lifecycle graph
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body AdvanceStatusRequest true "Target status"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     403 {object} ErrorResponse "Role not permitted on this edge"
// @Failure     409 {object} ErrorResponse "Edge does not exist"
// @Failure     412 {object} ErrorResponse "Readiness criteria unmet"
// @Router      /transactions/{id}/status [put]
func (h *TransactionHandler) AdvanceStatus(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	transaction, err := h.transactionService.AdvanceStatus(caller, c.Param("id"), models.TransactionStatus(req.Target))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// CancelTransaction cancels a transaction
// @Summary     Cancel a transaction
// @Description Cancel a transaction from any non-terminal status
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction cancelled"
// @Failure     409 {object} ErrorResponse "Transaction is already terminal"
// @Router      /transactions/{id}/cancel [post]
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CancelTransaction(caller, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
