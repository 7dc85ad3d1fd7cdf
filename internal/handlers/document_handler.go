package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/services"
)

// DocumentHandler handles document ledger requests.
type DocumentHandler struct {
	documentService services.DocumentServicer
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService services.DocumentServicer) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// UploadDocumentRequest represents the request payload for uploading a document
type UploadDocumentRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	FileRef string `json:"file_ref" binding:"required,max=500"`
}

// DecideDocumentRequest represents a TC/Broker verdict on a pending document
type DecideDocumentRequest struct {
	Decision string `json:"decision" binding:"required,document_decision"`
	Comments string `json:"comments" binding:"max=2000"`
}

// UploadDocument attaches a new pending document to a transaction
// @Summary     Upload a document
// @Description Attach a pending document to a transaction; verification runs asynchronously
// @Tags        documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UploadDocumentRequest true "Document details"
// @Success     201 {object} models.Document "Document created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Transaction is terminal"
// @Router      /transactions/{id}/documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	document, err := h.documentService.UploadDocument(caller, c.Param("id"), req.Name, req.FileRef)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": document})
}

// DecideDocument approves or rejects a pending document
// @Summary     Decide a document
// @Description Approve or reject a pending document (TC/Broker only)
// @Tags        documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Document ID"
// @Param       request body DecideDocumentRequest true "Decision"
// @Success     200 {object} models.Document "Document decided"
// @Failure     403 {object} ErrorResponse "Caller may not decide documents"
// @Failure     409 {object} ErrorResponse "Document already decided"
// @Router      /documents/{id}/decision [put]
func (h *DocumentHandler) DecideDocument(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DecideDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	document, err := h.documentService.DecideDocument(caller, c.Param("id"), models.DocumentDecision(req.Decision), req.Comments)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": document})
}

// ListDocuments retrieves a transaction's documents
// @Summary     List documents
// @Description List a transaction's documents, oldest first
// @Tags        documents
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Document] "Documents"
// @Router      /transactions/{id}/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
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

	result, err := h.documentService.ListDocuments(caller, c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
