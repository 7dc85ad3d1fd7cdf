package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"dealdesk/internal/ai"
	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/logger"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
)

// documentService tracks documents attached to a transaction, their
// verification state, and approval.
type documentService struct {
	db           *gorm.DB
	verifier     ai.Verifier
	auditService AuditServicer
}

// NewDocumentService creates a new DocumentServicer.
func NewDocumentService(db *gorm.DB, verifier ai.Verifier, auditService AuditServicer) DocumentServicer {
	return &documentService{db: db, verifier: verifier, auditService: auditService}
}

// UploadDocument attaches a new pending document to a transaction. A
// re-upload after a rejection is a new record; decided documents are never
// mutated. Uploading while the transaction sits at ready_for_closure
// demotes it to in_progress so readiness is re-evaluated against the new
// document.
func (s *documentService) UploadDocument(caller Caller, transactionID, name, fileRef string) (*models.Document, error) {
	if caller.Role != models.RoleAgent {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only agents upload documents")
	}
	if name == "" || fileRef == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "document name and file reference are required")
	}

	document := &models.Document{
		TransactionID: transactionID,
		AgentID:       caller.UserID,
		Name:          name,
		FileRef:       fileRef,
		Status:        models.DocumentStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := getScoped(tx, caller, transactionID)
		if err != nil {
			return err
		}
		if transaction.Status.IsTerminal() {
			return apperrors.ErrTransactionTerminal
		}

		if err := tx.Create(document).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return demoteIfReady(tx, transaction, caller.UserID, s.auditService)
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Log(caller.UserID, "UPLOAD_DOCUMENT", "document", document.ID, transactionID, "",
		map[string]any{"name": name})

	// Verification is fire-and-forget with a bounded timeout; the upload
	// never waits on it and a failure just leaves the advisory fields
	// empty.
	go s.applyVerification(document.ID, name, fileRef)

	return document, nil
}

// applyVerification calls the external verifier and records the advisory
// result. Errors are logged, never surfaced: advisory data unavailable is a
// valid end state.
func (s *documentService) applyVerification(documentID, name, fileRef string) {
	result, err := s.verifier.Verify(context.Background(), name, fileRef)
	if err != nil {
		logger.Get().Warnw("document verification unavailable",
			"document_id", documentID,
			"error", err.Error(),
		)
		return
	}

	updates := map[string]any{
		"ai_verified": result.Verified,
		"ai_score":    result.Score,
	}
	if err := s.db.Model(&models.Document{}).Where("id = ?", documentID).Updates(updates).Error; err != nil {
		logger.Get().Errorw("failed to record verification result",
			"document_id", documentID,
			"error", err.Error(),
		)
	}
}

// DecideDocument approves or rejects a pending document. Approval is a
// human decision; the AI verification badge never gates it. A rejection
// while the transaction sits at ready_for_closure demotes it to
// in_progress in the same database transaction.
func (s *documentService) DecideDocument(caller Caller, documentID string, decision models.DocumentDecision, comments string) (*models.Document, error) {
	if !caller.Role.IsReviewer() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only a TC or broker decides documents")
	}

	var document models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", documentID).First(&document).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrDocumentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		transaction, err := getScoped(tx, caller, document.TransactionID)
		if err != nil {
			// Out-of-brokerage reviewers must not learn the document exists.
			return apperrors.ErrDocumentNotFound
		}
		if transaction.Status.IsTerminal() {
			return apperrors.ErrTransactionTerminal
		}

		if document.Status.IsDecided() {
			return apperrors.ErrAlreadyDecided
		}

		target := models.DocumentStatusApproved
		if decision == models.DocumentDecisionReject {
			target = models.DocumentStatusRejected
		}

		now := time.Now()
		result := tx.Model(&models.Document{}).
			Where("id = ? AND status = ?", documentID, models.DocumentStatusPending).
			Updates(map[string]any{
				"status":          target,
				"review_comments": comments,
				"decided_by":      caller.UserID,
				"decided_at":      now,
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			// A concurrent decision got there first.
			return apperrors.ErrAlreadyDecided
		}

		document.Status = target
		document.ReviewComments = comments
		document.DecidedBy = caller.UserID
		document.DecidedAt = &now

		if target == models.DocumentStatusRejected {
			if err := demoteIfReady(tx, transaction, caller.UserID, s.auditService); err != nil {
				return err
			}
		}

		return s.auditService.LogTx(tx, &models.AuditEntry{
			ActorID:       caller.UserID,
			Action:        "DECIDE_DOCUMENT",
			ResourceType:  "document",
			ResourceID:    documentID,
			TransactionID: document.TransactionID,
			Details:       fmt.Sprintf(`{"decision":%q}`, decision),
		})
	})
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// demoteIfReady drops a transaction from ready_for_closure back to
// in_progress after a document event invalidated its readiness. A no-op in
// every other status.
func demoteIfReady(tx *gorm.DB, transaction *models.Transaction, actorID string, audit AuditServicer) error {
	if transaction.Status != models.TransactionStatusReadyForClosure {
		return nil
	}

	result := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transaction.ID, models.TransactionStatusReadyForClosure).
		Update("status", models.TransactionStatusInProgress)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil
	}
	transaction.Status = models.TransactionStatusInProgress

	return audit.LogTx(tx, &models.AuditEntry{
		ActorID:       actorID,
		Action:        "DEMOTE_STATUS",
		ResourceType:  "transaction",
		ResourceID:    transaction.ID,
		TransactionID: transaction.ID,
		Details:       `{"from":"ready_for_closure","to":"in_progress"}`,
	})
}

// ListDocuments retrieves a paginated list of a transaction's documents,
// oldest first. Restartable: the same page request always yields the same
// snapshot ordering.
func (s *documentService) ListDocuments(caller Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
	if _, err := getScoped(s.db, caller, transactionID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Document{}).Where("transaction_id = ?", transactionID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var documents []models.Document
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&documents).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(documents, page.Page, page.PageSize, totalItems)
	return &result, nil
}
