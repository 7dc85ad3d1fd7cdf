package services

import (
	"fmt"

	"gorm.io/gorm"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
)

// closureService derives closure readiness from the document ledger and
// task board, and drives the TC -> Broker handoff.
type closureService struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewClosureService creates a new ClosureServicer.
func NewClosureService(db *gorm.DB, auditService AuditServicer) ClosureServicer {
	return &closureService{db: db, auditService: auditService}
}

// evaluateReadinessWithDB computes readiness from current document and task
// state. A transaction is ready when it has at least one document, every
// document is approved, and every task is completed. The result is derived
// on every call and never stored.
func evaluateReadinessWithDB(db *gorm.DB, transactionID string) (*Readiness, error) {
	r := &Readiness{}

	docCounts := db.Model(&models.Document{}).Where("transaction_id = ?", transactionID)
	if err := docCounts.Count(&r.TotalDocuments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Document{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.DocumentStatusApproved).
		Count(&r.ApprovedDocuments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Document{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.DocumentStatusRejected).
		Count(&r.RejectedDocuments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := db.Model(&models.Task{}).Where("transaction_id = ?", transactionID).
		Count(&r.TotalTasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.Task{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.TaskStatusCompleted).
		Count(&r.CompletedTasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	r.Ready = r.TotalDocuments > 0 &&
		r.ApprovedDocuments == r.TotalDocuments &&
		r.CompletedTasks == r.TotalTasks
	return r, nil
}

// EvaluateReadiness computes closure readiness for a transaction visible to
// the caller. Safe for repeated polling.
func (s *closureService) EvaluateReadiness(caller Caller, transactionID string) (*Readiness, error) {
	if _, err := getScoped(s.db, caller, transactionID); err != nil {
		return nil, err
	}
	return evaluateReadinessWithDB(s.db, transactionID)
}

// ForwardToBroker hands a ready transaction to the broker for final
// closure. Requires status ready_for_closure, re-validates readiness at
// commit time, and appends the TC's notes as an immutable audit entry in
// the same database transaction: the status change and the note commit
// together or not at all.
func (s *closureService) ForwardToBroker(caller Caller, transactionID, notes string) (*models.Transaction, error) {
	if caller.Role != models.RoleTC {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only a transaction coordinator forwards to the broker")
	}

	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := getScoped(tx, caller, transactionID)
		if err != nil {
			return err
		}
		if current.Status != models.TransactionStatusReadyForClosure {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("transaction %s is %s, not ready_for_closure", current.Reference, current.Status))
		}

		readiness, err := evaluateReadinessWithDB(tx, transactionID)
		if err != nil {
			return err
		}
		if !readiness.Ready {
			return apperrors.ErrPreconditionFailed
		}

		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusReadyForClosure).
			Update("status", models.TransactionStatusForwardedToBroker)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("transaction %s changed concurrently", current.Reference))
		}

		if err := s.auditService.LogTx(tx, &models.AuditEntry{
			ActorID:       caller.UserID,
			Action:        "FORWARD_TO_BROKER",
			ResourceType:  "transaction",
			ResourceID:    transactionID,
			TransactionID: transactionID,
			Note:          notes,
		}); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		current.Status = models.TransactionStatusForwardedToBroker
		transaction = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// CloseTransaction performs the broker's final closure. Requires status
// forwarded_to_broker; closed is terminal.
func (s *closureService) CloseTransaction(caller Caller, transactionID string) (*models.Transaction, error) {
	if caller.Role != models.RoleBroker {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only a broker closes transactions")
	}

	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := getScoped(tx, caller, transactionID)
		if err != nil {
			return err
		}
		if current.Status != models.TransactionStatusForwardedToBroker {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("transaction %s is %s, not forwarded_to_broker", current.Reference, current.Status))
		}

		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusForwardedToBroker).
			Update("status", models.TransactionStatusClosed)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition,
				fmt.Sprintf("transaction %s changed concurrently", current.Reference))
		}

		if err := s.auditService.LogTx(tx, &models.AuditEntry{
			ActorID:       caller.UserID,
			Action:        "CLOSE_TRANSACTION",
			ResourceType:  "transaction",
			ResourceID:    transactionID,
			TransactionID: transactionID,
		}); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		current.Status = models.TransactionStatusClosed
		transaction = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}
