package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
)

// transactionService owns the transaction lifecycle: creation, role-gated
// status advancement, and cancellation.
type transactionService struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, auditService AuditServicer) TransactionServicer {
	return &transactionService{db: db, auditService: auditService}
}

// CreateTransaction creates a new transaction in status "new", owned by the
// calling agent, with the next TR-#### reference.
func (s *transactionService) CreateTransaction(caller Caller, input CreateTransactionInput) (*models.Transaction, error) {
	if caller.Role != models.RoleAgent {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only agents create transactions")
	}

	var missing []string
	if input.PropertyAddress == "" {
		missing = append(missing, "property_address")
	}
	if input.City == "" {
		missing = append(missing, "city")
	}
	if input.State == "" {
		missing = append(missing, "state")
	}
	if input.ClientName == "" {
		missing = append(missing, "client_name")
	}
	if input.Price <= 0 {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	transaction := &models.Transaction{
		PropertyAddress: input.PropertyAddress,
		City:            input.City,
		State:           input.State,
		Price:           input.Price,
		ClientName:      input.ClientName,
		AgentID:         caller.UserID,
		BrokerID:        caller.BrokerID,
		Status:          models.TransactionStatusNew,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// References count up from TR-1001. Counting includes soft-deleted
		// rows so references are never reissued.
		var count int64
		if err := tx.Unscoped().Model(&models.Transaction{}).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.Reference = fmt.Sprintf("TR-%d", 1001+count)

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditService.Log(caller.UserID, "CREATE_TRANSACTION", "transaction", transaction.ID, transaction.ID, "",
		map[string]any{"reference": transaction.Reference, "price": transaction.Price})

	return transaction, nil
}

// getScoped loads a transaction visible to the caller: same brokerage, and
// for agents only their own. Out-of-scope records surface as not found so
// existence is never leaked across brokerages.
func getScoped(db *gorm.DB, caller Caller, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transaction.BrokerID != caller.BrokerID {
		return nil, apperrors.ErrTransactionNotFound
	}
	if caller.Role == models.RoleAgent && transaction.AgentID != caller.UserID {
		return nil, apperrors.ErrTransactionNotFound
	}
	return &transaction, nil
}

// GetTransaction retrieves a transaction visible to the caller.
func (s *transactionService) GetTransaction(caller Caller, transactionID string) (*models.Transaction, error) {
	return getScoped(s.db, caller, transactionID)
}

// ListTransactions retrieves a paginated, filtered list of transactions
// within the caller's scope.
func (s *transactionService) ListTransactions(caller Caller, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("broker_id = ?", caller.BrokerID)
	if caller.Role == models.RoleAgent {
		base = base.Where("agent_id = ?", caller.UserID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.AgentID != nil {
		base = base.Where("agent_id = ?", *filter.AgentID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AdvanceStatus moves a transaction along one edge of the lifecycle graph.
// The edge must exist, the caller's role must be permitted on it, and the
// gated edges (into ready_for_closure and forwarded_to_broker) re-validate
// closure readiness server-side.
func (s *transactionService) AdvanceStatus(caller Caller, transactionID string, target models.TransactionStatus) (*models.Transaction, error) {
	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		transaction, txErr = advanceStatusWithDB(tx, caller, transactionID, target, s.auditService)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// advanceStatusWithDB performs the transition inside the caller's database
// transaction. The status write is conditional on the previously observed
// status, so two concurrent transitions cannot both commit.
func advanceStatusWithDB(tx *gorm.DB, caller Caller, transactionID string, target models.TransactionStatus, audit AuditServicer) (*models.Transaction, error) {
	transaction, err := getScoped(tx, caller, transactionID)
	if err != nil {
		return nil, err
	}

	from := transaction.Status
	if from.IsTerminal() {
		return nil, apperrors.ErrTransactionTerminal
	}
	if !models.CanTransition(from, target) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move transaction %s from %s to %s", transaction.Reference, from, target))
	}
	if !models.RoleMayTransition(caller.Role, from, target) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden,
			fmt.Sprintf("role %s may not move a transaction from %s to %s", caller.Role, from, target))
	}

	// Readiness-gated edges are re-validated at commit time, never trusted
	// from the client.
	if target == models.TransactionStatusReadyForClosure || target == models.TransactionStatusForwardedToBroker {
		readiness, err := evaluateReadinessWithDB(tx, transactionID)
		if err != nil {
			return nil, err
		}
		if !readiness.Ready {
			return nil, apperrors.ErrPreconditionFailed
		}
	}

	result := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transactionID, from).
		Update("status", target)
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent transition won the conditional update.
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("transaction %s changed concurrently", transaction.Reference))
	}

	if err := audit.LogTx(tx, &models.AuditEntry{
		ActorID:       caller.UserID,
		Action:        "ADVANCE_STATUS",
		ResourceType:  "transaction",
		ResourceID:    transactionID,
		TransactionID: transactionID,
		Details:       fmt.Sprintf(`{"from":%q,"to":%q}`, from, target),
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transaction.Status = target
	return transaction, nil
}

// CancelTransaction moves a transaction to cancelled from any non-terminal
// status. Documents, tasks, and complaints are left in place as an audit
// trail.
func (s *transactionService) CancelTransaction(caller Caller, transactionID string) (*models.Transaction, error) {
	return s.AdvanceStatus(caller, transactionID, models.TransactionStatusCancelled)
}
