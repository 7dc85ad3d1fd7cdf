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

// complaintService tracks agent-raised complaints and the TC/Broker
// response cycle.
type complaintService struct {
	db           *gorm.DB
	auditService AuditServicer
}

// NewComplaintService creates a new ComplaintServicer.
func NewComplaintService(db *gorm.DB, auditService AuditServicer) ComplaintServicer {
	return &complaintService{db: db, auditService: auditService}
}

// FileComplaint creates a complaint in status new, correlated to one of the
// caller's transactions.
func (s *complaintService) FileComplaint(caller Caller, input FileComplaintInput) (*models.Complaint, error) {
	if caller.Role != models.RoleAgent {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only agents file complaints")
	}
	if input.Title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "complaint title is required")
	}
	if input.Category == "" {
		input.Category = models.ComplaintCategoryOther
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	// Complaints reference the transaction for correlation only; they stay
	// open even if the transaction is cancelled.
	if _, err := getScoped(s.db, caller, input.TransactionID); err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		TransactionID: input.TransactionID,
		AgentID:       caller.UserID,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        models.ComplaintStatusNew,
	}
	if err := s.db.Create(complaint).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.auditService.Log(caller.UserID, "FILE_COMPLAINT", "complaint", complaint.ID, input.TransactionID, "",
		map[string]any{"category": string(input.Category), "priority": string(input.Priority)})

	return complaint, nil
}

// getComplaintForReview loads a complaint for a TC/Broker in the same
// brokerage as the complaint's transaction.
func (s *complaintService) getComplaintForReview(tx *gorm.DB, caller Caller, complaintID string) (*models.Complaint, error) {
	if !caller.Role.IsReviewer() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only a TC or broker handles complaints")
	}

	var complaint models.Complaint
	if err := tx.Where("id = ?", complaintID).First(&complaint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrComplaintNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := getScoped(tx, caller, complaint.TransactionID); err != nil {
		return nil, apperrors.ErrComplaintNotFound
	}
	return &complaint, nil
}

// transition commits a complaint status edge conditionally on the observed
// status and records the audit entry in the same database transaction.
func (s *complaintService) transition(tx *gorm.DB, caller Caller, complaint *models.Complaint, to models.ComplaintStatus, extra map[string]any) error {
	from := complaint.Status
	if !models.CanTransitionComplaint(from, to) {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move complaint from %s to %s", from, to))
	}

	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&models.Complaint{}).
		Where("id = ? AND status = ?", complaint.ID, from).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition, "complaint changed concurrently")
	}

	complaint.Status = to
	return s.auditService.LogTx(tx, &models.AuditEntry{
		ActorID:       caller.UserID,
		Action:        "COMPLAINT_" + string(to),
		ResourceType:  "complaint",
		ResourceID:    complaint.ID,
		TransactionID: complaint.TransactionID,
		Details:       fmt.Sprintf(`{"from":%q,"to":%q}`, from, to),
	})
}

// Respond records a TC/Broker response and moves a new complaint to
// in_progress. Responding again while in progress or escalated just
// updates the response text; a resolved complaint rejects any response.
func (s *complaintService) Respond(caller Caller, complaintID, responseText, assignTo string) (*models.Complaint, error) {
	if responseText == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "response text is required")
	}

	var complaint *models.Complaint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		complaint, txErr = s.getComplaintForReview(tx, caller, complaintID)
		if txErr != nil {
			return txErr
		}

		if complaint.Status == models.ComplaintStatusResolved {
			return apperrors.WithMessage(apperrors.ErrInvalidTransition, "complaint is already resolved")
		}

		extra := map[string]any{"response": responseText}
		if assignTo != "" {
			extra["assigned_to"] = assignTo
		}

		if complaint.Status == models.ComplaintStatusNew {
			return s.transition(tx, caller, complaint, models.ComplaintStatusInProgress, extra)
		}

		result := tx.Model(&models.Complaint{}).Where("id = ?", complaint.ID).Updates(extra)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	complaint.Response = responseText
	if assignTo != "" {
		complaint.AssignedTo = assignTo
	}
	return complaint, nil
}

// Escalate raises a complaint from new or in_progress to escalated.
func (s *complaintService) Escalate(caller Caller, complaintID string) (*models.Complaint, error) {
	var complaint *models.Complaint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		complaint, txErr = s.getComplaintForReview(tx, caller, complaintID)
		if txErr != nil {
			return txErr
		}
		return s.transition(tx, caller, complaint, models.ComplaintStatusEscalated, nil)
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// Resolve terminally resolves a complaint. Only reachable from in_progress
// or escalated; resolving straight from new is an invalid transition.
func (s *complaintService) Resolve(caller Caller, complaintID string) (*models.Complaint, error) {
	var complaint *models.Complaint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		complaint, txErr = s.getComplaintForReview(tx, caller, complaintID)
		if txErr != nil {
			return txErr
		}

		now := time.Now()
		if err := s.transition(tx, caller, complaint, models.ComplaintStatusResolved, map[string]any{"resolved_at": now}); err != nil {
			return err
		}
		complaint.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// ListComplaints retrieves a paginated, filtered list of complaints within
// the caller's scope: agents see their own, reviewers see the brokerage's.
func (s *complaintService) ListComplaints(caller Caller, page pagination.PageRequest, filter ComplaintFilter) (*pagination.PageResponse[models.Complaint], error) {
	page.Defaults()

	base := s.db.Model(&models.Complaint{}).
		Where("transaction_id IN (?)", s.db.Model(&models.Transaction{}).Select("id").Where("broker_id = ?", caller.BrokerID))
	if caller.Role == models.RoleAgent {
		base = base.Where("agent_id = ?", caller.UserID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.TransactionID != nil {
		base = base.Where("transaction_id = ?", *filter.TransactionID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var complaints []models.Complaint
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&complaints).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(complaints, page.Page, page.PageSize, totalItems)
	return &result, nil
}
