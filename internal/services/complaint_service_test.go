package services

import (
	"testing"

	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/testutil"
)

func TestFileComplaint(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)

		complaint, err := svc.FileComplaint(asCaller(agent), FileComplaintInput{
			TransactionID: transaction.ID,
			Title:         "Missing disclosure packet",
			Category:      models.ComplaintCategoryDocuments,
			Priority:      models.TaskPriorityHigh,
		})
		testutil.AssertNoError(t, err)

		if complaint.Status != models.ComplaintStatusNew {
			t.Errorf("expected status new, got %s", complaint.Status)
		}
		if complaint.AgentID != agent.ID {
			t.Errorf("expected agent %s, got %s", agent.ID, complaint.AgentID)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)

		complaint, err := svc.FileComplaint(asCaller(agent), FileComplaintInput{
			TransactionID: transaction.ID,
			Title:         "Slow responses",
		})
		testutil.AssertNoError(t, err)

		if complaint.Category != models.ComplaintCategoryOther {
			t.Errorf("expected default category other, got %s", complaint.Category)
		}
		if complaint.Priority != models.TaskPriorityMedium {
			t.Errorf("expected default priority medium, got %s", complaint.Priority)
		}
	})

	t.Run("only_agents_file", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)

		_, err := svc.FileComplaint(asCaller(tc), FileComplaintInput{
			TransactionID: transaction.ID,
			Title:         "Missing disclosure packet",
		})
		testutil.AssertAppError(t, err, "AUTHORIZATION_ERROR")
	})

	t.Run("title_required", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)

		_, err := svc.FileComplaint(asCaller(agent), FileComplaintInput{TransactionID: transaction.ID})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("other_agents_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, _ := testutil.CreateTestBrokerage(t, db)
		other := testutil.CreateTestUser(t, db, models.RoleAgent, agent.BrokerID)
		transaction := testutil.CreateTestTransaction(t, db, agent)

		_, err := svc.FileComplaint(asCaller(other), FileComplaintInput{
			TransactionID: transaction.ID,
			Title:         "Missing disclosure packet",
		})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestRespondToComplaint(t *testing.T) {
	t.Run("response_moves_new_to_in_progress", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		updated, err := svc.Respond(asCaller(tc), complaint.ID, "Requesting the packet from escrow", tc.ID)
		testutil.AssertNoError(t, err)

		if updated.Status != models.ComplaintStatusInProgress {
			t.Errorf("expected in_progress, got %s", updated.Status)
		}
		if updated.Response != "Requesting the packet from escrow" {
			t.Errorf("unexpected response text: %s", updated.Response)
		}
		if updated.AssignedTo != tc.ID {
			t.Errorf("expected assignment to %s, got %s", tc.ID, updated.AssignedTo)
		}
	})

	t.Run("repeat_response_updates_text", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusInProgress)

		updated, err := svc.Respond(asCaller(tc), complaint.ID, "Packet received, reviewing", "")
		testutil.AssertNoError(t, err)

		if updated.Status != models.ComplaintStatusInProgress {
			t.Errorf("expected status to stay in_progress, got %s", updated.Status)
		}
		if updated.Response != "Packet received, reviewing" {
			t.Errorf("unexpected response text: %s", updated.Response)
		}
	})

	t.Run("resolved_rejects_responses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusResolved)

		_, err := svc.Respond(asCaller(tc), complaint.ID, "Too late", "")
		testutil.AssertAppError(t, err, "INVALID_TRANSITION")
	})

	t.Run("response_text_required", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		_, err := svc.Respond(asCaller(tc), complaint.ID, "", "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("agents_may_not_respond", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		_, err := svc.Respond(asCaller(agent), complaint.ID, "Handling it myself", "")
		testutil.AssertAppError(t, err, "AUTHORIZATION_ERROR")
	})
}

func TestEscalateComplaint(t *testing.T) {
	t.Run("from_new", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		updated, err := svc.Escalate(asCaller(tc), complaint.ID)
		testutil.AssertNoError(t, err)
		if updated.Status != models.ComplaintStatusEscalated {
			t.Errorf("expected escalated, got %s", updated.Status)
		}
	})

	t.Run("from_in_progress", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, broker := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusInProgress)

		updated, err := svc.Escalate(asCaller(broker), complaint.ID)
		testutil.AssertNoError(t, err)
		if updated.Status != models.ComplaintStatusEscalated {
			t.Errorf("expected escalated, got %s", updated.Status)
		}
	})

	t.Run("resolved_is_terminal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransaction(t, db, agent)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusResolved)

		_, err := svc.Escalate(asCaller(tc), complaint.ID)
		testutil.AssertAppError(t, err, "INVALID_TRANSITION")
	})
}

func TestResolveComplaint(t *testing.T) {
	t.Run("resolve_straight_from_new_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		_, err := svc.Resolve(asCaller(tc), complaint.ID)
		testutil.AssertAppError(t, err, "INVALID_TRANSITION")

		var reloaded models.Complaint
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", complaint.ID).Error)
		if reloaded.Status != models.ComplaintStatusNew {
			t.Errorf("expected status to stay new, got %s", reloaded.Status)
		}
	})

	t.Run("respond_then_resolve", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)

		_, err := svc.Respond(asCaller(tc), complaint.ID, "Chasing escrow", "")
		testutil.AssertNoError(t, err)

		resolved, err := svc.Resolve(asCaller(tc), complaint.ID)
		testutil.AssertNoError(t, err)
		if resolved.Status != models.ComplaintStatusResolved {
			t.Errorf("expected resolved, got %s", resolved.Status)
		}
		if resolved.ResolvedAt == nil {
			t.Error("expected a resolution time")
		}
	})

	t.Run("resolve_escalated", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, _, broker := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusEscalated)

		resolved, err := svc.Resolve(asCaller(broker), complaint.ID)
		testutil.AssertNoError(t, err)
		if resolved.Status != models.ComplaintStatusResolved {
			t.Errorf("expected resolved, got %s", resolved.Status)
		}
	})

	t.Run("complaint_outlives_cancelled_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewComplaintService(db, NewAuditService(db))
		agent, tc, _ := testutil.CreateTestBrokerage(t, db)
		transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusCancelled)
		complaint := testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusInProgress)

		resolved, err := svc.Resolve(asCaller(tc), complaint.ID)
		testutil.AssertNoError(t, err)
		if resolved.Status != models.ComplaintStatusResolved {
			t.Errorf("expected resolved, got %s", resolved.Status)
		}
	})
}

func TestListComplaints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewComplaintService(db, NewAuditService(db))
	agent, tc, _ := testutil.CreateTestBrokerage(t, db)
	other := testutil.CreateTestUser(t, db, models.RoleAgent, agent.BrokerID)
	transaction := testutil.CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusInProgress)
	otherTransaction := testutil.CreateTestTransaction(t, db, other)

	testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusNew)
	testutil.CreateTestComplaint(t, db, transaction, models.ComplaintStatusResolved)
	testutil.CreateTestComplaint(t, db, otherTransaction, models.ComplaintStatusNew)

	t.Run("agent_sees_only_own", func(t *testing.T) {
		page, err := svc.ListComplaints(asCaller(agent), pagination.PageRequest{}, ComplaintFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 complaints, got %d", page.TotalItems)
		}
	})

	t.Run("reviewer_sees_brokerage", func(t *testing.T) {
		page, err := svc.ListComplaints(asCaller(tc), pagination.PageRequest{}, ComplaintFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Errorf("expected 3 complaints, got %d", page.TotalItems)
		}
	})

	t.Run("status_filter", func(t *testing.T) {
		status := models.ComplaintStatusResolved
		page, err := svc.ListComplaints(asCaller(tc), pagination.PageRequest{}, ComplaintFilter{Status: &status})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 resolved complaint, got %d", page.TotalItems)
		}
	})
}
