package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dealdesk/internal/models"
	"dealdesk/internal/uuid"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestBrokerage creates a broker, a TC, and an agent all belonging to
// the same brokerage.
func CreateTestBrokerage(t *testing.T, db *gorm.DB) (agent, tc, broker *models.User) {
	t.Helper()

	brokerID := uuid.New()
	broker = CreateTestUser(t, db, models.RoleBroker, brokerID)
	tc = CreateTestUser(t, db, models.RoleTC, brokerID)
	agent = CreateTestUser(t, db, models.RoleAgent, brokerID)
	return agent, tc, broker
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role, brokerID string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("%s%d@test.com", role, nextID()),
		Password: string(hash),
		Role:     role,
		BrokerID: brokerID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a transaction in status "new" owned by the
// given agent.
func CreateTestTransaction(t *testing.T, db *gorm.DB, agent *models.User) *models.Transaction {
	t.Helper()
	return CreateTestTransactionWithStatus(t, db, agent, models.TransactionStatusNew)
}

// CreateTestTransactionWithStatus creates a transaction in the given status
// owned by the given agent.
func CreateTestTransactionWithStatus(t *testing.T, db *gorm.DB, agent *models.User, status models.TransactionStatus) *models.Transaction {
	t.Helper()

	n := nextID()
	transaction := &models.Transaction{
		Reference:       fmt.Sprintf("TR-%d", 9000+n),
		PropertyAddress: fmt.Sprintf("%d Test Street", n),
		City:            "Springfield",
		State:           "IL",
		Price:           45000000,
		ClientName:      fmt.Sprintf("Client %d", n),
		AgentID:         agent.ID,
		BrokerID:        agent.BrokerID,
		Status:          status,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestDocument creates a document on the transaction in the given
// review state.
func CreateTestDocument(t *testing.T, db *gorm.DB, transaction *models.Transaction, status models.DocumentStatus) *models.Document {
	t.Helper()

	document := &models.Document{
		TransactionID: transaction.ID,
		AgentID:       transaction.AgentID,
		Name:          fmt.Sprintf("document-%d.pdf", nextID()),
		FileRef:       fmt.Sprintf("s3://dealdesk-test/doc-%d", nextID()),
		Status:        status,
	}
	if status.IsDecided() {
		now := time.Now()
		document.DecidedAt = &now
	}
	if err := db.Create(document).Error; err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return document
}

// CreateTestTask creates a task on the transaction with a due date one week
// out, assigned to the transaction's agent.
func CreateTestTask(t *testing.T, db *gorm.DB, transaction *models.Transaction, status models.TaskStatus) *models.Task {
	t.Helper()
	return CreateTestTaskDue(t, db, transaction, status, time.Now().Add(7*24*time.Hour))
}

// CreateTestTaskDue creates a task with the given stored status and due date.
func CreateTestTaskDue(t *testing.T, db *gorm.DB, transaction *models.Transaction, status models.TaskStatus, dueDate time.Time) *models.Task {
	t.Helper()

	task := &models.Task{
		TransactionID: transaction.ID,
		AgentID:       transaction.AgentID,
		Title:         fmt.Sprintf("Test Task %d", nextID()),
		DueDate:       dueDate,
		Priority:      models.TaskPriorityMedium,
		Status:        status,
	}
	if status == models.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateTestComplaint creates a complaint on the transaction in the given
// status, raised by the transaction's agent.
func CreateTestComplaint(t *testing.T, db *gorm.DB, transaction *models.Transaction, status models.ComplaintStatus) *models.Complaint {
	t.Helper()

	complaint := &models.Complaint{
		TransactionID: transaction.ID,
		AgentID:       transaction.AgentID,
		Title:         fmt.Sprintf("Test Complaint %d", nextID()),
		Category:      models.ComplaintCategoryDocuments,
		Priority:      models.TaskPriorityMedium,
		Status:        status,
	}
	if status == models.ComplaintStatusResolved {
		now := time.Now()
		complaint.ResolvedAt = &now
	}
	if err := db.Create(complaint).Error; err != nil {
		t.Fatalf("failed to create test complaint: %v", err)
	}
	return complaint
}
