package services

import (
	"time"

	"gorm.io/gorm"

	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
)

// Caller is the identity the auth middleware extracts from the JWT. The
// workflow core trusts it and only authorizes role-appropriate transitions.
type Caller struct {
	UserID   string
	Role     models.Role
	BrokerID string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string, role models.Role, brokerID string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CreateTransactionInput carries the property details for a new transaction.
type CreateTransactionInput struct {
	PropertyAddress string
	City            string
	State           string
	Price           int64
	ClientName      string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Status  *models.TransactionStatus
	AgentID *string
}

// TransactionServicer defines the contract for transaction lifecycle logic.
type TransactionServicer interface {
	CreateTransaction(caller Caller, input CreateTransactionInput) (*models.Transaction, error)
	GetTransaction(caller Caller, transactionID string) (*models.Transaction, error)
	ListTransactions(caller Caller, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	AdvanceStatus(caller Caller, transactionID string, target models.TransactionStatus) (*models.Transaction, error)
	CancelTransaction(caller Caller, transactionID string) (*models.Transaction, error)
}

// DocumentServicer defines the contract for the document ledger.
type DocumentServicer interface {
	UploadDocument(caller Caller, transactionID, name, fileRef string) (*models.Document, error)
	DecideDocument(caller Caller, documentID string, decision models.DocumentDecision, comments string) (*models.Document, error)
	ListDocuments(caller Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error)
}

// AssignTaskInput carries the details for a new task.
type AssignTaskInput struct {
	TransactionID string
	AgentID       string
	Title         string
	Description   string
	DueDate       time.Time
	Priority      models.TaskPriority
	AIReminder    bool
}

// TaskServicer defines the contract for the task board.
type TaskServicer interface {
	AssignTask(caller Caller, input AssignTaskInput) (*models.Task, error)
	UpdateTaskStatus(caller Caller, taskID string, newStatus models.TaskStatus) (*models.Task, error)
	ListTasksForAgent(caller Caller, agentID string, page pagination.PageRequest) (*pagination.PageResponse[models.Task], error)
	ListTasksForTransaction(caller Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Task], error)
}

// FileComplaintInput carries the details for a new complaint.
type FileComplaintInput struct {
	TransactionID string
	Title         string
	Description   string
	Category      models.ComplaintCategory
	Priority      models.TaskPriority
}

// ComplaintFilter holds optional filter parameters for listing complaints.
type ComplaintFilter struct {
	Status        *models.ComplaintStatus
	TransactionID *string
}

// ComplaintServicer defines the contract for the complaint tracker.
type ComplaintServicer interface {
	FileComplaint(caller Caller, input FileComplaintInput) (*models.Complaint, error)
	Respond(caller Caller, complaintID, responseText, assignTo string) (*models.Complaint, error)
	Escalate(caller Caller, complaintID string) (*models.Complaint, error)
	Resolve(caller Caller, complaintID string) (*models.Complaint, error)
	ListComplaints(caller Caller, page pagination.PageRequest, filter ComplaintFilter) (*pagination.PageResponse[models.Complaint], error)
}

// Readiness is the computed closure-readiness of a transaction. It is never
// stored; it is derived from document and task state on every call.
type Readiness struct {
	Ready             bool  `json:"ready"`
	TotalDocuments    int64 `json:"total_documents"`
	ApprovedDocuments int64 `json:"approved_documents"`
	RejectedDocuments int64 `json:"rejected_documents"`
	TotalTasks        int64 `json:"total_tasks"`
	CompletedTasks    int64 `json:"completed_tasks"`
}

// ClosureServicer derives readiness and drives the Agent -> TC -> Broker
// handoff.
type ClosureServicer interface {
	EvaluateReadiness(caller Caller, transactionID string) (*Readiness, error)
	ForwardToBroker(caller Caller, transactionID, notes string) (*models.Transaction, error)
	CloseTransaction(caller Caller, transactionID string) (*models.Transaction, error)
}

// AuditServicer records append-only workflow audit entries.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, transactionID, ipAddress string, details map[string]any)
	LogTx(tx *gorm.DB, entry *models.AuditEntry) error
}
