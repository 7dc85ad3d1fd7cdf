package models

import "time"

// ComplaintStatus represents where a complaint sits in its lifecycle.
type ComplaintStatus string

const (
	ComplaintStatusNew        ComplaintStatus = "new"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusEscalated  ComplaintStatus = "escalated"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// complaintGraph holds the complaint lifecycle edges. Resolution is only
// reachable after a response or an escalation, never straight from new.
var complaintGraph = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusNew:        {ComplaintStatusInProgress, ComplaintStatusEscalated},
	ComplaintStatusInProgress: {ComplaintStatusEscalated, ComplaintStatusResolved},
	ComplaintStatusEscalated:  {ComplaintStatusResolved},
}

// CanTransitionComplaint reports whether the edge from -> to exists.
func CanTransitionComplaint(from, to ComplaintStatus) bool {
	for _, next := range complaintGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ComplaintCategory classifies what a complaint is about.
type ComplaintCategory string

const (
	ComplaintCategoryDocuments     ComplaintCategory = "documents"
	ComplaintCategoryPayments      ComplaintCategory = "payments"
	ComplaintCategoryCommunication ComplaintCategory = "communication"
	ComplaintCategoryCompliance    ComplaintCategory = "compliance"
	ComplaintCategoryOther         ComplaintCategory = "other"
)

// Complaint is an agent-raised issue correlated to a transaction. TC and
// Broker respond, escalate, and resolve; the raising agent reads status.
type Complaint struct {
	Base
	TransactionID string            `gorm:"type:uuid;not null;index" json:"transaction_id"`
	AgentID       string            `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title         string            `gorm:"not null" json:"title"`
	Description   string            `json:"description,omitempty"`
	Category      ComplaintCategory `gorm:"not null;default:'other'" json:"category"`
	Priority      TaskPriority      `gorm:"not null;default:'medium'" json:"priority"`
	Status        ComplaintStatus   `gorm:"not null;default:'new';index" json:"status"`
	Response      string            `json:"response,omitempty"`
	AssignedTo    string            `gorm:"type:uuid" json:"assigned_to,omitempty"`
	ResolvedAt    *time.Time        `json:"resolved_at,omitempty"`
}
