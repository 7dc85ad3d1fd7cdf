package models

import "time"

// DocumentStatus represents the review state of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// IsDecided reports whether the document has reached a terminal review
// state. Decided documents are immutable; a re-upload creates a new record.
func (s DocumentStatus) IsDecided() bool {
	return s == DocumentStatusApproved || s == DocumentStatusRejected
}

// DocumentDecision is a TC/Broker verdict on a pending document.
type DocumentDecision string

const (
	DocumentDecisionApprove DocumentDecision = "approve"
	DocumentDecisionReject  DocumentDecision = "reject"
)

// Document is a file attached to a transaction by its agent. The AI
// verification fields are advisory only: human approval is authoritative,
// so AIVerified never gates a decision. AIScore stays nil until (and
// unless) the verification call lands.
type Document struct {
	Base
	TransactionID  string         `gorm:"type:uuid;not null;index" json:"transaction_id"`
	AgentID        string         `gorm:"type:uuid;not null;index" json:"agent_id"`
	Name           string         `gorm:"not null" json:"name"`
	FileRef        string         `gorm:"not null" json:"file_ref"`
	Status         DocumentStatus `gorm:"not null;default:'pending';index" json:"status"`
	AIVerified     bool           `gorm:"default:false" json:"ai_verified"`
	AIScore        *int           `json:"ai_score,omitempty"`
	ReviewComments string         `json:"review_comments,omitempty"`
	DecidedBy      string         `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
}
