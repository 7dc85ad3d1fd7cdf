package models

// AuditEntry records workflow actions for compliance. Entries are
// append-only; forward notes live here so the handoff to the broker and its
// note commit atomically.
type AuditEntry struct {
	Base
	ActorID       string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action        string `gorm:"not null" json:"action"`
	ResourceType  string `gorm:"not null" json:"resource_type"`
	ResourceID    string `gorm:"type:uuid" json:"resource_id"`
	TransactionID string `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	Note          string `json:"note,omitempty"`
	Details       string `json:"details,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
}
