package models

import "time"

// TransactionStatus represents where a transaction sits in its lifecycle.
type TransactionStatus string

const (
	TransactionStatusNew               TransactionStatus = "new"
	TransactionStatusInProgress        TransactionStatus = "in_progress"
	TransactionStatusAtRisk            TransactionStatus = "at_risk"
	TransactionStatusReadyForClosure   TransactionStatus = "ready_for_closure"
	TransactionStatusForwardedToBroker TransactionStatus = "forwarded_to_broker"
	TransactionStatusClosed            TransactionStatus = "closed"
	TransactionStatusCancelled         TransactionStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusClosed || s == TransactionStatusCancelled
}

// transitionGraph holds the forward edges of the transaction lifecycle.
// Cancellation is handled separately: it is reachable from any
// non-terminal status.
var transitionGraph = map[TransactionStatus][]TransactionStatus{
	TransactionStatusNew:             {TransactionStatusInProgress},
	TransactionStatusInProgress:      {TransactionStatusAtRisk, TransactionStatusReadyForClosure},
	TransactionStatusAtRisk:          {TransactionStatusInProgress, TransactionStatusReadyForClosure},
	TransactionStatusReadyForClosure: {TransactionStatusForwardedToBroker, TransactionStatusInProgress},
	TransactionStatusForwardedToBroker: {TransactionStatusClosed},
}

// edgeRoles lists which roles may drive each edge. Closing is broker-only;
// everything up to the forward is coordinator work.
var edgeRoles = map[TransactionStatus]map[TransactionStatus][]Role{
	TransactionStatusNew: {
		TransactionStatusInProgress: {RoleTC},
	},
	TransactionStatusInProgress: {
		TransactionStatusAtRisk:          {RoleTC},
		TransactionStatusReadyForClosure: {RoleTC},
	},
	TransactionStatusAtRisk: {
		TransactionStatusInProgress:      {RoleTC},
		TransactionStatusReadyForClosure: {RoleTC},
	},
	TransactionStatusReadyForClosure: {
		TransactionStatusForwardedToBroker: {RoleTC},
		TransactionStatusInProgress:        {RoleTC},
	},
	TransactionStatusForwardedToBroker: {
		TransactionStatusClosed: {RoleBroker},
	},
}

// CanTransition reports whether the edge from -> to exists in the lifecycle
// graph. Cancellation from any non-terminal status is always a valid edge.
func CanTransition(from, to TransactionStatus) bool {
	if to == TransactionStatusCancelled {
		return !from.IsTerminal()
	}
	for _, next := range transitionGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RoleMayTransition reports whether the given role is permitted to drive the
// edge from -> to. The edge must also exist (CanTransition).
func RoleMayTransition(role Role, from, to TransactionStatus) bool {
	if to == TransactionStatusCancelled {
		// Owner agent, TC, or broker may cancel; ownership is enforced
		// at the service layer.
		return role == RoleAgent || role.IsReviewer()
	}
	for _, allowed := range edgeRoles[from][to] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Transaction represents a real-estate transaction moving through the
// Agent -> TC -> Broker workflow.
type Transaction struct {
	Base
	Reference       string            `gorm:"uniqueIndex;not null" json:"reference"`
	PropertyAddress string            `gorm:"not null" json:"property_address"`
	City            string            `gorm:"not null" json:"city"`
	State           string            `gorm:"not null" json:"state"`
	Price           int64             `gorm:"type:bigint;not null" json:"price"`
	ClientName      string            `gorm:"not null" json:"client_name"`
	AgentID         string            `gorm:"type:uuid;not null;index" json:"agent_id"`
	BrokerID        string            `gorm:"type:uuid;not null;index" json:"broker_id"`
	Status          TransactionStatus `gorm:"not null;default:'new';index" json:"status"`
	ClosingDate     *time.Time        `json:"closing_date,omitempty"`

	// Relationships
	Documents  []Document  `gorm:"foreignKey:TransactionID" json:"documents,omitempty"`
	Tasks      []Task      `gorm:"foreignKey:TransactionID" json:"tasks,omitempty"`
	Complaints []Complaint `gorm:"foreignKey:TransactionID" json:"complaints,omitempty"`
}
