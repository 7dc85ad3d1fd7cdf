package models

import "time"

// Role identifies which side of the transaction workflow a user acts from.
type Role string

const (
	RoleAgent  Role = "agent"
	RoleTC     Role = "tc"
	RoleBroker Role = "broker"
)

// IsReviewer reports whether the role may decide documents, respond to
// complaints, and drive transaction status on behalf of a brokerage.
func (r Role) IsReviewer() bool {
	return r == RoleTC || r == RoleBroker
}

// User represents a workflow participant. BrokerID is the brokerage the
// user belongs to; for a broker it is their own brokerage identifier.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Role                Role       `gorm:"not null" json:"role"`
	BrokerID            string     `gorm:"type:uuid;not null;index" json:"broker_id"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}
