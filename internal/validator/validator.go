// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("transaction_status", validateTransactionStatus)
		_ = v.RegisterValidation("task_status", validateTaskStatus)
		_ = v.RegisterValidation("task_priority", validatePriority)
		_ = v.RegisterValidation("complaint_priority", validatePriority)
		_ = v.RegisterValidation("complaint_category", validateComplaintCategory)
		_ = v.RegisterValidation("document_decision", validateDocumentDecision)
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "agent", "tc", "broker":
		return true
	}
	return false
}

func validateTransactionStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "new", "in_progress", "at_risk", "ready_for_closure", "forwarded_to_broker", "closed", "cancelled":
		return true
	}
	return false
}

// validateTaskStatus accepts only stored task states; "overdue" is derived
// and never accepted as input.
func validateTaskStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "in_progress", "completed":
		return true
	}
	return false
}

func validatePriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "medium", "high":
		return true
	}
	return false
}

func validateComplaintCategory(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "documents", "payments", "communication", "compliance", "other":
		return true
	}
	return false
}

func validateDocumentDecision(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "approve", "reject":
		return true
	}
	return false
}
