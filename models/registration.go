package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	default:
		return false
	}
}

// Registration - заявка на вступление в академию от родителя.
type Registration struct {
	ID          int                `json:"id"`
	ChildName   string             `json:"child_name"`
	Age         int                `json:"age"`
	ParentName  string             `json:"parent_name"`
	Phone       string             `json:"phone"`
	Email       string             `json:"email,omitempty"`
	Message     string             `json:"message,omitempty"`
	Status      RegistrationStatus `json:"status"`
	SubmittedAt time.Time          `json:"submitted_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
