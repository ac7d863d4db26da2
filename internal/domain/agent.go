package domain

import "time"

// AgentStatus enumerates roster member lifecycle states.
type AgentStatus string

const (
	AgentStatusPending  AgentStatus = "pending"
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusPending, AgentStatusActive, AgentStatusInactive:
		return true
	default:
		return false
	}
}

// Agent is a sub-account embedded in a Company roster. Its email is unique
// within the parent roster only.
type Agent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash"`
	Contact      string      `json:"contact"`
	LicenseID    string      `json:"licenseId"`
	Status       AgentStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
