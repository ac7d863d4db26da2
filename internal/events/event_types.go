package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/realty-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCompanyCreated     EventType = "company_created"
	EventCompanyUpdated     EventType = "company_updated"
	EventCompanyDeleted     EventType = "company_deleted"
	EventAgentAdded         EventType = "agent_added"
	EventAgentRemoved       EventType = "agent_removed"
	EventAgentStatusChanged EventType = "agent_status_changed"
	EventRatingSubmitted    EventType = "rating_submitted"
)

// AllEventTypes lists every type, for sinks that subscribe to everything.
var AllEventTypes = []EventType{
	EventCompanyCreated,
	EventCompanyUpdated,
	EventCompanyDeleted,
	EventAgentAdded,
	EventAgentRemoved,
	EventAgentStatusChanged,
	EventRatingSubmitted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	SubjectID string      `json:"subject_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CompanyID string      `json:"company_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, companyID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CompanyID: companyID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Key picks the partitioning key: the company when known, the ratee otherwise.
func (e Event) Key() string {
	if e.CompanyID != "" {
		return e.CompanyID
	}
	if p, ok := e.Payload.(RatingSubmittedPayload); ok {
		return p.RateeID
	}
	return e.ID
}

// CompanyPayload describes company lifecycle events. ManagedAssets lists
// avatar and banner URLs the service is responsible for cleaning up.
type CompanyPayload struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	ManagedAssets []string `json:"managed_assets,omitempty"`
}

// AgentPayload describes roster events.
type AgentPayload struct {
	AgentID string             `json:"agent_id"`
	Name    string             `json:"name,omitempty"`
	Email   string             `json:"email,omitempty"`
	Status  domain.AgentStatus `json:"status,omitempty"`
}

// RatingSubmittedPayload payload.
type RatingSubmittedPayload struct {
	EntryID string                 `json:"entry_id"`
	RaterID string                 `json:"rater_id"`
	RateeID string                 `json:"ratee_id"`
	Scores  []domain.CategoryScore `json:"scores"`
}
