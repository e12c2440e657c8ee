package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers decisions that changed or refused to change
	// the applicant record.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the intake service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory `json:"category"`
	Timestamp    time.Time     `json:"timestamp"`
	SessionID    string        `json:"sessionId"`
	DocumentType string        `json:"documentType"`
	Action       string        `json:"action"`
	Decision     string        `json:"decision,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	RequestID    string        `json:"requestId,omitempty"`
}

type AuditEvent string

const (
	EventDocumentExtracted AuditEvent = "document_extracted"
	EventDocumentCommitted AuditEvent = "document_committed"
	EventCommitRefused     AuditEvent = "commit_refused"
	EventHandoffConsumed   AuditEvent = "handoff_consumed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDocumentCommitted: CategoryCompliance,
	EventCommitRefused:     CategoryCompliance,
	EventHandoffConsumed:   CategoryCompliance,
	EventDocumentExtracted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events in append order.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySession(ctx context.Context, sessionID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
