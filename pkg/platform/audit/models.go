// Package audit captures key domain actions for compliance review. Events are
// transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "collabgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance,
	// e.g. onboarding decisions and policy installations.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, e.g. questionnaire submissions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Actor     id.Username
	ProjectID id.ProjectID
	RequestID string
	Action    string
	Decision  string
	Reason    string
	// CorrelationID carries the HTTP request id when the event originates
	// from an inbound request.
	CorrelationID string
}

// AuditEvent names the actions recorded by this service.
type AuditEvent string

const (
	// Request lifecycle events
	EventRequestSubmitted AuditEvent = "request_submitted"
	EventRequestAccepted  AuditEvent = "request_accepted"
	EventRequestRejected  AuditEvent = "request_rejected"

	// Project registry events
	EventProjectCreated  AuditEvent = "project_created"
	EventProjectJoined   AuditEvent = "project_joined"
	EventProjectArchived AuditEvent = "project_archived"

	// Policy service events
	EventPolicyInstalled AuditEvent = "policy_installed"
	EventPolicyEvaluated AuditEvent = "policy_evaluated"
)
