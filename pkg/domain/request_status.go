package domain

import dErrors "collabgate/pkg/domain-errors"

// RequestStatus is the lifecycle state of an onboarding request.
//
// Transitions: submitted -> accepted | rejected. Accepted and rejected are
// terminal for the applicant but remain re-decidable by the project owner so a
// mistaken decision can be corrected.
type RequestStatus string

const (
	RequestStatusSubmitted RequestStatus = "submitted"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
)

var validRequestStatuses = map[RequestStatus]bool{
	RequestStatusSubmitted: true,
	RequestStatusAccepted:  true,
	RequestStatusRejected:  true,
}

// ParseRequestStatus constructs a RequestStatus from external input.
func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if !validRequestStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid request status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s RequestStatus) IsValid() bool {
	return validRequestStatuses[s]
}

// Priority orders statuses for list views: pending requests surface first.
func (s RequestStatus) Priority() int {
	if s == RequestStatusSubmitted {
		return 0
	}
	return 1
}

func (s RequestStatus) String() string {
	return string(s)
}
