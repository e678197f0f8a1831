// Package onboarding owns the request lifecycle: applicants submit
// questionnaire answers against a project, owners review and decide. The
// collection is append-only; every lifecycle change is a status mutation on
// an existing record.
package onboarding

import (
	"sort"
	"time"

	id "collabgate/pkg/domain"
)

// Request is one applicant's bid to join one project.
type Request struct {
	ID              id.RequestID     `json:"id"`
	ProjectID       id.ProjectID     `json:"project_id"`
	Username        id.Username      `json:"username"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	AnswersFile     string           `json:"answers_file"`
	DataAnswersFile string           `json:"data_answers_file,omitempty"`
	Status          id.RequestStatus `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
	DecidedBy       id.Username      `json:"decided_by,omitempty"`
}

// SortForReview orders requests for owner review: pending first, oldest
// pending first, decided requests after in submission order.
func SortForReview(requests []*Request) {
	sort.SliceStable(requests, func(i, j int) bool {
		pi, pj := requests[i].Status.Priority(), requests[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})
}
