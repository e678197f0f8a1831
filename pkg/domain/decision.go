package domain

import dErrors "collabgate/pkg/domain-errors"

// Decision is an owner's verdict on an onboarding request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision constructs a Decision from external input. Any value other
// than the two supported verdicts is rejected so an unknown decision can never
// mutate a request.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision must be accept or reject")
	}
}

func (d Decision) String() string {
	return string(d)
}
