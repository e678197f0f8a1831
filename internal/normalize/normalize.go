package normalize

import (
	"strings"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/pathtree"

	"collabgate/internal/questionnaire"
)

// RequestContext identifies whose answers are being normalized; it rides
// along in the policy input under "_context".
type RequestContext struct {
	ProjectID    id.ProjectID
	Applicant    id.Username
	ProjectOwner id.Username
}

// BuildOnboardingInput applies the onboarding rule table to flat answers and
// returns the nested policy input. The only error source is a rule table
// whose output paths collide, which is a programming error, not bad input.
func BuildOnboardingInput(answers questionnaire.FlatAnswers, rctx RequestContext) (map[string]any, error) {
	return Apply(OnboardingRules, answers, rctx)
}

// Apply resolves every rule against the answers and unflattens the result
// into the nested shape the policy service expects.
func Apply(rules []Rule, answers questionnaire.FlatAnswers, rctx RequestContext) (map[string]any, error) {
	flat := make(map[string]any, len(rules))
	for _, rule := range rules {
		flat[rule.Path] = resolve(rule, answers)
	}
	nested, err := pathtree.Unflatten(flat)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "normalization rule paths collide")
	}
	nested["_context"] = map[string]any{
		"project_id":    rctx.ProjectID.String(),
		"applicant":     rctx.Applicant.String(),
		"project_owner": rctx.ProjectOwner.String(),
	}
	return nested, nil
}

func resolve(rule Rule, answers questionnaire.FlatAnswers) any {
	value, found := firstNonEmpty(answers, rule.Fallbacks)
	switch rule.Kind {
	case KindBool:
		if !found {
			return false
		}
		return ToBool(value)
	case KindYesNo:
		if !found {
			value = rule.Default
		}
		return CanonicalYesNo(value)
	case KindStringList:
		if !found {
			return []string{}
		}
		return ToList(value)
	default:
		if !found {
			return rule.Default
		}
		return value
	}
}

// firstNonEmpty returns the first fallback value that is non-nil and not an
// empty (or whitespace-only) string.
func firstNonEmpty(answers questionnaire.FlatAnswers, paths []string) (any, bool) {
	for _, path := range paths {
		v, ok := answers[path]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// ToBool coerces heterogeneous yes/no representations. The mapping is total:
// any unrecognized value is false. Absence and an explicit "no" are therefore
// indistinguishable; this mirrors the upstream policy contract and is a known
// limitation, not something to patch here.
func ToBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "1":
			return true
		}
		return false
	default:
		return false
	}
}

// CanonicalYesNo maps yes/no spellings onto the canonical "Yes"/"No" tokens.
// Values matching neither pass through unchanged so policy-specific enums
// (e.g. processing-level descriptors) flow untouched.
func CanonicalYesNo(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return "Yes"
	case "no", "n", "false", "0":
		return "No"
	}
	return v
}

// ToList normalizes a value into a string slice: slices pass through,
// scalars wrap into a single element, empty strings and nil become empty.
func ToList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}
