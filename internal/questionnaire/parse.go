package questionnaire

import (
	"net/url"
	"strings"

	dErrors "collabgate/pkg/domain-errors"
)

// decoder turns submitted form values for one question into an answer value.
// One decoder per variant; the dispatch table below is the only place a
// question type selects behavior.
type decoder func(q Question, form url.Values) (any, error)

var decoders = map[QuestionType]decoder{
	QuestionText:        decodeScalar,
	QuestionTextarea:    decodeScalar,
	QuestionRadio:       decodeScalar,
	QuestionEmail:       decodeEmail,
	QuestionMultiselect: decodeMultiselect,
}

// ParseForm walks the schema and collects submitted values into flat answers.
// Unanswered questions are omitted entirely so downstream defaulting can tell
// absence apart from an empty submission field.
func ParseForm(schema Schema, form url.Values) (FlatAnswers, error) {
	answers := make(FlatAnswers)
	for _, section := range schema.Sections {
		for _, q := range section.Questions {
			decode, ok := decoders[q.Type]
			if !ok {
				return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "no decoder for question type %q", q.Type)
			}
			value, err := decode(q, form)
			if err != nil {
				return nil, err
			}
			if value == nil {
				continue
			}
			answers[q.ID] = value
		}
	}
	return answers, nil
}

func decodeScalar(q Question, form url.Values) (any, error) {
	v := strings.TrimSpace(form.Get(q.ID))
	if v == "" {
		return nil, nil
	}
	return v, nil
}

func decodeEmail(q Question, form url.Values) (any, error) {
	v := strings.TrimSpace(form.Get(q.ID))
	if v == "" {
		return nil, nil
	}
	if !strings.Contains(v, "@") || !strings.Contains(v, ".") {
		return nil, dErrors.Newf(dErrors.CodeValidation, "field %s must be a valid email address", q.ID)
	}
	return v, nil
}

func decodeMultiselect(q Question, form url.Values) (any, error) {
	selected := make([]string, 0, len(form[q.ID]))
	for _, v := range form[q.ID] {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			selected = append(selected, trimmed)
		}
	}
	if q.OtherOption {
		if other := strings.TrimSpace(form.Get(q.ID + "_other")); other != "" {
			selected = append(selected, other)
		}
	}
	if len(selected) == 0 {
		return nil, nil
	}
	return selected, nil
}
