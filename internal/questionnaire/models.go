// Package questionnaire loads owner-authored questionnaire schemas and parses
// submitted forms into flat dotted-path answers.
package questionnaire

import (
	dErrors "collabgate/pkg/domain-errors"
)

// QuestionType is the closed set of question variants. Each variant has its
// own decoder in parse.go; there is no runtime branching on raw strings
// outside ParseQuestionType.
type QuestionType string

const (
	QuestionText        QuestionType = "text"
	QuestionEmail       QuestionType = "email"
	QuestionTextarea    QuestionType = "textarea"
	QuestionRadio       QuestionType = "radio"
	QuestionMultiselect QuestionType = "multiselect"
)

var validQuestionTypes = map[QuestionType]bool{
	QuestionText:        true,
	QuestionEmail:       true,
	QuestionTextarea:    true,
	QuestionRadio:       true,
	QuestionMultiselect: true,
}

// ParseQuestionType constructs a QuestionType from schema input.
func ParseQuestionType(s string) (QuestionType, error) {
	qt := QuestionType(s)
	if !validQuestionTypes[qt] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported question type %q", s)
	}
	return qt, nil
}

// Question is one schema entry. ID is a dotted path into the policy input
// tree, e.g. "dataNature.involvesHumanResearch".
type Question struct {
	ID string `json:"id"`
	Type QuestionType `json:"type"`
	// OtherOption marks a multiselect that carries an additional free-text
	// value submitted under "<id>_other".
	OtherOption bool `json:"otherOption,omitempty"`
}

// Section is an ordered group of questions.
type Section struct {
	Questions []Question `json:"questions"`
}

// Schema is an owner-provided questionnaire definition. Immutable once
// loaded; the service only reads this shape, never writes it.
type Schema struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// FlatAnswers maps dotted-path question ids to a scalar string or a []string
// for multiselect questions. Insertion order is irrelevant.
type FlatAnswers map[string]any
