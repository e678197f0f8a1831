package questionnaire

import (
	"encoding/json"
	"log/slog"
	"os"
)

// LoadSchema reads a questionnaire schema file. Missing or malformed schema
// files degrade to an empty schema rather than failing the request path; an
// empty schema simply parses no answers, which the policy rejects explicitly.
func LoadSchema(path string, logger *slog.Logger) Schema {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("questionnaire schema unavailable, using empty schema",
			"path", path,
			"error", err,
		)
		return Schema{}
	}
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		logger.Warn("questionnaire schema malformed, using empty schema",
			"path", path,
			"error", err,
		)
		return Schema{}
	}
	for _, section := range schema.Sections {
		for _, q := range section.Questions {
			if _, err := ParseQuestionType(string(q.Type)); err != nil {
				logger.Warn("questionnaire schema has unsupported question type, using empty schema",
					"path", path,
					"question", q.ID,
					"type", q.Type,
				)
				return Schema{}
			}
		}
	}
	return schema
}
