package dataformat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"

	"collabgate/internal/docstore"
	"collabgate/internal/normalize"
)

// Matcher loads the most recent expectation and provision records and merges
// them into a comparison payload.
//
// Failure policy: any read or parse failure degrades to the empty structure
// for that side only. A malformed or missing declaration reads as "nothing
// declared", which the policy can reject explicitly; it never aborts the
// decision flow.
type Matcher struct {
	docs   *docstore.Store
	logger *slog.Logger
}

// NewMatcher creates a matcher over the given document store.
func NewMatcher(docs *docstore.Store, logger *slog.Logger) *Matcher {
	return &Matcher{docs: docs, logger: logger}
}

// LoadExpected returns the owner's newest expectation record, or the fully
// empty structure when none exists or the record is unreadable.
func (m *Matcher) LoadExpected(ctx context.Context, owner id.Username) Expected {
	var payload struct {
		Expectations map[string]any `json:"expectations"`
	}
	prefix := fmt.Sprintf("owner_%s", owner)
	if _, err := m.docs.Latest(ctx, docstore.KindFormatExpectations, prefix, &payload); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			m.logger.Warn("expectation record unreadable, treating as undeclared",
				"owner", owner,
				"error", err,
			)
		}
		return EmptyExpected()
	}
	return normalizeExpected(payload.Expectations)
}

// LoadProvided returns the applicant's newest provision record for the
// project. An explicit stored reference wins; otherwise the provision store
// is scanned by "{project}_{applicant}_" prefix.
func (m *Matcher) LoadProvided(ctx context.Context, answersRef string, project id.ProjectID, applicant id.Username) Provided {
	var payload struct {
		DataFormat map[string]any `json:"data_format"`
	}

	if answersRef != "" {
		if err := m.docs.Read(ctx, answersRef, &payload); err == nil {
			return normalizeProvided(payload.DataFormat)
		}
		m.logger.Warn("linked provision record unreadable, falling back to scan",
			"ref", answersRef,
			"project_id", project,
			"applicant", applicant,
		)
	}

	prefix := fmt.Sprintf("%s_%s", project, applicant)
	if _, err := m.docs.Latest(ctx, docstore.KindFormatAnswers, prefix, &payload); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			m.logger.Warn("provision record unreadable, treating as undeclared",
				"project_id", project,
				"applicant", applicant,
				"error", err,
			)
		}
		return EmptyProvided()
	}
	return normalizeProvided(payload.DataFormat)
}

// HasProvision reports whether the applicant declared data-format answers
// for the project, either via an explicit reference or a stored record.
func (m *Matcher) HasProvision(ctx context.Context, answersRef string, project id.ProjectID, applicant id.Username) bool {
	var probe map[string]any
	if answersRef != "" {
		if err := m.docs.Read(ctx, answersRef, &probe); err == nil {
			return true
		}
	}
	prefix := fmt.Sprintf("%s_%s", project, applicant)
	_, err := m.docs.Latest(ctx, docstore.KindFormatAnswers, prefix, &probe)
	return err == nil
}

// BuildComparisonPayload assembles the policy input for one request.
func (m *Matcher) BuildComparisonPayload(ctx context.Context, owner id.Username, answersRef string, project id.ProjectID, applicant id.Username) ComparisonPayload {
	return ComparisonPayload{
		Expected: m.LoadExpected(ctx, owner),
		Provided: m.LoadProvided(ctx, answersRef, project, applicant),
		Context: PayloadContext{
			ProjectID: project.String(),
			Applicant: applicant.String(),
		},
	}
}

func normalizeExpected(raw map[string]any) Expected {
	expected := EmptyExpected()
	if raw == nil {
		return expected
	}
	for _, category := range storageCategories {
		expected.Storage[category] = bucketAt(raw, "storage", category)
	}
	expected.Schema.Contracts = bucketAt(raw, "schema", "contracts")
	expected.Delivery.Methods = bucketAt(raw, "delivery", "methods")
	if meta, ok := raw["meta"].(map[string]any); ok {
		expected.Meta = meta
	}
	return expected
}

func bucketAt(raw map[string]any, section, key string) Bucket {
	node, _ := raw[section].(map[string]any)
	entry, _ := node[key].(map[string]any)
	return Bucket{
		Acceptable:    normalize.ToList(entry["acceptable"]),
		Conditional:   normalize.ToList(entry["conditional"]),
		NotAcceptable: normalize.ToList(entry["not_acceptable"]),
	}
}

func normalizeProvided(raw map[string]any) Provided {
	provided := EmptyProvided()
	if raw == nil {
		return provided
	}

	if storage, ok := raw["storage"].(map[string]any); ok {
		provided.Storage = ProvidedStorage{
			Files:         normalize.ToList(storage["files"]),
			Databases:     normalize.ToList(storage["databases"]),
			APIsStreams:   normalize.ToList(storage["apis_streams"]),
			ObjectStore:   normalize.ToList(storage["object_store"]),
			SourceOfTruth: orNil(storage["source_of_truth"]),
		}
	}
	if schema, ok := raw["schema"].(map[string]any); ok {
		for _, key := range schemaKeys {
			if v, present := schema[key]; present && v != nil {
				provided.Schema[key] = v
			}
		}
	}
	if meta, ok := raw["meta"].(map[string]any); ok {
		for _, key := range metaKeys {
			if v, present := meta[key]; present && v != nil {
				provided.Meta[key] = v
			}
		}
	}
	if delivery, ok := raw["delivery"].(map[string]any); ok {
		provided.Delivery = ProvidedDelivery{
			Methods:         normalize.ToList(delivery["methods"]),
			FilesFormat:     orNil(delivery["files_format"]),
			APISpec:         orNil(delivery["api_spec"]),
			DBDetails:       orNil(delivery["db_details"]),
			ObjectStorePath: orNil(delivery["object_store_path"]),
			StreamDetails:   orNil(delivery["stream_details"]),
		}
	}
	if ops, ok := raw["ops"].(map[string]any); ok {
		provided.Ops = ProvidedOps{
			UpdateCadence: orNil(ops["update_cadence"]),
			SizeProfile:   orNil(ops["size_profile"]),
			ErrorRetries:  orNil(ops["error_retries"]),
			Contact:       orNil(ops["contact"]),
		}
	}
	return provided
}

// orNil maps empty strings to explicit nulls so "answered with nothing" and
// "not answered" read the same to the policy.
func orNil(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
