// Package dataformat reconciles an owner's declared data-format expectations
// with an applicant's declared provisions into one comparison payload for the
// policy service.
package dataformat

// Storage categories an owner classifies. Every category is always present
// in the payload, populated or not.
var storageCategories = []string{"files", "databases", "apis_streams", "object_store"}

// Schema artifact kinds an applicant may provide.
var schemaKeys = []string{
	"json_schema", "openapi", "graphql", "xml_xsd", "avro",
	"protobuf", "sql_ddl", "data_dictionary", "other",
}

// Metadata facets an applicant may describe.
var metaKeys = []string{
	"field_descriptions", "allowed_values_units", "time_handling",
	"provenance", "quality_rules", "versioning_policy", "privacy_legal",
}

// Bucket is a three-way classification of formats or methods.
type Bucket struct {
	Acceptable    []string `json:"acceptable"`
	Conditional   []string `json:"conditional"`
	NotAcceptable []string `json:"not_acceptable"`
}

func emptyBucket() Bucket {
	return Bucket{
		Acceptable:    []string{},
		Conditional:   []string{},
		NotAcceptable: []string{},
	}
}

// Expected is the owner-declared side of the comparison. "No expectations
// declared" is a valid, policy-significant state: every bucket present, all
// sequences empty.
type Expected struct {
	Storage  map[string]Bucket `json:"storage"`
	Schema   ExpectedSchema    `json:"schema"`
	Delivery ExpectedDelivery  `json:"delivery"`
	Meta     map[string]any    `json:"meta"`
}

type ExpectedSchema struct {
	Contracts Bucket `json:"contracts"`
}

type ExpectedDelivery struct {
	Methods Bucket `json:"methods"`
}

// EmptyExpected returns the fully-empty expectation structure.
func EmptyExpected() Expected {
	storage := make(map[string]Bucket, len(storageCategories))
	for _, category := range storageCategories {
		storage[category] = emptyBucket()
	}
	return Expected{
		Storage:  storage,
		Schema:   ExpectedSchema{Contracts: emptyBucket()},
		Delivery: ExpectedDelivery{Methods: emptyBucket()},
		Meta:     map[string]any{},
	}
}

// Provided is the applicant-declared side. Optional fields are explicit
// nulls or empty sequences, never absent keys, so the payload shape is fixed
// regardless of how much the applicant answered.
type Provided struct {
	Storage  ProvidedStorage  `json:"storage"`
	Schema   map[string]any   `json:"schema"`
	Meta     map[string]any   `json:"meta"`
	Delivery ProvidedDelivery `json:"delivery"`
	Ops      ProvidedOps      `json:"ops"`
}

type ProvidedStorage struct {
	Files         []string `json:"files"`
	Databases     []string `json:"databases"`
	APIsStreams   []string `json:"apis_streams"`
	ObjectStore   []string `json:"object_store"`
	SourceOfTruth any      `json:"source_of_truth"`
}

type ProvidedDelivery struct {
	Methods         []string `json:"methods"`
	FilesFormat     any      `json:"files_format"`
	APISpec         any      `json:"api_spec"`
	DBDetails       any      `json:"db_details"`
	ObjectStorePath any      `json:"object_store_path"`
	StreamDetails   any      `json:"stream_details"`
}

type ProvidedOps struct {
	UpdateCadence any `json:"update_cadence"`
	SizeProfile   any `json:"size_profile"`
	ErrorRetries  any `json:"error_retries"`
	Contact       any `json:"contact"`
}

// EmptyProvided returns the fully-empty provision structure.
func EmptyProvided() Provided {
	return Provided{
		Storage: ProvidedStorage{
			Files:       []string{},
			Databases:   []string{},
			APIsStreams: []string{},
			ObjectStore: []string{},
		},
		Schema:   nullMap(schemaKeys),
		Meta:     nullMap(metaKeys),
		Delivery: ProvidedDelivery{Methods: []string{}},
		Ops:      ProvidedOps{},
	}
}

func nullMap(keys []string) map[string]any {
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		m[k] = nil
	}
	return m
}

// ComparisonPayload is the exact input contract of the data-format
// compatibility policy.
type ComparisonPayload struct {
	Expected Expected       `json:"expected"`
	Provided Provided       `json:"provided"`
	Context  PayloadContext `json:"_context"`
}

type PayloadContext struct {
	ProjectID string `json:"project_id"`
	Applicant string `json:"applicant"`
}
