// Package normalize turns free-form questionnaire answers into the canonical
// policy input the external decision service expects. Each canonical field is
// declared as data: an ordered fallback list of source paths plus a literal
// default, so the tables are testable independent of form parsing.
package normalize

// Kind selects the coercion applied to a resolved value.
type Kind int

const (
	// KindString passes the resolved value through unchanged.
	KindString Kind = iota
	// KindBool coerces yes/y/true/1 and no/n/false/0 case-insensitively.
	// Anything else, including absence, is false. This is lossy: absence and
	// an explicit "no" are indistinguishable downstream.
	KindBool
	// KindYesNo canonicalizes yes/no spellings to "Yes"/"No" and passes any
	// other value through so policy-specific enums survive.
	KindYesNo
	// KindStringList wraps scalars into a single-element list and defaults
	// to an empty list when absent.
	KindStringList
)

// Rule declares how one canonical output field is resolved.
type Rule struct {
	// Path is the dotted output path in the policy input tree.
	Path string
	// Fallbacks are consulted in order; the first non-nil, non-empty-string
	// value wins.
	Fallbacks []string
	// Default applies when no fallback resolves.
	Default any
	Kind    Kind
}

// OnboardingRules maps questionnaire answers onto the onboarding eligibility
// policy schema. Field names and nesting are a public contract with the
// policy service; do not rename without a coordinated policy change.
var OnboardingRules = []Rule{
	{
		Path:      "dataNature.involvesHumanResearch",
		Fallbacks: []string{"dataNature.involvesHumanResearch", "human.involves", "data.human_subjects"},
		Kind:      KindBool,
	},
	{
		Path:      "dataNature.retrospectiveConsent",
		Fallbacks: []string{"dataNature.retrospectiveConsent", "consent.retrospective", "consent.status"},
		Default:   "Unknown",
		Kind:      KindString,
	},
	{
		Path:      "ethicalLegal.irbApproval",
		Fallbacks: []string{"ethicalLegal.irbApproval", "ethics.irb_approval", "irb.approval"},
		Default:   "No",
		Kind:      KindYesNo,
	},
	{
		Path:      "identifiability.directIdentifiers",
		Fallbacks: []string{"identifiability.directIdentifiers", "pii.direct_identifiers", "identifiers.direct"},
		Kind:      KindBool,
	},
	{
		Path:      "identifiability.quasiIdentifiers",
		Fallbacks: []string{"identifiability.quasiIdentifiers", "pii.quasi_identifiers", "identifiers.quasi"},
		Kind:      KindBool,
	},
	{
		Path:      "identifiability.processingLevel",
		Fallbacks: []string{"identifiability.processingLevel", "privacy.processing_level", "data.processing_level"},
		Default:   "Raw",
		Kind:      KindString,
	},
	{
		Path:      "dataGovernance.modelUpdatesAllowed",
		Fallbacks: []string{"dataGovernance.modelUpdatesAllowed", "governance.model_updates"},
		Default:   "AfterEncryption",
		Kind:      KindString,
	},
	{
		Path:      "dataGovernance.requiresPerRoundApproval",
		Fallbacks: []string{"dataGovernance.requiresPerRoundApproval", "governance.per_round_approval"},
		Kind:      KindBool,
	},
	{
		Path:      "dataGovernance.agreementsExist",
		Fallbacks: []string{"dataGovernance.agreementsExist", "agreements.exist", "legal.agreements_exist"},
		Kind:      KindBool,
	},
	{
		Path:      "securityInfrastructure.auditLoggingRequired",
		Fallbacks: []string{"securityInfrastructure.auditLoggingRequired", "security.audit_logging_required"},
		Default:   "No",
		Kind:      KindYesNo,
	},
	{
		Path:      "securityInfrastructure.networkConnectionPolicy",
		Fallbacks: []string{"securityInfrastructure.networkConnectionPolicy", "security.network_connection_policy"},
		Default:   "Yes",
		Kind:      KindString,
	},
	{
		Path:      "securityInfrastructure.securityCertifications",
		Fallbacks: []string{"securityInfrastructure.securityCertifications", "security.certifications"},
		Kind:      KindStringList,
	},
	{
		Path:      "retentionRevocation.requiresUnlearning",
		Fallbacks: []string{"retentionRevocation.requiresUnlearning", "retention.requires_unlearning"},
		Default:   "No",
		Kind:      KindYesNo,
	},
}
