// Package registry manages research projects and their participants. Projects
// carry an FDP (federated data project) profile describing the study and its
// data handling commitments; onboarding decisions reference the registry for
// ownership checks and participant membership.
package registry

import (
	id "collabgate/pkg/domain"
)

// ProjectStatus distinguishes live projects from archived ones. Archival is a
// status change, not a removal, so existing onboarding requests keep resolving.
type ProjectStatus string

const (
	StatusActive   ProjectStatus = "active"
	StatusArchived ProjectStatus = "archived"
)

// FDPProfile describes the study behind a project and how its data is handled.
type FDPProfile struct {
	ResearchInstitution string   `json:"research_institution"`
	ContactEmail        string   `json:"contact_email"`
	StudyObjective      string   `json:"study_objective"`
	DataTypesRequired   []string `json:"data_types_required"`
	SensitivityLevel    string   `json:"data_sensitivity_level"`
	SecurityMeasures    []string `json:"security_measures_planned"`
	ResultSharing       string   `json:"result_sharing_policy"`
	Responsibilities    string   `json:"participant_responsibilities"`
	LegalBasis          string   `json:"legal_basis_for_processing"`
	ThirdParty          bool     `json:"third_party_collaboration"`
}

// Project is a registry entry. Participants includes the owner.
type Project struct {
	ID           id.ProjectID  `json:"id"`
	Title        string        `json:"title"`
	Owner        id.Username   `json:"owner"`
	Tags         []string      `json:"tags"`
	Type         string        `json:"type"`
	Status       ProjectStatus `json:"status"`
	FDP          FDPProfile    `json:"fdp"`
	Participants []id.Username `json:"participants"`
}

// IsParticipant reports whether username is already a member.
func (p *Project) IsParticipant(username id.Username) bool {
	for _, member := range p.Participants {
		if member == username {
			return true
		}
	}
	return false
}

// ProjectInput carries the caller-supplied fields for create and edit.
type ProjectInput struct {
	Title            string   `json:"title"`
	Institution      string   `json:"institution"`
	ContactEmail     string   `json:"email"`
	StudyObjective   string   `json:"objective"`
	DataTypes        []string `json:"data_types"`
	Sensitivity      string   `json:"sensitivity"`
	SecurityMeasures []string `json:"security_measures"`
	ResultSharing    string   `json:"result_sharing"`
	Responsibilities string   `json:"responsibilities"`
	LegalBasis       string   `json:"legal_basis"`
	ThirdParty       bool     `json:"third_party"`
}
