package registry

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/audit"
	"collabgate/pkg/platform/sentinel"
)

// AuditEmitter records registry lifecycle events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns project lifecycle and membership rules. Ownership checks for
// onboarding decisions also go through here.
type Service struct {
	store  Store
	audit  AuditEmitter
	logger *slog.Logger

	// createMu serializes id generation; the store alone cannot prevent two
	// concurrent creates from computing the same sequential id.
	createMu sync.Mutex
}

func NewService(store Store, auditor AuditEmitter, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditor, logger: logger}
}

// Create validates the input, assigns the next sequential project id and
// registers the owner as first participant.
func (s *Service) Create(ctx context.Context, owner id.Username, input ProjectInput) (*Project, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}

	project := &Project{
		ID:           nextProjectID(existing),
		Title:        input.Title,
		Owner:        owner,
		Tags:         buildTags(input.DataTypes),
		Type:         "FDP",
		Status:       StatusActive,
		FDP:          buildProfile(input),
		Participants: []id.Username{owner},
	}
	if err := s.store.Save(ctx, project); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Actor:     owner,
		ProjectID: project.ID,
		Action:    string(audit.EventProjectCreated),
	})
	return project, nil
}

// Edit replaces the caller-editable fields. Only the owner may edit.
func (s *Service) Edit(ctx context.Context, actor id.Username, projectID id.ProjectID, input ProjectInput) (*Project, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	project, err := s.getExisting(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Owner != actor {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the project owner may edit")
	}

	project.Title = input.Title
	project.Tags = buildTags(input.DataTypes)
	project.FDP = buildProfile(input)
	if err := s.store.Save(ctx, project); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
	}
	return project, nil
}

// Archive marks the project archived. The record stays resolvable so past
// onboarding requests keep their context.
func (s *Service) Archive(ctx context.Context, actor id.Username, projectID id.ProjectID) error {
	project, err := s.getExisting(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Owner != actor {
		return dErrors.New(dErrors.CodeForbidden, "only the project owner may archive")
	}
	if project.Status == StatusArchived {
		return nil
	}
	project.Status = StatusArchived
	if err := s.store.Save(ctx, project); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Actor:     actor,
		ProjectID: projectID,
		Action:    string(audit.EventProjectArchived),
	})
	return nil
}

// Join adds username to the participant set. Joining twice is a no-op; the
// accept path of the onboarding lifecycle relies on that.
func (s *Service) Join(ctx context.Context, username id.Username, projectID id.ProjectID) error {
	project, err := s.getExisting(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status == StatusArchived {
		return dErrors.New(dErrors.CodeConflict, "project is archived")
	}
	if project.IsParticipant(username) {
		return nil
	}
	project.Participants = append(project.Participants, username)
	if err := s.store.Save(ctx, project); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Actor:     username,
		ProjectID: projectID,
		Action:    string(audit.EventProjectJoined),
	})
	return nil
}

// Exists reports whether the project is registered, as a not-found error.
func (s *Service) Exists(ctx context.Context, projectID id.ProjectID) error {
	_, err := s.getExisting(ctx, projectID)
	return err
}

// IsOwner reports whether username owns the project.
func (s *Service) IsOwner(ctx context.Context, projectID id.ProjectID, username id.Username) (bool, error) {
	project, err := s.getExisting(ctx, projectID)
	if err != nil {
		return false, err
	}
	return project.Owner == username, nil
}

func (s *Service) Get(ctx context.Context, projectID id.ProjectID) (*Project, error) {
	return s.getExisting(ctx, projectID)
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	projects, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return projects, nil
}

func (s *Service) getExisting(ctx context.Context, projectID id.ProjectID) (*Project, error) {
	project, err := s.store.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return project, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"project_id", event.ProjectID,
			"error", err,
		)
	}
}

func validateInput(input ProjectInput) error {
	if input.Title == "" || input.Institution == "" || input.ContactEmail == "" || input.StudyObjective == "" {
		return dErrors.New(dErrors.CodeValidation,
			"title, research institution, contact email and study objective are required")
	}
	if !strings.Contains(input.ContactEmail, "@") || !strings.Contains(input.ContactEmail, ".") {
		return dErrors.New(dErrors.CodeValidation, "contact email is not valid")
	}
	return nil
}

func buildProfile(input ProjectInput) FDPProfile {
	sensitivity := input.Sensitivity
	if sensitivity == "" {
		sensitivity = "Medium"
	}
	return FDPProfile{
		ResearchInstitution: input.Institution,
		ContactEmail:        input.ContactEmail,
		StudyObjective:      input.StudyObjective,
		DataTypesRequired:   input.DataTypes,
		SensitivityLevel:    sensitivity,
		SecurityMeasures:    input.SecurityMeasures,
		ResultSharing:       input.ResultSharing,
		Responsibilities:    input.Responsibilities,
		LegalBasis:          input.LegalBasis,
		ThirdParty:          input.ThirdParty,
	}
}

func buildTags(dataTypes []string) []string {
	tags := []string{"fdp"}
	for _, t := range dataTypes {
		tags = append(tags, strings.ToLower(t))
	}
	return tags
}

// nextProjectID continues the sequential "projectN" scheme of the registry
// files this service inherits. Non-conforming ids are ignored.
func nextProjectID(existing []*Project) id.ProjectID {
	maxN := 0
	for _, project := range existing {
		pid := strings.ToLower(project.ID.String())
		suffix, ok := strings.CutPrefix(pid, "project")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err == nil && n > maxN {
			maxN = n
		}
	}
	return id.ProjectID("project" + strconv.Itoa(maxN+1))
}
