package services

import (
	"context"
	"errors"
	"strings"

	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/internal/store"
	"github.com/huangang/taskline/pkg/logger"
)

const (
	DefaultProjectLimit = 100
	MaxProjectLimit     = 100
)

type ProjectService struct {
	projects store.ProjectStore
}

func NewProjectService(projects store.ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

type CreateProjectRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	StartDate   *models.Date   `json:"start_date"`
	EndDate     *models.Date   `json:"end_date"`
	Status      models.Status  `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold cancelled"`
	TeamMembers []string       `json:"team_members" validate:"omitempty,dive,member_email"`
	Settings    models.JSONMap `json:"settings"`
}

// UpdateProjectRequest is a partial update: nil fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string        `json:"name" validate:"omitempty,notblank,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	StartDate   *models.Date   `json:"start_date"`
	EndDate     *models.Date   `json:"end_date"`
	Status      *models.Status `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold cancelled"`
	TeamMembers []string       `json:"team_members" validate:"omitempty,dive,member_email"`
	Settings    models.JSONMap `json:"settings"`
}

func (r *UpdateProjectRequest) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.StartDate != nil {
		fields["start_date"] = *r.StartDate
	}
	if r.EndDate != nil {
		fields["end_date"] = *r.EndDate
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.TeamMembers != nil {
		fields["team_members"] = models.StringList(r.TeamMembers)
	}
	if r.Settings != nil {
		fields["settings"] = r.Settings
	}
	return fields
}

// Create stores a new project owned by ownerEmail.
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, ownerEmail string) (*models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimPtr(req.Description)
	req.TeamMembers = normalizeMembers(req.TeamMembers)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	settings := req.Settings
	if settings == nil {
		settings = models.JSONMap{}
	}

	now := models.Now()
	project := &models.Project{
		ID:          models.NewID(),
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		TeamMembers: models.StringList(req.TeamMembers),
		Settings:    settings,
		Owner:       ownerEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Insert(ctx, project); err != nil {
		return nil, err
	}

	logger.Info().Str("project_id", project.ID).Str("owner", ownerEmail).Msg("Project created")
	return project, nil
}

// ListProjectsRequest carries the paging query of a project listing.
type ListProjectsRequest struct {
	Skip  int  `form:"skip" json:"skip" validate:"gte=0"`
	Limit *int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// List validates the paging window and returns the accessible page.
func (s *ProjectService) List(ctx context.Context, req *ListProjectsRequest, email string) ([]models.Project, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	limit := DefaultProjectLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	return s.ListAccessible(ctx, email, req.Skip, limit)
}

// ListAccessible returns projects owned by or shared with email.
func (s *ProjectService) ListAccessible(ctx context.Context, email string, skip, limit int) ([]models.Project, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultProjectLimit
	}
	if limit > MaxProjectLimit {
		limit = MaxProjectLimit
	}
	return s.projects.FindAccessible(ctx, email, skip, limit)
}

// GetByID returns ErrNotAccessible for malformed ids, missing projects and
// projects email may not see alike.
func (s *ProjectService) GetByID(ctx context.Context, id, email string) (*models.Project, error) {
	if !models.IsValidID(id) {
		return nil, ErrNotAccessible
	}
	project, err := s.projects.FindByIDForMember(ctx, id, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAccessible
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Update applies the fields present in req. Only the owner may update; team
// members get the same ErrNotAccessible as strangers.
func (s *ProjectService) Update(ctx context.Context, id string, req *UpdateProjectRequest, email string) (*models.Project, error) {
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
	if req.TeamMembers != nil {
		req.TeamMembers = normalizeMembers(req.TeamMembers)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id, email)
	if err != nil {
		return nil, err
	}
	if !current.IsOwner(email) {
		return nil, ErrNotAccessible
	}

	fields := req.fields()
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = models.Now()

	ok, err := s.projects.UpdateOwned(ctx, id, email, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Deleted between the read and the write.
		return nil, ErrNotAccessible
	}

	return s.GetByID(ctx, id, email)
}

// Delete removes an owned project together with its tasks.
func (s *ProjectService) Delete(ctx context.Context, id, email string) error {
	if !models.IsValidID(id) {
		return ErrNotAccessible
	}
	ok, err := s.projects.DeleteOwned(ctx, id, email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAccessible
	}

	logger.Info().Str("project_id", id).Str("owner", email).Msg("Project deleted")
	return nil
}
