package services

import (
	"context"
	"errors"
	"strings"

	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/internal/store"
	"github.com/huangang/taskline/pkg/logger"
)

// TaskService gates every operation on the parent project being visible to
// the caller. There is no per-task ACL.
type TaskService struct {
	projects *ProjectService
	tasks    store.TaskStore
}

func NewTaskService(projects *ProjectService, tasks store.TaskStore) *TaskService {
	return &TaskService{
		projects: projects,
		tasks:    tasks,
	}
}

type CreateTaskRequest struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	Description          *string         `json:"description" validate:"omitempty,max=2000"`
	TaskType             models.TaskType `json:"task_type" validate:"omitempty,oneof=task epic milestone"`
	Status               models.Status   `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold cancelled"`
	Priority             models.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	StartDate            *models.Date    `json:"start_date"`
	EndDate              *models.Date    `json:"end_date"`
	DurationDays         *int            `json:"duration_days" validate:"omitempty,gte=0"`
	EffortHours          *float64        `json:"effort_hours" validate:"omitempty,gte=0"`
	CompletionPercentage float64         `json:"completion_percentage" validate:"gte=0,lte=100"`
	AssignedTo           *string         `json:"assigned_to" validate:"omitempty,max=255"`
	Dependencies         []string        `json:"dependencies"`
	ParentEpic           *string         `json:"parent_epic"`
	Tags                 []string        `json:"tags"`
	CustomFields         models.JSONMap  `json:"custom_fields"`
}

// UpdateTaskRequest is a partial update. The task type is fixed at creation.
type UpdateTaskRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,notblank,max=200"`
	Description          *string          `json:"description" validate:"omitempty,max=2000"`
	Status               *models.Status   `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold cancelled"`
	Priority             *models.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	StartDate            *models.Date     `json:"start_date"`
	EndDate              *models.Date     `json:"end_date"`
	DurationDays         *int             `json:"duration_days" validate:"omitempty,gte=0"`
	EffortHours          *float64         `json:"effort_hours" validate:"omitempty,gte=0"`
	CompletionPercentage *float64         `json:"completion_percentage" validate:"omitempty,gte=0,lte=100"`
	AssignedTo           *string          `json:"assigned_to" validate:"omitempty,max=255"`
	Dependencies         []string         `json:"dependencies"`
	ParentEpic           *string          `json:"parent_epic"`
	Tags                 []string         `json:"tags"`
	CustomFields         models.JSONMap   `json:"custom_fields"`
}

func (r *UpdateTaskRequest) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.Priority != nil {
		fields["priority"] = *r.Priority
	}
	if r.StartDate != nil {
		fields["start_date"] = *r.StartDate
	}
	if r.EndDate != nil {
		fields["end_date"] = *r.EndDate
	}
	if r.DurationDays != nil {
		fields["duration_days"] = *r.DurationDays
	}
	if r.EffortHours != nil {
		fields["effort_hours"] = *r.EffortHours
	}
	if r.CompletionPercentage != nil {
		fields["completion_percentage"] = *r.CompletionPercentage
	}
	if r.AssignedTo != nil {
		fields["assigned_to"] = *r.AssignedTo
	}
	if r.Dependencies != nil {
		fields["dependencies"] = models.StringList(r.Dependencies)
	}
	if r.ParentEpic != nil {
		fields["parent_epic"] = *r.ParentEpic
	}
	if r.Tags != nil {
		fields["tags"] = models.StringList(r.Tags)
	}
	if r.CustomFields != nil {
		fields["custom_fields"] = r.CustomFields
	}
	return fields
}

func (s *TaskService) Create(ctx context.Context, projectID string, req *CreateTaskRequest, email string) (*models.Task, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimPtr(req.Description)
	req.AssignedTo = trimPtr(req.AssignedTo)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.projects.GetByID(ctx, projectID, email); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:                   models.NewID(),
		ProjectID:            projectID,
		Name:                 req.Name,
		Description:          req.Description,
		TaskType:             req.TaskType,
		Status:               req.Status,
		Priority:             req.Priority,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		DurationDays:         req.DurationDays,
		EffortHours:          req.EffortHours,
		CompletionPercentage: req.CompletionPercentage,
		AssignedTo:           req.AssignedTo,
		Dependencies:         models.StringList(req.Dependencies),
		ParentEpic:           req.ParentEpic,
		Tags:                 models.StringList(req.Tags),
		CustomFields:         req.CustomFields,
		CreatedBy:            email,
	}
	if task.TaskType == "" {
		task.TaskType = models.TaskTypeTask
	}
	if task.Status == "" {
		task.Status = models.StatusNotStarted
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Dependencies == nil {
		task.Dependencies = models.StringList{}
	}
	if task.Tags == nil {
		task.Tags = models.StringList{}
	}
	if task.CustomFields == nil {
		task.CustomFields = models.JSONMap{}
	}
	task.CreatedAt = models.Now()
	task.UpdatedAt = task.CreatedAt

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}

	logger.Info().Str("project_id", projectID).Str("task_id", task.ID).Msg("Task created")
	return task, nil
}

func (s *TaskService) List(ctx context.Context, projectID, email string, filter *models.TaskFilter) ([]models.Task, error) {
	if _, err := s.projects.GetByID(ctx, projectID, email); err != nil {
		return nil, err
	}

	var f models.TaskFilter
	if filter != nil {
		f = *filter
	}
	return s.tasks.FindByProject(ctx, projectID, f)
}

// ListTasksRequest carries the optional filters of a task listing.
type ListTasksRequest struct {
	TaskType models.TaskType `form:"task_type" json:"task_type" validate:"omitempty,oneof=task epic milestone"`
	Status   models.Status   `form:"status" json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold cancelled"`
}

// ListByQuery validates the filters before listing.
func (s *TaskService) ListByQuery(ctx context.Context, projectID string, req *ListTasksRequest, email string) ([]models.Task, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.List(ctx, projectID, email, &models.TaskFilter{TaskType: req.TaskType, Status: req.Status})
}

func (s *TaskService) GetByID(ctx context.Context, projectID, taskID, email string) (*models.Task, error) {
	if _, err := s.projects.GetByID(ctx, projectID, email); err != nil {
		return nil, err
	}
	return s.find(ctx, projectID, taskID)
}

func (s *TaskService) find(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	if !models.IsValidID(taskID) {
		return nil, ErrNotAccessible
	}
	task, err := s.tasks.FindByID(ctx, projectID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAccessible
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies the present fields. Any caller who can see the project may
// update its tasks.
func (s *TaskService) Update(ctx context.Context, projectID, taskID string, req *UpdateTaskRequest, email string) (*models.Task, error) {
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
	req.AssignedTo = trimPtr(req.AssignedTo)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, projectID, taskID, email)
	if err != nil {
		return nil, err
	}

	fields := req.fields()
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = models.Now()

	ok, err := s.tasks.Update(ctx, projectID, taskID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAccessible
	}
	return s.find(ctx, projectID, taskID)
}

func (s *TaskService) Delete(ctx context.Context, projectID, taskID, email string) error {
	if _, err := s.projects.GetByID(ctx, projectID, email); err != nil {
		return err
	}
	if !models.IsValidID(taskID) {
		return ErrNotAccessible
	}

	ok, err := s.tasks.Delete(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAccessible
	}

	logger.Info().Str("project_id", projectID).Str("task_id", taskID).Msg("Task deleted")
	return nil
}
