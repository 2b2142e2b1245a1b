package services

import (
	"context"

	"github.com/huangang/taskline/internal/models"
	"github.com/huangang/taskline/pkg/logger"
)

type Timeline struct {
	ProjectID    string           `json:"project_id"`
	Tasks        []TimelineItem   `json:"tasks"`
	Milestones   []TimelineItem   `json:"milestones"`
	Dependencies []DependencyEdge `json:"dependencies"`
}

type TimelineItem struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	StartDate            *models.Date      `json:"start_date"`
	EndDate              *models.Date      `json:"end_date"`
	DurationDays         *int              `json:"duration_days"`
	Status               models.Status     `json:"status"`
	CompletionPercentage float64           `json:"completion_percentage"`
	Type                 models.TaskType   `json:"type"`
	Dependencies         models.StringList `json:"dependencies"`
	AssignedTo           *string           `json:"assigned_to"`
	Priority             models.Priority   `json:"priority"`
}

// DependencyEdge points from the prerequisite task to the dependent one.
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func emptyTimeline(projectID string) *Timeline {
	return &Timeline{
		ProjectID:    projectID,
		Tasks:        []TimelineItem{},
		Milestones:   []TimelineItem{},
		Dependencies: []DependencyEdge{},
	}
}

// Timeline reshapes the project's tasks for client rendering. It never fails:
// any error, including an inaccessible project, yields the empty shell.
func (s *TaskService) Timeline(ctx context.Context, projectID, email string) *Timeline {
	tasks, err := s.List(ctx, projectID, email, nil)
	if err != nil {
		logger.Warn().Err(err).Str("project_id", projectID).Msg("Timeline unavailable")
		return emptyTimeline(projectID)
	}
	return buildTimeline(projectID, tasks)
}

func buildTimeline(projectID string, tasks []models.Task) *Timeline {
	timeline := emptyTimeline(projectID)
	for i := range tasks {
		task := &tasks[i]
		item := TimelineItem{
			ID:                   task.ID,
			Name:                 task.Name,
			StartDate:            task.StartDate,
			EndDate:              task.EndDate,
			DurationDays:         task.DurationDays,
			Status:               task.Status,
			CompletionPercentage: task.CompletionPercentage,
			Type:                 task.TaskType,
			Dependencies:         task.Dependencies,
			AssignedTo:           task.AssignedTo,
			Priority:             task.Priority,
		}
		if task.IsMilestone() {
			timeline.Milestones = append(timeline.Milestones, item)
		} else {
			timeline.Tasks = append(timeline.Tasks, item)
		}

		for _, dep := range task.Dependencies {
			timeline.Dependencies = append(timeline.Dependencies, DependencyEdge{From: dep, To: task.ID})
		}
	}
	return timeline
}
