package models

import (
	"time"
)

// Status is shared by projects and tasks
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type TaskType string

const (
	TaskTypeTask      TaskType = "task"
	TaskTypeEpic      TaskType = "epic"
	TaskTypeMilestone TaskType = "milestone"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeTask, TaskTypeEpic, TaskTypeMilestone:
		return true
	}
	return false
}

// Task is a unit of work inside exactly one project
type Task struct {
	ID                   string     `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	ProjectID            string     `gorm:"size:24;not null;index;index:idx_task_project_status,priority:1;index:idx_task_project_type,priority:1;index:idx_task_project_assignee,priority:1" bson:"project_id" json:"project_id"`
	Name                 string     `gorm:"size:200;not null" bson:"name" json:"name"`
	Description          *string    `gorm:"type:text" bson:"description,omitempty" json:"description"`
	TaskType             TaskType   `gorm:"size:20;not null;index;index:idx_task_project_type,priority:2" bson:"task_type" json:"task_type"`
	Status               Status     `gorm:"size:20;not null;index;index:idx_task_project_status,priority:2" bson:"status" json:"status"`
	Priority             Priority   `gorm:"size:20;not null;index" bson:"priority" json:"priority"`
	StartDate            *Date      `gorm:"type:varchar(10);index" bson:"start_date,omitempty" json:"start_date"`
	EndDate              *Date      `gorm:"type:varchar(10);index" bson:"end_date,omitempty" json:"end_date"`
	DurationDays         *int       `bson:"duration_days,omitempty" json:"duration_days"`
	EffortHours          *float64   `bson:"effort_hours,omitempty" json:"effort_hours"`
	CompletionPercentage float64    `gorm:"not null" bson:"completion_percentage" json:"completion_percentage"`
	AssignedTo           *string    `gorm:"size:255;index;index:idx_task_project_assignee,priority:2" bson:"assigned_to,omitempty" json:"assigned_to"`
	Dependencies         StringList `gorm:"type:text" bson:"dependencies" json:"dependencies"`
	ParentEpic           *string    `gorm:"size:24;index" bson:"parent_epic,omitempty" json:"parent_epic"`
	Tags                 StringList `gorm:"type:text" bson:"tags" json:"tags"`
	CustomFields         JSONMap    `gorm:"type:text" bson:"custom_fields" json:"custom_fields"`
	CreatedBy            string     `gorm:"size:255;index;not null" bson:"created_by" json:"created_by"`
	CreatedAt            time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"index" bson:"updated_at" json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) IsMilestone() bool {
	return t.TaskType == TaskTypeMilestone
}

// TaskFilter narrows a project's task listing. Zero values match everything.
type TaskFilter struct {
	TaskType TaskType
	Status   Status
}
