package models

import (
	"time"
)

// ProjectMember is one entry of a project's team on relational stores.
// Document stores keep the list inline on Project.TeamMembers instead.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"size:24;uniqueIndex:idx_project_email;not null" json:"project_id"`
	Email     string    `gorm:"size:255;uniqueIndex:idx_project_email;index;not null" json:"email"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
