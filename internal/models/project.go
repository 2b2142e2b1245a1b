package models

import (
	"time"
)

// Project groups tasks and is visible to its owner and team members
type Project struct {
	ID          string     `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Name        string     `gorm:"size:200;not null" bson:"name" json:"name"`
	Description *string    `gorm:"type:text" bson:"description,omitempty" json:"description"`
	StartDate   *Date      `gorm:"type:varchar(10)" bson:"start_date,omitempty" json:"start_date"`
	EndDate     *Date      `gorm:"type:varchar(10)" bson:"end_date,omitempty" json:"end_date"`
	Status      Status     `gorm:"size:20;index;not null" bson:"status" json:"status"`
	TeamMembers StringList `gorm:"-" bson:"team_members" json:"team_members"` // backed by project_members on relational stores
	Settings    JSONMap    `gorm:"type:text" bson:"settings" json:"settings"`
	Owner       string     `gorm:"size:255;index;not null" bson:"owner" json:"owner"`
	CreatedAt   time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"index" bson:"updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// IsOwner reports whether email owns the project.
func (p *Project) IsOwner(email string) bool {
	return p.Owner == email
}

// IsVisibleTo reports whether email is the owner or a team member.
func (p *Project) IsVisibleTo(email string) bool {
	if p.IsOwner(email) {
		return true
	}
	for _, m := range p.TeamMembers {
		if m == email {
			return true
		}
	}
	return false
}
