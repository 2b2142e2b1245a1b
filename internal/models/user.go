package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID             string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" bson:"email" json:"email"`
	FullName       string    `gorm:"size:200;not null" bson:"full_name" json:"full_name"`
	IsActive       bool      `gorm:"not null" bson:"is_active" json:"is_active"`
	HashedPassword string    `gorm:"size:255;not null" bson:"hashed_password" json:"-"`
	CreatedAt      time.Time `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
