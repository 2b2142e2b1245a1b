// Package store persists users, projects and tasks. Two backends implement
// the same interfaces: MongoDB and any GORM dialect (sqlite, mysql, postgres).
package store

import (
	"context"
	"errors"

	"github.com/huangang/taskline/internal/models"
	"github.com/samber/oops"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// CodeUnavailable tags every infrastructure failure returned by a backend.
const CodeUnavailable = "STORE_UNAVAILABLE"

type UserStore interface {
	// FindByEmail returns ErrNotFound when no user has the address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Create returns ErrDuplicateKey when the email is taken.
	Create(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, email string, active bool) (bool, error)
}

type ProjectStore interface {
	Insert(ctx context.Context, project *models.Project) error
	// FindAccessible lists projects owned by or shared with email, most
	// recently updated first.
	FindAccessible(ctx context.Context, email string, skip, limit int) ([]models.Project, error)
	// FindByIDForMember returns ErrNotFound unless the project exists and is
	// visible to email.
	FindByIDForMember(ctx context.Context, id, email string) (*models.Project, error)
	// UpdateOwned applies fields only when owner owns the project. The bool
	// reports whether a project matched.
	UpdateOwned(ctx context.Context, id, owner string, fields map[string]interface{}) (bool, error)
	// DeleteOwned removes the project and all of its tasks.
	DeleteOwned(ctx context.Context, id, owner string) (bool, error)
}

type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	// FindByProject lists tasks in creation order.
	FindByProject(ctx context.Context, projectID string, filter models.TaskFilter) ([]models.Task, error)
	FindByID(ctx context.Context, projectID, taskID string) (*models.Task, error)
	Update(ctx context.Context, projectID, taskID string, fields map[string]interface{}) (bool, error)
	Delete(ctx context.Context, projectID, taskID string) (bool, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Users() UserStore
	Projects() ProjectStore
	Tasks() TaskStore
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func unavailable(operation string, err error) error {
	return oops.
		Code(CodeUnavailable).
		In("store").
		With("operation", operation).
		Wrap(err)
}

// IsUnavailable reports whether err is an infrastructure failure.
func IsUnavailable(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeUnavailable
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	return skip, limit
}
