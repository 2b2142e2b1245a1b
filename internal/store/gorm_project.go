package store

import (
	"context"
	"errors"

	"github.com/huangang/taskline/internal/models"
	"gorm.io/gorm"
)

type gormProjectStore struct {
	db *gorm.DB
}

func memberRows(projectID string, emails []string) []models.ProjectMember {
	rows := make([]models.ProjectMember, 0, len(emails))
	now := models.Now()
	for i, email := range emails {
		rows = append(rows, models.ProjectMember{
			ProjectID: projectID,
			Email:     email,
			Position:  i,
			CreatedAt: now,
		})
	}
	return rows
}

func (s *gormProjectStore) Insert(ctx context.Context, project *models.Project) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if len(project.TeamMembers) == 0 {
			return nil
		}
		return tx.Create(memberRows(project.ID, project.TeamMembers)).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if err != nil {
		return unavailable("insert project", err)
	}
	return nil
}

// visibleTo scopes a project query to rows owned by or shared with email.
func (s *gormProjectStore) visibleTo(tx *gorm.DB, email string) *gorm.DB {
	shared := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.ProjectMember{}).
		Select("project_id").
		Where("email = ?", email)
	return tx.Where("(owner = ? OR id IN (?))", email, shared)
}

func (s *gormProjectStore) FindAccessible(ctx context.Context, email string, skip, limit int) ([]models.Project, error) {
	skip, limit = clampPage(skip, limit)
	db := s.db.WithContext(ctx)

	projects := []models.Project{}
	err := s.visibleTo(db.Model(&models.Project{}), email).
		Order("updated_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, unavailable("find accessible projects", err)
	}

	if err := s.loadMembers(db, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *gormProjectStore) FindByIDForMember(ctx context.Context, id, email string) (*models.Project, error) {
	db := s.db.WithContext(ctx)

	var project models.Project
	err := s.visibleTo(db.Model(&models.Project{}).Where("id = ?", id), email).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find project", err)
	}

	projects := []models.Project{project}
	if err := s.loadMembers(db, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

func (s *gormProjectStore) loadMembers(db *gorm.DB, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		projects[i].TeamMembers = models.StringList{}
	}

	var rows []models.ProjectMember
	err := db.Where("project_id IN ?", ids).
		Order("project_id").
		Order("position").
		Find(&rows).Error
	if err != nil {
		return unavailable("load project members", err)
	}

	index := make(map[string]int, len(projects))
	for i := range projects {
		index[projects[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.ProjectID]; ok {
			projects[i].TeamMembers = append(projects[i].TeamMembers, row.Email)
		}
	}
	return nil
}

func (s *gormProjectStore) UpdateOwned(ctx context.Context, id, owner string, fields map[string]interface{}) (bool, error) {
	columns := make(map[string]interface{}, len(fields))
	var members []string
	replaceMembers := false
	for k, v := range fields {
		if k == "team_members" {
			replaceMembers = true
			switch list := v.(type) {
			case models.StringList:
				members = list
			case []string:
				members = list
			}
			continue
		}
		columns[k] = v
	}
	if _, ok := columns["updated_at"]; !ok {
		columns["updated_at"] = models.Now()
	}

	matched := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Project{}).
			Where("id = ? AND owner = ?", id, owner).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		matched = true

		if !replaceMembers {
			return nil
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(memberRows(id, members)).Error
	})
	if err != nil {
		return false, unavailable("update project", err)
	}
	return matched, nil
}

// DeleteOwned removes tasks, members and the project in one transaction.
func (s *gormProjectStore) DeleteOwned(ctx context.Context, id, owner string) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("id = ? AND owner = ?", id, owner).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND owner = ?", id, owner).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, unavailable("delete project", err)
	}
	return deleted, nil
}

type gormTaskStore struct {
	db *gorm.DB
}

func (s *gormTaskStore) Insert(ctx context.Context, task *models.Task) error {
	err := s.db.WithContext(ctx).Create(task).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if err != nil {
		return unavailable("insert task", err)
	}
	return nil
}

func (s *gormTaskStore) FindByProject(ctx context.Context, projectID string, filter models.TaskFilter) ([]models.Task, error) {
	query := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if filter.TaskType != "" {
		query = query.Where("task_type = ?", filter.TaskType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	tasks := []models.Task{}
	if err := query.Order("created_at ASC").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, unavailable("find tasks", err)
	}
	return tasks, nil
}

func (s *gormTaskStore) FindByID(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find task", err)
	}
	return &task, nil
}

func (s *gormTaskStore) Update(ctx context.Context, projectID, taskID string, fields map[string]interface{}) (bool, error) {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = models.Now()
	}
	result := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND project_id = ?", taskID, projectID).
		Updates(fields)
	if result.Error != nil {
		return false, unavailable("update task", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *gormTaskStore) Delete(ctx context.Context, projectID, taskID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", taskID, projectID).
		Delete(&models.Task{})
	if result.Error != nil {
		return false, unavailable("delete task", result.Error)
	}
	return result.RowsAffected > 0, nil
}
