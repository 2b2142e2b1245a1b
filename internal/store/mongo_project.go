package store

import (
	"context"
	"errors"

	"github.com/huangang/taskline/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProjectStore struct {
	coll  *mongo.Collection
	tasks *mongoTaskStore
}

func visibleFilter(email string) bson.A {
	return bson.A{
		bson.M{"owner": email},
		bson.M{"team_members": email},
	}
}

func (s *mongoProjectStore) Insert(ctx context.Context, project *models.Project) error {
	if project.TeamMembers == nil {
		project.TeamMembers = models.StringList{}
	}
	if _, err := s.coll.InsertOne(ctx, project); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return unavailable("insert project", err)
	}
	return nil
}

func (s *mongoProjectStore) FindAccessible(ctx context.Context, email string, skip, limit int) ([]models.Project, error) {
	skip, limit = clampPage(skip, limit)

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{"$or": visibleFilter(email)}, opts)
	if err != nil {
		return nil, unavailable("find accessible projects", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, unavailable("decode projects", err)
	}
	return projects, nil
}

func (s *mongoProjectStore) FindByIDForMember(ctx context.Context, id, email string) (*models.Project, error) {
	var project models.Project
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "$or": visibleFilter(email)}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find project", err)
	}
	return &project, nil
}

func (s *mongoProjectStore) UpdateOwned(ctx context.Context, id, owner string, fields map[string]interface{}) (bool, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	if _, ok := set["updated_at"]; !ok {
		set["updated_at"] = models.Now()
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id, "owner": owner}, bson.M{"$set": set})
	if err != nil {
		return false, unavailable("update project", err)
	}
	return result.MatchedCount > 0, nil
}

// DeleteOwned removes tasks before the project. The two deletes are not
// atomic: a failure in between leaves the project without tasks, never tasks
// without a project.
func (s *mongoProjectStore) DeleteOwned(ctx context.Context, id, owner string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return false, unavailable("check project owner", err)
	}
	if count == 0 {
		return false, nil
	}

	if err := s.tasks.deleteByProject(ctx, id); err != nil {
		return false, err
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return false, unavailable("delete project", err)
	}
	return result.DeletedCount > 0, nil
}

type mongoTaskStore struct {
	coll *mongo.Collection
}

func (s *mongoTaskStore) Insert(ctx context.Context, task *models.Task) error {
	if task.Dependencies == nil {
		task.Dependencies = models.StringList{}
	}
	if task.Tags == nil {
		task.Tags = models.StringList{}
	}
	if _, err := s.coll.InsertOne(ctx, task); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return unavailable("insert task", err)
	}
	return nil
}

func (s *mongoTaskStore) FindByProject(ctx context.Context, projectID string, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{"project_id": projectID}
	if filter.TaskType != "" {
		query["task_type"] = filter.TaskType
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, unavailable("find tasks", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, unavailable("decode tasks", err)
	}
	return tasks, nil
}

func (s *mongoTaskStore) FindByID(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.coll.FindOne(ctx, bson.M{"_id": taskID, "project_id": projectID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find task", err)
	}
	return &task, nil
}

func (s *mongoTaskStore) Update(ctx context.Context, projectID, taskID string, fields map[string]interface{}) (bool, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	if _, ok := set["updated_at"]; !ok {
		set["updated_at"] = models.Now()
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": taskID, "project_id": projectID}, bson.M{"$set": set})
	if err != nil {
		return false, unavailable("update task", err)
	}
	return result.MatchedCount > 0, nil
}

func (s *mongoTaskStore) Delete(ctx context.Context, projectID, taskID string) (bool, error) {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": taskID, "project_id": projectID})
	if err != nil {
		return false, unavailable("delete task", err)
	}
	return result.DeletedCount > 0, nil
}

func (s *mongoTaskStore) deleteByProject(ctx context.Context, projectID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return unavailable("delete project tasks", err)
	}
	return nil
}
