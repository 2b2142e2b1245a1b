package store

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/taskline/internal/config"
	"github.com/huangang/taskline/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	tasksCollection    = "tasks"
)

// MongoStore keeps each entity in its own collection. Team members are an
// inline array on the project document.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *mongoUserStore
	projects *mongoProjectStore
	tasks    *mongoTaskStore
}

// ConnectMongo dials cfg.URL and verifies the server answers.
func ConnectMongo(ctx context.Context, cfg *config.DatabaseConfig) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailable("connect mongodb", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable("ping mongodb", err)
	}

	return NewMongoStore(client.Database(cfg.Name)), nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	tasks := &mongoTaskStore{coll: db.Collection(tasksCollection)}
	return &MongoStore{
		client: db.Client(),
		db:     db,
		users:  &mongoUserStore{coll: db.Collection(usersCollection)},
		projects: &mongoProjectStore{
			coll:  db.Collection(projectsCollection),
			tasks: tasks,
		},
		tasks: tasks,
	}
}

func (s *MongoStore) Users() UserStore       { return s.users }
func (s *MongoStore) Projects() ProjectStore { return s.projects }
func (s *MongoStore) Tasks() TaskStore       { return s.tasks }

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return unavailable("ping mongodb", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func singleKey(field string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
}

// EnsureIndexes creates every index the queries rely on. CreateMany is a
// no-op for indexes that already exist.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			singleKey("created_at"),
		},
		projectsCollection: {
			singleKey("owner"),
			singleKey("team_members"),
			singleKey("status"),
			singleKey("created_at"),
			singleKey("updated_at"),
		},
		tasksCollection: {
			singleKey("project_id"),
			singleKey("created_by"),
			singleKey("status"),
			singleKey("task_type"),
			singleKey("priority"),
			singleKey("assigned_to"),
			singleKey("parent_epic"),
			singleKey("tags"),
			singleKey("start_date"),
			singleKey("end_date"),
			singleKey("created_at"),
			singleKey("updated_at"),
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "task_type", Value: 1}}},
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "assigned_to", Value: 1}}},
		},
	}

	for _, name := range []string{usersCollection, projectsCollection, tasksCollection} {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return unavailable("create indexes on "+name, err)
		}
	}
	return nil
}

type mongoUserStore struct {
	coll *mongo.Collection
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find user", err)
	}
	return &user, nil
}

func (s *mongoUserStore) Create(ctx context.Context, user *models.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return unavailable("create user", err)
	}
	return nil
}

func (s *mongoUserStore) SetActive(ctx context.Context, email string, active bool) (bool, error) {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": models.Now()}},
	)
	if err != nil {
		return false, unavailable("set user active", err)
	}
	return result.MatchedCount > 0, nil
}
