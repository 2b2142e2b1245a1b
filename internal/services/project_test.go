package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangang/taskline/internal/models"
)

func TestProjectCreate_Defaults(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.projects.Create(context.Background(), &CreateProjectRequest{
		Name:        "  Launch  ",
		TeamMembers: []string{" bob@x.com", "bob@x.com", "carol@x.com"},
	}, "alice@x.com")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if p.Name != "Launch" {
		t.Errorf("Name = %q, expected trimmed", p.Name)
	}
	if p.Owner != "alice@x.com" {
		t.Errorf("Owner = %q", p.Owner)
	}
	if p.Status != models.StatusNotStarted {
		t.Errorf("Status = %q, expected not_started", p.Status)
	}
	if len(p.TeamMembers) != 2 || p.TeamMembers[0] != "bob@x.com" || p.TeamMembers[1] != "carol@x.com" {
		t.Errorf("TeamMembers = %v, expected trimmed and de-duplicated", p.TeamMembers)
	}
	if !models.IsValidID(p.ID) {
		t.Errorf("ID %q is not a valid identifier", p.ID)
	}
	if !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Error("created and updated timestamps should match on create")
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		req   CreateProjectRequest
		field string
	}{
		{"blank name", CreateProjectRequest{Name: "   "}, "name"},
		{"bad member", CreateProjectRequest{Name: "P", TeamMembers: []string{"bob"}}, "team_members[0]"},
		{"bad status", CreateProjectRequest{Name: "P", Status: "done"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.projects.Create(context.Background(), &tt.req, "alice@x.com")

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("field = %q, expected %q", ve.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestProjectAccess_NotFoundIsIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.mustCreateProject(t, "alice@x.com")

	ids := map[string]string{
		"malformed":    "not-an-id",
		"uppercase":    "65A1B2C3D4E5F60718293A4B",
		"absent":       models.NewID(),
		"inaccessible": id,
	}

	for name, target := range ids {
		t.Run(name, func(t *testing.T) {
			if _, err := env.projects.GetByID(ctx, target, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
				t.Errorf("GetByID() error = %v", err)
			}
			if _, err := env.projects.Update(ctx, target, &UpdateProjectRequest{Name: strPtr("x")}, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
				t.Errorf("Update() error = %v", err)
			}
			if err := env.projects.Delete(ctx, target, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
				t.Errorf("Delete() error = %v", err)
			}
		})
	}
}

func TestProjectAccess_TeamMemberReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.mustCreateProject(t, "alice@x.com", "bob@x.com")

	if _, err := env.projects.GetByID(ctx, id, "bob@x.com"); err != nil {
		t.Fatalf("member GetByID() error = %v", err)
	}

	list, err := env.projects.ListAccessible(ctx, "bob@x.com", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("member list = %v, expected the shared project", list)
	}

	if _, err := env.projects.Update(ctx, id, &UpdateProjectRequest{Name: strPtr("mine")}, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("member Update() error = %v, expected ErrNotAccessible", err)
	}
	if _, err := env.projects.Update(ctx, id, &UpdateProjectRequest{}, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("member empty Update() error = %v, expected ErrNotAccessible", err)
	}
	if err := env.projects.Delete(ctx, id, "bob@x.com"); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("member Delete() error = %v, expected ErrNotAccessible", err)
	}
}

func TestProjectUpdate_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.projects.Create(ctx, &CreateProjectRequest{
		Name:        "Launch",
		Description: strPtr("first"),
		Settings:    models.JSONMap{"color": "red"},
	}, "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(2 * time.Millisecond)
	status := models.StatusInProgress
	updated, err := env.projects.Update(ctx, created.ID, &UpdateProjectRequest{
		Status:      &status,
		TeamMembers: []string{"bob@x.com"},
	}, "alice@x.com")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Status != models.StatusInProgress {
		t.Errorf("Status = %q", updated.Status)
	}
	if updated.Name != "Launch" || updated.Description == nil || *updated.Description != "first" {
		t.Error("absent fields must be left untouched")
	}
	if updated.Settings["color"] != "red" {
		t.Errorf("Settings = %v, expected untouched", updated.Settings)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("updated_at should move forward")
	}
	if !updated.IsVisibleTo("bob@x.com") {
		t.Error("bob should now be a team member")
	}

	same, err := env.projects.Update(ctx, created.ID, &UpdateProjectRequest{}, "alice@x.com")
	if err != nil {
		t.Fatalf("empty Update() error = %v", err)
	}
	if !same.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Error("empty patch should not write")
	}

	if _, err := env.projects.Update(ctx, created.ID, &UpdateProjectRequest{Name: strPtr("  ")}, "alice@x.com"); !IsValidationError(err) {
		t.Errorf("blank name error = %v, expected ValidationError", err)
	}
}

func TestProjectList_OrderAndPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.mustCreateProject(t, "alice@x.com")
	time.Sleep(2 * time.Millisecond)
	second := env.mustCreateProject(t, "alice@x.com")
	time.Sleep(2 * time.Millisecond)

	if _, err := env.projects.Update(ctx, first, &UpdateProjectRequest{Name: strPtr("touched")}, "alice@x.com"); err != nil {
		t.Fatal(err)
	}

	list, err := env.projects.ListAccessible(ctx, "alice@x.com", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != first || list[1].ID != second {
		t.Fatalf("list order = %v, expected most recently updated first", list)
	}

	page, err := env.projects.ListAccessible(ctx, "alice@x.com", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != second {
		t.Errorf("page = %v, expected the second project", page)
	}
}

func TestProjectDelete_CascadesTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.mustCreateProject(t, "alice@x.com")

	task, err := env.tasks.Create(ctx, id, &CreateTaskRequest{Name: "t1"}, "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.projects.Delete(ctx, id, "alice@x.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := env.tasks.List(ctx, id, "alice@x.com", nil); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("List() after delete error = %v", err)
	}
	if _, err := env.tasks.GetByID(ctx, id, task.ID, "alice@x.com"); !errors.Is(err, ErrNotAccessible) {
		t.Errorf("GetByID() after delete error = %v", err)
	}

	orphans, err := env.store.Tasks().FindByProject(ctx, id, models.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 0 {
		t.Errorf("%d tasks survived the project", len(orphans))
	}
}

func TestProjectList_Request(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env.mustCreateProject(t, "alice@x.com")
	}

	got, err := env.projects.List(ctx, &ListProjectsRequest{}, "alice@x.com")
	if err != nil || len(got) != 3 {
		t.Fatalf("List() = %d projects, err %v", len(got), err)
	}

	got, err = env.projects.List(ctx, &ListProjectsRequest{Skip: 1, Limit: intPtr(1)}, "alice@x.com")
	if err != nil || len(got) != 1 {
		t.Fatalf("List(skip=1, limit=1) = %d projects, err %v", len(got), err)
	}

	invalid := []*ListProjectsRequest{
		{Skip: -1},
		{Limit: intPtr(0)},
		{Limit: intPtr(101)},
	}
	for _, req := range invalid {
		if _, err := env.projects.List(ctx, req, "alice@x.com"); !IsValidationError(err) {
			t.Errorf("List(%+v) error = %v, expected validation error", req, err)
		}
	}
}
