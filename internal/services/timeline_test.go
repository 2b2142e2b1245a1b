package services

import (
	"context"
	"testing"

	"github.com/huangang/taskline/internal/models"
)

func TestBuildTimeline(t *testing.T) {
	tasks := []models.Task{
		{ID: "T1", Name: "first", TaskType: models.TaskTypeTask, Dependencies: models.StringList{}},
		{ID: "T2", Name: "second", TaskType: models.TaskTypeEpic, Dependencies: models.StringList{"T1"}},
		{ID: "M1", Name: "launch", TaskType: models.TaskTypeMilestone},
	}

	tl := buildTimeline("P", tasks)

	if tl.ProjectID != "P" {
		t.Errorf("ProjectID = %q", tl.ProjectID)
	}
	if len(tl.Milestones) != 1 || tl.Milestones[0].ID != "M1" {
		t.Errorf("Milestones = %+v, expected [M1]", tl.Milestones)
	}
	if len(tl.Tasks) != 2 || tl.Tasks[0].ID != "T1" || tl.Tasks[1].ID != "T2" {
		t.Errorf("Tasks = %+v, expected [T1 T2]", tl.Tasks)
	}
	if len(tl.Dependencies) != 1 || tl.Dependencies[0] != (DependencyEdge{From: "T1", To: "T2"}) {
		t.Errorf("Dependencies = %+v, expected [{T1 T2}]", tl.Dependencies)
	}
	if tl.Tasks[1].Type != models.TaskTypeEpic {
		t.Errorf("Type = %q, expected epic", tl.Tasks[1].Type)
	}
}

func TestBuildTimeline_KeepsDanglingEdges(t *testing.T) {
	tasks := []models.Task{
		{ID: "T1", TaskType: models.TaskTypeTask, Dependencies: models.StringList{"gone", "T1"}},
	}

	tl := buildTimeline("P", tasks)

	if len(tl.Dependencies) != 2 {
		t.Fatalf("Dependencies = %+v, edges are copied without checks", tl.Dependencies)
	}
	if tl.Dependencies[0].From != "gone" || tl.Dependencies[1].From != "T1" {
		t.Errorf("edge order = %+v", tl.Dependencies)
	}
}

func TestTimeline_FromStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.mustCreateProject(t, "alice@x.com")

	t1, err := env.tasks.Create(ctx, projectID, &CreateTaskRequest{Name: "T1"}, "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}
	t2, err := env.tasks.Create(ctx, projectID, &CreateTaskRequest{Name: "T2", Dependencies: []string{t1.ID}}, "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}
	m1, err := env.tasks.Create(ctx, projectID, &CreateTaskRequest{Name: "M1", TaskType: models.TaskTypeMilestone}, "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}

	tl := env.tasks.Timeline(ctx, projectID, "alice@x.com")

	if len(tl.Milestones) != 1 || tl.Milestones[0].ID != m1.ID {
		t.Errorf("Milestones = %+v", tl.Milestones)
	}
	if len(tl.Tasks) != 2 || tl.Tasks[0].ID != t1.ID || tl.Tasks[1].ID != t2.ID {
		t.Errorf("Tasks = %+v", tl.Tasks)
	}
	if len(tl.Dependencies) != 1 || tl.Dependencies[0].From != t1.ID || tl.Dependencies[0].To != t2.ID {
		t.Errorf("Dependencies = %+v", tl.Dependencies)
	}
}

func TestTimeline_InaccessibleYieldsEmptyShell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.mustCreateProject(t, "alice@x.com")
	if _, err := env.tasks.Create(ctx, projectID, &CreateTaskRequest{Name: "secret"}, "alice@x.com"); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{projectID, "bogus"} {
		tl := env.tasks.Timeline(ctx, id, "bob@x.com")

		if tl.ProjectID != id {
			t.Errorf("ProjectID = %q, expected %q", tl.ProjectID, id)
		}
		if tl.Tasks == nil || tl.Milestones == nil || tl.Dependencies == nil {
			t.Error("empty shell must carry non-nil slices")
		}
		if len(tl.Tasks)+len(tl.Milestones)+len(tl.Dependencies) != 0 {
			t.Errorf("timeline leaked data: %+v", tl)
		}
	}
}
