package services

import (
	"testing"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
)

func TestTaskCreate_Defaults(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)

	task, err := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "Order mixer"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != models.TaskStatusNotStarted {
		t.Errorf("status = %q, expected not_started", task.Status)
	}
	if task.Priority != models.TaskPriorityMedium {
		t.Errorf("priority = %q, expected medium", task.Priority)
	}
}

func TestTaskCreate_AssigneeMustBeMember(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)

	// A member of a different band cannot be assigned
	otherUser := createUser(t, pf.db, "stranger@example.com")
	otherBand, err := pf.bands.Create(otherUser.ID, &CreateBandRequest{Name: "Rival Band"})
	if err != nil {
		t.Fatalf("create other band: %v", err)
	}
	stranger, err := pf.bands.RequireMember(otherBand.ID, otherUser.ID)
	if err != nil {
		t.Fatalf("resolve stranger: %v", err)
	}

	_, err = pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{
		Title:            "Misassigned",
		AssigneeMemberID: &stranger.ID,
	})
	wantAppErr(t, err, response.CodeValidation)

	task, err := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{
		Title:            "Properly assigned",
		AssigneeMemberID: &pf.captain.ID,
	})
	if err != nil {
		t.Fatalf("Create() with band member assignee: %v", err)
	}
	if task.AssigneeMemberID == nil || *task.AssigneeMemberID != pf.captain.ID {
		t.Error("assignee not recorded")
	}
}

func TestTaskComplete_Idempotent(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)

	task, _ := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "One-shot"})

	if _, err := pf.tasks.Complete(pf.band.ID, pf.member, project.ID, task.ID); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}

	logsAfterFirst := countRows(t, pf.db, &models.ActivityLogEntry{},
		"band_id = ? AND entity_type = ? AND action = ?", pf.band.ID, LogEntityTask, "completed")
	if logsAfterFirst != 1 {
		t.Fatalf("expected 1 completed log entry, got %d", logsAfterFirst)
	}

	again, err := pf.tasks.Complete(pf.band.ID, pf.member, project.ID, task.ID)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if again.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q", again.Status)
	}

	logsAfterSecond := countRows(t, pf.db, &models.ActivityLogEntry{},
		"band_id = ? AND entity_type = ? AND action = ?", pf.band.ID, LogEntityTask, "completed")
	if logsAfterSecond != 1 {
		t.Errorf("repeat completion must not log again, got %d entries", logsAfterSecond)
	}
}

func TestTaskUpdate_StatusRecomputesProgress(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)

	task, _ := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "Mark via update"})

	status := models.TaskStatusCompleted
	if _, err := pf.tasks.Update(pf.band.ID, pf.member, project.ID, task.ID, &UpdateTaskRequest{Status: &status}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var reloaded models.Project
	pf.db.First(&reloaded, project.ID)
	if reloaded.Progress != 100 {
		t.Errorf("progress = %d, expected 100 after completing the only task", reloaded.Progress)
	}

	// And back again
	reopen := models.TaskStatusInProgress
	if _, err := pf.tasks.Update(pf.band.ID, pf.member, project.ID, task.ID, &UpdateTaskRequest{Status: &reopen}); err != nil {
		t.Fatalf("Update() reopen error = %v", err)
	}

	pf.db.First(&reloaded, project.ID)
	if reloaded.Progress != 0 {
		t.Errorf("progress = %d, expected 0 after reopening", reloaded.Progress)
	}
}

func TestTaskGet_ScopedToProject(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)
	other, err := pf.projects.Create(pf.band.ID, pf.member, &CreateProjectRequest{
		ProposalID: pf.proposal.ID,
		Name:       "Second project",
	})
	if err != nil {
		t.Fatalf("create second project: %v", err)
	}

	task, _ := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "Belongs to first"})

	_, err = pf.tasks.Get(pf.band.ID, other.ID, task.ID)
	wantAppErr(t, err, response.CodeNotFound)
}

func TestTaskList_FilterByStatus(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)

	first, _ := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "First"})
	pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "Second"})
	if _, err := pf.tasks.Complete(pf.band.ID, pf.member, project.ID, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	all, err := pf.tasks.List(pf.band.ID, project.ID, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(all))
	}

	done, err := pf.tasks.List(pf.band.ID, project.ID, models.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("List(completed) error = %v", err)
	}
	if len(done) != 1 {
		t.Errorf("expected 1 completed task, got %d", len(done))
	}
}

func TestTaskDelete_RemovesItsComments(t *testing.T) {
	pf := newProjectFixture(t)
	project := pf.createProject(t)
	comments := NewCommentService(pf.db, pf.log)

	task, _ := pf.tasks.Create(pf.band.ID, pf.member, project.ID, &CreateTaskRequest{Title: "Discussed task"})
	if _, err := comments.Add(pf.band.ID, pf.captain, models.CommentEntityTask, task.ID, &AddCommentRequest{
		Body: "Is this still needed?",
	}); err != nil {
		t.Fatalf("comment on task: %v", err)
	}

	if err := pf.tasks.Delete(pf.band.ID, pf.member, project.ID, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n := countRows(t, pf.db, &models.Comment{},
		"band_id = ? AND entity_type = ? AND entity_id = ?", pf.band.ID, models.CommentEntityTask, task.ID)
	if n != 0 {
		t.Errorf("expected the task's comments deleted, %d remain", n)
	}
}
