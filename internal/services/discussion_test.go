package services

import (
	"testing"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
)

func discussionFixture(t *testing.T) (*bandFixture, *DiscussionService, *models.Discussion) {
	t.Helper()
	f := newBandFixture(t)
	discussions := NewDiscussionService(f.db, f.log)
	discussion, err := discussions.Create(f.band.ID, f.member, &CreateDiscussionRequest{
		Title: "Rehearsal space hunt",
		Body:  "Our lease runs out in June, where do we go?",
	})
	if err != nil {
		t.Fatalf("create discussion: %v", err)
	}
	return f, discussions, discussion
}

func TestDiscussionCreate(t *testing.T) {
	f, _, discussion := discussionFixture(t)

	if discussion.AuthorMemberID != f.member.ID {
		t.Errorf("author = %d, expected %d", discussion.AuthorMemberID, f.member.ID)
	}
	if n := countRows(t, f.db, &models.ActivityLogEntry{}, "entity_type = ?", LogEntityDiscussion); n != 1 {
		t.Errorf("expected 1 log entry for the new discussion, got %d", n)
	}
}

func TestDiscussionUpdate_AuthorOnly(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)

	title := "Rehearsal space hunt, round two"
	_, err := discussions.Update(f.band.ID, f.captain, discussion.ID, &UpdateDiscussionRequest{Title: &title})
	wantAppErr(t, err, response.CodeForbidden)

	updated, err := discussions.Update(f.band.ID, f.member, discussion.ID, &UpdateDiscussionRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update() by author error = %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}
}

func TestDiscussionUpdate_NoChangesNoLog(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)

	before := countRows(t, f.db, &models.ActivityLogEntry{}, "entity_type = ?", LogEntityDiscussion)

	same := discussion.Title
	if _, err := discussions.Update(f.band.ID, f.member, discussion.ID, &UpdateDiscussionRequest{Title: &same}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	after := countRows(t, f.db, &models.ActivityLogEntry{}, "entity_type = ?", LogEntityDiscussion)
	if after != before {
		t.Errorf("no-op update must not log, entries went %d -> %d", before, after)
	}
}

func TestDiscussionDelete_CascadesComments(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)
	comments := NewCommentService(f.db, f.log)

	top, err := comments.Add(f.band.ID, f.captain, models.CommentEntityDiscussion, discussion.ID, &AddCommentRequest{
		Body: "The mill on 5th street has openings",
	})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := comments.Add(f.band.ID, f.member, models.CommentEntityDiscussion, discussion.ID, &AddCommentRequest{
		Body:            "Too far from the venue cluster",
		ParentCommentID: &top.ID,
	}); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	if err := discussions.Delete(f.band.ID, f.member, discussion.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if n := countRows(t, f.db, &models.Comment{}, "entity_type = ? AND entity_id = ?",
		models.CommentEntityDiscussion, discussion.ID); n != 0 {
		t.Errorf("expected comments deleted with the thread, %d left", n)
	}
	_, err = discussions.Get(f.band.ID, discussion.ID)
	wantAppErr(t, err, response.CodeNotFound)
}

func TestDiscussionDelete_CaptainModeration(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)

	// A captain may remove another member's thread
	if err := discussions.Delete(f.band.ID, f.captain, discussion.ID); err != nil {
		t.Fatalf("Delete() by captain error = %v", err)
	}
}

func TestDiscussionDelete_NonAuthorForbidden(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)
	bystander := f.addMember(t, "bassist@example.com")

	err := discussions.Delete(f.band.ID, bystander, discussion.ID)
	wantAppErr(t, err, response.CodeForbidden)
}

func TestDiscussionGet_ScopedToBand(t *testing.T) {
	f, discussions, discussion := discussionFixture(t)

	otherUser := createUser(t, f.db, "other@example.com")
	otherBand, err := f.bands.Create(otherUser.ID, &CreateBandRequest{Name: "Other Band"})
	if err != nil {
		t.Fatalf("create other band: %v", err)
	}

	_, err = discussions.Get(otherBand.ID, discussion.ID)
	wantAppErr(t, err, response.CodeNotFound)
}
