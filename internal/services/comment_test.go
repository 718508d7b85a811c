package services

import (
	"testing"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
)

func commentFixture(t *testing.T) (*bandFixture, *CommentService, *models.Proposal) {
	t.Helper()
	f := newBandFixture(t)
	comments := NewCommentService(f.db, f.log)
	proposals := NewProposalService(f.db, f.log, nil)
	proposal := draftProposal(t, f, proposals, f.member)
	return f, comments, proposal
}

func TestCommentAdd(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	comment, err := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body: "What about the monitor wedges?",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if comment.ParentCommentID != nil {
		t.Error("top-level comment should have no parent")
	}
	if comment.EntityType != models.CommentEntityProposal || comment.EntityID != proposal.ID {
		t.Errorf("comment bound to %s/%d", comment.EntityType, comment.EntityID)
	}
}

func TestCommentAdd_UnknownEntity(t *testing.T) {
	f, comments, _ := commentFixture(t)

	_, err := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, 9999, &AddCommentRequest{Body: "hello"})
	wantAppErr(t, err, response.CodeNotFound)

	_, err = comments.Add(f.band.ID, f.member, "widget", 1, &AddCommentRequest{Body: "hello"})
	wantAppErr(t, err, response.CodeValidation)
}

func TestCommentAdd_ReplyToReplyFlattens(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	top, err := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body: "Top-level comment",
	})
	if err != nil {
		t.Fatalf("add top: %v", err)
	}

	reply, err := comments.Add(f.band.ID, f.captain, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body:            "First reply",
		ParentCommentID: &top.ID,
	})
	if err != nil {
		t.Fatalf("add reply: %v", err)
	}
	if reply.ParentCommentID == nil || *reply.ParentCommentID != top.ID {
		t.Fatalf("reply parent = %v, expected %d", reply.ParentCommentID, top.ID)
	}

	// Replying to the reply must hang off the top-level ancestor instead
	nested, err := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body:            "Reply to the reply",
		ParentCommentID: &reply.ID,
	})
	if err != nil {
		t.Fatalf("add nested: %v", err)
	}
	if nested.ParentCommentID == nil || *nested.ParentCommentID != top.ID {
		t.Errorf("nested reply parent = %v, expected flattened to %d", nested.ParentCommentID, top.ID)
	}
}

func TestCommentAdd_ParentFromOtherEntity(t *testing.T) {
	f, comments, proposal := commentFixture(t)
	proposals := NewProposalService(f.db, f.log, nil)
	other := draftProposal(t, f, proposals, f.member)

	top, err := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body: "On the first proposal",
	})
	if err != nil {
		t.Fatalf("add top: %v", err)
	}

	_, err = comments.Add(f.band.ID, f.member, models.CommentEntityProposal, other.ID, &AddCommentRequest{
		Body:            "Cross-entity reply",
		ParentCommentID: &top.ID,
	})
	wantAppErr(t, err, response.CodeNotFound)
}

func TestCommentListTree(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	first, _ := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "first"})
	second, _ := comments.Add(f.band.ID, f.captain, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "second"})
	if _, err := comments.Add(f.band.ID, f.captain, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body: "reply to first", ParentCommentID: &first.ID,
	}); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	tree, err := comments.ListTree(f.band.ID, models.CommentEntityProposal, proposal.ID)
	if err != nil {
		t.Fatalf("ListTree() error = %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(tree))
	}
	if tree[0].ID != first.ID || tree[1].ID != second.ID {
		t.Error("top-level nodes should be oldest first")
	}
	if len(tree[0].Replies) != 1 {
		t.Errorf("first node should carry 1 reply, got %d", len(tree[0].Replies))
	}
	if len(tree[1].Replies) != 0 {
		t.Errorf("second node should have no replies, got %d", len(tree[1].Replies))
	}
}

func TestCommentUpdate_AuthorOnly(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	comment, _ := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "original"})

	// Even a captain cannot edit someone else's words
	_, err := comments.Update(f.band.ID, f.captain, comment.ID, &UpdateCommentRequest{Body: "edited"})
	wantAppErr(t, err, response.CodeForbidden)

	updated, err := comments.Update(f.band.ID, f.member, comment.ID, &UpdateCommentRequest{Body: "edited"})
	if err != nil {
		t.Fatalf("Update() by author error = %v", err)
	}
	if updated.Body != "edited" {
		t.Errorf("body = %q", updated.Body)
	}
}

func TestCommentDelete_CascadesReplies(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	top, _ := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "top"})
	if _, err := comments.Add(f.band.ID, f.captain, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{
		Body: "reply", ParentCommentID: &top.ID,
	}); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	if err := comments.Delete(f.band.ID, f.member, top.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if n := countRows(t, f.db, &models.Comment{}, "band_id = ?", f.band.ID); n != 0 {
		t.Errorf("expected replies deleted with the top-level comment, %d rows remain", n)
	}
}

func TestCommentDelete_CaptainModeration(t *testing.T) {
	f, comments, proposal := commentFixture(t)

	comment, _ := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "off topic"})

	if err := comments.Delete(f.band.ID, f.captain, comment.ID); err != nil {
		t.Errorf("captain should be able to moderate: %v", err)
	}
}

func TestCommentDelete_NonAuthorForbidden(t *testing.T) {
	f, comments, proposal := commentFixture(t)
	other := f.addMember(t, "bassist@example.com")

	comment, _ := comments.Add(f.band.ID, f.member, models.CommentEntityProposal, proposal.ID, &AddCommentRequest{Body: "mine"})

	err := comments.Delete(f.band.ID, other, comment.ID)
	wantAppErr(t, err, response.CodeForbidden)
}
