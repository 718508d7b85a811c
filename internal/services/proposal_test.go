package services

import (
	"testing"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
)

func newProposalService(f *bandFixture) *ProposalService {
	return NewProposalService(f.db, f.log, nil)
}

func draftProposal(t *testing.T, f *bandFixture, proposals *ProposalService, creator *models.Member) *models.Proposal {
	t.Helper()
	proposal, err := proposals.Create(f.band.ID, creator, &CreateProposalRequest{
		Title:           "Buy a new PA system",
		Objective:       "Replace the failing mixer before the spring tour",
		Description:     "Our current PA drops channels mid-set and the mixer is beyond repair.",
		Rationale:       "Renting for every gig costs more over a season than buying outright.",
		SuccessCriteria: "Two gigs played on the new rig without a dropout.",
	})
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return proposal
}

func TestProposalCreate_Defaults(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)

	proposal := draftProposal(t, f, proposals, f.member)

	if proposal.State != models.ProposalStateDraft {
		t.Errorf("state = %q, expected draft", proposal.State)
	}
	if proposal.VotingPeriodHrs != 72 {
		t.Errorf("voting period = %d, expected default 72", proposal.VotingPeriodHrs)
	}
	if proposal.VotesApprove != 0 || proposal.VotesReject != 0 || proposal.VotesAbstain != 0 {
		t.Error("new proposal should have zero tallies")
	}
}

func TestProposalSubmit(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	submitted, err := proposals.Submit(f.band.ID, f.member, proposal.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if submitted.State != models.ProposalStateInReview {
		t.Errorf("state = %q, expected in_review", submitted.State)
	}
}

func TestProposalSubmit_CreatorOnly(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	_, err := proposals.Submit(f.band.ID, f.captain, proposal.ID)
	wantAppErr(t, err, response.CodeForbidden)
}

func TestProposalSubmit_RequiresAllTextFields(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)

	// Every narrative field must be filled in, not just title and objective
	cases := []struct {
		name string
		req  CreateProposalRequest
	}{
		{"missing objective", CreateProposalRequest{Title: "Vague idea", Description: "d", Rationale: "r", SuccessCriteria: "s"}},
		{"missing description", CreateProposalRequest{Title: "Vague idea", Objective: "o", Rationale: "r", SuccessCriteria: "s"}},
		{"missing rationale", CreateProposalRequest{Title: "Vague idea", Objective: "o", Description: "d", SuccessCriteria: "s"}},
		{"missing success criteria", CreateProposalRequest{Title: "Vague idea", Objective: "o", Description: "d", Rationale: "r"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proposal, err := proposals.Create(f.band.ID, f.member, &tc.req)
			if err != nil {
				t.Fatalf("create proposal: %v", err)
			}

			_, err = proposals.Submit(f.band.ID, f.member, proposal.ID)
			wantAppErr(t, err, response.CodeValidation)
		})
	}
}

func TestProposalSubmit_WrongState(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)
	openVoting(t, f.db, proposal)

	_, err := proposals.Submit(f.band.ID, f.member, proposal.ID)
	wantAppErr(t, err, response.CodeInvalidState)
}

func TestProposalReview_Approve(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	if _, err := proposals.Submit(f.band.ID, f.member, proposal.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Approval needs written feedback just like requesting changes
	_, err := proposals.Review(f.band.ID, f.captain, proposal.ID, &ReviewProposalRequest{Action: "approve"})
	wantAppErr(t, err, response.CodeValidation)

	reviewed, err := proposals.Review(f.band.ID, f.captain, proposal.ID, &ReviewProposalRequest{
		Action:   "approve",
		Feedback: "Budget looks sane, put it to a vote",
	})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if reviewed.State != models.ProposalStateVoting {
		t.Errorf("state = %q, expected voting", reviewed.State)
	}
	if reviewed.ReviewFeedback != "Budget looks sane, put it to a vote" {
		t.Errorf("feedback = %q", reviewed.ReviewFeedback)
	}
	if reviewed.VotingStartsAt == nil || reviewed.VotingEndsAt == nil {
		t.Fatal("approving must open the voting window")
	}
	window := reviewed.VotingEndsAt.Sub(*reviewed.VotingStartsAt)
	if window != 72*time.Hour {
		t.Errorf("voting window = %v, expected 72h", window)
	}
	if reviewed.ReviewerMemberID == nil || *reviewed.ReviewerMemberID != f.captain.ID {
		t.Error("reviewer member id not recorded")
	}
}

func TestProposalReview_RequestChanges(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	if _, err := proposals.Submit(f.band.ID, f.member, proposal.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Feedback is mandatory when sending back
	_, err := proposals.Review(f.band.ID, f.captain, proposal.ID, &ReviewProposalRequest{Action: "request_changes"})
	wantAppErr(t, err, response.CodeValidation)

	reviewed, err := proposals.Review(f.band.ID, f.captain, proposal.ID, &ReviewProposalRequest{
		Action:   "request_changes",
		Feedback: "Needs a budget breakdown",
	})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if reviewed.State != models.ProposalStateNeedsRevision {
		t.Errorf("state = %q, expected needs_revision", reviewed.State)
	}
	if reviewed.ReviewFeedback != "Needs a budget breakdown" {
		t.Errorf("feedback = %q", reviewed.ReviewFeedback)
	}

	// The creator can now edit and resubmit
	if _, err := proposals.Submit(f.band.ID, f.member, proposal.ID); err != nil {
		t.Errorf("resubmit after revision: %v", err)
	}
}

func TestProposalReview_NoSelfReview(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.captain)

	if _, err := proposals.Submit(f.band.ID, f.captain, proposal.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := proposals.Review(f.band.ID, f.captain, proposal.ID, &ReviewProposalRequest{Action: "approve"})
	wantAppErr(t, err, response.CodeForbidden)
}

func TestProposalReview_CaptainOnly(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.captain)

	if _, err := proposals.Submit(f.band.ID, f.captain, proposal.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := proposals.Review(f.band.ID, f.member, proposal.ID, &ReviewProposalRequest{Action: "approve"})
	wantAppErr(t, err, response.CodeForbidden)
}

func TestProposalFinalize_Approved(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	votes := NewVoteService(f.db, f.log)
	proposal := draftProposal(t, f, proposals, f.member)
	openVoting(t, f.db, proposal)

	third := f.addMember(t, "bassist@example.com")
	for member, choice := range map[*models.Member]string{
		f.captain: "approve",
		f.member:  "approve",
		third:     "reject",
	} {
		if _, err := votes.Cast(f.band.ID, member, proposal.ID, &CastVoteRequest{Vote: choice}); err != nil {
			t.Fatalf("cast %s: %v", choice, err)
		}
	}

	// Cannot finalize while the window is open
	_, err := proposals.Finalize(f.band.ID, f.member, proposal.ID)
	wantAppErr(t, err, response.CodeInvalidState)

	reloaded, _ := proposals.Get(f.band.ID, proposal.ID)
	closeVotingWindow(t, f.db, reloaded)

	final, err := proposals.Finalize(f.band.ID, f.member, proposal.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if final.State != models.ProposalStateApproved {
		t.Errorf("state = %q, expected approved (2 approve vs 1 reject)", final.State)
	}

	// Finalize is not repeatable
	_, err = proposals.Finalize(f.band.ID, f.member, proposal.ID)
	wantAppErr(t, err, response.CodeInvalidState)
}

func TestProposalFinalize_TieRejects(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	votes := NewVoteService(f.db, f.log)
	proposal := draftProposal(t, f, proposals, f.member)
	openVoting(t, f.db, proposal)

	if _, err := votes.Cast(f.band.ID, f.captain, proposal.ID, &CastVoteRequest{Vote: "approve"}); err != nil {
		t.Fatalf("cast approve: %v", err)
	}
	if _, err := votes.Cast(f.band.ID, f.member, proposal.ID, &CastVoteRequest{Vote: "reject"}); err != nil {
		t.Fatalf("cast reject: %v", err)
	}

	reloaded, _ := proposals.Get(f.band.ID, proposal.ID)
	closeVotingWindow(t, f.db, reloaded)

	final, err := proposals.Finalize(f.band.ID, f.member, proposal.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if final.State != models.ProposalStateRejected {
		t.Errorf("state = %q, a tie must reject", final.State)
	}
}

func TestProposalFinalize_AbstainsDoNotCount(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	votes := NewVoteService(f.db, f.log)
	proposal := draftProposal(t, f, proposals, f.member)
	openVoting(t, f.db, proposal)

	third := f.addMember(t, "keys@example.com")
	if _, err := votes.Cast(f.band.ID, f.captain, proposal.ID, &CastVoteRequest{Vote: "approve"}); err != nil {
		t.Fatalf("cast approve: %v", err)
	}
	if _, err := votes.Cast(f.band.ID, f.member, proposal.ID, &CastVoteRequest{Vote: "abstain"}); err != nil {
		t.Fatalf("cast abstain: %v", err)
	}
	if _, err := votes.Cast(f.band.ID, third, proposal.ID, &CastVoteRequest{Vote: "abstain"}); err != nil {
		t.Fatalf("cast abstain: %v", err)
	}

	reloaded, _ := proposals.Get(f.band.ID, proposal.ID)
	closeVotingWindow(t, f.db, reloaded)

	final, err := proposals.Finalize(f.band.ID, f.member, proposal.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if final.State != models.ProposalStateApproved {
		t.Errorf("state = %q, 1 approve vs 0 reject should approve", final.State)
	}
}

func TestProposalUpdate_OnlyInEditableStates(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	title := "Buy a smaller PA system"
	updated, err := proposals.Update(f.band.ID, f.member, proposal.ID, &UpdateProposalRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update() in draft error = %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}

	if _, err := proposals.Submit(f.band.ID, f.member, proposal.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = proposals.Update(f.band.ID, f.member, proposal.ID, &UpdateProposalRequest{Title: &title})
	wantAppErr(t, err, response.CodeInvalidState)
}

func TestProposalUpdate_CreatorOnly(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	title := "Hijacked"
	_, err := proposals.Update(f.band.ID, f.captain, proposal.ID, &UpdateProposalRequest{Title: &title})
	wantAppErr(t, err, response.CodeForbidden)
}

func TestProposalList_FilterByState(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)

	draftProposal(t, f, proposals, f.member)
	second := draftProposal(t, f, proposals, f.member)
	if _, err := proposals.Submit(f.band.ID, f.member, second.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	all, err := proposals.List(f.band.ID, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 proposals, got %d", len(all))
	}

	drafts, err := proposals.List(f.band.ID, models.ProposalStateDraft)
	if err != nil {
		t.Fatalf("List(draft) error = %v", err)
	}
	if len(drafts) != 1 {
		t.Errorf("expected 1 draft, got %d", len(drafts))
	}
}

func TestProposalGet_ScopedToBand(t *testing.T) {
	f := newBandFixture(t)
	proposals := newProposalService(f)
	proposal := draftProposal(t, f, proposals, f.member)

	otherUser := createUser(t, f.db, "other@example.com")
	otherBand, err := f.bands.Create(otherUser.ID, &CreateBandRequest{Name: "Other Band"})
	if err != nil {
		t.Fatalf("create other band: %v", err)
	}

	_, err = proposals.Get(otherBand.ID, proposal.ID)
	wantAppErr(t, err, response.CodeNotFound)
}
