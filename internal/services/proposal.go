package services

import (
	"fmt"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// ProposalService governs the proposal lifecycle:
//
//	draft → in_review → needs_revision → in_review → voting → approved | rejected → executed
//
// Every transition is checked against the current state and appended to the
// captain's log in the same transaction.
type ProposalService struct {
	db    *gorm.DB
	log   *ActivityLogService
	queue TaskQueue
}

func NewProposalService(db *gorm.DB, log *ActivityLogService, queue TaskQueue) *ProposalService {
	return &ProposalService{db: db, log: log, queue: queue}
}

type CreateProposalRequest struct {
	Title            string   `json:"title" binding:"required,min=3,max=300"`
	Objective        string   `json:"objective"`
	Description      string   `json:"description"`
	Rationale        string   `json:"rationale"`
	SuccessCriteria  string   `json:"successCriteria"`
	FinancialRequest *float64 `json:"financialRequest" binding:"omitempty,min=0"`
	VotingPeriodHrs  int      `json:"votingPeriodHours" binding:"omitempty,min=1,max=720"`
}

// Create creates a proposal in draft state.
func (s *ProposalService) Create(bandID uint, actor *models.Member, req *CreateProposalRequest) (*models.Proposal, error) {
	hours := req.VotingPeriodHrs
	if hours == 0 {
		hours = 72
	}

	proposal := &models.Proposal{
		BandID:           bandID,
		CreatorMemberID:  actor.ID,
		Title:            req.Title,
		Objective:        req.Objective,
		Description:      req.Description,
		Rationale:        req.Rationale,
		SuccessCriteria:  req.SuccessCriteria,
		FinancialRequest: req.FinancialRequest,
		State:            models.ProposalStateDraft,
		VotingPeriodHrs:  hours,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proposal).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityProposal, proposal.ID, proposal.Title, "created", nil)
	})
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

type UpdateProposalRequest struct {
	Title            *string  `json:"title" binding:"omitempty,min=3,max=300"`
	Objective        *string  `json:"objective"`
	Description      *string  `json:"description"`
	Rationale        *string  `json:"rationale"`
	SuccessCriteria  *string  `json:"successCriteria"`
	FinancialRequest *float64 `json:"financialRequest" binding:"omitempty,min=0"`
	VotingPeriodHrs  *int     `json:"votingPeriodHours" binding:"omitempty,min=1,max=720"`
}

// Update edits proposal content. Only the creator may edit, and only while
// the proposal is in draft or needs_revision. Changed fields are diffed into
// the captain's log.
func (s *ProposalService) Update(bandID uint, actor *models.Member, proposalID uint, req *UpdateProposalRequest) (*models.Proposal, error) {
	proposal, err := s.Get(bandID, proposalID)
	if err != nil {
		return nil, err
	}

	if proposal.CreatorMemberID != actor.ID {
		return nil, response.NewForbidden("only the proposal's creator can edit it")
	}
	if proposal.State != models.ProposalStateDraft && proposal.State != models.ProposalStateNeedsRevision {
		return nil, response.NewInvalidState("proposal can only be edited in draft or needs_revision")
	}

	changes := make(map[string]Change)
	applyStr := func(field string, dst *string, src *string) {
		if src != nil && *src != *dst {
			changes[field] = Change{From: *dst, To: *src}
			*dst = *src
		}
	}

	applyStr("title", &proposal.Title, req.Title)
	applyStr("objective", &proposal.Objective, req.Objective)
	applyStr("description", &proposal.Description, req.Description)
	applyStr("rationale", &proposal.Rationale, req.Rationale)
	applyStr("successCriteria", &proposal.SuccessCriteria, req.SuccessCriteria)
	if req.FinancialRequest != nil {
		old := proposal.FinancialRequest
		if old == nil || *old != *req.FinancialRequest {
			var from interface{}
			if old != nil {
				from = *old
			}
			changes["financialRequest"] = Change{From: from, To: *req.FinancialRequest}
			proposal.FinancialRequest = req.FinancialRequest
		}
	}
	if req.VotingPeriodHrs != nil && *req.VotingPeriodHrs != proposal.VotingPeriodHrs {
		changes["votingPeriodHours"] = Change{From: proposal.VotingPeriodHrs, To: *req.VotingPeriodHrs}
		proposal.VotingPeriodHrs = *req.VotingPeriodHrs
	}

	if len(changes) == 0 {
		return proposal, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(proposal).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityProposal, proposal.ID, proposal.Title, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

// List returns a band's proposals, optionally filtered by state.
func (s *ProposalService) List(bandID uint, state string) ([]models.Proposal, error) {
	query := s.db.Preload("Creator").Preload("Creator.User").Where("band_id = ?", bandID)
	if state != "" {
		query = query.Where("state = ?", state)
	}

	var proposals []models.Proposal
	if err := query.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// Get returns a proposal scoped to the band.
func (s *ProposalService) Get(bandID, proposalID uint) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.Preload("Creator").Preload("Creator.User").
		Where("id = ? AND band_id = ?", proposalID, bandID).
		First(&proposal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("proposal not found")
		}
		return nil, err
	}
	return &proposal, nil
}

// Submit moves a draft or needs_revision proposal into review. Creator only.
// All narrative fields must be filled in before submission.
func (s *ProposalService) Submit(bandID uint, actor *models.Member, proposalID uint) (*models.Proposal, error) {
	proposal, err := s.Get(bandID, proposalID)
	if err != nil {
		return nil, err
	}

	if proposal.CreatorMemberID != actor.ID {
		return nil, response.NewForbidden("only the proposal's creator can submit it")
	}
	if proposal.State != models.ProposalStateDraft && proposal.State != models.ProposalStateNeedsRevision {
		return nil, response.NewInvalidState(fmt.Sprintf("cannot submit a proposal in state %q", proposal.State))
	}
	if proposal.Title == "" || proposal.Objective == "" || proposal.Description == "" ||
		proposal.Rationale == "" || proposal.SuccessCriteria == "" {
		return nil, response.NewValidation("title, objective, description, rationale and success criteria are required before submitting")
	}

	return s.transition(proposal, actor, models.ProposalStateInReview, "submitted", nil, func(tx *gorm.DB) error {
		return nil
	})
}

type ReviewProposalRequest struct {
	Action   string `json:"action" binding:"required,oneof=approve request_changes"`
	Feedback string `json:"feedback"`
}

// Review resolves a proposal in review. Captain only; the creator cannot
// review their own proposal, and both outcomes need written feedback.
// Approving opens the voting window for the proposal's voting period;
// requesting changes sends it back to the creator.
func (s *ProposalService) Review(bandID uint, actor *models.Member, proposalID uint, req *ReviewProposalRequest) (*models.Proposal, error) {
	if !actor.IsCaptain() {
		return nil, response.NewForbidden("only a captain can review proposals")
	}

	proposal, err := s.Get(bandID, proposalID)
	if err != nil {
		return nil, err
	}

	if proposal.State != models.ProposalStateInReview {
		return nil, response.NewInvalidState(fmt.Sprintf("cannot review a proposal in state %q", proposal.State))
	}
	if proposal.CreatorMemberID == actor.ID {
		return nil, response.NewForbidden("you cannot review your own proposal")
	}
	if req.Feedback == "" {
		return nil, response.NewValidation("reviewer feedback is required")
	}

	switch req.Action {
	case "approve":
		now := time.Now()
		ends := now.Add(time.Duration(proposal.VotingPeriodHrs) * time.Hour)
		return s.transition(proposal, actor, models.ProposalStateVoting, "opened for voting", nil, func(tx *gorm.DB) error {
			proposal.VotingStartsAt = &now
			proposal.VotingEndsAt = &ends
			proposal.ReviewFeedback = req.Feedback
			proposal.ReviewerMemberID = &actor.ID
			return nil
		})
	case "request_changes":
		return s.transition(proposal, actor, models.ProposalStateNeedsRevision, "sent back for revision", nil, func(tx *gorm.DB) error {
			proposal.ReviewFeedback = req.Feedback
			proposal.ReviewerMemberID = &actor.ID
			return nil
		})
	default:
		return nil, response.NewValidation("action must be approve or request_changes")
	}
}

// Finalize closes voting and resolves the outcome: more approvals than
// rejections approves the proposal, anything else (including a tie) rejects
// it. Only allowed once the voting window has elapsed. Any band member may
// trigger it; the outcome depends only on the tally.
func (s *ProposalService) Finalize(bandID uint, actor *models.Member, proposalID uint) (*models.Proposal, error) {
	proposal, err := s.Get(bandID, proposalID)
	if err != nil {
		return nil, err
	}

	if proposal.State != models.ProposalStateVoting {
		return nil, response.NewInvalidState(fmt.Sprintf("cannot finalize a proposal in state %q", proposal.State))
	}
	if proposal.VotingEndsAt != nil && time.Now().Before(*proposal.VotingEndsAt) {
		return nil, response.NewInvalidState("voting period has not ended yet")
	}

	outcome := models.ProposalStateRejected
	action := "rejected"
	if proposal.VotesApprove > proposal.VotesReject {
		outcome = models.ProposalStateApproved
		action = "approved"
	}

	tally := map[string]Change{
		"tally": {
			From: nil,
			To: map[string]int{
				"approve": proposal.VotesApprove,
				"reject":  proposal.VotesReject,
				"abstain": proposal.VotesAbstain,
			},
		},
	}

	return s.transition(proposal, actor, outcome, action, tally, func(tx *gorm.DB) error {
		return nil
	})
}

// MarkExecuted moves an approved proposal to executed. Called by the project
// service when the first project is created from the proposal.
func (s *ProposalService) MarkExecuted(tx *gorm.DB, proposal *models.Proposal, actor *models.Member) error {
	if proposal.State != models.ProposalStateApproved {
		return response.NewInvalidState("only an approved proposal can be executed")
	}

	changes := map[string]Change{
		"state": {From: proposal.State, To: models.ProposalStateExecuted},
	}
	proposal.State = models.ProposalStateExecuted

	if err := tx.Model(proposal).Update("state", models.ProposalStateExecuted).Error; err != nil {
		return err
	}
	return s.log.Append(tx, proposal.BandID, actor.ID, LogEntityProposal, proposal.ID, proposal.Title, "executed", changes)
}

// transition persists a state change plus any extra field mutations set by
// prepare, logging the from/to state alongside them.
func (s *ProposalService) transition(proposal *models.Proposal, actor *models.Member, to, action string, extraChanges map[string]Change, prepare func(tx *gorm.DB) error) (*models.Proposal, error) {
	from := proposal.State

	changes := map[string]Change{
		"state": {From: from, To: to},
	}
	for k, v := range extraChanges {
		changes[k] = v
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := prepare(tx); err != nil {
			return err
		}
		proposal.State = to
		if err := tx.Save(proposal).Error; err != nil {
			return err
		}
		return s.log.Append(tx, proposal.BandID, actor.ID, LogEntityProposal, proposal.ID, proposal.Title, action, changes)
	})
	if err != nil {
		return nil, err
	}

	s.notify(proposal, action)
	return proposal, nil
}

// notify enqueues a band notification for a lifecycle event. Best effort;
// delivery failures never fail the transition.
func (s *ProposalService) notify(proposal *models.Proposal, action string) {
	if s.queue == nil {
		return
	}
	task := &NotifyTask{
		BandID:  proposal.BandID,
		Event:   "proposal." + proposal.State,
		Message: fmt.Sprintf("Proposal %q %s", proposal.Title, action),
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Warnf("[Proposal] failed to enqueue notification for proposal %d: %v", proposal.ID, err)
	}
}
