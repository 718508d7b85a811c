package services

import (
	"fmt"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// VoteService records votes and keeps the proposal's denormalized tally
// counters exact. The vote row and the counter bump commit in one
// transaction; the unique index on (proposal_id, member_id) enforces
// one vote per member.
type VoteService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewVoteService(db *gorm.DB, log *ActivityLogService) *VoteService {
	return &VoteService{db: db, log: log}
}

type CastVoteRequest struct {
	Vote    string `json:"vote" binding:"required,oneof=approve reject abstain"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// Cast records the member's vote on a proposal. The proposal must be in
// voting state with its window still open. Votes are immutable; a second
// vote by the same member is a duplicate_vote error.
func (s *VoteService) Cast(bandID uint, actor *models.Member, proposalID uint, req *CastVoteRequest) (*models.Vote, error) {
	var proposal models.Proposal
	if err := s.db.Where("id = ? AND band_id = ?", proposalID, bandID).First(&proposal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("proposal not found")
		}
		return nil, err
	}

	if proposal.State != models.ProposalStateVoting {
		return nil, response.NewInvalidState(fmt.Sprintf("cannot vote on a proposal in state %q", proposal.State))
	}
	if proposal.VotingEndsAt != nil && !time.Now().Before(*proposal.VotingEndsAt) {
		return nil, response.NewInvalidState("voting period has ended")
	}

	vote := &models.Vote{
		ProposalID: proposal.ID,
		MemberID:   actor.ID,
		Choice:     req.Vote,
		Comment:    req.Comment,
	}

	var counter string
	switch req.Vote {
	case models.VoteChoiceApprove:
		counter = "votes_approve"
	case models.VoteChoiceReject:
		counter = "votes_reject"
	case models.VoteChoiceAbstain:
		counter = "votes_abstain"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return response.NewDuplicateVote("you have already voted on this proposal")
			}
			return err
		}

		if err := tx.Model(&models.Proposal{}).Where("id = ?", proposal.ID).
			Update(counter, gorm.Expr(counter+" + 1")).Error; err != nil {
			return err
		}

		return s.log.AppendDetail(tx, bandID, actor.ID, LogEntityVote, vote.ID, proposal.Title, "cast", map[string]interface{}{
			"proposalId": proposal.ID,
			"choice":     req.Vote,
		})
	})
	if err != nil {
		return nil, err
	}

	return vote, nil
}

// List returns a proposal's votes with voter identity, oldest first.
func (s *VoteService) List(bandID, proposalID uint) ([]models.Vote, error) {
	var count int64
	s.db.Model(&models.Proposal{}).Where("id = ? AND band_id = ?", proposalID, bandID).Count(&count)
	if count == 0 {
		return nil, response.NewNotFound("proposal not found")
	}

	var votes []models.Vote
	if err := s.db.Preload("Member").Preload("Member.User").
		Where("proposal_id = ?", proposalID).
		Order("created_at").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// MyVote returns the member's vote on the proposal, or nil if they have not
// voted.
func (s *VoteService) MyVote(proposalID, memberID uint) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.Where("proposal_id = ? AND member_id = ?", proposalID, memberID).First(&vote).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}
