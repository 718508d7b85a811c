package models

import (
	"time"

	"gorm.io/gorm"
)

// Proposal lifecycle states. Transitions are governed by the proposal
// service; any out-of-order transition is rejected.
const (
	ProposalStateDraft         = "draft"
	ProposalStateInReview      = "in_review"
	ProposalStateNeedsRevision = "needs_revision"
	ProposalStateVoting        = "voting"
	ProposalStateApproved      = "approved"
	ProposalStateRejected      = "rejected"
	ProposalStateExecuted      = "executed"
)

// Vote choices.
const (
	VoteChoiceApprove = "approve"
	VoteChoiceReject  = "reject"
	VoteChoiceAbstain = "abstain"
)

// Proposal is a formal request for collective action, subject to review and
// voting before execution. The votes_* columns are denormalized counters
// maintained in the same transaction as each Vote insert; they always equal
// the count of vote rows partitioned by choice.
type Proposal struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	BandID           uint           `gorm:"index;not null" json:"bandId"`
	CreatorMemberID  uint           `gorm:"index;not null" json:"creatorMemberId"`
	Creator          *Member        `gorm:"foreignKey:CreatorMemberID" json:"creator,omitempty"`
	Title            string         `gorm:"size:300;not null" json:"title"`
	Objective        string         `gorm:"type:text" json:"objective"`
	Description      string         `gorm:"type:text" json:"description"`
	Rationale        string         `gorm:"type:text" json:"rationale"`
	SuccessCriteria  string         `gorm:"type:text" json:"successCriteria"`
	FinancialRequest *float64       `json:"financialRequest"`
	State            string         `gorm:"size:30;index;default:draft" json:"state"`
	VotingPeriodHrs  int            `gorm:"column:voting_period_hours;default:72" json:"votingPeriodHours"`
	VotingStartsAt   *time.Time     `json:"votingStartsAt"`
	VotingEndsAt     *time.Time     `json:"votingEndsAt"`
	VotesApprove     int            `gorm:"default:0" json:"votesApprove"`
	VotesReject      int            `gorm:"default:0" json:"votesReject"`
	VotesAbstain     int            `gorm:"default:0" json:"votesAbstain"`
	ReviewFeedback   string         `gorm:"type:text" json:"reviewFeedback"`
	ReviewerMemberID *uint          `json:"reviewerMemberId"`
	CreatedAt        time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Proposal) TableName() string { return "proposals" }

// Vote records one member's immutable choice on a proposal. The composite
// unique index is the authority for the one-vote-per-member rule; the
// service translates violations into a duplicate_vote domain error.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProposalID uint      `gorm:"uniqueIndex:idx_votes_proposal_member;index;not null" json:"proposalId"`
	MemberID   uint      `gorm:"uniqueIndex:idx_votes_proposal_member;not null" json:"memberId"`
	Member     *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Choice     string    `gorm:"size:20;not null" json:"choice"` // approve, reject, abstain
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Vote) TableName() string { return "votes" }
