package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProposalHandler struct {
	bands     *services.BandService
	proposals *services.ProposalService
	votes     *services.VoteService
}

func NewProposalHandler(bands *services.BandService, proposals *services.ProposalService, votes *services.VoteService) *ProposalHandler {
	return &ProposalHandler{bands: bands, proposals: proposals, votes: votes}
}

// Create creates a draft proposal
// POST /api/bands/:bandId/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	var req services.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Create(bandID, actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, proposal)
}

// List lists a band's proposals, optionally by state
// GET /api/bands/:bandId/proposals?state=voting
func (h *ProposalHandler) List(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	proposals, err := h.proposals.List(bandID, c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposals)
}

// Get returns one proposal
// GET /api/bands/:bandId/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	proposal, err := h.proposals.Get(bandID, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposal)
}

// Update edits a draft or needs_revision proposal; creator only
// PUT /api/bands/:bandId/proposals/:id
func (h *ProposalHandler) Update(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	var req services.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Update(bandID, actor, proposalID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposal)
}

// Submit sends a proposal into review; creator only
// POST /api/bands/:bandId/proposals/:id/submit
func (h *ProposalHandler) Submit(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	proposal, err := h.proposals.Submit(bandID, actor, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposal)
}

// Review resolves a review; captain only
// POST /api/bands/:bandId/proposals/:id/review
func (h *ProposalHandler) Review(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	var req services.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Review(bandID, actor, proposalID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposal)
}

// Vote casts the caller's vote
// POST /api/bands/:bandId/proposals/:id/vote
func (h *ProposalHandler) Vote(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	var req services.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	vote, err := h.votes.Cast(bandID, actor, proposalID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, vote)
}

// Votes lists a proposal's votes
// GET /api/bands/:bandId/proposals/:id/votes
func (h *ProposalHandler) Votes(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	votes, err := h.votes.List(bandID, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	myVote, err := h.votes.MyVote(proposalID, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"votes": votes, "myVote": myVote})
}

// Finalize closes voting and resolves the outcome
// POST /api/bands/:bandId/proposals/:id/finalize
func (h *ProposalHandler) Finalize(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	proposalID, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	proposal, err := h.proposals.Finalize(bandID, actor, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, proposal)
}
