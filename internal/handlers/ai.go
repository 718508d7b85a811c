package handlers

import (
	"github.com/bandhall/bandhall/internal/middleware"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	bands *services.BandService
	ai    *services.AIService
	usage *services.AIUsageService
}

func NewAIHandler(bands *services.BandService, ai *services.AIService, usage *services.AIUsageService) *AIHandler {
	return &AIHandler{bands: bands, ai: ai, usage: usage}
}

type generateProposalBody struct {
	BandID      uint   `json:"bandId" binding:"required"`
	Idea        string `json:"idea" binding:"required,min=3,max=2000"`
	BandContext string `json:"bandContext" binding:"omitempty,max=4000"`
}

// GenerateProposal drafts a proposal from an idea
// POST /api/ai/generate-proposal
func (h *AIHandler) GenerateProposal(c *gin.Context) {
	var body generateProposalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if _, err := h.bands.RequireMember(body.BandID, userID); err != nil {
		response.Error(c, err)
		return
	}

	draft, err := h.ai.GenerateProposal(c.Request.Context(), body.BandID, userID, &services.GenerateProposalRequest{
		Idea:        body.Idea,
		BandContext: body.BandContext,
	})
	if err != nil {
		response.Error(c, response.NewServerError("proposal generation failed"))
		return
	}

	response.Success(c, draft)
}

type generateProfileBody struct {
	BandID      uint   `json:"bandId" binding:"required"`
	Description string `json:"description" binding:"required,min=3,max=4000"`
}

// GenerateProfile drafts band profile fields from a description
// POST /api/ai/generate-profile
func (h *AIHandler) GenerateProfile(c *gin.Context) {
	var body generateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	actor, err := h.bands.RequireMember(body.BandID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !actor.IsCaptain() {
		response.Error(c, response.NewForbidden("only a captain can generate the band profile"))
		return
	}

	draft, err := h.ai.GenerateProfile(c.Request.Context(), body.BandID, userID, &services.GenerateProfileRequest{
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, response.NewServerError("profile generation failed"))
		return
	}

	response.Success(c, draft)
}

// Usage returns a band's AI usage and estimated impact
// GET /api/ai/bands/:bandId/usage?startDate=2026-01-01&endDate=2026-02-01
func (h *AIHandler) Usage(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	stats, err := h.usage.GetBandStats(bandID, startDate, endDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	trend, err := h.usage.GetDailyTrend(bandID, startDate, endDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	breakdown, err := h.usage.GetOperationBreakdown(bandID, startDate, endDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"stats":      stats,
		"dailyTrend": trend,
		"operations": breakdown,
	})
}
