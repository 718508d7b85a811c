package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	bands       *services.BandService
	discussions *services.DiscussionService
}

func NewDiscussionHandler(bands *services.BandService, discussions *services.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{bands: bands, discussions: discussions}
}

// Create starts a discussion thread
// POST /api/bands/:bandId/discussions
func (h *DiscussionHandler) Create(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	var req services.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	discussion, err := h.discussions.Create(bandID, actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, discussion)
}

// List lists a band's discussions
// GET /api/bands/:bandId/discussions
func (h *DiscussionHandler) List(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	discussions, err := h.discussions.List(bandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, discussions)
}

// Get returns one discussion
// GET /api/bands/:bandId/discussions/:discussionId
func (h *DiscussionHandler) Get(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	discussionID, ok := paramUint(c, "discussionId")
	if !ok {
		response.BadRequest(c, "invalid discussion id")
		return
	}

	discussion, err := h.discussions.Get(bandID, discussionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, discussion)
}

// Update edits a discussion; author only
// PUT /api/bands/:bandId/discussions/:discussionId
func (h *DiscussionHandler) Update(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	discussionID, ok := paramUint(c, "discussionId")
	if !ok {
		response.BadRequest(c, "invalid discussion id")
		return
	}

	var req services.UpdateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	discussion, err := h.discussions.Update(bandID, actor, discussionID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, discussion)
}

// Delete removes a discussion and its comments; author or captain
// DELETE /api/bands/:bandId/discussions/:discussionId
func (h *DiscussionHandler) Delete(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	discussionID, ok := paramUint(c, "discussionId")
	if !ok {
		response.BadRequest(c, "invalid discussion id")
		return
	}

	if err := h.discussions.Delete(bandID, actor, discussionID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
