package handlers

import (
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

// CommentHandler serves the shared comment tree. The entity type and the
// name of the id path parameter are fixed per route group at registration
// time.
type CommentHandler struct {
	bands    *services.BandService
	comments *services.CommentService
}

func NewCommentHandler(bands *services.BandService, comments *services.CommentService) *CommentHandler {
	return &CommentHandler{bands: bands, comments: comments}
}

// ListFor returns a handler listing comments on the given entity type.
// GET /api/bands/:bandId/<entities>/:<param>/comments
func (h *CommentHandler) ListFor(entityType, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bandID, _, ok := requireBandMember(c, h.bands)
		if !ok {
			return
		}
		entityID, ok := paramUint(c, param)
		if !ok {
			response.BadRequest(c, "invalid "+entityType+" id")
			return
		}

		tree, err := h.comments.ListTree(bandID, entityType, entityID)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, tree)
	}
}

// AddFor returns a handler posting a comment on the given entity type.
// POST /api/bands/:bandId/<entities>/:<param>/comments
func (h *CommentHandler) AddFor(entityType, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bandID, actor, ok := requireBandMember(c, h.bands)
		if !ok {
			return
		}
		entityID, ok := paramUint(c, param)
		if !ok {
			response.BadRequest(c, "invalid "+entityType+" id")
			return
		}

		var req services.AddCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		comment, err := h.comments.Add(bandID, actor, entityType, entityID, &req)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Created(c, comment)
	}
}

// Update edits a comment; author only
// PUT /api/bands/:bandId/comments/:commentId
func (h *CommentHandler) Update(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	commentID, ok := paramUint(c, "commentId")
	if !ok {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req services.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.Update(bandID, actor, commentID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comment)
}

// Delete removes a comment; author or captain
// DELETE /api/bands/:bandId/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	commentID, ok := paramUint(c, "commentId")
	if !ok {
		response.BadRequest(c, "invalid comment id")
		return
	}

	if err := h.comments.Delete(bandID, actor, commentID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// Entity type re-exports so routes.go doesn't import models directly.
const (
	CommentEntityProposal   = models.CommentEntityProposal
	CommentEntityTask       = models.CommentEntityTask
	CommentEntityDiscussion = models.CommentEntityDiscussion
)
