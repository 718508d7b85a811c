package handlers

import (
	"github.com/bandhall/bandhall/internal/middleware"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type BandHandler struct {
	bands *services.BandService
}

func NewBandHandler(bands *services.BandService) *BandHandler {
	return &BandHandler{bands: bands}
}

// Create creates a band with the caller as captain
// POST /api/bands
func (h *BandHandler) Create(c *gin.Context) {
	var req services.CreateBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	band, err := h.bands.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, band)
}

// MyBands lists the caller's bands
// GET /api/bands/my-bands
func (h *BandHandler) MyBands(c *gin.Context) {
	bands, err := h.bands.MyBands(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, bands)
}

// Get returns one band; members only
// GET /api/bands/:bandId
func (h *BandHandler) Get(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}

	if _, err := h.bands.RequireMember(bandID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	band, err := h.bands.Get(bandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, band)
}

// UpdateProfile updates the band profile; captain only
// PUT /api/bands/:bandId/profile
func (h *BandHandler) UpdateProfile(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}

	actor, err := h.bands.RequireMember(bandID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateBandProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	band, err := h.bands.UpdateProfile(bandID, actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, band)
}

// Members lists band members
// GET /api/bands/:bandId/members
func (h *BandHandler) Members(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}

	if _, err := h.bands.RequireMember(bandID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	members, err := h.bands.Members(bandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// AddMember enrolls a user by email; captain only
// POST /api/bands/:bandId/members
func (h *BandHandler) AddMember(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}

	actor, err := h.bands.RequireMember(bandID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.bands.AddMember(bandID, actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateMember updates a member's role or display name; captain only
// PUT /api/bands/:bandId/members/:memberId
func (h *BandHandler) UpdateMember(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}
	memberID, ok := paramUint(c, "memberId")
	if !ok {
		response.BadRequest(c, "invalid member id")
		return
	}

	actor, err := h.bands.RequireMember(bandID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.bands.UpdateMember(bandID, actor, memberID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// RemoveMember removes a member; captain only
// DELETE /api/bands/:bandId/members/:memberId
func (h *BandHandler) RemoveMember(c *gin.Context) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return
	}
	memberID, ok := paramUint(c, "memberId")
	if !ok {
		response.BadRequest(c, "invalid member id")
		return
	}

	actor, err := h.bands.RequireMember(bandID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.bands.RemoveMember(bandID, actor, memberID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
