package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type CaptainsLogHandler struct {
	bands *services.BandService
	log   *services.ActivityLogService
}

func NewCaptainsLogHandler(bands *services.BandService, log *services.ActivityLogService) *CaptainsLogHandler {
	return &CaptainsLogHandler{bands: bands, log: log}
}

// List returns the band's captain's log, newest first
// GET /api/bands/:bandId/captains-log?entityType=proposal&actorId=3&startDate=2026-01-01&endDate=2026-02-01&limit=50&offset=0
func (h *CaptainsLogHandler) List(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	var req services.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.log.List(bandID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Get returns a single log entry
// GET /api/bands/:bandId/captains-log/:entryId
func (h *CaptainsLogHandler) Get(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	entryID, ok := paramUint(c, "entryId")
	if !ok {
		response.BadRequest(c, "invalid entry id")
		return
	}

	entry, err := h.log.Get(bandID, entryID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entry)
}
