package handlers

import (
	"strconv"

	"github.com/bandhall/bandhall/internal/middleware"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

// paramUint parses a numeric path parameter. A zero return with ok=false
// means the caller should bail with a validation error.
func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// requireBandMember resolves :bandId and the caller's membership in it. On
// failure the response has already been written and ok is false.
func requireBandMember(c *gin.Context, bands *services.BandService) (uint, *models.Member, bool) {
	bandID, ok := paramUint(c, "bandId")
	if !ok {
		response.BadRequest(c, "invalid band id")
		return 0, nil, false
	}

	actor, err := bands.RequireMember(bandID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return 0, nil, false
	}
	return bandID, actor, true
}
