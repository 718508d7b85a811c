package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the platform admin surface: LLM endpoint management
// and the operational system log.
type AdminHandler struct {
	llmConfigs *services.LLMConfigService
	systemLogs *services.SystemLogService
}

func NewAdminHandler(llmConfigs *services.LLMConfigService, systemLogs *services.SystemLogService) *AdminHandler {
	return &AdminHandler{llmConfigs: llmConfigs, systemLogs: systemLogs}
}

// ListLLMConfigs lists LLM endpoints with masked keys
// GET /api/admin/llm-configs
func (h *AdminHandler) ListLLMConfigs(c *gin.Context) {
	configs, err := h.llmConfigs.List()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, configs)
}

// GetLLMConfig returns one LLM endpoint
// GET /api/admin/llm-configs/:id
func (h *AdminHandler) GetLLMConfig(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid config id")
		return
	}

	cfg, err := h.llmConfigs.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, cfg)
}

// CreateLLMConfig creates an LLM endpoint
// POST /api/admin/llm-configs
func (h *AdminHandler) CreateLLMConfig(c *gin.Context) {
	var req services.CreateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cfg, err := h.llmConfigs.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, cfg)
}

// UpdateLLMConfig updates an LLM endpoint
// PUT /api/admin/llm-configs/:id
func (h *AdminHandler) UpdateLLMConfig(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid config id")
		return
	}

	var req services.UpdateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cfg, err := h.llmConfigs.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, cfg)
}

// DeleteLLMConfig deletes an LLM endpoint
// DELETE /api/admin/llm-configs/:id
func (h *AdminHandler) DeleteLLMConfig(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "invalid config id")
		return
	}

	if err := h.llmConfigs.Delete(id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ListSystemLogs lists operational logs with filters
// GET /api/admin/system-logs
func (h *AdminHandler) ListSystemLogs(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.systemLogs.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SystemLogModules lists the distinct modules that have logged
// GET /api/admin/system-logs/modules
func (h *AdminHandler) SystemLogModules(c *gin.Context) {
	modules, err := h.systemLogs.GetModules()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, modules)
}

// CleanupSystemLogs deletes logs older than the configured retention window
// POST /api/admin/system-logs/cleanup
func (h *AdminHandler) CleanupSystemLogs(c *gin.Context) {
	deleted, err := h.systemLogs.CleanupOldLogs(h.systemLogs.GetRetentionDays())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": deleted})
}

type retentionBody struct {
	Days int `json:"days" binding:"required,min=1,max=3650"`
}

// SetLogRetention sets the system log retention window
// PUT /api/admin/system-logs/retention
func (h *AdminHandler) SetLogRetention(c *gin.Context) {
	var body retentionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.systemLogs.SetRetentionDays(body.Days); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"days": body.Days})
}
