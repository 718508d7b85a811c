package services

import (
	"errors"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// LLMConfigService is the admin CRUD for database-managed LLM endpoints.
type LLMConfigService struct {
	db *gorm.DB
}

func NewLLMConfigService(db *gorm.DB) *LLMConfigService {
	return &LLMConfigService{db: db}
}

type CreateLLMConfigRequest struct {
	Name        string  `json:"name" binding:"required"`
	Provider    string  `json:"provider" binding:"omitempty,oneof=openai anthropic ollama gemini azure"`
	BaseURL     string  `json:"baseUrl"`
	APIKey      string  `json:"apiKey"`
	Model       string  `json:"model" binding:"required"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	IsDefault   bool    `json:"isDefault"`
	IsActive    bool    `json:"isActive"`
}

type UpdateLLMConfigRequest struct {
	Name        string   `json:"name"`
	Provider    string   `json:"provider" binding:"omitempty,oneof=openai anthropic ollama gemini azure"`
	BaseURL     string   `json:"baseUrl"`
	APIKey      string   `json:"apiKey"`
	Model       string   `json:"model"`
	MaxTokens   *int     `json:"maxTokens"`
	Temperature *float64 `json:"temperature"`
	IsDefault   *bool    `json:"isDefault"`
	IsActive    *bool    `json:"isActive"`
}

// List returns all configs with masked keys, default first.
func (s *LLMConfigService) List() ([]models.LLMConfig, error) {
	var configs []models.LLMConfig
	if err := s.db.Order("is_default DESC, created_at DESC").Find(&configs).Error; err != nil {
		return nil, err
	}
	for i := range configs {
		configs[i].APIKeyMask = configs[i].MaskAPIKey()
	}
	return configs, nil
}

// GetByID returns one config with a masked key.
func (s *LLMConfigService) GetByID(id uint) (*models.LLMConfig, error) {
	var cfg models.LLMConfig
	if err := s.db.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("llm config not found")
		}
		return nil, err
	}
	cfg.APIKeyMask = cfg.MaskAPIKey()
	return &cfg, nil
}

// Create creates a new LLM config. Setting it default unsets any previous
// default.
func (s *LLMConfigService) Create(req *CreateLLMConfigRequest) (*models.LLMConfig, error) {
	if req.Provider == "" {
		req.Provider = "openai"
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}

	cfg := models.LLMConfig{
		Name:        req.Name,
		Provider:    req.Provider,
		BaseURL:     req.BaseURL,
		APIKey:      req.APIKey,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		IsDefault:   req.IsDefault,
		IsActive:    req.IsActive,
	}

	if req.IsDefault {
		s.db.Model(&models.LLMConfig{}).Where("is_default = ?", true).Update("is_default", false)
	}

	if err := s.db.Create(&cfg).Error; err != nil {
		return nil, err
	}

	cfg.APIKeyMask = cfg.MaskAPIKey()
	return &cfg, nil
}

// Update updates a config. Blank strings leave fields unchanged so the
// admin UI never has to resend the API key.
func (s *LLMConfigService) Update(id uint, req *UpdateLLMConfigRequest) (*models.LLMConfig, error) {
	var cfg models.LLMConfig
	if err := s.db.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("llm config not found")
		}
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Provider != "" {
		updates["provider"] = req.Provider
	}
	if req.BaseURL != "" {
		updates["base_url"] = req.BaseURL
	}
	if req.APIKey != "" {
		updates["api_key"] = req.APIKey
	}
	if req.Model != "" {
		updates["model"] = req.Model
	}
	if req.MaxTokens != nil {
		updates["max_tokens"] = *req.MaxTokens
	}
	if req.Temperature != nil {
		updates["temperature"] = *req.Temperature
	}
	if req.IsDefault != nil {
		if *req.IsDefault {
			s.db.Model(&models.LLMConfig{}).Where("is_default = ? AND id != ?", true, id).Update("is_default", false)
		}
		updates["is_default"] = *req.IsDefault
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.Model(&cfg).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.First(&cfg, id)
	cfg.APIKeyMask = cfg.MaskAPIKey()
	return &cfg, nil
}

// Delete deletes a config.
func (s *LLMConfigService) Delete(id uint) error {
	result := s.db.Delete(&models.LLMConfig{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("llm config not found")
	}
	return nil
}
