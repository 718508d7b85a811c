package models

import "time"

// AIUsageLog records one LLM call for the band's usage and impact view.
type AIUsageLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BandID           uint      `gorm:"index" json:"bandId"`
	UserID           uint      `json:"userId"`
	Provider         string    `gorm:"size:50" json:"provider"`
	Model            string    `gorm:"size:100" json:"model"`
	Operation        string    `gorm:"size:50;index" json:"operation"` // generate_proposal, generate_profile
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	TotalTokens      int       `json:"totalTokens"`
	LatencyMs        int64     `json:"latencyMs"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}

func (AIUsageLog) TableName() string { return "ai_usage_logs" }
