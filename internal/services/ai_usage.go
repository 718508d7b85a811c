package services

import (
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"gorm.io/gorm"
)

// AIUsageService manages AI usage tracking and the band-facing usage view.
type AIUsageService struct {
	db *gorm.DB
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record saves a usage log entry asynchronously.
func (s *AIUsageService) Record(log *models.AIUsageLog) {
	go func() {
		if err := s.db.Create(log).Error; err != nil {
			logger.Infof("[AIUsage] Failed to record usage: %v", err)
		}
	}()
}

// wattHoursPerKiloToken is a published-average estimate used to show members
// the rough energy cost of their band's AI usage.
const wattHoursPerKiloToken = 0.3

// BandUsageStats holds aggregated AI usage for one band.
type BandUsageStats struct {
	TotalCalls       int64   `json:"totalCalls"`
	TotalTokens      int64   `json:"totalTokens"`
	PromptTokens     int64   `json:"promptTokens"`
	CompletionTokens int64   `json:"completionTokens"`
	AvgLatencyMs     float64 `json:"avgLatencyMs"`
	SuccessRate      float64 `json:"successRate"`
	SuccessCount     int64   `json:"successCount"`
	FailureCount     int64   `json:"failureCount"`
	EstimatedWh      float64 `json:"estimatedWattHours"`
}

// GetBandStats returns aggregated usage for a band in the given date range.
func (s *AIUsageService) GetBandStats(bandID uint, startDate, endDate string) (*BandUsageStats, error) {
	query := s.db.Model(&models.AIUsageLog{}).Where("band_id = ?", bandID)
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var stats BandUsageStats
	err := query.Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens, " +
			"COALESCE(SUM(prompt_tokens), 0) as prompt_tokens, " +
			"COALESCE(SUM(completion_tokens), 0) as completion_tokens, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCalls) * 100
	}
	stats.EstimatedWh = float64(stats.TotalTokens) / 1000 * wattHoursPerKiloToken
	return &stats, nil
}

// DailyUsage holds usage data for a single day.
type DailyUsage struct {
	Date         string `json:"date"`
	Calls        int    `json:"calls"`
	TotalTokens  int    `json:"totalTokens"`
	AvgLatencyMs int    `json:"avgLatencyMs"`
}

// GetDailyTrend returns a band's daily aggregated usage for charting.
func (s *AIUsageService) GetDailyTrend(bandID uint, startDate, endDate string) ([]DailyUsage, error) {
	query := s.db.Model(&models.AIUsageLog{}).Where("band_id = ?", bandID)
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []DailyUsage
	err := query.Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Group("DATE(created_at)").Order("date ASC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []DailyUsage{}
	}
	return results, nil
}

// OperationUsage holds usage data grouped by operation.
type OperationUsage struct {
	Operation    string  `json:"operation"`
	Calls        int     `json:"calls"`
	TotalTokens  int     `json:"totalTokens"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	SuccessRate  float64 `json:"successRate"`
}

// GetOperationBreakdown returns a band's usage grouped by operation.
func (s *AIUsageService) GetOperationBreakdown(bandID uint, startDate, endDate string) ([]OperationUsage, error) {
	query := s.db.Model(&models.AIUsageLog{}).Where("band_id = ?", bandID)
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []OperationUsage
	err := query.Select(
		"operation, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(total_tokens), 0) as total_tokens, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(AVG(CASE WHEN success = 1 THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("operation").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []OperationUsage{}
	}
	return results, nil
}
