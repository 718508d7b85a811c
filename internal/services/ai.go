package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// AIService drafts proposals and band profiles with an LLM. Configured
// endpoints are tried in order (default first, then remaining active ones,
// then the yaml fallback) until one answers.
type AIService struct {
	db     *gorm.DB
	config *config.AIConfig
	usage  *AIUsageService
}

func NewAIService(db *gorm.DB, cfg *config.AIConfig, usage *AIUsageService) *AIService {
	return &AIService{db: db, config: cfg, usage: usage}
}

type GenerateProposalRequest struct {
	Idea        string `json:"idea" binding:"required,min=3,max=2000"`
	BandContext string `json:"bandContext" binding:"omitempty,max=4000"`
}

// ProposalDraft is the structured draft the model is asked to produce.
type ProposalDraft struct {
	Title            string   `json:"title"`
	Objective        string   `json:"objective"`
	Description      string   `json:"description"`
	Rationale        string   `json:"rationale"`
	SuccessCriteria  string   `json:"successCriteria"`
	FinancialRequest *float64 `json:"financialRequest"`
}

type GenerateProfileRequest struct {
	Description string `json:"description" binding:"required,min=3,max=4000"`
}

// ProfileDraft is the structured band profile the model is asked to produce.
type ProfileDraft struct {
	Tagline            string `json:"tagline"`
	FullDescription    string `json:"fullDescription"`
	DecisionGuidelines string `json:"decisionGuidelines"`
	InclusionStatement string `json:"inclusionStatement"`
	MembershipPolicy   string `json:"membershipPolicy"`
}

// GenerateProposal turns a member's rough idea into a structured proposal
// draft. The draft is never persisted; the caller reviews and submits it
// through the normal create flow.
func (s *AIService) GenerateProposal(ctx context.Context, bandID, userID uint, req *GenerateProposalRequest) (*ProposalDraft, error) {
	prompt := buildProposalPrompt(req.Idea, req.BandContext)

	content, provider, model, err := s.call(ctx, bandID, userID, "generate_proposal", prompt)
	if err != nil {
		return nil, err
	}

	var draft ProposalDraft
	if err := json.Unmarshal([]byte(extractJSON(content)), &draft); err != nil {
		logger.Warnf("[AI] %s/%s returned unparseable proposal draft: %v", provider, model, err)
		// Fall back to treating the whole response as the description
		draft = ProposalDraft{Title: req.Idea, Description: content}
	}
	return &draft, nil
}

// GenerateProfile turns a free-form description into structured band
// profile fields.
func (s *AIService) GenerateProfile(ctx context.Context, bandID, userID uint, req *GenerateProfileRequest) (*ProfileDraft, error) {
	prompt := buildProfilePrompt(req.Description)

	content, provider, model, err := s.call(ctx, bandID, userID, "generate_profile", prompt)
	if err != nil {
		return nil, err
	}

	var draft ProfileDraft
	if err := json.Unmarshal([]byte(extractJSON(content)), &draft); err != nil {
		logger.Warnf("[AI] %s/%s returned unparseable profile draft: %v", provider, model, err)
		draft = ProfileDraft{FullDescription: content}
	}
	return &draft, nil
}

// call runs the prompt through the ordered LLM configs, recording one usage
// row per attempt.
func (s *AIService) call(ctx context.Context, bandID, userID uint, operation, prompt string) (content, provider, model string, err error) {
	configs := s.getOrderedLLMConfigs()

	var lastErr error
	for i := range configs {
		llmConfig := &configs[i]

		start := time.Now()
		content, err := s.callLLM(ctx, llmConfig, prompt)
		latency := time.Since(start).Milliseconds()

		if s.usage != nil {
			s.usage.Record(&models.AIUsageLog{
				BandID:           bandID,
				UserID:           userID,
				Provider:         llmConfig.Provider,
				Model:            llmConfig.Model,
				Operation:        operation,
				PromptTokens:     estimateTokens(prompt),
				CompletionTokens: estimateTokens(content),
				TotalTokens:      estimateTokens(prompt) + estimateTokens(content),
				LatencyMs:        latency,
				Success:          err == nil,
				ErrorMessage:     errString(err),
			})
		}

		if err == nil {
			return content, llmConfig.Provider, llmConfig.Model, nil
		}

		lastErr = err
		logger.Infof("[AI] LLM %s failed: %v, trying next...", llmConfig.Name, err)
	}

	return "", "", "", fmt.Errorf("all LLMs failed, last error: %w", lastErr)
}

func (s *AIService) getOrderedLLMConfigs() []models.LLMConfig {
	var configs []models.LLMConfig

	var defaultConfig models.LLMConfig
	if err := s.db.Where("is_default = ? AND is_active = ?", true, true).First(&defaultConfig).Error; err == nil {
		configs = append(configs, defaultConfig)
	}

	var backupConfigs []models.LLMConfig
	existingIDs := make(map[uint]bool)
	for _, c := range configs {
		existingIDs[c.ID] = true
	}
	s.db.Where("is_active = ?", true).Order("id ASC").Find(&backupConfigs)
	for _, c := range backupConfigs {
		if !existingIDs[c.ID] {
			configs = append(configs, c)
		}
	}

	if len(configs) == 0 {
		configs = append(configs, models.LLMConfig{
			Name:     "fallback",
			Provider: s.config.Provider,
			BaseURL:  s.config.BaseURL,
			APIKey:   s.config.APIKey,
			Model:    s.config.Model,
		})
	}

	return configs
}

// callLLM dispatches to the appropriate provider-specific function based on Provider field
func (s *AIService) callLLM(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	logger.Infof("[AI] Using provider: %s, model: %s, baseURL: %s", llmConfig.Provider, llmConfig.Model, llmConfig.BaseURL)

	switch llmConfig.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, llmConfig, prompt)
	case "ollama":
		return s.callOllama(ctx, llmConfig, prompt)
	case "gemini":
		return s.callGemini(ctx, llmConfig, prompt)
	case "azure":
		return s.callAzure(ctx, llmConfig, prompt)
	default:
		// openai and other OpenAI-compatible services
		return s.callOpenAI(ctx, llmConfig, prompt)
	}
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.7)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
	})

	if err != nil {
		logger.Infof("[AI] OpenAI API error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[AI] OpenAI response length: %d chars", len(content))
	return content, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(llmConfig.APIKey),
	)

	maxTokens := int64(llmConfig.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	model := llmConfig.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		logger.Infof("[AI] Anthropic API error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Infof("[AI] Anthropic response length: %d chars", len(content))
	return content, nil
}

// callOllama handles Ollama API using the native SDK
func (s *AIService) callOllama(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	baseURL := llmConfig.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := llmConfig.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": llmConfig.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})

	if err != nil {
		logger.Infof("[AI] Ollama API error: %v", err)
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	result := content.String()
	logger.Infof("[AI] Ollama response length: %d chars", len(result))
	return result, nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: llmConfig.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := llmConfig.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		logger.Infof("[AI] Gemini API error: %v", err)
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	content := resp.Text()
	logger.Infof("[AI] Gemini response length: %d chars", len(content))
	return content, nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *AIService) callAzure(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	cfg := openai.DefaultAzureConfig(llmConfig.APIKey, llmConfig.BaseURL)
	client := openai.NewClientWithConfig(cfg)

	temperature := float32(0.7)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model, // In Azure, this is the deployment name
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})

	if err != nil {
		logger.Infof("[AI] Azure OpenAI API error: %v", err)
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[AI] Azure OpenAI response length: %d chars", len(content))
	return content, nil
}

func buildProposalPrompt(idea, bandContext string) string {
	var b strings.Builder
	b.WriteString("You are helping a member of a collective draft a formal proposal.\n")
	if bandContext != "" {
		b.WriteString("About the collective:\n")
		b.WriteString(bandContext)
		b.WriteString("\n\n")
	}
	b.WriteString("The member's idea:\n")
	b.WriteString(idea)
	b.WriteString("\n\nWrite a complete proposal draft. Respond with ONLY a JSON object with these keys: ")
	b.WriteString(`"title", "objective", "description", "rationale", "successCriteria", and optionally "financialRequest" (a number, omit if no money is requested).`)
	b.WriteString(" No markdown, no commentary.")
	return b.String()
}

func buildProfilePrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are helping a collective write its public profile.\n")
	b.WriteString("Their description of themselves:\n")
	b.WriteString(description)
	b.WriteString("\n\nRespond with ONLY a JSON object with these keys: ")
	b.WriteString(`"tagline", "fullDescription", "decisionGuidelines", "inclusionStatement", "membershipPolicy".`)
	b.WriteString(" No markdown, no commentary.")
	return b.String()
}

// extractJSON pulls the first JSON object out of a model response that may
// be wrapped in markdown fences or prose.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

// estimateTokens approximates token usage when the provider does not report
// it. Rough heuristic of 4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
