package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const (
	maxChatMessage = 1000
	menuContextMax = 30

	FallbackReply = "Xin lỗi, trợ lý đang bận. Bạn có thể xem thực đơn hoặc đặt bàn trực tiếp, hoặc gọi cho nhà hàng để được hỗ trợ."
)

var errNoAPIKey = errors.New("api key not configured")

// ChatProvider is one upstream language model.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatReply is what the chatbot endpoint returns.
type ChatReply struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
	Fallback bool   `json:"fallback"`
}

// ChatbotService asks each provider in turn and falls back to a canned
// reply when all of them fail or the deadline passes.
type ChatbotService struct {
	db        *gorm.DB
	providers []ChatProvider
	timeout   time.Duration
	rules     BookingRules
}

// NewChatbotService builds the assistant. rules feed the opening hours
// and guest limit quoted in every prompt.
func NewChatbotService(db *gorm.DB, timeout time.Duration, rules BookingRules, providers ...ChatProvider) *ChatbotService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChatbotService{db: db, providers: providers, timeout: timeout, rules: rules}
}

// NewChatProviders builds the configured provider chain, Gemini first.
func NewChatProviders(cfg config.AIConfig) []ChatProvider {
	client := &http.Client{Timeout: cfg.Timeout}
	var out []ChatProvider
	if cfg.GeminiAPIKey != "" {
		out = append(out, &GeminiProvider{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL, Client: client})
	}
	if cfg.GroqAPIKey != "" {
		out = append(out, &GroqProvider{APIKey: cfg.GroqAPIKey, Model: cfg.GroqModel, BaseURL: cfg.GroqBaseURL, Client: client})
	}
	return out
}

func (s *ChatbotService) Reply(ctx context.Context, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, utils.NewValidationError([]string{"message is required"})
	}
	if utf8.RuneCountInString(message) > maxChatMessage {
		return nil, utils.NewValidationError([]string{fmt.Sprintf("message must be at most %d characters", maxChatMessage)})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := s.buildPrompt(ctx, message)
	for _, p := range s.providers {
		reply, err := p.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(reply) != "" {
			return &ChatReply{Reply: strings.TrimSpace(reply), Provider: p.Name()}, nil
		}
		utils.Log.WithError(err).WithField("provider", p.Name()).Warn("Chat provider failed")
		if ctx.Err() != nil {
			break
		}
	}
	return &ChatReply{Reply: FallbackReply, Provider: "fallback", Fallback: true}, nil
}

func (s *ChatbotService) buildPrompt(ctx context.Context, message string) string {
	var b strings.Builder
	b.WriteString("Bạn là trợ lý của nhà hàng. Trả lời ngắn gọn, thân thiện, bằng ngôn ngữ của khách. ")
	fmt.Fprintf(&b, "Nhà hàng nhận đặt bàn từ %s đến %s, tối đa %d khách mỗi bàn đặt.\n",
		formatMinute(s.rules.OpenMinute), formatMinute(s.rules.CloseMinute), s.rules.MaxGuests)

	var foods []models.Food
	err := s.db.WithContext(ctx).Preload("Category").
		Where("stock > 0").Order("name").Limit(menuContextMax).
		Find(&foods).Error
	if err != nil {
		utils.Log.WithError(err).Warn("Load menu for chat prompt")
	} else if len(foods) > 0 {
		b.WriteString("Thực đơn hiện có:\n")
		for _, f := range foods {
			category := ""
			if f.Category != nil {
				category = " [" + f.Category.Name + "]"
			}
			fmt.Fprintf(&b, "- %s%s: %s\n", f.Name, category, utils.FormatVND(f.Price))
		}
	}

	b.WriteString("\nKhách hỏi: ")
	b.WriteString(message)
	return b.String()
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}

// GeminiProvider calls the generateContent endpoint.
type GeminiProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", errNoAPIKey
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.BaseURL, "/"), g.Model)
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.7,
			"maxOutputTokens": 512,
		},
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := postJSON(ctx, g.Client, url, map[string]string{"x-goog-api-key": g.APIKey}, payload, &result); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// GroqProvider calls the OpenAI-compatible chat completions endpoint.
type GroqProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func (g *GroqProvider) Name() string { return "groq" }

func (g *GroqProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", errNoAPIKey
	}
	url := strings.TrimRight(g.BaseURL, "/") + "/chat/completions"
	payload := map[string]interface{}{
		"model": g.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
		"max_tokens":  512,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, g.Client, url, map[string]string{"Authorization": "Bearer " + g.APIKey}, payload, &result); err != nil {
		return "", fmt.Errorf("groq: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("groq: empty response")
	}
	return result.Choices[0].Message.Content, nil
}
