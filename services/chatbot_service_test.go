package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
)

func TestChatbotUsesGeminiWithMenuContext(t *testing.T) {
	db := newTestDB(t)
	cat := models.Category{Name: "Món chính"}
	require.NoError(t, db.Create(&cat).Error)
	require.NoError(t, db.Create(&models.Food{Name: "Bún chả", Price: 55000, Stock: 3, CategoryID: cat.ID}).Error)
	require.NoError(t, db.Create(&models.Food{Name: "Hết hàng", Price: 10000, Stock: 0, CategoryID: cat.ID}).Error)

	var gotPrompt, gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPrompt = body.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" Xin chào! "}]}}]}`))
	}))
	defer srv.Close()

	svc := NewChatbotService(db, time.Second, DefaultBookingRules(), &GeminiProvider{APIKey: "k", Model: "gemini-test", BaseURL: srv.URL, Client: srv.Client()})
	reply, err := svc.Reply(context.Background(), "Có món gì ngon?")
	require.NoError(t, err)

	assert.Equal(t, &ChatReply{Reply: "Xin chào!", Provider: "gemini"}, reply)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "k", gotKey)
	assert.Contains(t, gotPrompt, "Bún chả [Món chính]: 55.000 ₫")
	assert.Contains(t, gotPrompt, "từ 10:00 đến 21:30, tối đa 20 khách")
	assert.NotContains(t, gotPrompt, "Hết hàng")
	assert.True(t, strings.HasSuffix(gotPrompt, "Có món gì ngon?"))
}

func TestChatbotFallsThroughToGroq(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer gemini.Close()
	groq := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer g", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello from groq"}}]}`))
	}))
	defer groq.Close()

	svc := NewChatbotService(newTestDB(t), time.Second, DefaultBookingRules(),
		&GeminiProvider{APIKey: "k", Model: "m", BaseURL: gemini.URL},
		&GroqProvider{APIKey: "g", Model: "llama", BaseURL: groq.URL},
	)
	reply, err := svc.Reply(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "groq", reply.Provider)
	assert.False(t, reply.Fallback)
}

func TestChatbotFallbackOnTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	svc := NewChatbotService(newTestDB(t), 50*time.Millisecond, DefaultBookingRules(), &GroqProvider{APIKey: "g", Model: "m", BaseURL: slow.URL})
	start := time.Now()
	reply, err := svc.Reply(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, FallbackReply, reply.Reply)
	assert.Less(t, time.Since(start), time.Second)
}

func TestChatbotWithoutProviders(t *testing.T) {
	svc := NewChatbotService(newTestDB(t), time.Second, DefaultBookingRules())
	reply, err := svc.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "fallback", reply.Provider)

	_, err = svc.Reply(context.Background(), "   ")
	assert.Error(t, err)
	_, err = svc.Reply(context.Background(), strings.Repeat("a", 1001))
	assert.Error(t, err)
}

func TestChatbotPromptQuotesConfiguredBookingRules(t *testing.T) {
	rules, err := NewBookingRules(config.BookingConfig{
		OpenTime:     "11:00",
		CloseTime:    "20:15",
		MaxDaysAhead: 14,
		MaxGuests:    12,
	}, nil)
	require.NoError(t, err)

	svc := NewChatbotService(newTestDB(t), time.Second, rules)
	prompt := svc.buildPrompt(context.Background(), "Mấy giờ mở cửa?")

	assert.Contains(t, prompt, "từ 11:00 đến 20:15, tối đa 12 khách")
	assert.NotContains(t, prompt, "21:30")
	assert.NotContains(t, prompt, "20 khách")
}
