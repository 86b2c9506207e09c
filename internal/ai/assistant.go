// Package ai holds the assistant reply client. Replies are produced by a
// Gemini-style generateContent REST endpoint; when the call fails or no API
// key is configured, a fixed apology message is returned so the pipeline
// still persists a reply.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatgo/internal/config"
)

// FallbackReply is stored when the assistant backend is unavailable.
const FallbackReply = "Sorry, I'm having trouble connecting right now. Please try again later."

const systemInstruction = "You are a helpful, professional AI assistant inside a workplace chat. Keep answers short and to the point."

// Assistant generates a reply for a user message sent to an AI channel.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

type geminiAssistant struct {
	cfg    config.AIConfig
	client *http.Client
}

// NewGeminiAssistant creates an Assistant backed by a Gemini-style
// generateContent endpoint.
func NewGeminiAssistant(cfg config.AIConfig) Assistant {
	return &geminiAssistant{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Reply asks the configured model for a response to the given message.
// Errors are returned alongside the fallback text so the caller can decide
// whether to log and still persist the fallback.
func (a *geminiAssistant) Reply(ctx context.Context, message string) (string, error) {
	if a.cfg.APIKey == "" {
		return FallbackReply, fmt.Errorf("ai: no API key configured")
	}

	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: message}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return FallbackReply, fmt.Errorf("ai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.cfg.Endpoint, a.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return FallbackReply, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return FallbackReply, fmt.Errorf("ai: call model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FallbackReply, fmt.Errorf("ai: model returned status %d: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FallbackReply, fmt.Errorf("ai: decode response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return FallbackReply, fmt.Errorf("ai: empty response from model")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
