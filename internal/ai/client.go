// Package ai generates email drafts through hosted LLM providers. Gemini is
// the primary provider; OpenAI is the fallback when Gemini is unconfigured or
// fails. Responses are returned as raw content for the draft parser to
// normalize.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultContext is used when a generation request carries no context label.
const DefaultContext = "Job application for a software role"

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultGeminiModel   = "gemini-flash-latest"
	defaultOpenAIModel   = "gpt-4o"
)

// ErrNoProvider indicates that no generation provider is configured.
var ErrNoProvider = errors.New("no AI provider configured")

// Generator produces email content from a prompt and context.
type Generator interface {
	Generate(ctx context.Context, prompt, contextLabel string) (string, error)
}

// Client calls Gemini and falls back to OpenAI.
type Client struct {
	geminiKey     string
	openaiKey     string
	geminiModel   string
	openaiModel   string
	geminiBaseURL string
	openaiBaseURL string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithGeminiBaseURL overrides the Gemini endpoint, for tests.
func WithGeminiBaseURL(u string) Option {
	return func(c *Client) { c.geminiBaseURL = strings.TrimRight(u, "/") }
}

// WithOpenAIBaseURL overrides the OpenAI endpoint, for tests.
func WithOpenAIBaseURL(u string) Option {
	return func(c *Client) { c.openaiBaseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a generation client. Either key may be empty; Generate
// fails with ErrNoProvider when both are.
func NewClient(geminiKey, openaiKey string, opts ...Option) *Client {
	c := &Client{
		geminiKey:     geminiKey,
		openaiKey:     openaiKey,
		geminiModel:   defaultGeminiModel,
		openaiModel:   defaultOpenAIModel,
		geminiBaseURL: defaultGeminiBaseURL,
		openaiBaseURL: defaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate produces raw email content for the given prompt and context.
func (c *Client) Generate(ctx context.Context, prompt, contextLabel string) (string, error) {
	if contextLabel == "" {
		contextLabel = DefaultContext
	}
	fullPrompt := fmt.Sprintf("Context: %s\n\nTask: %s\n\nWrite a professional email:", contextLabel, prompt)

	if c.geminiKey != "" {
		content, err := c.callGemini(ctx, fullPrompt)
		if err == nil {
			return stripMarkdownFences(content), nil
		}
		if c.openaiKey == "" {
			return "", err
		}
		log.Printf("Gemini failed, falling back to OpenAI: %v", err)
	}

	if c.openaiKey != "" {
		content, err := c.callOpenAI(ctx, fullPrompt)
		if err != nil {
			return "", err
		}
		return stripMarkdownFences(content), nil
	}

	return "", ErrNoProvider
}

func (c *Client) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
	}

	body, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.geminiBaseURL, c.geminiModel)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.geminiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("Gemini error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content in Gemini response")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (c *Client) callOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.openaiModel,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are an expert at writing professional outreach emails.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": 0.7,
		"max_tokens":  2000,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", c.openaiBaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.openaiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("OpenAI error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return openAIResp.Choices[0].Message.Content, nil
}

// stripMarkdownFences removes a surrounding ```json / ``` code fence so the
// draft parser sees the payload, not the fence.
func stripMarkdownFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
