// Package gemini adapts the Gemini REST API to domain.ImageGenerator.
//
// The adapter surfaces errors as-is; fallback substitution (templated
// enhancement, placeholder image) is the pipeline's responsibility so every
// generator backend degrades the same way.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	enhanceModel   = "gemini-2.5-pro"
	imageModel     = "gemini-2.5-flash-image"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("gemini: api key not configured")

const enhanceInstruction = `You are an expert prompt-enhancer for an AI image generator.
A user has provided the following prompt for a beauty/cosmetic product ad: %q
Enhance this prompt to be more detailed, specific, and visually descriptive.
Add details about:
- Style (e.g., photorealistic, luxury advertisement, minimalist)
- Mood (e.g., elegant, fresh, bold)
- Composition (e.g., close-up shot, product in center, with props)
- Lighting (e.g., soft studio lighting, golden hour, bright and airy)
- Colors (e.g., pastel colors, bold reds, monochrome)
- Atmosphere (e.g., sophisticated, natural, vibrant)
Return ONLY the enhanced prompt, no other text.`

// Client calls Gemini's generateContent endpoints for prompt enhancement and
// image generation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. An empty apiKey yields a client whose calls fail with
// ErrNotConfigured.
func New(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// EnhancePrompt rewrites a raw prompt into a more detailed one.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": fmt.Sprintf(enhanceInstruction, prompt)}}},
		},
		"generationConfig": map[string]any{"temperature": 0.7},
	}

	body, err := c.post(ctx, enhanceModel, payload)
	if err != nil {
		return "", fmt.Errorf("gemini enhance: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini enhance decode: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return strings.TrimSpace(part.Text), nil
			}
		}
	}

	return "", fmt.Errorf("gemini enhance: no text returned")
}

// GenerateImage produces PNG bytes for the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"IMAGE"},
		},
	}

	body, err := c.post(ctx, imageModel, payload)
	if err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("gemini image decode: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("gemini image decode base64: %w", err)
				}
				return data, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini image: no image returned")
}

func (c *Client) post(ctx context.Context, model string, payload any) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	return body, nil
}
