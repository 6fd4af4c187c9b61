package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultModerationURL = "https://api.openai.com/v1/moderations"

// ModerationResult holds the outcome of a moderation check.
type ModerationResult struct {
	Flagged    bool
	Categories []string
}

// ModerationClient calls the OpenAI moderation endpoint. langchaingo does
// not expose moderations, so this is a thin HTTP client.
type ModerationClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewModerationClient creates a moderation client.
func NewModerationClient(apiKey string) *ModerationClient {
	return &ModerationClient{
		apiKey:     apiKey,
		baseURL:    defaultModerationURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the endpoint URL. Used by tests.
func (c *ModerationClient) SetBaseURL(url string) {
	c.baseURL = url
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Check submits text to the moderation endpoint and returns whether it
// was flagged along with the offending categories.
func (c *ModerationClient) Check(ctx context.Context, text string) (*ModerationResult, error) {
	body, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moderation endpoint returned status %d", resp.StatusCode)
	}

	var parsed moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode moderation response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("empty moderation response")
	}

	result := &ModerationResult{Flagged: parsed.Results[0].Flagged}
	for category, flagged := range parsed.Results[0].Categories {
		if flagged {
			result.Categories = append(result.Categories, category)
		}
	}
	return result, nil
}
