package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/proovit/proovit/internal/model"
)

const maxErrorBody = 4 << 10

// VisionConfig holds configuration for the OpenAI vision client
type VisionConfig struct {
	APIKey       string
	Model        string
	BaseURL      string        // e.g. https://api.openai.com/v1
	Timeout      time.Duration // Whole request, including reading the body
	SignedURLTTL time.Duration // How long the model may fetch the image
	MaxTokens    int
	Temperature  float64
}

// VisionClient calls the chat completions API with the proof image attached
// as a short-lived signed URL.
type VisionClient struct {
	signer     URLSigner
	httpClient *http.Client
	cfg        VisionConfig
}

func NewVisionClient(signer URLSigner, cfg VisionConfig) *VisionClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 5 * time.Minute
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}

	return &VisionClient{
		signer:     signer,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *VisionClient) Verify(ctx context.Context, imagePath, goalTitle string) (*model.Verdict, error) {
	err := validateInput(imagePath, goalTitle)
	if err != nil {
		return nil, err
	}

	signedURL, err := c.signer.PresignedURL(ctx, imagePath, c.cfg.SignedURLTTL)
	if err != nil {
		return nil, unavailable("could not get signed URL: %v", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: BuildPrompt(goalTitle)},
				{Type: "image_url", ImageURL: &imageURL{URL: signedURL}},
			},
		}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("openai call failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, unavailable("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var chat chatResponse
	err = json.NewDecoder(resp.Body).Decode(&chat)
	if err != nil {
		return nil, unavailable("openai response not decodable: %v", err)
	}

	if len(chat.Choices) == 0 {
		return nil, unavailable("openai response has no choices")
	}

	content := "{}"
	if chat.Choices[0].Message.Content != nil {
		content = *chat.Choices[0].Message.Content
	}

	verdict := ParseVerdict(content)

	slog.Debug("proof verified by model",
		"image_path", imagePath,
		"verified", verdict.Verified,
		"score", verdict.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &verdict, nil
}
