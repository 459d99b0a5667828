package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/proovit/proovit/internal/model"
)

// Request is the body of the verify-proof endpoint.
type Request struct {
	ImagePath string `json:"imagePath"`
	GoalTitle string `json:"goalTitle"`
}

// ErrorResponse is returned by the verify-proof endpoint with a 4xx/5xx status.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// RemoteClient calls a verify-proof endpoint that holds the model credentials.
type RemoteClient struct {
	url        string
	token      string // Optional bearer token
	httpClient *http.Client
}

func NewRemoteClient(url, token string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClient) Verify(ctx context.Context, imagePath, goalTitle string) (*model.Verdict, error) {
	err := validateInput(imagePath, goalTitle)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(Request{ImagePath: imagePath, GoalTitle: goalTitle})
	if err != nil {
		return nil, fmt.Errorf("verifier: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("verifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("verify-proof call failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errResp.Error)
		}
		return nil, unavailable("verify-proof status %d: %s %s", resp.StatusCode, errResp.Error, errResp.Detail)
	}

	var verdict struct {
		Verified *bool    `json:"verified"`
		Score    *float64 `json:"score"`
		Reason   string   `json:"reason"`
	}
	err = json.NewDecoder(resp.Body).Decode(&verdict)
	if err != nil {
		return nil, unavailable("verify-proof response not decodable: %v", err)
	}
	if verdict.Verified == nil || verdict.Score == nil {
		return nil, unavailable("verify-proof response missing verified or score")
	}

	return &model.Verdict{
		Verified: *verdict.Verified,
		Score:    clamp(*verdict.Score),
		Reason:   verdict.Reason,
	}, nil
}
