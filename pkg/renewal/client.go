package renewal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPRenewer calls POST /v1/auth/refresh on the permits API.
type HTTPRenewer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRenewer(baseURL string, client *http.Client) *HTTPRenewer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPRenewer{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type refreshResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *HTTPRenewer) Renew(ctx context.Context, current string) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/auth/refresh", nil)
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Authorization", "Bearer "+current)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Token{}, fmt.Errorf("refresh rejected: status %d", resp.StatusCode)
	}

	var body refreshResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if body.AccessToken == "" || body.ExpiresAt.IsZero() {
		return Token{}, fmt.Errorf("refresh response missing token")
	}
	return Token{Value: body.AccessToken, ExpiresAt: body.ExpiresAt}, nil
}
