// Package cloudflare provides a client for interacting with the Cloudflare API.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const SiteverifyEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var ErrMissingSecret = errors.New("turnstile secret token is missing")

type TurnstileResult struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// TurnstileClient checks challenge tokens solved by browsers
type TurnstileClient struct {
	secret   string
	endpoint string
	http     *http.Client
}

// NewTurnstile creates a client for secret. An empty endpoint means
// Cloudflare's siteverify and a nil client one with a short timeout.
func NewTurnstile(secret, endpoint string, c *http.Client) (*TurnstileClient, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	if endpoint == "" {
		endpoint = SiteverifyEndpoint
	}

	if c == nil {
		c = &http.Client{Timeout: 10 * time.Second}
	}

	return &TurnstileClient{secret: secret, endpoint: endpoint, http: c}, nil
}

// Verify asks Cloudflare whether token is valid for a visitor at ip. A
// rejected token is a result with Success false, not an error.
func (t *TurnstileClient) Verify(ctx context.Context, token, ip string) (*TurnstileResult, error) {
	payload, err := json.Marshal(map[string]string{
		"secret":   t.secret,
		"response": token,
		"remoteip": ip,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach siteverify, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var res TurnstileResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode siteverify response, %w", err)
	}

	return &res, nil
}
