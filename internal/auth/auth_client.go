package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// UpstreamError is a non-2xx answer from the Flattrade auth host
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("flattrade auth returned status %d: %s", e.StatusCode, string(e.Body))
}

// AuthClient is a client for Flattrade's token endpoint
type AuthClient struct {
	authURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewAuthClient creates a new auth client
func NewAuthClient(authURL string, log zerolog.Logger) *AuthClient {
	return &AuthClient{
		authURL: strings.TrimSuffix(authURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("client", "flattrade-auth").Logger(),
	}
}

// ForwardToken posts body unchanged to /trade/apitoken and returns Flattrade's JSON
func (ac *AuthClient) ForwardToken(ctx context.Context, body []byte) (json.RawMessage, error) {
	return ac.post(ctx, body)
}

// ExchangeRequestCode trades a request code for an access token
func (ac *AuthClient) ExchangeRequestCode(ctx context.Context, req CodeExchangeRequest) (json.RawMessage, error) {
	body, err := json.Marshal(TokenRequest{
		APIKey:      req.APIKey,
		RequestCode: req.RequestCode,
		APISecret:   req.APISecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}
	return ac.post(ctx, body)
}

func (ac *AuthClient) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	url := ac.authURL + "/trade/apitoken"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to flattrade auth: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read flattrade auth response: %w", err)
	}

	ac.log.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("Token request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("flattrade auth returned invalid JSON")
	}

	return json.RawMessage(respBody), nil
}
