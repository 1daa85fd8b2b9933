package dhan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// KillSwitchStatus is the action sent to Dhan's kill switch
type KillSwitchStatus string

const (
	KillSwitchActivate   KillSwitchStatus = "ACTIVATE"
	KillSwitchDeactivate KillSwitchStatus = "DEACTIVATE"
)

// ParseKillSwitchStatus accepts only the two exact upper-case values
func ParseKillSwitchStatus(s string) (KillSwitchStatus, bool) {
	switch KillSwitchStatus(s) {
	case KillSwitchActivate, KillSwitchDeactivate:
		return KillSwitchStatus(s), true
	}
	return "", false
}

// APIError is a non-2xx answer from Dhan. Body holds the upstream payload.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dhan returned status %d", e.StatusCode)
}

// PlaceOrderRequest carries the order fields the front end submits
type PlaceOrderRequest struct {
	BrokerClientID  string      `json:"brokerClientId,omitempty"`
	DhanClientID    string      `json:"dhanClientId,omitempty"`
	CorrelationID   string      `json:"correlationId,omitempty"`
	TransactionType string      `json:"transactionType,omitempty"`
	ExchangeSegment string      `json:"exchangeSegment,omitempty"`
	ProductType     string      `json:"productType,omitempty"`
	OrderType       string      `json:"orderType,omitempty"`
	Validity        string      `json:"validity,omitempty"`
	TradingSymbol   string      `json:"tradingSymbol,omitempty"`
	SecurityID      string      `json:"securityId,omitempty"`
	Quantity        json.Number `json:"quantity,omitempty"`
	Price           json.Number `json:"price,omitempty"`
	DrvExpiryDate   string      `json:"drvExpiryDate,omitempty"`
	DrvOptionType   string      `json:"drvOptionType,omitempty"`
}

// Client for the Dhan trading REST API
type Client struct {
	baseURL     string
	accessToken string
	clientID    string
	client      *http.Client
	log         zerolog.Logger
}

// NewClient creates a new Dhan client
func NewClient(baseURL, accessToken, clientID string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		clientID:    clientID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "dhan").Logger(),
	}
}

// FundLimit returns the account's fund limits
func (c *Client) FundLimit(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/fundlimit", nil)
}

// Orders returns the day's order book
func (c *Client) Orders(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/orders", nil)
}

// Positions returns open positions
func (c *Client) Positions(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/positions", nil)
}

// Holdings returns demat holdings
func (c *Client) Holdings(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/holdings", nil)
}

// PlaceOrder submits a new order. A correlation id is generated when the caller sends none.
func (c *Client) PlaceOrder(ctx context.Context, order PlaceOrderRequest) (json.RawMessage, error) {
	if order.CorrelationID == "" {
		order.CorrelationID = uuid.New().String()
	}
	if order.DhanClientID == "" {
		order.DhanClientID = c.clientID
	}

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	c.log.Info().
		Str("correlation_id", order.CorrelationID).
		Str("security_id", order.SecurityID).
		Str("transaction_type", order.TransactionType).
		Msg("Placing order")

	return c.do(ctx, http.MethodPost, "/orders", body)
}

// CancelOrder cancels a pending order
func (c *Client) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(orderID), nil)
}

// KillSwitch activates or deactivates trading for the account
func (c *Client) KillSwitch(ctx context.Context, status KillSwitchStatus) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("killSwitchStatus", string(status))
	return c.do(ctx, http.MethodPost, "/killSwitch?"+q.Encode(), nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("access-token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Dhan request completed")

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Valid(respBody) {
			apiErr.Body = respBody
		}
		return nil, apiErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("dhan returned invalid JSON for %s", endpoint)
	}

	return json.RawMessage(respBody), nil
}
