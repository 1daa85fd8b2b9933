package dhan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKillSwitchStatus(t *testing.T) {
	tests := []struct {
		input string
		want  KillSwitchStatus
		ok    bool
	}{
		{"ACTIVATE", KillSwitchActivate, true},
		{"DEACTIVATE", KillSwitchDeactivate, true},
		{"activate", "", false},
		{"", "", false},
		{"PAUSE", "", false},
	}

	for _, tc := range tests {
		got, ok := ParseKillSwitchStatus(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestClient_GetEndpoints(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(c *Client) (json.RawMessage, error)
	}{
		{"fund limit", "/fundlimit", func(c *Client) (json.RawMessage, error) { return c.FundLimit(context.Background()) }},
		{"orders", "/orders", func(c *Client) (json.RawMessage, error) { return c.Orders(context.Background()) }},
		{"positions", "/positions", func(c *Client) (json.RawMessage, error) { return c.Positions(context.Background()) }},
		{"holdings", "/holdings", func(c *Client) (json.RawMessage, error) { return c.Holdings(context.Background()) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tc.path, r.URL.Path)
				assert.Equal(t, "secret-token", r.Header.Get("access-token"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, "secret-token", "1000001", zerolog.Nop())

			resp, err := tc.call(c)
			require.NoError(t, err)
			assert.JSONEq(t, `{"path":"`+tc.path+`"}`, string(resp))
		})
	}
}

func TestClient_PlaceOrder(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"orderId":"112111182198","orderStatus":"PENDING"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "1000001", zerolog.Nop())

	resp, err := c.PlaceOrder(context.Background(), PlaceOrderRequest{
		TransactionType: "BUY",
		ExchangeSegment: "NSE_FNO",
		ProductType:     "INTRADAY",
		OrderType:       "MARKET",
		Validity:        "DAY",
		SecurityID:      "35001",
		Quantity:        json.Number("50"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"112111182198","orderStatus":"PENDING"}`, string(resp))

	assert.Equal(t, "1000001", received["dhanClientId"])
	assert.Equal(t, "35001", received["securityId"])
	assert.Equal(t, float64(50), received["quantity"])
	assert.NotContains(t, received, "price")

	correlationID, ok := received["correlationId"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(correlationID)
	assert.NoError(t, err)
}

func TestClient_PlaceOrderKeepsCallerCorrelationID(t *testing.T) {
	var received PlaceOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "1000001", zerolog.Nop())

	_, err := c.PlaceOrder(context.Background(), PlaceOrderRequest{CorrelationID: "mine", DhanClientID: "2000002"})
	require.NoError(t, err)
	assert.Equal(t, "mine", received.CorrelationID)
	assert.Equal(t, "2000002", received.DhanClientID)
}

func TestClient_CancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/112111182198", r.URL.Path)
		w.Write([]byte(`{"orderId":"112111182198","orderStatus":"CANCELLED"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "", zerolog.Nop())

	resp, err := c.CancelOrder(context.Background(), "112111182198")
	require.NoError(t, err)
	assert.Contains(t, string(resp), "CANCELLED")
}

func TestClient_KillSwitch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/killSwitch", r.URL.Path)
		assert.Equal(t, "ACTIVATE", r.URL.Query().Get("killSwitchStatus"))
		w.Write([]byte(`{"killSwitchStatus":"Kill Switch has been successfully activated"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "tok", "", zerolog.Nop())

	resp, err := c.KillSwitch(context.Background(), KillSwitchActivate)
	require.NoError(t, err)
	assert.Contains(t, string(resp), "activated")
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorType":"Input_Exception","errorCode":"DH-905"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "", zerolog.Nop())

	_, err := c.KillSwitch(context.Background(), KillSwitchDeactivate)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.JSONEq(t, `{"errorType":"Input_Exception","errorCode":"DH-905"}`, string(apiErr.Body))
}

func TestClient_APIErrorWithNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok", "", zerolog.Nop())

	_, err := c.FundLimit(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Nil(t, apiErr.Body)
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, "tok", "", zerolog.Nop())

	_, err := c.Holdings(context.Background())
	assert.Error(t, err)
}
