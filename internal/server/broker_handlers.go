package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sabarim/brokerrelay/internal/dhan"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// relay runs a Dhan call and writes its JSON verbatim
func (s *Server) relay(w http.ResponseWriter, r *http.Request, failure string, call func(ctx context.Context) (json.RawMessage, error)) {
	data, err := call(r.Context())
	if err != nil {
		s.writeError(w, r, upstreamError(failure, err))
		return
	}
	s.writeRaw(w, http.StatusOK, data)
}

func (s *Server) handleFundLimit(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "Failed to fetch fund limit", s.broker.FundLimit)
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "Failed to fetch orders", s.broker.Orders)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "Failed to fetch positions", s.broker.Positions)
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "Failed to fetch holdings", s.broker.Holdings)
}

// handlePlaceOrder forwards an order
// POST /placeOrder
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var order dhan.PlaceOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&order); err != nil {
		s.writeError(w, r, relayerr.BadRequest("invalid order payload"))
		return
	}

	s.relay(w, r, "Failed to place order", func(ctx context.Context) (json.RawMessage, error) {
		return s.broker.PlaceOrder(ctx, order)
	})
}

// handleCancelOrder cancels an order named by orderId in the body, or in the query
// DELETE /cancelOrder
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := orderIDFromBody(w, r)
	if orderID == "" {
		orderID = r.URL.Query().Get("orderId")
	}
	if orderID == "" {
		s.writeError(w, r, relayerr.BadRequest("orderId is required"))
		return
	}

	s.relay(w, r, "Failed to cancel order", func(ctx context.Context) (json.RawMessage, error) {
		return s.broker.CancelOrder(ctx, orderID)
	})
}

// orderIDFromBody accepts orderId as a JSON string or number
func orderIDFromBody(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	var body map[string]interface{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return ""
	}

	switch v := body["orderId"].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// handleKillSwitch toggles Dhan's kill switch
// POST /killSwitch?killSwitchStatus=ACTIVATE|DEACTIVATE
func (s *Server) handleKillSwitch(w http.ResponseWriter, r *http.Request) {
	status, ok := dhan.ParseKillSwitchStatus(r.URL.Query().Get("killSwitchStatus"))
	if !ok {
		s.writeError(w, r, relayerr.BadRequest(`Invalid killSwitchStatus value. Must be either "ACTIVATE" or "DEACTIVATE".`))
		return
	}

	failure := "Failed to " + strings.ToLower(string(status)) + " Kill Switch"
	s.relay(w, r, failure, func(ctx context.Context) (json.RawMessage, error) {
		return s.broker.KillSwitch(ctx, status)
	})
}
