package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sabarim/brokerrelay/internal/auth"
	"github.com/sabarim/brokerrelay/internal/dhan"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Message string          `json:"message"`
	Kind    relayerr.Kind   `json:"kind"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeRaw writes broker JSON through unchanged
func (s *Server) writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to write response")
	}
}

// writeError logs err and answers with its kind, message and any upstream payload
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{
		Message: "Internal server error",
		Kind:    relayerr.KindOf(err),
	}

	var re *relayerr.Error
	if errors.As(err, &re) {
		resp.Message = re.Message
		resp.Error = re.Payload
	}

	status := relayerr.HTTPStatus(resp.Kind)

	event := s.log.Error()
	if status < http.StatusInternalServerError {
		event = s.log.Warn()
	}
	event.Err(err).
		Str("kind", string(resp.Kind)).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg(resp.Message)

	s.writeJSON(w, status, resp)
}

// upstreamError wraps a failed broker call, keeping the broker's JSON error body if it sent one
func upstreamError(message string, err error) *relayerr.Error {
	e := relayerr.Upstream(message, err)

	var apiErr *dhan.APIError
	if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
		return e.WithPayload(apiErr.Body)
	}

	var tokenErr *auth.UpstreamError
	if errors.As(err, &tokenErr) && json.Valid(tokenErr.Body) {
		return e.WithPayload(tokenErr.Body)
	}

	return e
}
