package server

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/url"

	"github.com/sabarim/brokerrelay/internal/auth"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// redirectPage hands the login result to the window that opened the broker login popup.
// html/template quotes both values as JS strings.
var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<body>
<script>
  window.opener.postMessage({{.Message}}, {{.TargetOrigin}});
  window.close();
</script>
</body>
</html>
`))

type redirectData struct {
	Message      string
	TargetOrigin string
}

// handleRedirect is the broker login callback
// GET /redirect?code=...&client=...
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	client := r.URL.Query().Get("client")

	if code == "" || client == "" {
		s.writeError(w, r, relayerr.BadRequest("Invalid request: Missing request code or client"))
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	data := redirectData{
		Message: scheme + "://" + r.Host + "/redirect?request_code=" + url.QueryEscape(code) +
			"&client=" + url.QueryEscape(client),
		TargetOrigin: s.frontendOrigin,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := redirectPage.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to render redirect page")
	}
}

// handleTradeAPIToken forwards the body unchanged to Flattrade's token endpoint
// POST /api/trade/apitoken
func (s *Server) handleTradeAPIToken(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		s.writeError(w, r, relayerr.BadRequest("invalid JSON body"))
		return
	}

	data, err := s.tokens.ForwardToken(r.Context(), body)
	if err != nil {
		s.writeError(w, r, upstreamError("Failed to generate token", err))
		return
	}
	s.writeRaw(w, http.StatusOK, data)
}

// handleExchangeRequestCode trades a Flattrade request code for an access token
// POST /api/exchange-request-code-for-token
func (s *Server) handleExchangeRequestCode(w http.ResponseWriter, r *http.Request) {
	var req auth.CodeExchangeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, r, relayerr.BadRequest("Missing required parameters"))
		return
	}
	if req.APIKey == "" || req.RequestCode == "" || req.APISecret == "" {
		s.writeError(w, r, relayerr.BadRequest("Missing required parameters"))
		return
	}

	data, err := s.tokens.ExchangeRequestCode(r.Context(), req)
	if err != nil {
		s.writeError(w, r, upstreamError("Failed to exchange request code for token", err))
		return
	}
	s.writeRaw(w, http.StatusOK, data)
}
