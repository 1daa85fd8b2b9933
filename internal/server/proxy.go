package server

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sabarim/brokerrelay/internal/relayerr"
)

// newBrokerProxy forwards /api/<path> to <target>/<path> with the Host header set to the target
func newBrokerProxy(target *url.URL, log zerolog.Logger) http.Handler {
	log = log.With().Str("target", target.String()).Logger()

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()

			log.Debug().
				Str("method", pr.Out.Method).
				Str("path", pr.Out.URL.Path).
				Str("request_id", middleware.GetReqID(pr.In.Context())).
				Msg("Proxying request")
		},
		ModifyResponse: func(resp *http.Response) error {
			// CORS for the front end is answered by this server, not the broker
			for name := range resp.Header {
				if strings.HasPrefix(name, "Access-Control-") {
					resp.Header.Del(name)
				}
			}

			log.Debug().Int("status", resp.StatusCode).Msg("Received proxied response")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Proxy error")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(relayerr.HTTPStatus(relayerr.KindUpstream))
			json.NewEncoder(w).Encode(errorResponse{
				Message: "Error in proxying request",
				Kind:    relayerr.KindUpstream,
			})
		},
	}

	return http.StripPrefix("/api", proxy)
}
