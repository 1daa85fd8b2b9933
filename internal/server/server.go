package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sabarim/brokerrelay/internal/auth"
	"github.com/sabarim/brokerrelay/internal/dhan"
	"github.com/sabarim/brokerrelay/internal/instruments"
)

// InstrumentLookup answers strike lookups against the security master
type InstrumentLookup interface {
	Lookup(exchangeSymbol, masterSymbol string) (*instruments.LookupResult, error)
	Stat() (instruments.MasterInfo, error)
}

// BrokerAPI is the Dhan trading surface the relay forwards to
type BrokerAPI interface {
	FundLimit(ctx context.Context) (json.RawMessage, error)
	Orders(ctx context.Context) (json.RawMessage, error)
	Positions(ctx context.Context) (json.RawMessage, error)
	Holdings(ctx context.Context) (json.RawMessage, error)
	PlaceOrder(ctx context.Context, order dhan.PlaceOrderRequest) (json.RawMessage, error)
	CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	KillSwitch(ctx context.Context, status dhan.KillSwitchStatus) (json.RawMessage, error)
}

// TokenExchanger is the Flattrade token endpoint
type TokenExchanger interface {
	ForwardToken(ctx context.Context, body []byte) (json.RawMessage, error)
	ExchangeRequestCode(ctx context.Context, req auth.CodeExchangeRequest) (json.RawMessage, error)
}

// Config holds server configuration
type Config struct {
	Port           int
	FrontendOrigin string
	// ProxyTarget is the broker host that /api/* is reverse-proxied to
	ProxyTarget string
	Version     string
	Log         zerolog.Logger
	Instruments InstrumentLookup
	Broker      BrokerAPI
	Tokens      TokenExchanger
	Brokers     *auth.Registry
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	frontendOrigin string
	version        string
	startedAt      time.Time

	instruments InstrumentLookup
	broker      BrokerAPI
	tokens      TokenExchanger
	brokers     *auth.Registry
	proxy       http.Handler
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	target, err := url.Parse(cfg.ProxyTarget)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q", cfg.ProxyTarget)
	}

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		frontendOrigin: cfg.FrontendOrigin,
		version:        cfg.Version,
		startedAt:      time.Now(),
		instruments:    cfg.Instruments,
		broker:         cfg.Broker,
		tokens:         cfg.Tokens,
		brokers:        cfg.Brokers,
	}
	s.proxy = newBrokerProxy(target, s.log)

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// /api/* proxies arbitrary Dhan endpoints, so any requested header is allowed
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.frontendOrigin},
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	// Security master lookup
	s.router.Get("/symbols", s.handleSymbols)

	// Broker metadata
	s.router.Get("/brokers", s.handleBrokers)
	s.router.Get("/brokerClientId", s.handleBrokerClientID)

	// Dhan account and orders
	s.router.Get("/fundlimit", s.handleFundLimit)
	s.router.Get("/getOrders", s.handleGetOrders)
	s.router.Get("/positions", s.handlePositions)
	s.router.Get("/holdings", s.handleHoldings)
	s.router.Post("/placeOrder", s.handlePlaceOrder)
	s.router.Delete("/cancelOrder", s.handleCancelOrder)
	s.router.Post("/killSwitch", s.handleKillSwitch)

	// Flattrade login flow
	s.router.Get("/redirect", s.handleRedirect)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/trade/apitoken", s.handleTradeAPIToken)
		r.Post("/exchange-request-code-for-token", s.handleExchangeRequestCode)

		// Everything else goes to the Dhan host
		r.Handle("/*", s.proxy)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Str("frontend_origin", s.frontendOrigin).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
