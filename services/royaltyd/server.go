package royaltyd

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"royaltyhub/core/events"
	"royaltyhub/gateway/middleware"
	"royaltyhub/native/royalty"
)

// Rate limit keys applied to mutating routes.
const (
	limitWrite = "write"
	limitTrade = "trade"
)

// Options wires the HTTP surface to an engine.
type Options struct {
	Engine        *royalty.Engine
	Events        *events.Broadcaster
	Auth          middleware.AuthConfig
	RateLimit     middleware.RateLimit
	CORS          middleware.CORSConfig
	Observability *middleware.Observability
	Logger        *slog.Logger
}

// Server exposes the royalty engine over HTTP/JSON.
type Server struct {
	engine  *royalty.Engine
	events  *events.Broadcaster
	logger  *slog.Logger
	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	obs     *middleware.Observability
	cors    middleware.CORSConfig
	router  http.Handler
}

// NewServer constructs a configured HTTP router.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	obs := opts.Observability
	if obs == nil {
		obs = middleware.NewObservability(middleware.ObservabilityConfig{}, logger)
	}
	broadcaster := opts.Events
	if broadcaster == nil {
		broadcaster = events.NewBroadcaster(0)
	}
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		limitWrite: opts.RateLimit,
		limitTrade: opts.RateLimit,
	})
	limiter.OnThrottle(obs.RecordThrottle)
	srv := &Server{
		engine:  opts.Engine,
		events:  broadcaster,
		logger:  logger,
		auth:    middleware.NewAuthenticator(opts.Auth, logger),
		limiter: limiter,
		obs:     obs,
		cors:    opts.CORS,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDs)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(s.cors))
	r.Use(s.obs.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.obs.MetricsHandler())

	r.Route("/v1", func(api chi.Router) {
		api.Get("/config", s.handleConfig)
		api.Get("/listings", s.handleListings)
		api.Get("/listings/{listing}", s.handleListing)
		api.Get("/listings/{listing}/resales", s.handleResales)
		api.Get("/listings/{listing}/resales/{seller}", s.handleResale)
		api.Get("/listings/{listing}/pool", s.handlePool)
		api.Get("/listings/{listing}/claims", s.handleClaims)
		api.Get("/listings/{listing}/claims/{holder}/{period}", s.handleClaim)
		api.Get("/listings/{listing}/sales", s.handleSales)
		api.Get("/claims", s.handleClaims)
		api.Get("/sales", s.handleSales)
		api.Get("/accounts/{account}/balance", s.handleBalance)
		api.Get("/assets/{asset}/holders/{holder}", s.handleAssetBalance)
		api.Get("/events/ws", s.handleEventStream)

		api.Group(func(protected chi.Router) {
			protected.Use(s.auth.Middleware)
			write := s.limiter.Middleware(limitWrite)
			trade := s.limiter.Middleware(limitTrade)

			protected.With(write).Post("/platform/initialize", s.handleInitialize)
			protected.With(write).Post("/accounts/{account}/fund", s.handleFund)
			protected.With(write).Post("/listings", s.handleCreateListing)
			protected.With(trade).Post("/listings/{listing}/buy", s.handleBuyListing)
			protected.With(write).Post("/listings/{listing}/cancel", s.handleCancelListing)
			protected.With(write).Post("/listings/{listing}/expire", s.handleExpireListing)
			protected.With(trade).Post("/listings/{listing}/resales", s.handleListForResale)
			protected.With(trade).Post("/listings/{listing}/resales/{seller}/buy", s.handleBuyResale)
			protected.With(write).Delete("/listings/{listing}/resales/{seller}", s.handleCancelResale)
			protected.With(write).Post("/listings/{listing}/payouts", s.handleDepositPayout)
			protected.With(trade).Post("/listings/{listing}/claims", s.handleClaimPayout)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.events.Subscribers(),
		"dropped":     s.events.Dropped(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
