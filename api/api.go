// Package api exposes a subchain Program over HTTP/JSON.
//
// Every mutating route requires an HS256 bearer token; its sub claim is the
// caller the operation runs for. Read routes are public, mirroring a client
// fetching the records directly.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Config holds the HTTP boundary settings.
type Config struct {
	// BasePath is the prefix all routes are mounted under (default "/").
	BasePath string

	// AllowedOrigins for CORS. Empty disables the CORS middleware.
	AllowedOrigins []string

	// MaxBodyBytes bounds request bodies (default DefaultMaxBodyBytes).
	MaxBodyBytes int64

	// Metrics, when set, is served at GET {base}/metrics.
	Metrics http.Handler
}

// Server serves the subchain operations.
type Server struct {
	program  *subchain.Program
	signer   *Signer
	config   Config
	validate *validator.Validate
	logger   *slog.Logger
	router   chi.Router
}

// New builds the router for program. signer authenticates callers.
func New(program *subchain.Program, signer *Signer, cfg Config, logger *slog.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		program:  program,
		signer:   signer,
		config:   cfg,
		validate: newValidator(),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mount := func(r chi.Router) {
		r.Get("/healthz", s.health)
		r.Get("/creator", s.getConfig)
		r.Get("/subscription/{subscriber}", s.getSubscription)
		if s.config.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.config.Metrics)
		}

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.signer))

			r.Post("/initialize", s.initialize)
			r.Post("/creator", s.createCreatorProfile)
			r.Patch("/creator/prices", s.updateCreatorPrice)
			r.Post("/subscription", s.subscribe)
			r.Delete("/subscription", s.cancel)
			r.Post("/subscription/pause", s.pause)
			r.Post("/subscription/resume", s.resume)
			r.Post("/subscription/extend", s.extend)
		})
	}

	if base := basePath(s.config.BasePath); base == "/" {
		mount(r)
	} else {
		r.Route(base, mount)
	}

	return r
}

// ──────────────────────────────────────────────────
// Request bodies
// ──────────────────────────────────────────────────

// CreateCreatorRequest is the body of POST /creator. Zero prices are
// rejected by the program with the offending field.
type CreateCreatorRequest struct {
	MonthlyPrice uint64 `json:"monthly_price"`
	QuartalPrice uint64 `json:"quartal_price"`
	AnnualPrice  uint64 `json:"annual_price"`
}

// UpdatePricesRequest is the body of PATCH /creator/prices. Omitted fields
// keep their current value.
type UpdatePricesRequest struct {
	MonthlyPrice *uint64 `json:"monthly_price"`
	QuartalPrice *uint64 `json:"quartal_price"`
	AnnualPrice  *uint64 `json:"annual_price"`
}

// SubscribeRequest is the body of POST /subscription and
// POST /subscription/extend. Tier accepts 0/1/2 or a tier name.
type SubscribeRequest struct {
	Payee string     `json:"payee" validate:"required"`
	Tier  *tier.Tier `json:"tier" validate:"required"`
}

// SubscriptionResponse is a subscription record with its derived state.
type SubscriptionResponse struct {
	*subscription.Subscription
	State      subscription.State `json:"state"`
	Remaining  int64              `json:"remaining_seconds"`
	AllowedOps []subscription.Op  `json:"allowed_ops"`
}

// ──────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.program.Store().Ping(r.Context()); err != nil {
		s.fail(w, r, "healthz", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"program_id": s.program.ID().String(),
	})
}

func (s *Server) initialize(w http.ResponseWriter, r *http.Request) {
	if err := s.program.Initialize(r.Context()); err != nil {
		s.fail(w, r, "initialize", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.program.Config(r.Context())
	if err != nil {
		s.fail(w, r, "get_config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) createCreatorProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateCreatorRequest
	if !s.decode(w, r, &req) {
		return
	}

	cfg, err := s.program.CreateCreatorProfile(r.Context(), CallerFrom(r.Context()),
		types.Lamports(req.MonthlyPrice),
		types.Lamports(req.QuartalPrice),
		types.Lamports(req.AnnualPrice),
	)
	if err != nil {
		s.fail(w, r, "create_creator_profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) updateCreatorPrice(w http.ResponseWriter, r *http.Request) {
	var req UpdatePricesRequest
	if !s.decode(w, r, &req) {
		return
	}

	cfg, err := s.program.UpdateCreatorPrice(r.Context(), CallerFrom(r.Context()), creator.PriceUpdate{
		Monthly: lamports(req.MonthlyPrice),
		Quartal: lamports(req.QuartalPrice),
		Annual:  lamports(req.AnnualPrice),
	})
	if err != nil {
		s.fail(w, r, "update_creator_price", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	subscriber, err := id.ParseAccountID(chi.URLParam(r, "subscriber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, subchain.ValidationError{Field: "subscriber", Err: subchain.ErrInvalidInput})
		return
	}

	sub, err := s.program.Subscription(r.Context(), subscriber)
	if err != nil {
		s.fail(w, r, "get_subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sub))
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	payee, t, ok := s.decodeSubscribe(w, r)
	if !ok {
		return
	}

	sub, err := s.program.Subscribe(r.Context(), CallerFrom(r.Context()), payee, t)
	if err != nil {
		s.fail(w, r, "subscribe", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(sub))
}

func (s *Server) extend(w http.ResponseWriter, r *http.Request) {
	payee, t, ok := s.decodeSubscribe(w, r)
	if !ok {
		return
	}

	sub, err := s.program.ExtendSubscription(r.Context(), CallerFrom(r.Context()), payee, t)
	if err != nil {
		s.fail(w, r, "extend_subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sub))
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	sub, err := s.program.PauseSubscription(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "pause_subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sub))
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	sub, err := s.program.ResumeSubscription(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "resume_subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sub))
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	if err := s.program.CancelSubscription(r.Context(), CallerFrom(r.Context())); err != nil {
		s.fail(w, r, "cancel_subscription", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, decodeError(err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) decodeSubscribe(w http.ResponseWriter, r *http.Request) (id.AccountID, tier.Tier, bool) {
	var req SubscribeRequest
	if !s.decode(w, r, &req) {
		return id.Nil, 0, false
	}

	payee, err := id.ParseAccountID(req.Payee)
	if err != nil {
		writeError(w, http.StatusBadRequest, subchain.ValidationError{Field: "payee", Err: subchain.ErrInvalidInput})
		return id.Nil, 0, false
	}
	return payee, *req.Tier, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("api: operation failed",
			"op", op,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err)
}

func (s *Server) view(sub *subscription.Subscription) SubscriptionResponse {
	now := s.program.Now()
	state := sub.StateAt(now)
	return SubscriptionResponse{
		Subscription: sub,
		State:        state,
		Remaining:    sub.Remaining(now),
		AllowedOps:   subscription.OpsFrom(state),
	}
}

func lamports(v *uint64) *types.Lamports {
	if v == nil {
		return nil
	}
	return creator.Price(types.Lamports(*v))
}

func decodeError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: body exceeds %d bytes", subchain.ErrInvalidInput, mbe.Limit)
	}
	return fmt.Errorf("%w: %w", subchain.ErrInvalidInput, err)
}

func basePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return p
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
