// Package api is the HTTP surface of the lead agent.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/autonomous"
	"github.com/sells-group/lead-agent/internal/billing"
	"github.com/sells-group/lead-agent/internal/leadgen"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/outreach"
)

// UserHeader carries the caller identity set by the upstream auth proxy.
const UserHeader = "X-User-ID"

// Store is the persistence the handlers read and write directly.
type Store interface {
	GetLead(ctx context.Context, userID, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, userID string, filter model.LeadFilter) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, userID, leadID string, status model.LeadStatus, notes string) error
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	UpsertSettings(ctx context.Context, s model.UserSettings) error
}

// Generator runs interactive lead generation.
type Generator interface {
	Generate(ctx context.Context, userID string) (*leadgen.Result, error)
}

// Outreacher sends a single outreach email.
type Outreacher interface {
	SendToLead(ctx context.Context, userID, leadID string) (*outreach.SendResult, error)
}

// UsageChecker reports plan usage.
type UsageChecker interface {
	Check(ctx context.Context, userID string) (billing.Usage, error)
}

// Deps wires the server to its collaborators.
type Deps struct {
	Store       Store
	Generator   Generator
	Outreach    Outreacher
	Usage       UsageChecker
	Daily       autonomous.DailyRunner
	CronSecret  string
	CORSOrigins []string
}

// Server holds the handlers' collaborators.
type Server struct {
	deps Deps
	now  func() time.Time
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps, now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", UserHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(s.requireCronSecret).Get("/cron/daily-leads", s.handleDailyLeads)
		r.Post("/leads/explain", s.handleExplain)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/leads/generate", s.handleGenerate)
			r.Get("/leads", s.handleListLeads)
			r.Patch("/leads/{id}", s.handleUpdateLead)
			r.Post("/leads/{id}/outreach", s.handleOutreach)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Get("/usage", s.handleUsage)
		})
	})
	return r
}

type ctxKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// requireCronSecret accepts only "Bearer <secret>". An unset secret locks
// the endpoint.
func (s *Server) requireCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "Bearer " + s.deps.CronSecret
		got := r.Header.Get("Authorization")
		if s.deps.CronSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
