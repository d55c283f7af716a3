package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/leadgen"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/scoring"
	"github.com/sells-group/lead-agent/internal/store"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	res, err := s.deps.Generator.Generate(r.Context(), userID)
	switch {
	case errors.Is(err, leadgen.ErrNotConfigured):
		writeError(w, http.StatusBadRequest, "Please configure your target locations in Settings first")
	case errors.Is(err, leadgen.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "Monthly lead limit reached. Upgrade your plan for more leads.")
	case err != nil:
		zap.L().Error("lead generation failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate leads")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := model.LeadFilter{Status: model.LeadStatus(r.URL.Query().Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	leads, err := s.deps.Store.ListLeads(r.Context(), userFrom(r), filter)
	if err != nil {
		zap.L().Error("list leads failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load leads")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

type updateLeadRequest struct {
	Status model.LeadStatus `json:"status"`
	Notes  string           `json:"notes"`
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var req updateLeadRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	userID, leadID := userFrom(r), chi.URLParam(r, "id")
	err := s.deps.Store.UpdateLeadStatus(r.Context(), userID, leadID, req.Status, req.Notes)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		zap.L().Error("update lead failed", zap.String("lead_id", leadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}

	lead, err := s.deps.Store.GetLead(r.Context(), userID, leadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")
	res, err := s.deps.Outreach.SendToLead(r.Context(), userFrom(r), leadID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Lead not found")
	case errors.Is(err, outreach.ErrAlreadyContacted):
		writeError(w, http.StatusBadRequest, "This lead has already been contacted")
	case errors.Is(err, outreach.ErrNoRecipient):
		writeError(w, http.StatusBadRequest, "This lead has no website to derive a contact address from")
	case errors.Is(err, outreach.ErrDeliveryDisabled):
		writeError(w, http.StatusServiceUnavailable, "Email service not configured")
	case err != nil:
		zap.L().Error("send outreach failed", zap.String("lead_id", leadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to send outreach email")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Outreach email sent to " + res.To,
			"emailSent": map[string]string{
				"to":      res.To,
				"subject": res.Subject,
			},
		})
	}
}

type explainRequest struct {
	Name            string `json:"name"`
	Website         string `json:"website"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Niche           string `json:"niche"`
	TargetLocations string `json:"target_locations"`
}

// handleExplain scores an arbitrary business. Without a niche or locations
// in the body, the caller's saved settings fill them in.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if userID := strings.TrimSpace(r.Header.Get(UserHeader)); userID != "" && (req.Niche == "" || req.TargetLocations == "") {
		if settings, err := s.deps.Store.GetSettings(r.Context(), userID); err == nil {
			if req.Niche == "" {
				req.Niche = settings.PhotographerNiche
			}
			if req.TargetLocations == "" {
				req.TargetLocations = settings.TargetLocations
			}
		}
	}

	b := scoring.Explain(scoring.Lead{
		Name:    req.Name,
		Website: req.Website,
		Phone:   req.Phone,
		Address: req.Address,
	}, discovery.Preferences{
		Niche:     req.Niche,
		Locations: discovery.ParseLocations(req.TargetLocations),
	}.ScoringContext())
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	settings, err := s.deps.Store.GetSettings(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		settings = &model.UserSettings{UserID: userID}
	} else if err != nil {
		zap.L().Error("get settings failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.UserSettings
	if !decode(w, r, &settings) {
		return
	}
	if settings.DailyLeadTarget < 0 || settings.DailyOutreachLimit < 0 {
		writeError(w, http.StatusBadRequest, "daily limits must not be negative")
		return
	}
	settings.UserID = userFrom(r)

	if err := s.deps.Store.UpsertSettings(r.Context(), settings); err != nil {
		zap.L().Error("save settings failed", zap.String("user_id", settings.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.deps.Usage.Check(r.Context(), userFrom(r))
	if err != nil {
		zap.L().Error("usage check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load usage")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) handleDailyLeads(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Daily.RunDaily(r.Context(), s.now())
	if err != nil {
		zap.L().Error("daily run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Cron job failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Daily autonomous run completed",
		"results": report,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
