package http_handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/nippou-service/internal/application/report"
	"github.com/baechuer/nippou-service/internal/domain"
	"github.com/baechuer/nippou-service/internal/infrastructure/security"
	"github.com/baechuer/nippou-service/internal/logger"
	"github.com/baechuer/nippou-service/internal/transport/http/dto"
	"github.com/baechuer/nippou-service/internal/transport/http/response"
)

// UserResolver loads the session user behind a cookie token.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (domain.User, error)
}

type ReportHandler struct {
	svc   *report.Service
	users UserResolver
}

func NewReportHandler(svc *report.Service, users UserResolver) *ReportHandler {
	return &ReportHandler{svc: svc, users: users}
}

// List handles GET /api/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewReportList(items))
}

// Create handles POST /api/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, err := h.actor(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	saved, err := h.svc.Create(r.Context(), actor, req.ToDomain())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("report_id", saved.ID).Msg("report_saved")
	response.OK(w, dto.NewReportResponse(saved))
}

// Update handles PUT /api/reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, err := h.actor(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	saved, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("report_id", saved.ID).Msg("report_updated")
	response.OK(w, dto.NewReportResponse(saved))
}

// Delete handles DELETE /api/reports/{id}. Deleting a missing id succeeds.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("report_id", id).Msg("report_deleted")
	response.Empty(w)
}

func (h *ReportHandler) decode(w http.ResponseWriter, r *http.Request) (dto.ReportRequest, bool) {
	var req dto.ReportRequest
	if err := response.DecodeJSONLenient(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return req, false
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return req, false
	}
	return req, true
}

// actor resolves the session user only when ownership is enforced. A missing
// cookie yields a nil actor and the service decides.
func (h *ReportHandler) actor(r *http.Request) (*report.Actor, error) {
	if !h.svc.EnforcesOwnership() || h.users == nil {
		return nil, nil
	}
	token := security.ReadAuthToken(r)
	if token == "" {
		return nil, nil
	}
	u, err := h.users.CurrentUser(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return &report.Actor{UserID: u.ID, Name: u.Name, Team: u.Team}, nil
}
