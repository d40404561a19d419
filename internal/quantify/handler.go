package quantify

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kudoshq/kudos/internal/platform/httpx"
)

// Handler exposes the quantification engine over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// Routes mounts the quantification endpoints. admin wraps the assignment
// and replacement mutations.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/periods/{id}/details", h.Details)
	r.Get("/periods/{id}/receivers", h.Receivers)
	r.Get("/periods/{id}/givers", h.Givers)
	r.Get("/users/{id}/score", h.UserScore)
	r.Put("/praise/{id}/quantifications/{quantifierID}", h.SubmitJudgment)
	r.Group(func(r chi.Router) {
		if admin != nil {
			r.Use(admin)
		}
		r.Post("/periods/{id}/assign", h.Assign)
		r.Post("/periods/{id}/replace-quantifier", h.Replace)
	})
}

// Assign handles POST /periods/{id}/assign.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	details, err := h.service.Assign(r.Context(), id)
	if err != nil {
		h.logger.Warn("assign quantifiers", slog.Int64("period_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

type replaceRequest struct {
	CurrentQuantifierID int64 `json:"currentQuantifierId" validate:"required"`
	NewQuantifierID     int64 `json:"newQuantifierId" validate:"required"`
}

// Replace handles POST /periods/{id}/replace-quantifier.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	var req replaceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.ReplaceQuantifier(r.Context(), id, req.CurrentQuantifierID, req.NewQuantifierID)
	if err != nil {
		h.logger.Warn("replace quantifier", slog.Int64("period_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// Details handles GET /periods/{id}/details.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	details, err := h.service.Details(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

// Receivers handles GET /periods/{id}/receivers.
func (h *Handler) Receivers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	summaries, err := h.service.ReceiverSummaries(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

// Givers handles GET /periods/{id}/givers.
func (h *Handler) Givers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	summaries, err := h.service.GiverSummaries(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

// UserScore handles GET /users/{id}/score.
func (h *Handler) UserScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	total, err := h.service.UserTotalScore(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"userId": id, "total": total})
}

type judgmentRequest struct {
	Score       *float64 `json:"score" validate:"omitempty,gte=0"`
	Dismissed   *bool    `json:"dismissed"`
	DuplicateOf *int64   `json:"duplicateOf"`
}

// SubmitJudgment handles PUT /praise/{id}/quantifications/{quantifierID}.
func (h *Handler) SubmitJudgment(w http.ResponseWriter, r *http.Request) {
	praiseID, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	quantifierID, ok := pathInt64(w, r, "quantifierID")
	if !ok {
		return
	}
	var req judgmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Score == nil && req.Dismissed == nil && req.DuplicateOf == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "at least one of score, dismissed, duplicateOf is required")
		return
	}

	item, err := h.service.SubmitJudgment(r.Context(), praiseID, quantifierID, JudgmentInput{
		Score:       req.Score,
		Dismissed:   req.Dismissed,
		DuplicateOf: req.DuplicateOf,
	})
	if err != nil {
		h.logger.Warn("submit judgment", slog.Int64("praise_id", praiseID), slog.Int64("quantifier_id", quantifierID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
		return 0, false
	}
	return v, true
}
