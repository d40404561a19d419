package praise

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kudoshq/kudos/internal/platform/httpx"
)

// Handler exposes praise records over HTTP.
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

// Routes mounts the praise endpoints.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/praise/{id}", h.Show)
	r.Get("/periods/{id}/praise", h.ListByPeriod)
	r.Group(func(r chi.Router) {
		if admin != nil {
			r.Use(admin)
		}
		r.Post("/praise", h.Create)
	})
}

type createPraiseRequest struct {
	Reason      string     `json:"reason" validate:"required,min=1"`
	SourceID    string     `json:"sourceId"`
	SourceName  string     `json:"sourceName" validate:"required"`
	GiverID     int64      `json:"giverId" validate:"required"`
	ReceiverID  int64      `json:"receiverId" validate:"required"`
	ForwarderID *int64     `json:"forwarderId"`
	CreatedAt   *time.Time `json:"createdAt"`
}

// Create handles POST /praise.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPraiseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	in := CreateInput{
		Reason:      req.Reason,
		SourceID:    req.SourceID,
		SourceName:  req.SourceName,
		GiverID:     req.GiverID,
		ReceiverID:  req.ReceiverID,
		ForwarderID: req.ForwarderID,
	}
	if in.SourceID == "" {
		in.SourceID = uuid.NewString()
	}
	if req.CreatedAt != nil {
		in.CreatedAt = *req.CreatedAt
	}

	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("create praise", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Show handles GET /praise/{id}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid praise id")
		return
	}
	p, err := h.service.Find(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// ListByPeriod handles GET /periods/{id}/praise.
func (h *Handler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	items, err := h.service.ListByPeriod(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}
