package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/http/handlers"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// Handler serves the service menu.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("catalog")}
}

// AdminRoutes is mounted under /admin/services.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAll)
	r.Post("/", h.CreateService)
	r.Post("/{id}/variants", h.CreateVariant)
	return r
}

// ServiceRequest is the body of POST /admin/services.
type ServiceRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

// VariantRequest is the body of POST /admin/services/{id}/variants.
type VariantRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Description     string `json:"description" validate:"max=1000"`
	DurationMinutes int    `json:"durationMin" validate:"required,min=1,max=1440"`
	PriceCents      int64  `json:"priceCents" validate:"min=0"`
	Order           int    `json:"order"`
	Active          *bool  `json:"active"`
}

// ListActive handles GET /api/services.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll handles GET /admin/services.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	services, err := h.store.ListServices(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if services == nil {
		services = []Service{}
	}
	handlers.WriteJSON(w, http.StatusOK, services)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc := Service{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.Order,
		Active:      req.Active == nil || *req.Active,
		Variants:    []Variant{},
	}
	if err := h.store.CreateService(r.Context(), &svc); err != nil {
		h.writeStoreError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, svc)
}

func (h *Handler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	var req VariantRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	v := Variant{
		ServiceID:       serviceID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		SortOrder:       req.Order,
		Active:          req.Active == nil || *req.Active,
	}
	if err := h.store.CreateVariant(r.Context(), &v); err != nil {
		h.writeStoreError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "service not found")
	case errors.Is(err, ErrInvalidVariant):
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("catalog write failed", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
