package settings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/braidbook/internal/http/handlers"
	"github.com/wolfman30/braidbook/internal/policy"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// Handler exposes the settings documents to administrators.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("settings")}
}

// Routes is mounted under /admin/settings.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/booking", h.GetBooking)
	r.Put("/booking", h.PutBooking)
	r.Get("/fees", h.GetFees)
	r.Put("/fees", h.PutFees)
	return r
}

// GetBooking handles GET /admin/settings/booking.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Booking(r.Context())
	if err != nil {
		h.logger.Error("failed to load booking settings", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, doc)
}

// PutBooking handles PUT /admin/settings/booking.
func (h *Handler) PutBooking(w http.ResponseWriter, r *http.Request) {
	var doc Booking
	if err := handlers.DecodeJSON(r, &doc); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SaveBooking(r.Context(), doc); err != nil {
		h.writeSaveError(w, "booking", err)
		return
	}
	h.logger.Info("booking settings updated", "auto_confirm", doc.AutoConfirm, "max_advance_days", doc.MaxAdvanceDays)
	handlers.WriteJSON(w, http.StatusOK, doc)
}

// GetFees handles GET /admin/settings/fees.
func (h *Handler) GetFees(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Fees(r.Context())
	if err != nil {
		h.logger.Error("failed to load fee policy", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, p)
}

// PutFees handles PUT /admin/settings/fees.
func (h *Handler) PutFees(w http.ResponseWriter, r *http.Request) {
	var p policy.FeePolicy
	if err := handlers.DecodeJSON(r, &p); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SaveFees(r.Context(), p); err != nil {
		h.writeSaveError(w, "fees", err)
		return
	}
	h.logger.Info("fee policy updated", "reschedule_fee_cents", p.RescheduleFeeCents)
	handlers.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) writeSaveError(w http.ResponseWriter, doc string, err error) {
	if errors.Is(err, ErrInvalidSettings) {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("failed to save settings", "document", doc, "error", err)
	handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
}
