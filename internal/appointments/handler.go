package appointments

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/clients"
	"github.com/wolfman30/braidbook/internal/http/handlers"
	"github.com/wolfman30/braidbook/internal/interval"
	"github.com/wolfman30/braidbook/internal/policy"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// defaultAgendaDays is the admin list range when none is given.
const defaultAgendaDays = 7

// Handler exposes booking, client self-service and admin endpoints.
type Handler struct {
	service *Service
	loc     *time.Location
	logger  *logging.Logger
}

// NewHandler creates the appointments HTTP handler. loc is the business
// timezone used to interpret date-only query parameters.
func NewHandler(service *Service, loc *time.Location, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, loc: loc, logger: logger.Component("appointments_http")}
}

// ManageRoutes is mounted under /api/manage.
func (h *Handler) ManageRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.GetByToken)
	r.Post("/{token}/cancel", h.CancelByToken)
	r.Post("/{token}/reschedule", h.RescheduleByToken)
	return r
}

// AdminRoutes is mounted under /admin/appointments.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.AdminList)
	r.Post("/", h.AdminCreate)
	r.Get("/{id}", h.AdminGet)
	r.Patch("/{id}", h.AdminPatch)
	r.Delete("/{id}", h.AdminDelete)
	return r
}

// BookingRequest is the body of POST /api/appointments.
type BookingRequest struct {
	ServiceID        uuid.UUID `json:"serviceId"`
	VariantID        uuid.UUID `json:"variantId"`
	ScheduledStart   time.Time `json:"scheduledStart"`
	ClientName       string    `json:"clientName" validate:"max=120"`
	ClientPhone      string    `json:"clientPhone" validate:"max=32"`
	ClientEmail      string    `json:"clientEmail" validate:"omitempty,email,max=254"`
	LGPDConsent      bool      `json:"lgpdConsent"`
	MarketingConsent *bool     `json:"marketingConsent"`
	Notes            string    `json:"notes" validate:"max=1000"`
}

// AdminBookingRequest is the body of POST /admin/appointments.
type AdminBookingRequest struct {
	BookingRequest
	DurationMinutes int    `json:"durationMin" validate:"min=0,max=1440"`
	PriceCents      *int64 `json:"priceCents" validate:"omitempty,min=0"`
	Status          Status `json:"status" validate:"omitempty,oneof=pending confirmed"`
	InternalNotes   string `json:"internalNotes" validate:"max=2000"`
}

// RescheduleRequest is the body of POST /api/manage/{token}/reschedule.
// ScheduledEnd is optional and must match the booked duration when sent.
type RescheduleRequest struct {
	ScheduledStart time.Time `json:"scheduledStart"`
	ScheduledEnd   time.Time `json:"scheduledEnd"`
}

// CancelRequest is the body of POST /api/manage/{token}/cancel.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// PatchRequest is the body of PATCH /admin/appointments/{id}.
type PatchRequest struct {
	Status             *Status        `json:"status" validate:"omitempty,oneof=pending confirmed in_progress completed cancelled no_show"`
	PaymentStatus      *PaymentStatus `json:"paymentStatus" validate:"omitempty,oneof=pending paid refunded"`
	Notes              *string        `json:"notes" validate:"omitempty,max=1000"`
	InternalNotes      *string        `json:"internalNotes" validate:"omitempty,max=2000"`
	CancellationReason *string        `json:"cancellationReason" validate:"omitempty,max=500"`
	ScheduledStart     *time.Time     `json:"scheduledStart"`
	ScheduledEnd       *time.Time     `json:"scheduledEnd"`
}

// BookingResponse carries the management token only at creation time.
type BookingResponse struct {
	Appointment     Appointment `json:"appointment"`
	ManagementToken string      `json:"managementToken"`
}

// ChangeResponse answers client cancel and reschedule.
type ChangeResponse struct {
	Appointment     Appointment `json:"appointment"`
	CancellationFee *int64      `json:"cancellationFeeCents,omitempty"`
	RescheduleFee   *int64      `json:"rescheduleFeeCents,omitempty"`
	Message         string      `json:"message"`
}

func (req BookingRequest) bookRequest(source Source) BookRequest {
	return BookRequest{
		ServiceID: req.ServiceID,
		VariantID: req.VariantID,
		Start:     req.ScheduledStart,
		Notes:     req.Notes,
		Source:    source,
		Client: clients.Contact{
			Name:             req.ClientName,
			Phone:            req.ClientPhone,
			Email:            req.ClientEmail,
			LGPDConsent:      req.LGPDConsent,
			MarketingConsent: req.MarketingConsent,
		},
	}
}

// Create handles POST /api/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	appt, err := h.service.Book(r.Context(), req.bookRequest(SourceClient))
	if err != nil {
		h.writeServiceError(w, "failed to book appointment", err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, BookingResponse{Appointment: appt, ManagementToken: appt.ManagementToken})
}

// GetByToken handles GET /api/manage/{token}.
func (h *Handler) GetByToken(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, "failed to load appointment", err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, appt)
}

// CancelByToken handles POST /api/manage/{token}/cancel.
func (h *Handler) CancelByToken(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			handlers.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	result, err := h.service.CancelByToken(r.Context(), chi.URLParam(r, "token"), req.Reason)
	if err != nil {
		h.writeServiceError(w, "failed to cancel appointment", err)
		return
	}
	fee := result.FeeCents
	handlers.WriteJSON(w, http.StatusOK, ChangeResponse{
		Appointment:     result.Appointment,
		CancellationFee: &fee,
		Message:         feeMessage("Taxa de cancelamento", "Cancelamento realizado sem custos", fee),
	})
}

// RescheduleByToken handles POST /api/manage/{token}/reschedule.
func (h *Handler) RescheduleByToken(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.service.RescheduleByToken(r.Context(), chi.URLParam(r, "token"), req.ScheduledStart, req.ScheduledEnd)
	if err != nil {
		h.writeServiceError(w, "failed to reschedule appointment", err)
		return
	}
	fee := result.FeeCents
	handlers.WriteJSON(w, http.StatusOK, ChangeResponse{
		Appointment:   result.Appointment,
		RescheduleFee: &fee,
		Message:       feeMessage("Taxa de reagendamento", "Reagendamento realizado sem custos", fee),
	})
}

func feeMessage(label, free string, fee int64) string {
	if fee <= 0 {
		return free
	}
	return fmt.Sprintf("%s: %s", label, policy.FormatBRL(fee))
}

// AdminList handles GET /admin/appointments?from=&to=. Both accept
// YYYY-MM-DD (business timezone) or RFC3339.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.loc)
	from := availability.StartOfDay(now)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := h.parseTime(v)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "from must be YYYY-MM-DD or RFC3339")
			return
		}
		from = t
	}
	to := from.AddDate(0, 0, defaultAgendaDays)
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := h.parseTime(v)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "to must be YYYY-MM-DD or RFC3339")
			return
		}
		to = t
	}
	appts, err := h.service.ListBetween(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, "failed to list appointments", err)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	handlers.WriteJSON(w, http.StatusOK, appts)
}

// AdminCreate handles POST /admin/appointments.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req AdminBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	book := req.bookRequest(SourceAdmin)
	book.DurationMinutes = req.DurationMinutes
	book.PriceCents = req.PriceCents
	book.Status = req.Status
	book.InternalNotes = req.InternalNotes

	appt, err := h.service.Book(r.Context(), book)
	if err != nil {
		h.writeServiceError(w, "failed to create appointment", err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, BookingResponse{Appointment: appt, ManagementToken: appt.ManagementToken})
}

// AdminGet handles GET /admin/appointments/{id}.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "failed to load appointment", err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, appt)
}

// AdminPatch handles PATCH /admin/appointments/{id}.
func (h *Handler) AdminPatch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req PatchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	appt, err := h.service.AdminUpdate(r.Context(), id, AdminPatch(req))
	if err != nil {
		h.writeServiceError(w, "failed to update appointment", err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, appt)
}

// AdminDelete handles DELETE /admin/appointments/{id}.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "failed to delete appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseTime(v string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, v, h.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid appointment id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, availability.ErrSlotUnavailable):
		handlers.WriteError(w, http.StatusConflict, availability.ErrSlotUnavailable.Error())
	case errors.Is(err, ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrVariantNotFound):
		handlers.WriteError(w, http.StatusNotFound, "service variant not found")
	case errors.Is(err, ErrAlreadyCancelled):
		handlers.WriteError(w, http.StatusBadRequest, "appointment already cancelled")
	case errors.Is(err, ErrInvalidTransition):
		handlers.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrOutsideBookingWindow),
		errors.Is(err, interval.ErrInvalidInterval):
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
