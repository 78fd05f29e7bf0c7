package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/braidbook/internal/http/handlers"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// Handler serves slot queries to the booking flow.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger.Component("availability_http")}
}

// SlotsResponse is returned by GET /api/availability.
type SlotsResponse struct {
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration"`
	Slots           []Slot `json:"slots"`
}

// GetSlots handles GET /api/availability?date=YYYY-MM-DD&duration=N.
// The date is read in the business timezone.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("date") == "" || q.Get("duration") == "" {
		handlers.WriteError(w, http.StatusBadRequest, "date and duration are required")
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, q.Get("date"), h.service.Location())
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "duration must be an integer number of minutes")
		return
	}

	slots, err := h.service.GetOfferableSlots(r.Context(), date, duration)
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidDuration):
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to generate slots", "date", q.Get("date"), "duration", duration, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, SlotsResponse{
		Date:            date.Format(time.DateOnly),
		DurationMinutes: duration,
		Slots:           slots,
	})
}
