package calendar

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/http/handlers"
	"github.com/wolfman30/braidbook/internal/interval"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// defaultBlockHorizon bounds GET /admin/blocks when no range is given.
const defaultBlockHorizon = 90 * 24 * time.Hour

// Handler serves the admin rule and block endpoints.
type Handler struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a calendar admin handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("calendar"), now: time.Now}
}

// AvailabilityRoutes is mounted under /admin/availability.
func (h *Handler) AvailabilityRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRules)
	r.Post("/", h.CreateRule)
	r.Patch("/{id}", h.UpdateRule)
	r.Delete("/{id}", h.DeleteRule)
	return r
}

// BlockRoutes is mounted under /admin/blocks.
func (h *Handler) BlockRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListBlocks)
	r.Post("/", h.CreateBlock)
	r.Delete("/{id}", h.DeleteBlock)
	return r
}

// RuleRequest is the body of POST /admin/availability.
type RuleRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Active    *bool  `json:"active"`
}

// RulePatch is the body of PATCH /admin/availability/{id}; omitted fields keep
// their stored value.
type RulePatch struct {
	DayOfWeek *int    `json:"dayOfWeek" validate:"omitempty,min=0,max=6"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Active    *bool   `json:"active"`
}

// BlockRequest is the body of POST /admin/blocks.
type BlockRequest struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	Reason    string    `json:"reason" validate:"max=500"`
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListRules(r.Context())
	if err != nil {
		h.internalError(w, "failed to list rules", err)
		return
	}
	if rules == nil {
		rules = []availability.Rule{}
	}
	handlers.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule := availability.Rule{
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Active:    req.Active == nil || *req.Active,
	}
	if err := h.store.CreateRule(r.Context(), &rule); err != nil {
		h.writeStoreError(w, "failed to create rule", err)
		return
	}
	h.logger.Info("availability rule created", "rule_id", rule.ID, "day_of_week", rule.DayOfWeek)
	handlers.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var patch RulePatch
	if err := handlers.DecodeJSON(r, &patch); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rules, err := h.store.ListRules(r.Context())
	if err != nil {
		h.internalError(w, "failed to load rules", err)
		return
	}
	idx := -1
	for i := range rules {
		if rules[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		handlers.WriteError(w, http.StatusNotFound, "rule not found")
		return
	}

	rule := rules[idx]
	if patch.DayOfWeek != nil {
		rule.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		rule.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		rule.EndTime = *patch.EndTime
	}
	if patch.Active != nil {
		rule.Active = *patch.Active
	}
	if err := h.store.UpdateRule(r.Context(), rule); err != nil {
		h.writeStoreError(w, "failed to update rule", err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteRule(r.Context(), id); err != nil {
		h.writeStoreError(w, "failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBlocks handles GET /admin/blocks?from=RFC3339&to=RFC3339.
func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	from := h.now()
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		from = t
	}
	to := from.Add(defaultBlockHorizon)
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		to = t
	}
	iv, err := interval.New(from, to)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	blocks, err := h.store.ListBlocksOverlapping(r.Context(), iv)
	if err != nil {
		h.internalError(w, "failed to list blocks", err)
		return
	}
	if blocks == nil {
		blocks = []availability.Block{}
	}
	handlers.WriteJSON(w, http.StatusOK, blocks)
}

func (h *Handler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	block := availability.Block{StartTime: req.StartTime, EndTime: req.EndTime, Reason: req.Reason}
	if err := h.store.CreateBlock(r.Context(), &block); err != nil {
		h.writeStoreError(w, "failed to create block", err)
		return
	}
	h.logger.Info("block created", "block_id", block.ID, "start", block.StartTime, "end", block.EndTime)
	handlers.WriteJSON(w, http.StatusCreated, block)
}

func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteBlock(r.Context(), id); err != nil {
		h.writeStoreError(w, "failed to delete block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, availability.ErrInvalidRule), errors.Is(err, ErrInvalidBlock):
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, msg, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
}
