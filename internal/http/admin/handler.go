package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/payrecon/internal/http/records"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

type Handler struct {
	reconciler *reconcile.Service
	records    *payable.Service
	letters    *deadletter.Service
	sweeper    *deadletter.Sweeper
	validate   *validator.Validate
}

func NewHandler(
	reconciler *reconcile.Service,
	records *payable.Service,
	letters *deadletter.Service,
	sweeper *deadletter.Sweeper,
) *Handler {
	return &Handler{
		reconciler: reconciler,
		records:    records,
		letters:    letters,
		sweeper:    sweeper,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/records/{id}", func(r chi.Router) {
		r.Post("/transition", h.forceTransition)
		r.Post("/reactivate", h.reactivate)
		r.Get("/audit", h.audit)
		r.Delete("/", h.purge)
	})

	r.Route("/dead-letters", func(r chi.Router) {
		r.Get("/", h.listLetters)
		r.Post("/sweep", h.sweep)
		r.Get("/{id}", h.getLetter)
		r.Post("/{id}/retry", h.retry)
	})
}

type transitionRequest struct {
	Status payable.Status `json:"status" validate:"required,oneof=pending processing completed active cancelled"`
	Reason string         `json:"reason" validate:"required,min=3,max=500"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type TransitionResponse struct {
	Status string                 `json:"status"`
	Record records.RecordResponse `json:"record"`
}

type LetterResponse struct {
	ID              uuid.UUID         `json:"id"`
	Provider        event.Provider    `json:"provider"`
	ProviderEventID string            `json:"provider_event_id"`
	Reason          deadletter.Reason `json:"reason"`
	Retryable       bool              `json:"retryable"`
	Attempts        int               `json:"attempts"`
	LastError       string            `json:"last_error,omitempty"`
	NextAttemptAt   *time.Time        `json:"next_attempt_at,omitempty"`
	ResolvedAt      *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Payload         json.RawMessage   `json:"payload,omitempty"`
}

func toLetterResponse(l *deadletter.Letter, withPayload bool) LetterResponse {
	resp := LetterResponse{
		ID:              l.ID,
		Provider:        l.Provider,
		ProviderEventID: l.ProviderEventID,
		Reason:          l.Reason,
		Retryable:       l.Retryable,
		Attempts:        l.Attempts,
		LastError:       l.LastError,
		NextAttemptAt:   l.NextAttemptAt,
		ResolvedAt:      l.ResolvedAt,
		CreatedAt:       l.CreatedAt,
	}

	if withPayload && json.Valid(l.Payload) {
		resp.Payload = l.Payload
	}

	return resp
}

func (h *Handler) forceTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.reconciler.ForceTransition(r.Context(), id, req.Status, auth.Actor(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeRecord(w, r, id, res.Decision.Verdict.String())
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req reasonRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.reconciler.Reactivate(r.Context(), id, auth.Actor(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeRecord(w, r, id, res.Decision.Verdict.String())
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req reasonRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.records.Purge(r.Context(), id, auth.Actor(r.Context()), req.Reason); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("record purged", "record_id", id, "actor", auth.Actor(r.Context()), "reason", req.Reason)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	entries, err := h.records.Audit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records.ToAuditList(entries))
}

func (h *Handler) listLetters(w http.ResponseWriter, r *http.Request) {
	filter := deadletter.ListFilter{OnlyOpen: r.URL.Query().Get("all") != "true"}

	if s := r.URL.Query().Get("reason"); s != "" {
		filter.Reason = new(deadletter.Reason(s))
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		filter.Limit = n
	}

	letters, err := h.letters.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]LetterResponse, len(letters))
	for i, l := range letters {
		out[i] = toLetterResponse(l, false)
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getLetter(w http.ResponseWriter, r *http.Request) {
	l, ok := h.letter(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toLetterResponse(l, true))
}

// retry re-runs one letter now. A retry that parks the event again is still
// a successful call; the letter's state says what happened.
func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	l, ok := h.letter(w, r)
	if !ok {
		return
	}

	res, err := h.reconciler.Retry(r.Context(), l)
	if err != nil && (res == nil || res.DeadLetter == nil) {
		writeError(w, err)
		return
	}

	l, err = h.letters.Get(r.Context(), l.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLetterResponse(l, false))
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"retried": n})
}

func (h *Handler) letter(w http.ResponseWriter, r *http.Request) (*deadletter.Letter, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	l, err := h.letters.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	return l, true
}

func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, id uuid.UUID, verdict string) {
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransitionResponse{Status: verdict, Record: records.ToResponse(rec)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payable.ErrNotFound), errors.Is(err, deadletter.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, transition.ErrIllegalTransition), errors.Is(err, payable.ErrPurgeRefused):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, reconcile.ErrInvalidRequest), errors.Is(err, payable.ErrInvalidRecord):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("admin request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
