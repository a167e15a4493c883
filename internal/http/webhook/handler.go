package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/encoding"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
)

const defaultMaxBody = 1 << 20

type Handler struct {
	providers  *provider.Service
	reconciler *reconcile.Service
	maxBody    int64
}

func NewHandler(providers *provider.Service, reconciler *reconcile.Service, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	return &Handler{providers: providers, reconciler: reconciler, maxBody: maxBody}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/{provider}", h.receive)
}

type response struct {
	Status       string     `json:"status"`
	RecordID     *uuid.UUID `json:"record_id,omitempty"`
	DeadLetterID *uuid.UUID `json:"dead_letter_id,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	p := event.Provider(chi.URLParam(r, "provider"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}

		http.Error(w, "failed to read body", http.StatusBadRequest)

		return
	}

	// Verification runs on the exact bytes the provider signed.
	if err := h.providers.Verify(p, body, r.Header, r.URL.Query()); err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			http.Error(w, "unknown provider", http.StatusBadRequest)
			return
		}

		slog.Warn("webhook signature rejected", "provider", p, "remote", r.RemoteAddr, "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)

		return
	}

	payload, err := encoding.ToUTF8(body, r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, "undecodable body", http.StatusBadRequest)
		return
	}

	// Once accepted, an event is processed to completion even if the
	// provider hangs up.
	ctx := context.WithoutCancel(r.Context())

	res, err := h.reconciler.Reconcile(ctx, p, payload)

	switch {
	case res != nil && res.DeadLetter != nil:
		writeJSON(w, http.StatusAccepted, response{
			Status:       res.Status(),
			DeadLetterID: &res.DeadLetter.ID,
			Reason:       string(res.DeadLetter.Reason),
		})
	case err != nil:
		var malformed *event.MalformedEventError
		if errors.As(err, &malformed) {
			slog.Warn("malformed webhook", "provider", p, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		slog.Error("webhook not recorded", "provider", p, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		resp := response{Status: res.Status(), Reason: res.Decision.Reason}
		if res.Record != nil {
			resp.RecordID = &res.Record.ID
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
