package records

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

type Handler struct {
	svc      *payable.Service
	validate *validator.Validate
}

func NewHandler(svc *payable.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/ledger", h.ledger)
}

type createRecordRequest struct {
	Kind            payable.Kind     `json:"kind" validate:"required,oneof=order subscription"`
	CheckoutID      string           `json:"checkout_id" validate:"required,max=128"`
	Amount          string           `json:"amount" validate:"required,numeric"`
	Currency        string           `json:"currency" validate:"required,len=3,alpha"`
	CustomerEmail   string           `json:"customer_email" validate:"required,email"`
	CustomerName    string           `json:"customer_name" validate:"max=200"`
	CustomerPhone   string           `json:"customer_phone" validate:"max=40"`
	BillingInterval payable.Interval `json:"billing_interval" validate:"omitempty,oneof=month year"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Create(r.Context(), payable.CreateParams{
		Kind:       req.Kind,
		CheckoutID: req.CheckoutID,
		Amount:     amount,
		Currency:   req.Currency,
		Customer: payable.Customer{
			Email: req.CustomerEmail,
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
		},
		BillingInterval: req.BillingInterval,
	})
	if err != nil {
		switch {
		case errors.Is(err, payable.ErrInvalidRecord):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, payable.ErrReferenceAlreadyBound):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("failed to create record", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := payable.ListFilter{}

	if s := r.URL.Query().Get("kind"); s != "" {
		filter.Kind = new(payable.Kind(s))
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(payable.Status(s))
	}

	recs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(recs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, payable.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if _, err := h.svc.Get(r.Context(), id); err != nil {
		if errors.Is(err, payable.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	entries, err := h.svc.Ledger(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toLedgerList(entries)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
