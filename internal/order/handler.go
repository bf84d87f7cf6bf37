package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"trelis-pay/internal/logger"

	"go.uber.org/zap"
)

// Handler serves the internal API the shop backend calls.
type Handler struct {
	Svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{Svc: svc}
}

type createLinkRequest struct {
	Subscription *struct {
		Name      string `json:"name"`
		Frequency string `json:"frequency"`
	} `json:"subscription"`
}

type createLinkResponse struct {
	PaymentLink    string `json:"paymentLink"`
	TransactionRef string `json:"transactionRef"`
}

// CreatePaymentLink handles POST /internal/orders/{id}/payment-link.
func (h *Handler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	orderID, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req createLinkRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	var sub *SubscriptionSpec
	if req.Subscription != nil {
		sub = &SubscriptionSpec{
			Name:      req.Subscription.Name,
			Frequency: req.Subscription.Frequency,
		}
	}

	resp, err := h.Svc.CreatePaymentLink(ctx, uint(orderID), sub)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrNotPayable), errors.Is(err, ErrRefAlreadySet):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Error("payment link creation failed", zap.Error(err))
		http.Error(w, "failed to create payment link", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createLinkResponse{
		PaymentLink:    resp.Link,
		TransactionRef: resp.PaymentID,
	})
}

type subscriptionActionRequest struct {
	Customers []string `json:"customers"`
	Currency  string   `json:"currency"`
}

// CancelSubscription handles POST /internal/subscriptions/cancel.
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionAction(w, r, h.Svc.CancelSubscription)
}

// ResumeSubscription handles POST /internal/subscriptions/run.
func (h *Handler) ResumeSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionAction(w, r, h.Svc.ResumeSubscription)
}

func (h *Handler) subscriptionAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, customers []string, currency string) error,
) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	var req subscriptionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if len(req.Customers) == 0 {
		http.Error(w, "no customers given", http.StatusBadRequest)
		return
	}

	if err := action(ctx, req.Customers, req.Currency); err != nil {
		log.Error("subscription action failed", zap.Error(err))
		http.Error(w, "subscription action failed", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
}
