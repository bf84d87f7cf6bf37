package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"trelis-pay/internal/logger"
	"trelis-pay/internal/metrics"
	"trelis-pay/internal/payment"

	"go.uber.org/zap"
)

const provider = "TRELIS"

// Applier is the reconciliation step the handler drives.
type Applier interface {
	Apply(ctx context.Context, p Payload) Result
}

// Handler is the webhook entry point: capture raw bytes, authenticate,
// parse, log the delivery, reconcile.
type Handler struct {
	Reconciler Applier
	Events     payment.Repository
	Gateway    payment.Gateway

	// Stats is optional operator telemetry; nil disables it.
	Stats *metrics.WebhookStats
}

func NewWebhookHandler(rec Applier, events payment.Repository, gateway payment.Gateway) *Handler {
	return &Handler{
		Reconciler: rec,
		Events:     events,
		Gateway:    gateway,
	}
}

func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)
	timer := metrics.StartTimer()
	h.Stats.ObserveReceived()

	// Raw bytes first: the signature covers them verbatim.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	sig := r.Header.Get("Signature")
	if !payment.VerifyWebhookSignature(body, h.Gateway.WebhookSecret(), sig) {
		log.Warn("rejected webhook with invalid signature",
			zap.String("ip", r.RemoteAddr),
		)
		h.Stats.Observe(string(ResultRejectedSignature))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// Only parse after authentication.
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Warn("malformed webhook payload", zap.Error(err))
		h.Stats.ObserveMalformed()
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	webhookID := h.recordDelivery(ctx, log, body, p)

	res := h.Reconciler.Apply(ctx, p)
	h.recordOutcome(ctx, log, webhookID, res)
	h.Stats.Observe(string(res))

	log.Info("webhook reconciled",
		zap.String("event", string(p.Event)),
		zap.String("payment_ref", p.MerchantProductKey),
		zap.String("result", string(res)),
		zap.Duration("took", timer.Duration()),
	)

	status, text := responseFor(res)
	w.WriteHeader(status)
	fmt.Fprint(w, text)
}

// recordDelivery appends the delivery to the audit log. Failures here are
// logged and ignored: the audit trail must not block reconciliation.
func (h *Handler) recordDelivery(ctx context.Context, log *zap.Logger, body []byte, p Payload) int64 {
	digestBytes := sha256.Sum256(body)
	digest := hex.EncodeToString(digestBytes[:])

	webhookID, duplicate, err := h.Events.SaveWebhookEvent(
		ctx, provider, digest, string(p.Event), p.MerchantProductKey,
		json.RawMessage(body), true,
	)
	if err != nil {
		log.Error("failed to record webhook delivery", zap.Error(err))
		return 0
	}
	if duplicate {
		// The order status check decides idempotence; the duplicate still
		// flows through resolution.
		log.Info("duplicate webhook delivery", zap.String("digest", digest))
	}
	return webhookID
}

func (h *Handler) recordOutcome(ctx context.Context, log *zap.Logger, webhookID int64, res Result) {
	if webhookID == 0 {
		return
	}

	var err error
	if res == ResultFailed || res == ResultOrderNotFound {
		err = h.Events.MarkWebhookFailed(ctx, webhookID, string(res))
	} else {
		err = h.Events.MarkWebhookProcessed(ctx, webhookID)
	}
	if err != nil {
		log.Warn("failed to record webhook outcome", zap.Error(err))
	}
}

// responseFor maps a reconciliation result to the plain-text response the
// processor sees. Business outcomes (including Failed) answer 2xx so the
// processor's redelivery is never keyed off our ledger state; non-2xx is
// reserved for requests we could not attribute to an order.
func responseFor(res Result) (int, string) {
	switch res {
	case ResultProcessed:
		return http.StatusOK, "Processed!"
	case ResultAlreadyProcessed:
		return http.StatusOK, "Already processed"
	case ResultPending:
		return http.StatusOK, "Pending"
	case ResultOrderNotFound:
		return http.StatusNotFound, "Failed"
	default:
		return http.StatusOK, "Failed"
	}
}
