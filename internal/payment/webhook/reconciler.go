package webhook

import (
	"context"
	"errors"
	"fmt"

	"trelis-pay/internal/logger"
	"trelis-pay/internal/order"

	"go.uber.org/zap"
)

// Reconciler maps an authenticated webhook payload onto order state.
//
// The order status guard lives in two places: the resolve step short-circuits
// settled orders before any mutation, and the repository's conditional
// updates close the remaining race window between two concurrent deliveries.
// At most one note append and one terminal mutation happen per delivery.
type Reconciler struct {
	orders order.Repository
}

func NewReconciler(orders order.Repository) *Reconciler {
	return &Reconciler{orders: orders}
}

// Apply resolves the payment reference and applies the event's transition.
func (rc *Reconciler) Apply(ctx context.Context, p Payload) Result {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_ref", p.MerchantProductKey),
		zap.String("event", string(p.Event)),
	)

	ord, err := rc.orders.FindByTransactionRef(ctx, p.MerchantProductKey)
	if errors.Is(err, order.ErrOrderNotFound) {
		log.Warn("webhook references unknown payment")
		return ResultOrderNotFound
	}
	if err != nil {
		log.Error("order lookup failed", zap.Error(err))
		return ResultFailed
	}

	log = log.With(zap.Uint("order_id", ord.ID), zap.String("status", string(ord.Status)))

	// Idempotence guard: a settled order never transitions again, so a
	// redelivered success or a late failure event is a no-op.
	if ord.Status.Settled() {
		log.Info("order already settled, skipping")
		return ResultAlreadyProcessed
	}

	switch p.Event {
	case EventChargeFailed, EventSubmissionFailed:
		return rc.applyFailure(ctx, log, ord, p)
	case EventChargeSuccess:
		return rc.applySuccess(ctx, log, ord)
	default:
		log.Info("inconclusive event, leaving order untouched")
		return ResultPending
	}
}

func (rc *Reconciler) applyFailure(ctx context.Context, log *zap.Logger, ord *order.Order, p Payload) Result {
	err := rc.orders.MarkFailed(ctx, ord.ID)
	if errors.Is(err, order.ErrAlreadyProcessed) {
		// Lost the race to a concurrent success delivery.
		log.Info("order settled concurrently, failure event dropped")
		return ResultAlreadyProcessed
	}
	if err != nil {
		log.Error("failed to mark order failed", zap.Error(err))
		return ResultFailed
	}

	note := fmt.Sprintf("Trelis payment failed! Expected amount %g, attempted %g",
		p.RequiredPaymentAmount, p.PaidAmount)
	if err := rc.orders.AppendNote(ctx, ord.ID, note); err != nil {
		log.Warn("failed to append failure note", zap.Error(err))
	}

	log.Info("order marked failed")
	return ResultFailed
}

func (rc *Reconciler) applySuccess(ctx context.Context, log *zap.Logger, ord *order.Order) Result {
	err := rc.orders.MarkPaidAndFulfill(ctx, ord.ID)
	if errors.Is(err, order.ErrAlreadyProcessed) {
		log.Info("order settled concurrently, duplicate success dropped")
		return ResultAlreadyProcessed
	}
	if err != nil {
		// Fulfillment failure is terminal for this delivery; the processor's
		// redelivery is the retry mechanism and the guard makes it safe.
		log.Error("fulfillment failed", zap.Error(err))
		note := fmt.Sprintf("Trelis payment received but fulfillment failed: %v", err)
		if noteErr := rc.orders.AppendNote(ctx, ord.ID, note); noteErr != nil {
			log.Warn("failed to append fulfillment note", zap.Error(noteErr))
		}
		return ResultFailed
	}

	if err := rc.orders.AppendNote(ctx, ord.ID, "Payment complete!"); err != nil {
		log.Warn("failed to append payment note", zap.Error(err))
	}

	log.Info("order fulfilled")
	return ResultProcessed
}
