package order

import (
	"context"
	"errors"
	"fmt"

	"trelis-pay/internal/config"
	"trelis-pay/internal/logger"
	"trelis-pay/internal/payment"

	"go.uber.org/zap"
)

// SubscriptionSpec asks for a recurring link instead of a one-time charge.
type SubscriptionSpec struct {
	Name      string
	Frequency string
}

type Service interface {
	// CreatePaymentLink creates a hosted payment (or subscription) link for
	// a pending order and stores the processor-assigned payment ID as the
	// order's transaction reference.
	CreatePaymentLink(ctx context.Context, orderID uint, sub *SubscriptionSpec) (*payment.LinkResponse, error)
	CancelSubscription(ctx context.Context, customers []string, currency string) error
	ResumeSubscription(ctx context.Context, customers []string, currency string) error
}

type service struct {
	repo    Repository
	gateway payment.Gateway
	cfg     *config.Config
}

func NewService(repo Repository, gateway payment.Gateway, cfg *config.Config) Service {
	return &service{
		repo:    repo,
		gateway: gateway,
		cfg:     cfg,
	}
}

func (s *service) CreatePaymentLink(ctx context.Context, orderID uint, sub *SubscriptionSpec) (*payment.LinkResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.Uint("order_id", orderID),
		zap.Bool("subscription", sub != nil),
	)

	ord, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status != StatusPending {
		log.Warn("refusing payment link for non-pending order", zap.String("status", string(ord.Status)))
		return nil, ErrNotPayable
	}
	if ord.TransactionRef != nil {
		log.Warn("order already has a payment link", zap.String("transaction_ref", *ord.TransactionRef))
		return nil, ErrRefAlreadySet
	}

	var resp *payment.LinkResponse
	if sub != nil {
		frequency := sub.Frequency
		if frequency == "" {
			frequency = "MONTHLY"
		}
		resp, err = s.gateway.CreateSubscriptionLink(ctx, payment.SubscriptionLinkRequest{
			SubscriptionPrice: ord.TotalAmount,
			Frequency:         frequency,
			SubscriptionName:  sub.Name,
			FiatCurrency:      payment.FiatFor(ord.Currency),
			SubscriptionType:  "manual",
			RedirectLink:      s.cfg.ReturnURL,
		})
	} else {
		resp, err = s.gateway.CreatePaymentLink(ctx, payment.PaymentLinkRequest{
			ProductName:  s.cfg.ShopName,
			ProductPrice: ord.TotalAmount,
			Token:        payment.TokenFor(ord.Currency),
			RedirectLink: s.cfg.ReturnURL,
			IsGasless:    s.cfg.TrelisGasless,
			IsPrime:      s.cfg.TrelisPrime,
			FiatCurrency: payment.FiatFor(ord.Currency),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	// Set-once: from here on the payment ID is the webhook correlation key.
	if err := s.repo.SetTransactionRef(ctx, ord.ID, resp.PaymentID); err != nil {
		if errors.Is(err, ErrRefAlreadySet) {
			log.Warn("lost transaction reference race", zap.String("payment_id", resp.PaymentID))
		}
		return nil, err
	}

	// Keep the raw gateway response on the order for operator diagnostics.
	if err := s.repo.AppendNote(ctx, ord.ID, string(resp.RawResponse)); err != nil {
		log.Warn("failed to append gateway response note", zap.Error(err))
	}

	log.Info("payment link created", zap.String("payment_id", resp.PaymentID))
	return resp, nil
}

func (s *service) CancelSubscription(ctx context.Context, customers []string, currency string) error {
	return s.gateway.CancelSubscription(ctx, customers, payment.TokenFor(currency))
}

func (s *service) ResumeSubscription(ctx context.Context, customers []string, currency string) error {
	return s.gateway.RunSubscription(ctx, customers, payment.TokenFor(currency))
}
