package payment

import (
	"context"
)

// Gateway is the outbound boundary to the Trelis payment processor.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*LinkResponse, error)
	CreateSubscriptionLink(ctx context.Context, req SubscriptionLinkRequest) (*LinkResponse, error)
	CancelSubscription(ctx context.Context, customers []string, token string) error
	RunSubscription(ctx context.Context, customers []string, token string) error
	WebhookSecret() string
}
