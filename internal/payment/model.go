package payment

import (
	"encoding/json"
)

const (
	TokenETH  = "ETH"
	TokenUSDC = "USDC"
)

// TokenFor maps a shop currency to the settlement token Trelis charges in.
// Crypto currencies pass through; fiat settles in USDC.
func TokenFor(currency string) string {
	switch currency {
	case TokenETH, TokenUSDC:
		return currency
	default:
		return TokenUSDC
	}
}

// FiatFor returns the fiat currency to quote the charge in, or nil when the
// shop currency is already a token.
func FiatFor(currency string) *string {
	switch currency {
	case TokenETH, TokenUSDC:
		return nil
	default:
		c := currency
		return &c
	}
}

// PaymentLinkRequest describes a one-time hosted charge.
type PaymentLinkRequest struct {
	ProductName  string  `json:"productName"`
	ProductPrice float64 `json:"productPrice"`
	Token        string  `json:"token"`
	RedirectLink string  `json:"redirectLink"`
	IsGasless    bool    `json:"isGasless"`
	IsPrime      bool    `json:"isPrime"`
	FiatCurrency *string `json:"fiatCurrency"`
}

// SubscriptionLinkRequest describes a recurring hosted charge.
type SubscriptionLinkRequest struct {
	SubscriptionPrice float64 `json:"subscriptionPrice"`
	Frequency         string  `json:"frequency"`
	SubscriptionName  string  `json:"subscriptionName"`
	FiatCurrency      *string `json:"fiatCurrency"`
	SubscriptionType  string  `json:"subscriptionType"`
	RedirectLink      string  `json:"redirectLink"`
}

// LinkResponse carries the hosted link plus the processor-assigned payment
// ID (the link's last path segment) that becomes the order's transaction
// reference.
type LinkResponse struct {
	PaymentID   string
	Link        string
	RawResponse json.RawMessage
}
