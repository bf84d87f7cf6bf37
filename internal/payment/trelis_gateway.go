package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trelis-pay/internal/config"
	"trelis-pay/internal/logger"

	"go.uber.org/zap"
)

const trelisBaseURL = "https://api.trelis.com/api"

type trelisGateway struct {
	apiKey        string
	apiSecret     string
	webhookSecret string
	httpClient    *http.Client
}

// ----------------- Constructor -----------------

func NewTrelisGateway(cfg *config.Config) Gateway {
	if cfg.TrelisAPIKey == "" || cfg.TrelisAPISecret == "" {
		logger.L().Warn("Trelis API credentials are empty")
	}
	if cfg.TrelisWebhookSecret == "" {
		logger.L().Warn("Trelis webhook secret is empty, all webhooks will be rejected")
	}

	return &trelisGateway{
		apiKey:        cfg.TrelisAPIKey,
		apiSecret:     cfg.TrelisAPISecret,
		webhookSecret: cfg.TrelisWebhookSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (t *trelisGateway) WebhookSecret() string {
	return t.webhookSecret
}

// endpoint builds an API URL with query-string key/secret auth, which is how
// Trelis authenticates merchant calls.
func (t *trelisGateway) endpoint(path string) string {
	q := url.Values{}
	q.Set("apiKey", t.apiKey)
	q.Set("apiSecret", t.apiSecret)
	return fmt.Sprintf("%s/%s?%s", trelisBaseURL, path, q.Encode())
}

func (t *trelisGateway) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint(path), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read trelis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("trelis error: %s", string(respBytes))
	}

	return respBytes, nil
}

// paymentIDFromLink extracts the processor-assigned payment ID, which Trelis
// exposes only as the last path segment of the hosted link.
func paymentIDFromLink(link string) (string, error) {
	trimmed := strings.TrimRight(link, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", fmt.Errorf("malformed payment link: %q", link)
	}
	return trimmed[idx+1:], nil
}

// ----------------- CreatePaymentLink -----------------

func (t *trelisGateway) CreatePaymentLink(ctx context.Context, linkReq PaymentLinkRequest) (*LinkResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("product", linkReq.ProductName),
		zap.Float64("price", linkReq.ProductPrice),
		zap.String("token", linkReq.Token),
	)

	log.Info("Creating Trelis payment link")

	respBytes, err := t.post(ctx, "create-dynamic-link", linkReq)
	if err != nil {
		log.Error("Trelis request failed", zap.Error(err))
		return nil, err
	}

	var res struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Data    struct {
			ProductLink string `json:"productLink"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &res); err != nil {
		log.Error("Failed decoding Trelis response", zap.Error(err))
		return nil, err
	}

	if res.Message != "Successfully created product" {
		log.Error("Trelis rejected payment link", zap.String("error", res.Error))
		return nil, fmt.Errorf("trelis error: %s", res.Error)
	}

	paymentID, err := paymentIDFromLink(res.Data.ProductLink)
	if err != nil {
		return nil, err
	}

	log.Info("Trelis payment link created",
		zap.String("payment_id", paymentID),
	)

	return &LinkResponse{
		PaymentID:   paymentID,
		Link:        res.Data.ProductLink,
		RawResponse: json.RawMessage(respBytes),
	}, nil
}

// ----------------- CreateSubscriptionLink -----------------

func (t *trelisGateway) CreateSubscriptionLink(ctx context.Context, linkReq SubscriptionLinkRequest) (*LinkResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("subscription", linkReq.SubscriptionName),
		zap.Float64("price", linkReq.SubscriptionPrice),
		zap.String("frequency", linkReq.Frequency),
	)

	log.Info("Creating Trelis subscription link")

	respBytes, err := t.post(ctx, "create-subscription-link", linkReq)
	if err != nil {
		log.Error("Trelis request failed", zap.Error(err))
		return nil, err
	}

	var res struct {
		Error string `json:"error"`
		Data  struct {
			Message          string `json:"message"`
			SubscriptionLink string `json:"subscriptionLink"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &res); err != nil {
		log.Error("Failed decoding Trelis response", zap.Error(err))
		return nil, err
	}

	if res.Data.Message != "Successfully created subscription link" {
		log.Error("Trelis rejected subscription link", zap.String("error", res.Error))
		return nil, fmt.Errorf("trelis error: %s", res.Error)
	}

	paymentID, err := paymentIDFromLink(res.Data.SubscriptionLink)
	if err != nil {
		return nil, err
	}

	log.Info("Trelis subscription link created",
		zap.String("payment_id", paymentID),
	)

	return &LinkResponse{
		PaymentID:   paymentID,
		Link:        res.Data.SubscriptionLink,
		RawResponse: json.RawMessage(respBytes),
	}, nil
}

// ----------------- Subscription lifecycle -----------------

func (t *trelisGateway) CancelSubscription(ctx context.Context, customers []string, token string) error {
	return t.subscriptionAction(ctx, "cancel-subscription", customers, token)
}

func (t *trelisGateway) RunSubscription(ctx context.Context, customers []string, token string) error {
	return t.subscriptionAction(ctx, "run-subscription", customers, token)
}

func (t *trelisGateway) subscriptionAction(ctx context.Context, path string, customers []string, token string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("action", path),
		zap.Int("customers", len(customers)),
	)

	if len(customers) == 0 {
		return errors.New("no customers given")
	}

	body := map[string]interface{}{
		"customers": customers,
		"token":     token,
	}

	respBytes, err := t.post(ctx, path, body)
	if err != nil {
		log.Error("Trelis request failed", zap.Error(err))
		return err
	}

	var res struct {
		Error string `json:"error"`
		Data  struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &res); err != nil {
		log.Error("Failed decoding Trelis response", zap.Error(err))
		return err
	}
	if res.Error != "" {
		return fmt.Errorf("trelis error: %s", res.Error)
	}

	log.Info("Trelis subscription action done", zap.String("message", res.Data.Message))
	return nil
}
