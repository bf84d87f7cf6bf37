package main

import (
	"log"
	"net/http"

	"trelis-pay/internal/config"
	"trelis-pay/internal/db"
	"trelis-pay/internal/logger"
	"trelis-pay/internal/metrics"
	"trelis-pay/internal/middleware"
	"trelis-pay/internal/order"
	"trelis-pay/internal/payment"
	"trelis-pay/internal/payment/webhook"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	gateway := payment.NewTrelisGateway(cfg)
	paymentRepo := payment.NewRepository(database)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, gateway, cfg)
	orderHandler := order.NewHandler(orderSvc)

	reconciler := webhook.NewReconciler(orderRepo)
	webhookHandler := webhook.NewWebhookHandler(reconciler, paymentRepo, gateway)
	stats := metrics.NewWebhookStats()
	webhookHandler.Stats = stats

	serviceAuth := middleware.ServiceAuthMiddleware(cfg.ServiceJWTSecret)
	limited := middleware.RateLimitMiddleware

	mux := http.NewServeMux()
	mux.Handle("POST /webhook/trelis",
		limited(http.HandlerFunc(webhookHandler.PaymentWebhookHandler)))
	mux.Handle("POST /internal/orders/{id}/payment-link",
		serviceAuth(limited(http.HandlerFunc(orderHandler.CreatePaymentLink))))
	mux.Handle("POST /internal/subscriptions/cancel",
		serviceAuth(limited(http.HandlerFunc(orderHandler.CancelSubscription))))
	mux.Handle("POST /internal/subscriptions/run",
		serviceAuth(limited(http.HandlerFunc(orderHandler.ResumeSubscription))))
	mux.Handle("GET /internal/stats",
		serviceAuth(limited(stats.Handler())))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))

	log.Printf("🚀 trelis-pay listening at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, handler))
}
