package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// WebhookStats counts webhook deliveries by outcome. Counters only reset on
// restart; they are operator telemetry, not a ledger.
type WebhookStats struct {
	Received          Counter
	RejectedSignature Counter
	Malformed         Counter
	Processed         Counter
	AlreadyProcessed  Counter
	Pending           Counter
	OrderNotFound     Counter
	Failed            Counter
}

func NewWebhookStats() *WebhookStats {
	return &WebhookStats{}
}

// Observe records a reconciliation outcome by its result name.
func (s *WebhookStats) Observe(result string) {
	if s == nil {
		return
	}
	switch result {
	case "processed":
		s.Processed.Inc()
	case "already_processed":
		s.AlreadyProcessed.Inc()
	case "pending":
		s.Pending.Inc()
	case "rejected_signature":
		s.RejectedSignature.Inc()
	case "order_not_found":
		s.OrderNotFound.Inc()
	default:
		s.Failed.Inc()
	}
}

func (s *WebhookStats) ObserveReceived() {
	if s == nil {
		return
	}
	s.Received.Inc()
}

func (s *WebhookStats) ObserveMalformed() {
	if s == nil {
		return
	}
	s.Malformed.Inc()
}

func (s *WebhookStats) snapshot() map[string]uint64 {
	return map[string]uint64{
		"received":           s.Received.Load(),
		"rejected_signature": s.RejectedSignature.Load(),
		"malformed":          s.Malformed.Load(),
		"processed":          s.Processed.Load(),
		"already_processed":  s.AlreadyProcessed.Load(),
		"pending":            s.Pending.Load(),
		"order_not_found":    s.OrderNotFound.Load(),
		"failed":             s.Failed.Load(),
	}
}

// Handler serves the current counters as JSON.
func (s *WebhookStats) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"webhooks": s.snapshot(),
		})
	}
}
