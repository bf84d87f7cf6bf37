package webhook

type EventKind string

const (
	EventChargeSuccess    EventKind = "charge.success"
	EventChargeFailed     EventKind = "charge.failed"
	EventSubmissionFailed EventKind = "submission.failed"
)

// Payload is the JSON body of a Trelis webhook delivery.
// mechantProductKey is spelled the way the processor sends it.
type Payload struct {
	Event                 EventKind `json:"event"`
	MerchantProductKey    string    `json:"mechantProductKey"`
	RequiredPaymentAmount float64   `json:"requiredPaymentAmount"`
	PaidAmount            float64   `json:"paidAmount"`
}

// Result classifies the outcome of one webhook delivery. It is informational
// to the caller; retries are driven entirely by the processor's redelivery.
type Result string

const (
	ResultProcessed         Result = "processed"
	ResultAlreadyProcessed  Result = "already_processed"
	ResultPending           Result = "pending"
	ResultRejectedSignature Result = "rejected_signature"
	ResultOrderNotFound     Result = "order_not_found"
	ResultFailed            Result = "failed"
)
