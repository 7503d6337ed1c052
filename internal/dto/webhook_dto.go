package dto

// PaymentWebhook is the payload posted by the payment provider.
type PaymentWebhook struct {
	Event       string `json:"event"`
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Plan        string `json:"plan"`
	ProviderRef string `json:"provider_ref"`
	PeriodStart int64  `json:"period_start_ms"`
	PeriodEnd   int64  `json:"period_end_ms"`
}
