package handlers

// AppHandlers holds every HTTP handler of the API.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	PaymentHandler      *PaymentHandler
	WebhookHandler      *WebhookHandler
	BillingHandler      *BillingHandler
	SettlementHandler   *SettlementHandler
	NotificationHandler *NotificationHandler
}
