package models

import "fmt"

type OrderStatus string
type PurchaseStatus string
type ContentType string
type BillingKeyStatus string
type SubscriptionStatus string
type SettlementStatus string
type NotificationType string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusPaid          OrderStatus = "PAID"
	OrderStatusCancelRequest OrderStatus = "CANCEL_REQUEST"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusFailed        OrderStatus = "FAILED"

	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
	PurchaseStatusCancelled PurchaseStatus = "CANCELLED"

	ContentTypeCoaching ContentType = "COACHING"
	ContentTypeDocument ContentType = "DOCUMENT"

	BillingKeyStatusActive   BillingKeyStatus = "ACTIVE"
	BillingKeyStatusInactive BillingKeyStatus = "INACTIVE"
	BillingKeyStatusExpired  BillingKeyStatus = "EXPIRED"

	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"

	SettlementStatusPending    SettlementStatus = "PENDING"
	SettlementStatusProcessing SettlementStatus = "PROCESSING"
	SettlementStatusCompleted  SettlementStatus = "COMPLETED"
	SettlementStatusOnHold     SettlementStatus = "ON_HOLD"
	SettlementStatusCancelled  SettlementStatus = "CANCELLED"

	NotificationTypePaymentCompleted NotificationType = "payment_completed"
	NotificationTypeContentSold      NotificationType = "content_sold"
	NotificationTypePaymentRefunded  NotificationType = "payment_refunded"
	NotificationTypePurchaseRefunded NotificationType = "purchase_refunded"
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderStatusPending:       true,
	OrderStatusPaid:          true,
	OrderStatusCancelRequest: true,
	OrderStatusCancelled:     true,
	OrderStatusFailed:        true,
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !validOrderStatuses[status] {
		return "", fmt.Errorf("invalid order status: %q", s)
	}
	return status, nil
}

func ToContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeCoaching, ContentTypeDocument:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("invalid content type: %q", s)
}

var validSettlementStatuses = map[SettlementStatus]bool{
	SettlementStatusPending:    true,
	SettlementStatusProcessing: true,
	SettlementStatusCompleted:  true,
	SettlementStatusOnHold:     true,
	SettlementStatusCancelled:  true,
}

func ToSettlementStatus(s string) (SettlementStatus, error) {
	status := SettlementStatus(s)
	if !validSettlementStatuses[status] {
		return "", fmt.Errorf("invalid settlement status: %q", s)
	}
	return status, nil
}

// Approvable reports whether an administrator may start a payout.
func (s SettlementStatus) Approvable() bool {
	return s == SettlementStatusPending || s == SettlementStatusOnHold
}
