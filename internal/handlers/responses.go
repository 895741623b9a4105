package handlers

import (
	"time"

	"contentpay_backend/internal/services/payment"

	"github.com/shopspring/decimal"
)

type completionResponse struct {
	OrderID           string            `json:"order_id"`
	PurchaseID        string            `json:"purchase_id"`
	MerchantUid       string            `json:"merchant_uid"`
	ContentID         string            `json:"content_id"`
	ContentTitle      string            `json:"content_title"`
	Amount            decimal.Decimal   `json:"amount"`
	PayMethod         string            `json:"pay_method"`
	PaidAt            time.Time         `json:"paid_at"`
	SubscriptionID    string            `json:"subscription_id,omitempty"`
	SubscriptionRound int               `json:"subscription_round,omitempty"`
	NextBillingDate   *time.Time        `json:"next_billing_date,omitempty"`
	Warnings          []payment.Warning `json:"warnings,omitempty"`
}

func newCompletionResponse(c *payment.PaymentCompletion) *completionResponse {
	if c == nil {
		return nil
	}
	return &completionResponse{
		OrderID:           c.OrderID,
		PurchaseID:        c.PurchaseID,
		MerchantUid:       c.MerchantUid,
		ContentID:         c.ContentID,
		ContentTitle:      c.ContentTitle,
		Amount:            c.Amount,
		PayMethod:         c.PayMethod,
		PaidAt:            c.PaidAt,
		SubscriptionID:    c.SubscriptionID,
		SubscriptionRound: c.SubscriptionRound,
		NextBillingDate:   c.NextBillingDate,
		Warnings:          c.Warnings,
	}
}

type cancellationResponse struct {
	OrderID             string          `json:"order_id"`
	MerchantUid         string          `json:"merchant_uid"`
	Amount              decimal.Decimal `json:"amount"`
	Reason              string          `json:"reason"`
	CancelTransactionID string          `json:"cancel_transaction_id"`
	CancelledAt         time.Time       `json:"cancelled_at"`
}

func newCancellationResponse(c *payment.PaymentCancellation) *cancellationResponse {
	return &cancellationResponse{
		OrderID:             c.OrderID,
		MerchantUid:         c.MerchantUid,
		Amount:              c.Amount,
		Reason:              c.Reason,
		CancelTransactionID: c.CancelTransactionID,
		CancelledAt:         c.CancelledAt,
	}
}
