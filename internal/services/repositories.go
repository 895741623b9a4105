package services

import "contentpay_backend/internal/repositories"

type Repositories struct {
	Orders         repositories.OrderRepository
	PaymentRecords repositories.PaymentRecordRepository
	Purchases      repositories.PurchaseRepository
	BillingKeys    repositories.BillingKeyRepository
	Subscriptions  repositories.SubscriptionRepository
	Settlements    repositories.SettlementRepository
	Notifications  repositories.NotificationRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Orders:         repositories.NewOrderRepository(),
		PaymentRecords: repositories.NewPaymentRecordRepository(),
		Purchases:      repositories.NewPurchaseRepository(),
		BillingKeys:    repositories.NewBillingKeyRepository(),
		Subscriptions:  repositories.NewSubscriptionRepository(),
		Settlements:    repositories.NewSettlementRepository(),
		Notifications:  repositories.NewNotificationRepository(),
	}
}
