package services

import (
	"contentpay_backend/internal/events"
	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/services/billing"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/services/settlement"
)

// ServiceContainer holds every service the HTTP layer, workers and CLI use.
type ServiceContainer struct {
	OrderService        payment.OrderService
	TransactionService  payment.TransactionService
	Executor            *payment.CommandExecutor
	Reconciler          *payment.Reconciler
	BillingKeyService   billing.BillingKeyService
	SubscriptionService billing.SubscriptionService
	SettlementEngine    settlement.Engine
	NotificationService NotificationService
}

type Options struct {
	PayoutDelayDays         int
	SubscriptionMaxFailures int
}

// NewServiceContainer wires repositories and services around one gateway
// client and one event publisher.
func NewServiceContainer(gw gateway.Client, publisher events.Publisher, repos *Repositories, opts Options) *ServiceContainer {
	txService := payment.NewTransactionService(repos.Orders, repos.PaymentRecords, repos.Purchases)
	orderService := payment.NewOrderService(repos.Orders)

	executor := payment.NewCommandExecutor(publisher,
		payment.NewMemberStrategy(gw, txService, repos.Orders, repos.PaymentRecords, repos.Purchases),
		payment.NewGuestStrategy(gw, txService, repos.Orders, repos.PaymentRecords),
	)

	keyService := billing.NewBillingKeyService(gw, repos.BillingKeys)

	return &ServiceContainer{
		OrderService:       orderService,
		TransactionService: txService,
		Executor:           executor,
		Reconciler:         payment.NewReconciler(gw, txService, repos.Orders, publisher),
		BillingKeyService:  keyService,
		SubscriptionService: billing.NewSubscriptionService(
			gw, txService, orderService, repos.Orders, repos.Subscriptions,
			repos.BillingKeys, keyService, publisher, opts.SubscriptionMaxFailures,
		),
		SettlementEngine:    settlement.NewEngine(gw, repos.Purchases, repos.Settlements, opts.PayoutDelayDays),
		NotificationService: NewNotificationService(repos.Notifications),
	}
}
