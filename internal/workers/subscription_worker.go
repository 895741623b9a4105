package workers

import (
	"context"
	"sync"
	"time"

	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services/billing"

	"gorm.io/gorm"
)

const subscriptionBatchSize = 100

// SubscriptionWorker charges subscriptions whose next billing date has passed.
type SubscriptionWorker struct {
	db       *gorm.DB
	service  billing.SubscriptionService
	interval time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewSubscriptionWorker(db *gorm.DB, service billing.SubscriptionService, interval time.Duration) *SubscriptionWorker {
	return &SubscriptionWorker{db: db, service: service, interval: interval, now: time.Now}
}

func (w *SubscriptionWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		runEvery(ctx, "subscription", w.interval, w.RunOnce)
	}()
}

func (w *SubscriptionWorker) Wait() { w.wg.Wait() }

func (w *SubscriptionWorker) RunOnce(ctx context.Context) error {
	report, err := w.service.ChargeDue(ctx, w.db, w.now().UTC(), subscriptionBatchSize)
	if err != nil {
		return err
	}
	if report.Due > 0 {
		logger.Info("subscription renewals finished",
			"due", report.Due, "charged", report.Charged, "failed", report.Failed, "past_due", report.PastDue, "skipped", report.Skipped)
	}
	return nil
}
