package workers

import (
	"context"
	"sync"
	"time"

	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services/settlement"

	"gorm.io/gorm"
)

// SettlementWorker aggregates the previous calendar month for every seller.
// Re-running for an already settled month only picks up late purchases.
type SettlementWorker struct {
	db       *gorm.DB
	engine   settlement.Engine
	interval time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewSettlementWorker(db *gorm.DB, engine settlement.Engine, interval time.Duration) *SettlementWorker {
	return &SettlementWorker{db: db, engine: engine, interval: interval, now: time.Now}
}

func (w *SettlementWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		runEvery(ctx, "settlement", w.interval, w.RunOnce)
	}()
}

// Wait blocks until the worker goroutine has returned.
func (w *SettlementWorker) Wait() { w.wg.Wait() }

func (w *SettlementWorker) RunOnce(ctx context.Context) error {
	period := settlement.PreviousMonth(w.now())
	report, err := w.engine.AggregatePeriod(ctx, w.db, period)
	if err != nil {
		return err
	}
	logger.WorkerLog("settlement", "aggregate "+period.String(), nil)
	if report.Sellers > 0 {
		logger.Info("settlement run finished",
			"period", period.String(), "sellers", report.Sellers, "settlements", len(report.Settlements),
			"items", report.Items, "failed", report.Failed)
	}
	return nil
}
