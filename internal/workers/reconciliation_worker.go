package workers

import (
	"context"
	"sync"
	"time"

	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services/payment"

	"gorm.io/gorm"
)

// ReconciliationWorker resolves orders left PENDING past the timeout, e.g.
// when the approval response never reached us.
type ReconciliationWorker struct {
	db         *gorm.DB
	reconciler *payment.Reconciler
	interval   time.Duration
	timeout    time.Duration
	batchSize  int
	wg         sync.WaitGroup
}

func NewReconciliationWorker(db *gorm.DB, reconciler *payment.Reconciler, interval, timeout time.Duration, batchSize int) *ReconciliationWorker {
	return &ReconciliationWorker{
		db:         db,
		reconciler: reconciler,
		interval:   interval,
		timeout:    timeout,
		batchSize:  batchSize,
	}
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		runEvery(ctx, "reconciliation", w.interval, w.RunOnce)
	}()
}

func (w *ReconciliationWorker) Wait() { w.wg.Wait() }

func (w *ReconciliationWorker) RunOnce(ctx context.Context) error {
	report, err := w.reconciler.ReconcileStale(ctx, w.db, w.timeout, w.batchSize)
	if err != nil {
		return err
	}
	if report.Checked > 0 {
		logger.Info("reconciliation run finished",
			"checked", report.Checked, "completed", report.Completed, "failed", report.Failed,
			"mismatch", report.Mismatch, "unchanged", report.Unchanged, "errors", report.Errors)
	}
	return nil
}
