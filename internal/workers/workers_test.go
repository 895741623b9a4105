package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentpay_backend/internal/services/billing"
	"contentpay_backend/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

type mockEngine struct {
	mock.Mock
	settlement.Engine
}

func (m *mockEngine) AggregatePeriod(ctx context.Context, db *gorm.DB, period settlement.Period) (*settlement.AggregateReport, error) {
	args := m.Called(ctx, db, period)
	report, _ := args.Get(0).(*settlement.AggregateReport)
	return report, args.Error(1)
}

type mockSubscriptions struct {
	mock.Mock
	billing.SubscriptionService
}

func (m *mockSubscriptions) ChargeDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) (*billing.RenewalReport, error) {
	args := m.Called(ctx, db, now, limit)
	report, _ := args.Get(0).(*billing.RenewalReport)
	return report, args.Error(1)
}

func TestSettlementWorker_RunOnceUsesPreviousMonth(t *testing.T) {
	engine := new(mockEngine)
	w := NewSettlementWorker(nil, engine, time.Hour)
	w.now = func() time.Time { return time.Date(2025, 2, 3, 1, 0, 0, 0, time.UTC) }

	want := settlement.Period{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	engine.On("AggregatePeriod", mock.Anything, mock.Anything, want).
		Return(&settlement.AggregateReport{Period: want, Sellers: 2, Settlements: []string{"a", "b"}}, nil).Once()

	require.NoError(t, w.RunOnce(context.Background()))
	engine.AssertExpectations(t)
}

func TestSettlementWorker_RunOncePropagatesError(t *testing.T) {
	engine := new(mockEngine)
	w := NewSettlementWorker(nil, engine, time.Hour)
	engine.On("AggregatePeriod", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	assert.EqualError(t, w.RunOnce(context.Background()), "db down")
}

func TestSubscriptionWorker_TicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	service := new(mockSubscriptions)
	ticked := make(chan struct{}, 1)
	service.On("ChargeDue", mock.Anything, mock.Anything, mock.Anything, subscriptionBatchSize).
		Run(func(mock.Arguments) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		}).
		Return(&billing.RenewalReport{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewSubscriptionWorker(nil, service, 10*time.Millisecond)
	w.Start(ctx)

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never ran")
	}
	cancel()
	w.Wait()
}

func TestReconciliationWorker_StopsWithoutRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	w := NewReconciliationWorker(nil, nil, time.Hour, time.Minute, 10)
	w.Start(ctx)
	cancel()
	w.Wait()
}
