//go:build integration

package repositories_test

import (
	"testing"
	"time"

	"contentpay_backend/internal/database"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type postgresSuite struct {
	suite.Suite

	container *tcpostgres.PostgresContainer
	db        *gorm.DB

	orders      repositories.OrderRepository
	settlements repositories.SettlementRepository
}

// Run with: go test -tags integration ./internal/repositories/...
func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(postgresSuite))
}

func (s *postgresSuite) SetupSuite() {
	ctx := s.T().Context()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("contentpay"),
		tcpostgres.WithUsername("contentpay"),
		tcpostgres.WithPassword("contentpay"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = database.Connect(database.DriverPostgres, dsn)
	s.Require().NoError(err)
	s.Require().NoError(database.AutoMigrate(s.db))

	s.orders = repositories.NewOrderRepository()
	s.settlements = repositories.NewSettlementRepository()
}

func (s *postgresSuite) TearDownSuite() {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *postgresSuite) SetupTest() {
	for _, m := range []any{&models.SettlementItem{}, &models.Settlement{}, &models.Purchase{}, &models.PaymentRecord{}, &models.Order{}} {
		s.Require().NoError(s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error)
	}
}

func (s *postgresSuite) TestDuplicateMerchantUid() {
	uid := "ORDER-20250101-120000-PGDUP1"
	s.Require().NoError(s.orders.Create(s.db, testutil.NewOrder(testutil.WithMerchantUid(uid))))

	err := s.orders.Create(s.db, testutil.NewOrder(testutil.WithMerchantUid(uid)))
	s.Require().Error(err)
	s.True(repositories.IsDuplicate(err))
}

func (s *postgresSuite) TestOrderVersionConflict() {
	order := testutil.NewOrder(testutil.WithMerchantUid("ORDER-20250101-120000-PGVER1"))
	s.Require().NoError(s.orders.Create(s.db, order))

	stale := *order
	now := time.Now().UTC()
	order.Status = models.OrderStatusPaid
	order.PaidAt = &now
	s.Require().NoError(s.orders.UpdateStatus(s.db, order))

	stale.Status = models.OrderStatusFailed
	s.ErrorIs(s.orders.UpdateStatus(s.db, &stale), repositories.ErrVersionConflict)

	found, err := s.orders.FindByMerchantUid(s.db, order.MerchantUid)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPaid, found.Status)
	s.True(found.FinalAmount.Equal(decimal.NewFromInt(29900)))
}

func (s *postgresSuite) TestSettlementAmountsRoundTrip() {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	settlement := &models.Settlement{
		SellerID:            "seller-pg",
		PeriodStart:         start,
		PeriodEnd:           start.AddDate(0, 1, 0),
		ScheduledPayoutDate: start.AddDate(0, 1, 7),
		TotalAmount:         decimal.NewFromInt(300000),
		PgFee:               decimal.NewFromInt(9900),
		PlatformFee:         decimal.NewFromInt(15000),
		PayoutAmount:        decimal.NewFromInt(275100),
		ItemCount:           3,
		Status:              models.SettlementStatusPending,
	}
	s.Require().NoError(s.settlements.Create(s.db, settlement))

	found, err := s.settlements.FindBySellerAndPeriod(s.db, "seller-pg", settlement.PeriodStart, settlement.PeriodEnd)
	s.Require().NoError(err)
	s.True(found.PayoutAmount.Equal(decimal.NewFromInt(275100)))

	found.Status = models.SettlementStatusProcessing
	s.Require().NoError(s.settlements.UpdateWithVersion(s.db, found))

	settlement.Status = models.SettlementStatusCancelled
	s.ErrorIs(s.settlements.UpdateWithVersion(s.db, settlement), repositories.ErrVersionConflict)
}
